package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string

	DBDriver    string
	DatabaseURL string
	SQLitePath  string

	RedisURL     string
	TextCacheTTL time.Duration

	LLMProvider    string
	LLMModel       string
	LLMBaseURL     string
	LLMAPIKey      string
	LLMMode        string
	LLMMaxChars    int
	LLMPricingFile string

	OCRTesseract    string
	OCRPdftoppm     string
	OCRLang         string
	OCRDPI          int
	OCRMinTextChars int

	UploadRatePerMin int

	JWTSecret string
}

var defaults = map[string]any{
	"port":                "8080",
	"env":                 "dev",
	"cors_allow_origins":  "http://localhost:5173",
	"object_store":        "local",
	"local_store_dir":     "./data",
	"db_driver":           "postgres",
	"sqlite_path":         "./data/filing.db",
	"text_cache_ttl":      "24h",
	"llm_provider":        "none",
	"llm_mode":            "off",
	"llm_max_chars":       8000,
	"ocr_tesseract":       "tesseract",
	"ocr_pdftoppm":        "pdftoppm",
	"ocr_lang":            "eng",
	"ocr_dpi":             300,
	"ocr_min_text_chars":  10,
	"upload_rate_per_min": 20,
}

// providerKeyEnv names the vendor key consulted when LLM_API_KEY is unset.
var providerKeyEnv = map[string]string{
	"openai":    "openai_api_key",
	"compat":    "openai_api_key",
	"anthropic": "anthropic_api_key",
	"gemini":    "gemini_api_key",
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return LoadFrom(viper.New())
}

// BindFlags registers command-line overrides on fs and binds them into v.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	fs.String("port", "", "HTTP listen port")
	fs.String("env", "", "environment (dev, local, staging, production)")
	fs.String("config", "", "optional config file (yaml or env)")
	fs.String("db-driver", "", "database driver: postgres or sqlite")
	fs.String("llm-mode", "", "LLM usage: off, prefer or assist")
	for _, name := range []string{"port", "env", "config", "db-driver", "llm-mode"} {
		key := strings.ReplaceAll(name, "-", "_")
		if name == "config" {
			key = "config_file"
		}
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return err
		}
	}
	return nil
}

// LoadFrom resolves configuration from v, environment variables and an optional config file.
func LoadFrom(v *viper.Viper) Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file := strings.TrimSpace(v.GetString("config_file")); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			log.Printf("config file %s not loaded: %v", file, err)
		}
	}

	env := normalizeEnv(v.GetString("env"))
	dbURL := strings.TrimSpace(v.GetString("database_url"))
	driver := normalizeDriver(v.GetString("db_driver"))
	if env == "production" && driver == "postgres" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}
	if env == "production" && strings.TrimSpace(v.GetString("jwt_secret")) == "" {
		log.Printf("JWT_SECRET is required in production")
	}

	provider := normalizeProvider(v.GetString("llm_provider"))
	apiKey := strings.TrimSpace(v.GetString("llm_api_key"))
	if apiKey == "" {
		apiKey = strings.TrimSpace(v.GetString(providerKeyEnv[provider]))
	}

	ttl := v.GetDuration("text_cache_ttl")
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return Config{
		Port:             v.GetString("port"),
		Env:              env,
		CORSAllowOrigin:  splitAndTrim(v.GetString("cors_allow_origins")),
		ObjectStoreType:  normalizeStoreType(v.GetString("object_store")),
		LocalStoreDir:    v.GetString("local_store_dir"),
		AWSRegion:        v.GetString("aws_region"),
		S3Bucket:         v.GetString("s3_bucket"),
		S3Prefix:         v.GetString("s3_prefix"),
		SSEKMSKeyID:      v.GetString("sse_kms_key_id"),
		DBDriver:         driver,
		DatabaseURL:      dbURL,
		SQLitePath:       v.GetString("sqlite_path"),
		RedisURL:         strings.TrimSpace(v.GetString("redis_url")),
		TextCacheTTL:     ttl,
		LLMProvider:      provider,
		LLMModel:         strings.TrimSpace(v.GetString("llm_model")),
		LLMBaseURL:       strings.TrimSpace(v.GetString("llm_base_url")),
		LLMAPIKey:        apiKey,
		LLMMode:          normalizeLLMMode(v.GetString("llm_mode")),
		LLMMaxChars:      v.GetInt("llm_max_chars"),
		LLMPricingFile:   v.GetString("llm_pricing_file"),
		OCRTesseract:     v.GetString("ocr_tesseract"),
		OCRPdftoppm:      v.GetString("ocr_pdftoppm"),
		OCRLang:          v.GetString("ocr_lang"),
		OCRDPI:           v.GetInt("ocr_dpi"),
		OCRMinTextChars:  v.GetInt("ocr_min_text_chars"),
		UploadRatePerMin: v.GetInt("upload_rate_per_min"),
		JWTSecret:        strings.TrimSpace(v.GetString("jwt_secret")),
	}
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeDriver(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sqlite", "sqlite3":
		return "sqlite"
	default:
		return "postgres"
	}
}

func normalizeProvider(raw string) string {
	switch p := strings.ToLower(strings.TrimSpace(raw)); p {
	case "openai", "compat", "anthropic", "gemini":
		return p
	case "claude":
		return "anthropic"
	default:
		return "none"
	}
}

func normalizeLLMMode(raw string) string {
	switch m := strings.ToLower(strings.TrimSpace(raw)); m {
	case "prefer", "assist":
		return m
	default:
		return "off"
	}
}
