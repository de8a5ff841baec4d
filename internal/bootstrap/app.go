package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"filing-backend/internal/canonical"
	"filing-backend/internal/documents"
	"filing-backend/internal/extract"
	"filing-backend/internal/llm"
	"filing-backend/internal/pipeline"
	"filing-backend/internal/services/health"
	"filing-backend/internal/shared/cache"
	"filing-backend/internal/shared/config"
	"filing-backend/internal/shared/server"
	"filing-backend/internal/shared/storage/db"
	"filing-backend/internal/shared/storage/object"
	localstore "filing-backend/internal/shared/storage/object/local"
	s3store "filing-backend/internal/shared/storage/object/s3"
	"filing-backend/internal/usage"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config   config.Config
	Router   *gin.Engine
	DB       *sqlx.DB
	Store    object.ObjectStore
	Cache    cache.Cache
	Text     *extract.Extractor
	LLM      *llm.Extractor
	Docs     *documents.Service
	Usage    *usage.Service
	Engine   *canonical.Engine
	Pipeline *pipeline.Pipeline

	closers []func() error
}

// Build prepares shared dependencies and the HTTP router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	app := &App{Config: cfg}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if sqlDB != nil {
		app.DB = sqlDB
		app.closers = append(app.closers, sqlDB.Close)
	}

	app.Store, err = buildStore(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Cache = buildCache(ctx, cfg, app)

	if err := buildServices(ctx, app); err != nil {
		app.Close()
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:    cfg,
		Pipeline:  pipeline.NewHandler(app.Pipeline),
		Documents: documents.NewHandler(app.Docs),
		Profile:   canonical.NewHandler(app.Engine),
		Usage:     usage.NewHandler(app.Usage),
		Health:    app.healthChecks(),
	})
	return app, nil
}

func (a *App) healthChecks() *health.Service {
	svc := health.NewService()
	if a.DB != nil {
		svc.Add("database", a.DB.PingContext)
	}
	if p, ok := a.Cache.(interface{ Ping(context.Context) error }); ok {
		svc.Add("cache", p.Ping)
	}
	return svc
}

// Close releases the database pool and cache connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	var dsn string
	switch cfg.DBDriver {
	case db.DriverSQLite:
		dsn = cfg.SQLitePath
	default:
		dsn = cfg.DatabaseURL
	}
	if strings.TrimSpace(dsn) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: no database configured; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL or SQLITE_PATH is required")
	}

	sqlDB, err := db.Open(ctx, cfg.DBDriver, dsn, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB)
		if err != nil {
			sqlDB.Close()
		}
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database unavailable; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildCache(ctx context.Context, cfg config.Config, app *App) cache.Cache {
	if cfg.RedisURL == "" {
		return cache.NewMemory()
	}
	rdb, err := cache.Dial(ctx, cfg.RedisURL)
	if err != nil {
		log.Printf("bootstrap: redis unavailable; caching extracted text in memory: %v", err)
		return cache.NewMemory()
	}
	app.closers = append(app.closers, rdb.Close)
	return rdb
}

func buildServices(ctx context.Context, app *App) error {
	cfg := app.Config

	var (
		docRepo     documents.Repo
		profileRepo canonical.Repo
	)
	if app.DB != nil {
		docRepo = documents.NewSQLRepo(app.DB)
		profileRepo = canonical.NewSQLRepo(app.DB)
		app.Usage = usage.NewSQLService(usage.NewSQLStore(app.DB))
	} else {
		docRepo = documents.NewMemoryRepo()
		profileRepo = canonical.NewMemoryRepo()
		app.Usage = usage.NewService()
	}

	app.Docs = documents.NewService(app.Store, docRepo)
	app.Engine = canonical.NewEngine(profileRepo, app.Docs)
	app.Text = &extract.Extractor{
		OCR: &extract.Tesseract{
			Binary:   cfg.OCRTesseract,
			Pdftoppm: cfg.OCRPdftoppm,
			Lang:     cfg.OCRLang,
			DPI:      cfg.OCRDPI,
		},
		Cache:        app.Cache,
		CacheTTL:     cfg.TextCacheTTL,
		MinTextChars: cfg.OCRMinTextChars,
	}

	mode, err := pipeline.ParseMode(cfg.LLMMode)
	if err != nil {
		return err
	}
	if mode != pipeline.ModeOff {
		app.LLM, err = BuildLLM(ctx, cfg)
		if err != nil {
			return err
		}
		if !app.LLM.Enabled() {
			log.Printf("bootstrap: LLM_MODE=%s but LLM_PROVIDER=none; model extraction disabled", mode)
		}
	}

	app.Pipeline = &pipeline.Pipeline{
		Docs:   app.Docs,
		Text:   app.Text,
		LLM:    app.LLM,
		Mode:   mode,
		Engine: app.Engine,
		Usage:  app.Usage,
	}
	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
