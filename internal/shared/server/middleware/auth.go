package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"filing-backend/internal/shared/auth"
	"filing-backend/internal/shared/server/respond"
	"filing-backend/internal/shared/telemetry"
)

const (
	userIDKey   = "userId"
	identityKey = "identity"
)

// Identity sources.
const (
	SourceBearer = "bearer"
	SourceGuest  = "guest"
)

// Identity is the caller resolved by Auth. ExpiresAt is zero for guests.
type Identity struct {
	UserID    string
	Email     string
	Name      string
	Guest     bool
	Source    string
	ExpiresAt time.Time
}

// AuthConfig configures identity resolution.
type AuthConfig struct {
	Env    string
	Secret string
	// Public lists path prefixes served without identity.
	Public []string
}

// Auth validates JWTs or guest headers and stores identity in context.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	secret, err := auth.Secret(cfg.Env, cfg.Secret)
	if err != nil {
		telemetry.Error("auth.secret_missing", map[string]any{"env": cfg.Env, "error": err.Error()})
	}
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		path := c.Request.URL.Path
		for _, prefix := range cfg.Public {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))

		if authHeader != "" {
			if !strings.HasPrefix(authHeader, "Bearer ") || secret == nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
			if token == "" {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			claims, err := auth.VerifyJWT(secret, token)
			if err != nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			id := Identity{
				UserID: claims.Subject,
				Email:  claims.Email,
				Name:   claims.Name,
				Source: SourceBearer,
			}
			if claims.ExpiresAt != nil {
				id.ExpiresAt = claims.ExpiresAt.Time.UTC()
			}
			setIdentity(c, id)
			c.Next()
			return
		}

		guestID := strings.TrimSpace(c.GetHeader("X-Guest-Id"))
		if guestID == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
			return
		}

		setIdentity(c, Identity{UserID: "guest:" + guestID, Guest: true, Source: SourceGuest})
		c.Next()
	}
}

func setIdentity(c *gin.Context, id Identity) {
	c.Set(identityKey, id)
	c.Set(userIDKey, id.UserID)
	c.Set("isGuest", id.Guest)
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// IdentityFromContext returns the identity set by the auth middleware.
func IdentityFromContext(c *gin.Context) (Identity, bool) {
	if c == nil {
		return Identity{}, false
	}
	val, _ := c.Get(identityKey)
	id, ok := val.(Identity)
	return id, ok
}
