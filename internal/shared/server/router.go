package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"filing-backend/internal/services/health"
	"filing-backend/internal/shared/config"
	"filing-backend/internal/shared/metrics"
	"filing-backend/internal/shared/server/middleware"
	"filing-backend/internal/shared/server/respond"
)

// RouteRegistrar is implemented by every domain handler.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// LimitedRegistrar registers routes where the writes share an upload limit.
type LimitedRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup, limit gin.HandlerFunc)
}

// RouterDeps carries the handlers mounted under /api/v1.
type RouterDeps struct {
	Config    config.Config
	Pipeline  LimitedRegistrar
	Documents RouteRegistrar
	Profile   RouteRegistrar
	Usage     RouteRegistrar
	Health    *health.Service
	// Limiter is shared across rate-limited routes; nil uses a fresh one.
	Limiter *middleware.RateLimiter
}

const uploadGroup = "UPLOAD"

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
	)

	api := r.Group("/api/v1")
	api.Use(middleware.Auth(middleware.AuthConfig{
		Env:    cfg.Env,
		Secret: cfg.JWTSecret,
		Public: []string{"/api/v1/health", "/api/v1/metrics"},
	}))
	api.GET("/health", func(c *gin.Context) {
		report := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})
	api.GET("/metrics", metrics.Handler())
	registerMeRoutes(api, time.Now)

	limit := middleware.RateLimit(middleware.RateLimitConfig{
		DefaultGroup: uploadGroup,
		Limiter:      deps.Limiter,
		Rules: map[string]middleware.RateLimitRule{
			uploadGroup: middleware.PerMinute(cfg.UploadRatePerMin),
		},
	})
	if deps.Pipeline != nil {
		deps.Pipeline.RegisterRoutes(api, limit)
	}
	for _, h := range []RouteRegistrar{deps.Documents, deps.Profile, deps.Usage} {
		if h != nil {
			h.RegisterRoutes(api)
		}
	}
	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
