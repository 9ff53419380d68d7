package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"library-backend/internal/library"
	"library-backend/internal/services/health"
	"library-backend/internal/shared/config"
	"library-backend/internal/shared/metrics"
	"library-backend/internal/shared/server/middleware"
	"library-backend/internal/shared/server/respond"
)

// RouterDeps are the handlers mounted by NewRouter.
type RouterDeps struct {
	Config  config.Config
	Library *library.Handler
	Health  *health.Service
	// RateLimiter is shared across requests. Nil builds a default limiter.
	RateLimiter *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Config.Env),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:    middleware.DefaultLibraryRules(),
			GroupFor: middleware.LibraryGroup,
			Limiter:  deps.RateLimiter,
		}),
	)

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService(0)
	}

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		report := healthSvc.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})
	registerMeRoutes(api)
	if deps.Library != nil {
		deps.Library.RegisterRoutes(api)
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
