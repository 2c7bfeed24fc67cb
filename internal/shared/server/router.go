package server

import (
	"github.com/gin-gonic/gin"

	googleauth "registry-backend/internal/auth"
	"registry-backend/internal/files"
	"registry-backend/internal/services/health"
	"registry-backend/internal/shared/auth"
	"registry-backend/internal/shared/config"
	"registry-backend/internal/shared/metrics"
	"registry-backend/internal/shared/server/middleware"
	"registry-backend/internal/users"
)

const authRateGroup = "auth"

var authRateRule = middleware.RateLimitRule{Rate: 0.5, Burst: 10}

// RouterDeps carries the handlers NewRouter mounts.
type RouterDeps struct {
	Config      config.Config
	Signer      *auth.Signer
	Identities  middleware.UserLookup
	UserHandler *users.Handler
	FileHandler *files.Handler
	GoogleAuth  *googleauth.GoogleService
	Health      *health.Service
	RateLimiter *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Metrics(),
	)

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService(nil)
	}
	r.GET("/health", healthSvc.Handle)
	r.GET("/metrics", metrics.Handler())

	requireAuth := middleware.Auth(deps.Signer, deps.Identities)

	authGroup := r.Group("/api/auth")
	limited := authGroup.Group("", middleware.RateLimit(deps.RateLimiter, authRateGroup, authRateRule))
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterPublicRoutes(limited)
		deps.UserHandler.RegisterRoutes(authGroup.Group("", requireAuth))
	}
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(limited)
	}

	if deps.FileHandler != nil {
		deps.FileHandler.RegisterRoutes(r.Group("/api/files"),
			requireAuth, middleware.AuthAllowQuery(deps.Signer, deps.Identities))
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":5000"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
