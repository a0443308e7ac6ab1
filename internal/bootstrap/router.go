package bootstrap

import (
	"log"
	"net/http"

	"github.com/brandoncintron/power-projects-sub000/internal/config"
	"github.com/brandoncintron/power-projects-sub000/internal/metrics"
	"github.com/brandoncintron/power-projects-sub000/internal/middleware"
	"github.com/brandoncintron/power-projects-sub000/internal/store"
	"github.com/brandoncintron/power-projects-sub000/internal/util"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(
	cfg *config.Config,
	db *store.Store,
	h handlerSet,
	recorder metrics.Recorder,
	rateLimitRedisClient *redis.Client,
) *gin.Engine {
	setupGinMode(cfg)
	r := gin.New()

	r.Use(metrics.HTTPMetricsMiddleware(recorder))
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(util.IPMiddleware())

	setupSessionMiddleware(r, cfg)

	// Health check endpoint
	r.GET("/health", createHealthCheckHandler(db))

	setupMetricsEndpoint(r, cfg)

	rateLimiters := setupRateLimiting(cfg, rateLimitRedisClient)

	setupAllRoutes(r, h, rateLimiters)

	logServerStartup(cfg)

	return r
}

// setupSessionMiddleware configures session handling middleware
func setupSessionMiddleware(r *gin.Engine, cfg *config.Config) {
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.IsProduction,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("pp_session", sessionStore))
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config) {
	switch {
	case !cfg.MetricsEnabled:
		log.Printf("Prometheus metrics disabled")
	case cfg.MetricsToken != "":
		log.Printf("Prometheus metrics enabled at /metrics with Bearer token authentication")
		r.GET(
			"/metrics",
			middleware.MetricsAuth(cfg.MetricsToken),
			gin.WrapH(promhttp.Handler()),
		)
	default:
		log.Printf("Prometheus metrics enabled at /metrics (no authentication)")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// setupAllRoutes configures all application routes
func setupAllRoutes(r *gin.Engine, h handlerSet, rateLimiters rateLimitMiddlewares) {
	// Account routes (public)
	r.POST("/register", rateLimiters.login, h.auth.Register)
	r.POST("/login", rateLimiters.login, h.auth.Login)
	r.GET("/logout", h.auth.Logout)

	// Webhook ingestion (GitHub authenticates with per-connection HMAC,
	// not a session)
	r.POST("/webhooks/github/:id", rateLimiters.webhook, h.webhook.Receive)

	// SSE stream: session when present, otherwise a stream token in the
	// query string
	r.GET("/projects/:id/activity/stream", middleware.OptionalAuth(), h.activity.Stream)

	// JSON API (requires login)
	api := r.Group("/api")
	api.Use(middleware.RequireAuth())
	{
		api.GET("/me", h.auth.Me)

		api.POST("/projects", h.project.Create)
		api.GET("/projects", h.project.List)
		api.GET("/projects/:id", h.project.Get)
		api.PUT("/projects/:id", h.project.Update)
		api.DELETE("/projects/:id", h.project.Delete)

		api.POST("/projects/:id/collaborators", h.project.AddCollaborator)
		api.DELETE("/projects/:id/collaborators/:userID", h.project.RemoveCollaborator)

		api.POST("/projects/:id/repository", h.project.ConnectRepository)
		api.GET("/projects/:id/repository", h.project.GetRepository)
		api.DELETE("/projects/:id/repository", h.project.DisconnectRepository)

		api.GET("/projects/:id/activity", h.activity.List)
		api.POST("/projects/:id/activity/token", h.activity.MintStreamToken)
	}
}

// createHealthCheckHandler creates health check endpoint handler
func createHealthCheckHandler(db *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch err := db.Health(); err {
		case nil:
			c.JSON(http.StatusOK, gin.H{
				"status":   "healthy",
				"database": "connected",
			})
		default:
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "disconnected",
			})
		}
	}
}

// setupGinMode sets Gin mode based on environment configuration
func setupGinMode(cfg *config.Config) {
	mode := ginModeMap[cfg.IsProduction]
	gin.SetMode(mode)
	log.Printf("Gin mode: %s", ginModeLogMessage[cfg.IsProduction])
}

var ginModeMap = map[bool]string{
	true:  gin.ReleaseMode,
	false: gin.DebugMode,
}

var ginModeLogMessage = map[bool]string{
	true:  "Release (production)",
	false: "Debug (development)",
}

// logServerStartup logs server startup information
func logServerStartup(cfg *config.Config) {
	log.Printf("Power Projects server starting on %s", cfg.ServerAddr)
	log.Printf("Activity stream endpoint: %s/projects/:id/activity/stream", cfg.BaseURL)
	log.Printf("Webhook ingestion endpoint: %s/webhooks/github/:id", cfg.BaseURL)
}
