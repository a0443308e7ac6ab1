package bootstrap

import (
	"net/http"

	"github.com/brandoncintron/power-projects-sub000/internal/cache"
	"github.com/brandoncintron/power-projects-sub000/internal/config"
	"github.com/brandoncintron/power-projects-sub000/internal/metrics"
	"github.com/brandoncintron/power-projects-sub000/internal/services"
	"github.com/brandoncintron/power-projects-sub000/internal/store"
	"github.com/brandoncintron/power-projects-sub000/internal/stream"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config

	// Core infrastructure
	DB                   *store.Store
	MetricsRecorder      metrics.Recorder
	MembershipCache      cache.Cache[bool]
	Registry             *stream.Registry
	RateLimitRedisClient *redis.Client

	// Services
	UserService        *services.UserService
	ProjectService     *services.ProjectService
	ActivityService    *services.ActivityService
	WebhookService     *services.WebhookService
	RepositoryService  *services.RepositoryService
	StreamTokenService *services.StreamTokenService

	// HTTP
	HandlerSet handlerSet
	Router     *gin.Engine
	Server     *http.Server
}

// Run initializes and starts the application
func Run(cfg *config.Config) error {
	app := &Application{Config: cfg}

	// Phase 1: Validate configuration
	validateAllConfiguration(cfg)

	// Phase 2: Initialize infrastructure
	if err := app.initializeInfrastructure(); err != nil {
		return err
	}

	// Phase 3: Initialize business layer
	if err := app.initializeBusinessLayer(); err != nil {
		return err
	}

	// Phase 4: Initialize HTTP layer
	app.initializeHTTPLayer()

	// Phase 5: Start server with graceful shutdown
	app.startWithGracefulShutdown()

	return nil
}

// initializeInfrastructure sets up database, metrics, caches, Redis, and
// the stream registry
func (app *Application) initializeInfrastructure() error {
	var err error

	app.DB, err = initializeDatabase(app.Config)
	if err != nil {
		return err
	}

	app.MetricsRecorder = initializeMetrics(app.Config)

	app.MembershipCache, err = initializeMembershipCache(app.Config)
	if err != nil {
		return err
	}

	app.RateLimitRedisClient, err = initializeRateLimitRedisClient(app.Config)
	if err != nil {
		return err
	}

	app.Registry = stream.NewRegistry(app.Config.StreamMaxPerProject)

	return nil
}

// initializeBusinessLayer sets up services
func (app *Application) initializeBusinessLayer() error {
	var err error

	app.UserService,
		app.ProjectService,
		app.ActivityService,
		app.WebhookService,
		app.RepositoryService,
		app.StreamTokenService, err = initializeServices(
		app.Config,
		app.DB,
		app.Registry,
		app.MembershipCache,
		app.MetricsRecorder,
	)
	return err
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() {
	app.HandlerSet = initializeHandlers(
		app.Config,
		app.UserService,
		app.ProjectService,
		app.ActivityService,
		app.WebhookService,
		app.RepositoryService,
		app.StreamTokenService,
		app.Registry,
		app.MetricsRecorder,
	)

	app.Router = setupRouter(
		app.Config,
		app.DB,
		app.HandlerSet,
		app.MetricsRecorder,
		app.RateLimitRedisClient,
	)

	app.Server = createHTTPServer(app.Config, app.Router)
}
