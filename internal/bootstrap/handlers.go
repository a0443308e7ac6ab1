package bootstrap

import (
	"github.com/brandoncintron/power-projects-sub000/internal/config"
	"github.com/brandoncintron/power-projects-sub000/internal/handlers"
	"github.com/brandoncintron/power-projects-sub000/internal/metrics"
	"github.com/brandoncintron/power-projects-sub000/internal/services"
	"github.com/brandoncintron/power-projects-sub000/internal/stream"
)

// handlerSet holds all HTTP handlers
type handlerSet struct {
	auth     *handlers.AuthHandler
	project  *handlers.ProjectHandler
	activity *handlers.ActivityHandler
	webhook  *handlers.WebhookHandler
}

// initializeHandlers creates all HTTP handlers
func initializeHandlers(
	cfg *config.Config,
	userService *services.UserService,
	projectService *services.ProjectService,
	activityService *services.ActivityService,
	webhookService *services.WebhookService,
	repositoryService *services.RepositoryService,
	streamTokenService *services.StreamTokenService,
	registry *stream.Registry,
	recorder metrics.Recorder,
) handlerSet {
	return handlerSet{
		auth:    handlers.NewAuthHandler(userService),
		project: handlers.NewProjectHandler(projectService, repositoryService),
		activity: handlers.NewActivityHandler(
			activityService,
			projectService,
			streamTokenService,
			registry,
			recorder,
			handlers.ActivityHandlerConfig{
				FeedLimit:         cfg.ActivityFeedLimit,
				StreamBufferSize:  cfg.StreamBufferSize,
				HeartbeatInterval: cfg.StreamHeartbeat,
			},
		),
		webhook: handlers.NewWebhookHandler(webhookService),
	}
}
