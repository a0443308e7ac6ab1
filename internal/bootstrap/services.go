package bootstrap

import (
	"fmt"

	"github.com/brandoncintron/power-projects-sub000/internal/cache"
	"github.com/brandoncintron/power-projects-sub000/internal/config"
	"github.com/brandoncintron/power-projects-sub000/internal/metrics"
	"github.com/brandoncintron/power-projects-sub000/internal/services"
	"github.com/brandoncintron/power-projects-sub000/internal/store"
	"github.com/brandoncintron/power-projects-sub000/internal/stream"
)

// initializeServices creates all business logic services
func initializeServices(
	cfg *config.Config,
	db *store.Store,
	registry *stream.Registry,
	membershipCache cache.Cache[bool],
	recorder metrics.Recorder,
) (
	*services.UserService,
	*services.ProjectService,
	*services.ActivityService,
	*services.WebhookService,
	*services.RepositoryService,
	*services.StreamTokenService,
	error,
) {
	userService := services.NewUserService(db)
	projectService := services.NewProjectService(db, membershipCache, cfg.MembershipCacheTTL)
	activityService := services.NewActivityService(db, registry, recorder)
	webhookService := services.NewWebhookService(db, activityService, recorder)

	verifier, err := services.NewGithubVerifier(services.GithubVerifierConfig{
		BaseURL:       cfg.GitHubAPIBaseURL,
		Token:         cfg.GitHubAPIToken,
		Timeout:       cfg.GitHubAPITimeout,
		MaxRetries:    cfg.GitHubAPIMaxRetries,
		RetryDelay:    cfg.GitHubAPIRetryDelay,
		MaxRetryDelay: cfg.GitHubAPIMaxRetryDly,
	})
	if err != nil {
		return nil, nil, nil, nil, nil, nil,
			fmt.Errorf("failed to initialize github verifier: %w", err)
	}
	repositoryService := services.NewRepositoryService(db, verifier)

	streamTokenService := services.NewStreamTokenService(cfg.JWTSecret, cfg.StreamTokenTTL)

	return userService,
		projectService,
		activityService,
		webhookService,
		repositoryService,
		streamTokenService,
		nil
}
