package bootstrap

import (
	"errors"
	"fmt"
	"log"

	"github.com/brandoncintron/power-projects-sub000/internal/config"
)

// validateAllConfiguration validates all configuration settings
func validateAllConfiguration(cfg *config.Config) {
	if err := validateDatabaseConfig(cfg); err != nil {
		log.Fatalf("Invalid database configuration: %v", err)
	}
	if err := validateStreamConfig(cfg); err != nil {
		log.Fatalf("Invalid stream configuration: %v", err)
	}
	if err := validateCacheConfig(cfg); err != nil {
		log.Fatalf("Invalid cache configuration: %v", err)
	}
	if err := validateRateLimitConfig(cfg); err != nil {
		log.Fatalf("Invalid rate limit configuration: %v", err)
	}
	warnInsecureDefaults(cfg)
}

// validateDatabaseConfig checks that the selected driver has a usable DSN
func validateDatabaseConfig(cfg *config.Config) error {
	switch cfg.DatabaseDriver {
	case "sqlite":
		if cfg.DatabaseDSN == "" {
			return errors.New("DATABASE_DSN is required for sqlite")
		}
	case "postgres":
		if cfg.DatabaseDSN == "" {
			return errors.New("DATABASE_DSN is required when DATABASE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("invalid DATABASE_DRIVER: %s (must be: sqlite, postgres)", cfg.DatabaseDriver)
	}
	return nil
}

// validateStreamConfig checks stream sizing settings
func validateStreamConfig(cfg *config.Config) error {
	if cfg.ActivityFeedLimit <= 0 {
		return errors.New("ACTIVITY_FEED_LIMIT must be positive")
	}
	if cfg.StreamBufferSize <= 0 {
		return errors.New("STREAM_BUFFER_SIZE must be positive")
	}
	if cfg.StreamMaxPerProject < 0 {
		return errors.New("STREAM_MAX_PER_PROJECT must not be negative")
	}
	if cfg.StreamHeartbeat <= 0 {
		return errors.New("STREAM_HEARTBEAT_INTERVAL must be positive")
	}
	return nil
}

// validateCacheConfig checks the membership cache backend selection
func validateCacheConfig(cfg *config.Config) error {
	switch cfg.MembershipCacheBackend {
	case "memory", "redis":
		return nil
	default:
		return fmt.Errorf(
			"invalid MEMBERSHIP_CACHE_BACKEND: %s (must be: memory, redis)",
			cfg.MembershipCacheBackend,
		)
	}
}

// validateRateLimitConfig checks the rate limit store selection
func validateRateLimitConfig(cfg *config.Config) error {
	if !cfg.EnableRateLimit {
		return nil
	}
	switch cfg.RateLimitStore {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid RATE_LIMIT_STORE: %s (must be: memory, redis)", cfg.RateLimitStore)
	}
	if cfg.LoginRateLimit <= 0 || cfg.WebhookRateLimit <= 0 {
		return errors.New("rate limits must be positive")
	}
	return nil
}

// warnInsecureDefaults logs when production runs with development secrets
func warnInsecureDefaults(cfg *config.Config) {
	if !cfg.IsProduction {
		return
	}
	if cfg.SessionSecret == "session-secret-change-in-production" {
		log.Println("WARNING: SESSION_SECRET is using the development default")
	}
	if cfg.JWTSecret == "your-256-bit-secret-change-in-production" {
		log.Println("WARNING: JWT_SECRET is using the development default")
	}
}
