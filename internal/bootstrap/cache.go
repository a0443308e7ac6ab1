package bootstrap

import (
	"fmt"
	"log"

	"github.com/brandoncintron/power-projects-sub000/internal/cache"
	"github.com/brandoncintron/power-projects-sub000/internal/config"
	"github.com/brandoncintron/power-projects-sub000/internal/metrics"
)

// initializeMetrics initializes Prometheus metrics
func initializeMetrics(cfg *config.Config) metrics.Recorder {
	recorder := metrics.Init(cfg.MetricsEnabled)
	if cfg.MetricsEnabled {
		log.Println("Prometheus metrics initialized")
	} else {
		log.Println("Metrics disabled (using noop implementation)")
	}
	return recorder
}

// initializeMembershipCache initializes the project membership cache used
// by stream authorization. Redis-backed instances share invalidations via
// rueidis client-side caching; memory is single instance only.
func initializeMembershipCache(cfg *config.Config) (cache.Cache[bool], error) {
	switch cfg.MembershipCacheBackend {
	case "redis":
		c, err := cache.NewRueidisBoolCache(
			cfg.RedisAddr,
			cfg.RedisPassword,
			cfg.RedisDB,
			"powerprojects:members:",
			cfg.MembershipCacheTTL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis membership cache: %w", err)
		}
		log.Printf("Membership cache: redis (addr=%s, db=%d, ttl=%s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.MembershipCacheTTL)
		return c, nil

	default: // memory
		log.Println("Membership cache: memory (single instance only)")
		return cache.NewMemoryCache[bool](), nil
	}
}
