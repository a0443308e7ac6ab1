package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server settings
	ServerAddr   string
	BaseURL      string
	IsProduction bool

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string // Database connection string (DSN or path)

	// Session settings
	SessionSecret string
	SessionMaxAge int // seconds

	// Stream token settings (JWT handed to EventSource clients)
	JWTSecret      string
	StreamTokenTTL time.Duration

	// Activity stream settings
	ActivityFeedLimit    int           // Max records in a live feed snapshot
	StreamBufferSize     int           // Per-connection outbound buffer
	StreamMaxPerProject  int           // Connection cap per project bucket
	StreamHeartbeat      time.Duration // Liveness ping interval
	WebhookSecret        string        // Fallback secret when a connection has none
	GitHubAPIBaseURL     string
	GitHubAPIToken       string // Optional, raises rate limits on repo verification
	GitHubAPITimeout     time.Duration
	GitHubAPIMaxRetries  int
	GitHubAPIRetryDelay  time.Duration
	GitHubAPIMaxRetryDly time.Duration

	// Rate limiting
	EnableRateLimit          bool
	RateLimitStore           string // "memory" or "redis"
	RedisAddr                string
	RedisPassword            string
	RedisDB                  int
	LoginRateLimit           int // requests per minute
	WebhookRateLimit         int // requests per minute
	RateLimitCleanupInterval time.Duration

	// Membership cache (authorization lookups for the stream endpoint)
	MembershipCacheBackend string // "memory" or "redis"
	MembershipCacheTTL     time.Duration

	// Metrics
	MetricsEnabled bool
	MetricsToken   string
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	// Determine database driver and DSN
	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", "power_projects.db")
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	return &Config{
		ServerAddr:   getEnv("SERVER_ADDR", ":8080"),
		BaseURL:      getEnv("BASE_URL", "http://localhost:8080"),
		IsProduction: getEnvBool("PRODUCTION", false),

		DatabaseDriver: driver,
		DatabaseDSN:    dsn,

		SessionSecret: getEnv("SESSION_SECRET", "session-secret-change-in-production"),
		SessionMaxAge: getEnvInt("SESSION_MAX_AGE", 86400*7),

		JWTSecret:      getEnv("JWT_SECRET", "your-256-bit-secret-change-in-production"),
		StreamTokenTTL: getEnvDuration("STREAM_TOKEN_TTL", 5*time.Minute),

		ActivityFeedLimit:    getEnvInt("ACTIVITY_FEED_LIMIT", 50),
		StreamBufferSize:     getEnvInt("STREAM_BUFFER_SIZE", 16),
		StreamMaxPerProject:  getEnvInt("STREAM_MAX_PER_PROJECT", 100),
		StreamHeartbeat:      getEnvDuration("STREAM_HEARTBEAT_INTERVAL", 30*time.Second),
		WebhookSecret:        getEnv("WEBHOOK_SECRET", ""),
		GitHubAPIBaseURL:     getEnv("GITHUB_API_BASE_URL", "https://api.github.com"),
		GitHubAPIToken:       getEnv("GITHUB_API_TOKEN", ""),
		GitHubAPITimeout:     getEnvDuration("GITHUB_API_TIMEOUT", 15*time.Second),
		GitHubAPIMaxRetries:  getEnvInt("GITHUB_API_MAX_RETRIES", 3),
		GitHubAPIRetryDelay:  getEnvDuration("GITHUB_API_RETRY_DELAY", 1*time.Second),
		GitHubAPIMaxRetryDly: getEnvDuration("GITHUB_API_MAX_RETRY_DELAY", 10*time.Second),

		EnableRateLimit:          getEnvBool("ENABLE_RATE_LIMIT", true),
		RateLimitStore:           getEnv("RATE_LIMIT_STORE", "memory"),
		RedisAddr:                getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:            getEnv("REDIS_PASSWORD", ""),
		RedisDB:                  getEnvInt("REDIS_DB", 0),
		LoginRateLimit:           getEnvInt("LOGIN_RATE_LIMIT", 10),
		WebhookRateLimit:         getEnvInt("WEBHOOK_RATE_LIMIT", 120),
		RateLimitCleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),

		MembershipCacheBackend: getEnv("MEMBERSHIP_CACHE_BACKEND", "memory"),
		MembershipCacheTTL:     getEnvDuration("MEMBERSHIP_CACHE_TTL", 30*time.Second),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
		MetricsToken:   getEnv("METRICS_TOKEN", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	return defaultValue
}
