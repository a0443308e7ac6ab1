package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/rueidisaside"
)

// Compile-time interface check.
var _ Cache[bool] = (*RueidisBoolCache)(nil)

// RueidisBoolCache implements Cache[bool] on Redis with rueidis client-side
// caching (RESP3 invalidation). Booleans are stored as "1"/"0". Used for
// project membership lookups shared across instances.
type RueidisBoolCache struct {
	client    rueidisaside.CacheAsideClient
	keyPrefix string
	clientTTL time.Duration
}

// NewRueidisBoolCache creates a Redis-backed bool cache. clientTTL is the
// local client-side cache TTL; Redis invalidates local entries when keys
// change.
func NewRueidisBoolCache(
	addr, password string,
	db int,
	keyPrefix string,
	clientTTL time.Duration,
) (*RueidisBoolCache, error) {
	client, err := rueidisaside.NewClient(rueidisaside.ClientOption{
		ClientOption: rueidis.ClientOption{
			InitAddress:  []string{addr},
			Password:     password,
			SelectDB:     db,
			DisableCache: false, // Enable client-side caching
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create rueidisaside client: %w", err)
	}

	return &RueidisBoolCache{
		client:    client,
		keyPrefix: keyPrefix,
		clientTTL: clientTTL,
	}, nil
}

// Get retrieves a value from Redis with client-side caching.
func (r *RueidisBoolCache) Get(ctx context.Context, key string) (bool, error) {
	fullKey := r.keyPrefix + key

	val, err := r.client.Get(
		ctx,
		r.clientTTL,
		fullKey,
		func(ctx context.Context, key string) (string, error) {
			// Empty fetch indicates a miss; GetWithFetch in the caller
			// populates from the database and calls Set.
			return "", ErrCacheMiss
		},
	)
	if err != nil {
		if err == ErrCacheMiss {
			return false, ErrCacheMiss
		}
		return false, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	switch val {
	case "1":
		return true, nil
	case "0":
		return false, nil
	case "":
		return false, ErrCacheMiss
	default:
		return false, fmt.Errorf("%w: %q", ErrInvalidValue, val)
	}
}

// Set stores a value in Redis with TTL.
func (r *RueidisBoolCache) Set(ctx context.Context, key string, value bool, ttl time.Duration) error {
	fullKey := r.keyPrefix + key

	encoded := "0"
	if value {
		encoded = "1"
	}

	cmd := r.client.Client().B().Set().
		Key(fullKey).
		Value(encoded).
		Ex(ttl).
		Build()

	if err := r.client.Client().Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	return nil
}

// Delete removes a key from Redis.
func (r *RueidisBoolCache) Delete(ctx context.Context, key string) error {
	fullKey := r.keyPrefix + key

	cmd := r.client.Client().B().Del().Key(fullKey).Build()
	if err := r.client.Client().Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	return nil
}

// Close closes the underlying rueidis client.
func (r *RueidisBoolCache) Close() error {
	r.client.Close()
	return nil
}
