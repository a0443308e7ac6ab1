package cache

import "errors"

var (
	// ErrCacheMiss is returned when a key does not exist or has expired
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when the cache backend cannot be reached
	ErrCacheUnavailable = errors.New("cache unavailable")

	// ErrInvalidValue is returned when a stored value cannot be decoded
	ErrInvalidValue = errors.New("invalid cached value")
)
