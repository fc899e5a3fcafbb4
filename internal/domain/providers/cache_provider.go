package providers

import (
	"context"
	"errors"
)

// ErrCacheMiss is returned by Get when the key does not exist
var ErrCacheMiss = errors.New("cache miss")

// CacheProvider defines the interface for caching operations
type CacheProvider interface {
	// Get retrieves a value from cache; a missing key returns ErrCacheMiss
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists in cache
	Exists(ctx context.Context, key string) (bool, error)

	// DeletePattern removes every key matching a glob pattern
	DeletePattern(ctx context.Context, pattern string) error
}

// HTTPCachePrefix prefixes every cached HTTP response
const HTTPCachePrefix = "http:cache:"

// HTTPCacheKey builds the key of a cached response. group identifies the
// resource so related entries can be dropped together.
func HTTPCacheKey(group, digest string) string {
	return HTTPCachePrefix + group + ":" + digest
}

// HTTPCachePattern matches every cached response of a group
func HTTPCachePattern(group string) string {
	return HTTPCachePrefix + group + ":*"
}

// ListingRowCacheKey is the key of one cached listing row
func ListingRowCacheKey(listingID string) string {
	return "listing:row:" + listingID
}
