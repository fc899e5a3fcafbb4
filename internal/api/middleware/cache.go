package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/uqac-logement/backend/internal/application/services"
	"github.com/uqac-logement/backend/internal/domain/providers"
	"github.com/uqac-logement/backend/internal/infrastructure/observability"
)

const (
	browseCacheTTL  = 60  // 1 minute
	listingCacheTTL = 300 // 5 minutes
)

// CacheConfig holds cache configuration for a group of routes
type CacheConfig struct {
	Group      string
	TTLSeconds int
	Enabled    bool
}

// CacheMiddleware caches public listing responses. Entries are keyed by
// cache group so the invalidation service can drop one listing's responses
// or every browse page.
type CacheMiddleware struct {
	cache   providers.CacheProvider
	metrics *observability.Metrics
}

// NewCacheMiddleware creates a new cache middleware
func NewCacheMiddleware(cache providers.CacheProvider, metrics *observability.Metrics) *CacheMiddleware {
	return &CacheMiddleware{cache: cache, metrics: metrics}
}

// Middleware returns the cache middleware handler
func (m *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || m.cache == nil {
			next.ServeHTTP(w, r)
			return
		}

		config := RouteCacheConfig(r.URL.Path)
		if !config.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		cacheKey := cacheKeyFor(config.Group, r)

		if cached, err := m.cache.Get(ctx, cacheKey); err == nil {
			observability.RecordCacheHit(ctx, m.metrics, config.Group)
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(cached)
			return
		}

		observability.RecordCacheMiss(ctx, m.metrics, config.Group)
		w.Header().Set("X-Cache", "MISS")

		recorder := &responseRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}
		next.ServeHTTP(recorder, r)

		if recorder.statusCode == http.StatusOK && recorder.body.Len() > 0 {
			if err := m.cache.Set(ctx, cacheKey, recorder.body.Bytes(), config.TTLSeconds); err != nil {
				log.Ctx(ctx).Warn().Err(err).Str("key", cacheKey).Msg("Failed to cache response")
			}
		}
	})
}

// RouteCacheConfig maps a request path to its cache group. Only the public
// browse and detail reads are cached.
func RouteCacheConfig(path string) CacheConfig {
	if path == "/api/listings" || path == "/api/listings/" {
		return CacheConfig{Group: services.CacheGroupListings, TTLSeconds: browseCacheTTL, Enabled: true}
	}

	rest, ok := strings.CutPrefix(path, "/api/listings/")
	if !ok || rest == "" {
		return CacheConfig{}
	}
	id, sub, _ := strings.Cut(rest, "/")
	switch sub {
	case "", "similar", "images":
		return CacheConfig{Group: services.ListingCacheGroup(id), TTLSeconds: listingCacheTTL, Enabled: true}
	}
	return CacheConfig{}
}

// cacheKeyFor hashes the method, path and query into a key under group
func cacheKeyFor(group string, r *http.Request) string {
	key := r.Method + ":" + r.URL.Path
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.Query().Encode()
	}
	hash := sha256.Sum256([]byte(key))
	return providers.HTTPCacheKey(group, hex.EncodeToString(hash[:]))
}

// responseRecorder captures the response for caching
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
	written    bool
}

// WriteHeader captures the status code
func (r *responseRecorder) WriteHeader(statusCode int) {
	if !r.written {
		r.statusCode = statusCode
		r.ResponseWriter.WriteHeader(statusCode)
		r.written = true
	}
}

// Write captures the response body and writes to the client
func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.written {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(data)
	return r.ResponseWriter.Write(data)
}
