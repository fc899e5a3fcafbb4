package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/uqac-logement/backend/internal/domain/providers"
)

const (
	contactRateLimit   = 5
	contactRateWindow  = time.Hour
	contactDedupWindow = 24 * time.Hour
)

// ContactGuard throttles contact messages per client and drops repeats.
// State lives in the cache when one is configured, in process memory otherwise.
type ContactGuard struct {
	cache   providers.CacheProvider
	local   *localRateLimiter
	deduper *localDeduper
}

// NewContactGuard creates a guard; cache may be nil
func NewContactGuard(cache providers.CacheProvider) *ContactGuard {
	return &ContactGuard{
		cache:   cache,
		local:   newLocalRateLimiter(),
		deduper: newLocalDeduper(),
	}
}

// Allow counts one attempt from clientIP and reports whether it is within quota
func (g *ContactGuard) Allow(ctx context.Context, clientIP string) (bool, time.Duration) {
	key := "contact:rate:" + clientIP
	if g.cache == nil {
		return g.local.allow(key, contactRateLimit, contactRateWindow)
	}

	state := rateLimitState{}
	if data, err := g.cache.Get(ctx, key); err == nil {
		_ = json.Unmarshal(data, &state)
	}

	if state.Count >= contactRateLimit {
		return false, contactRateWindow
	}

	state.Count++
	data, _ := json.Marshal(state)
	_ = g.cache.Set(ctx, key, data, int(contactRateWindow.Seconds()))
	return true, contactRateWindow
}

// Duplicate reports whether the same fingerprint was seen in the last day,
// and remembers it otherwise
func (g *ContactGuard) Duplicate(ctx context.Context, fingerprint string) bool {
	key := "contact:dup:" + fingerprint
	if g.cache == nil {
		return g.deduper.seen(key, contactDedupWindow)
	}

	exists, err := g.cache.Exists(ctx, key)
	if err == nil && exists {
		return true
	}

	_ = g.cache.Set(ctx, key, []byte("1"), int(contactDedupWindow.Seconds()))
	return false
}

type rateLimitState struct {
	Count int `json:"count"`
}

type localRateLimiter struct {
	mu     sync.Mutex
	states map[string]*localRateState
}

type localRateState struct {
	count   int
	resetAt time.Time
}

func newLocalRateLimiter() *localRateLimiter {
	return &localRateLimiter{
		states: make(map[string]*localRateState),
	}
}

func (l *localRateLimiter) allow(key string, limit int, window time.Duration) (bool, time.Duration) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.states[key]
	if !ok || now.After(state.resetAt) {
		state = &localRateState{resetAt: now.Add(window)}
		l.states[key] = state
	}

	if state.count >= limit {
		retryAfter := time.Until(state.resetAt)
		if retryAfter < 0 {
			retryAfter = window
		}
		return false, retryAfter
	}

	state.count++
	return true, window
}

type localDeduper struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func newLocalDeduper() *localDeduper {
	return &localDeduper{
		entries: make(map[string]time.Time),
	}
}

func (d *localDeduper) seen(key string, window time.Duration) bool {
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	for k, expiresAt := range d.entries {
		if now.After(expiresAt) {
			delete(d.entries, k)
		}
	}

	if expiresAt, ok := d.entries[key]; ok && now.Before(expiresAt) {
		return true
	}

	d.entries[key] = now.Add(window)
	return false
}

// contactFingerprint hashes the normalised payload with the sender address
func contactFingerprint(listingID, email, message, ip string) string {
	normalized := []string{
		listingID,
		strings.ToLower(strings.TrimSpace(email)),
		strings.Join(strings.Fields(strings.ToLower(message)), " "),
		ip,
	}

	hash := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return hex.EncodeToString(hash[:])
}
