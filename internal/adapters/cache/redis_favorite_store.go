package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/uqac-logement/backend/internal/domain/repositories"
	redisclient "github.com/uqac-logement/backend/internal/infrastructure/clients/redis"
)

const favoritesKeyPrefix = "favorites:session:"

// addFavoriteScript scores a new member with a per-session counter so that
// adds landing in the same instant still keep their order.
var addFavoriteScript = redis.NewScript(`
local seq = redis.call('INCR', KEYS[2])
redis.call('ZADD', KEYS[1], 'NX', seq, ARGV[1])
local ttl = tonumber(ARGV[2])
if ttl > 0 then
	redis.call('PEXPIRE', KEYS[1], ttl)
	redis.call('PEXPIRE', KEYS[2], ttl)
end
return seq
`)

// RedisFavoriteStore keeps anonymous favorites in a sorted set per session,
// scored by an insertion counter. Every write pushes the expiry back by ttl.
type RedisFavoriteStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisFavoriteStore creates a session favorites store
func NewRedisFavoriteStore(client *redisclient.Client, ttl time.Duration) repositories.FavoriteStore {
	return newRedisFavoriteStore(client.Client(), ttl)
}

func newRedisFavoriteStore(client redis.UniversalClient, ttl time.Duration) *RedisFavoriteStore {
	return &RedisFavoriteStore{client: client, ttl: ttl}
}

// FavoritesKey returns the Redis key for a session
func FavoritesKey(sessionID string) string {
	return favoritesKeyPrefix + sessionID
}

func favoritesSeqKey(sessionID string) string {
	return FavoritesKey(sessionID) + ":seq"
}

// List returns the session's listing IDs in insertion order
func (s *RedisFavoriteStore) List(ctx context.Context, sessionID string) ([]string, error) {
	ids, err := s.client.ZRange(ctx, FavoritesKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list session favorites: %w", err)
	}
	return ids, nil
}

// Add adds a listing; re-adding keeps its original position
func (s *RedisFavoriteStore) Add(ctx context.Context, sessionID, listingID string) error {
	keys := []string{FavoritesKey(sessionID), favoritesSeqKey(sessionID)}
	if err := addFavoriteScript.Run(ctx, s.client, keys, listingID, s.ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("failed to add session favorite: %w", err)
	}
	return nil
}

// Remove removes a listing
func (s *RedisFavoriteStore) Remove(ctx context.Context, sessionID, listingID string) error {
	key := FavoritesKey(sessionID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, key, listingID)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
			pipe.Expire(ctx, favoritesSeqKey(sessionID), s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to remove session favorite: %w", err)
	}
	return nil
}

// Clear drops the whole set
func (s *RedisFavoriteStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, FavoritesKey(sessionID), favoritesSeqKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear session favorites: %w", err)
	}
	return nil
}
