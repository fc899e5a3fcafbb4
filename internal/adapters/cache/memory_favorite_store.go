package cache

import (
	"context"
	"sync"

	"github.com/uqac-logement/backend/internal/domain/repositories"
)

// MemoryFavoriteStore keeps favorites in process memory. It is used when
// Redis is not configured; sets are lost on restart.
type MemoryFavoriteStore struct {
	mu   sync.RWMutex
	sets map[string][]string
}

// NewMemoryFavoriteStore creates an empty in-memory store
func NewMemoryFavoriteStore() *MemoryFavoriteStore {
	return &MemoryFavoriteStore{sets: make(map[string][]string)}
}

var _ repositories.FavoriteStore = (*MemoryFavoriteStore)(nil)

// List returns the IDs stored under key in insertion order
func (s *MemoryFavoriteStore) List(ctx context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.sets[key]...), nil
}

// Add appends listingID unless already present
func (s *MemoryFavoriteStore) Add(ctx context.Context, key, listingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.sets[key] {
		if id == listingID {
			return nil
		}
	}
	s.sets[key] = append(s.sets[key], listingID)
	return nil
}

// Remove deletes listingID if present
func (s *MemoryFavoriteStore) Remove(ctx context.Context, key, listingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.sets[key]
	for i, id := range ids {
		if id == listingID {
			s.sets[key] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

// Clear drops every ID stored under key
func (s *MemoryFavoriteStore) Clear(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sets, key)
	return nil
}
