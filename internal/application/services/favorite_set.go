package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/uqac-logement/backend/internal/domain/repositories"
	apperrors "github.com/uqac-logement/backend/pkg/errors"
)

// Favorite backends
const (
	FavoriteBackendSession = "session"
	FavoriteBackendAccount = "account"
)

// FavoriteSet is one visitor's favorites, loaded from a store. Mutations
// are written to the store first and applied to the set only once the
// store has acknowledged them, so a failed write leaves the set unchanged.
type FavoriteSet struct {
	store   repositories.FavoriteStore
	key     string
	backend string

	mu      sync.RWMutex
	ids     []string
	members map[string]struct{}
}

// LoadFavoriteSet reads the set stored under key
func LoadFavoriteSet(ctx context.Context, store repositories.FavoriteStore, key, backend string) (*FavoriteSet, error) {
	ids, err := store.List(ctx, key)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to load favorites", err)
	}

	set := &FavoriteSet{
		store:   store,
		key:     key,
		backend: backend,
		members: make(map[string]struct{}, len(ids)),
	}
	for _, id := range ids {
		if _, dup := set.members[id]; dup {
			continue
		}
		set.members[id] = struct{}{}
		set.ids = append(set.ids, id)
	}
	return set, nil
}

// Backend returns which store the set lives in
func (s *FavoriteSet) Backend() string {
	return s.backend
}

// IsFavorite reports membership
func (s *FavoriteSet) IsFavorite(listingID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.members[listingID]
	return ok
}

// IDs returns members in the order they were added
func (s *FavoriteSet) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.ids...)
}

// Len returns the number of members
func (s *FavoriteSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// Toggle removes listingID when present and adds it otherwise. It returns
// whether the listing is a favorite afterwards.
func (s *FavoriteSet) Toggle(ctx context.Context, listingID string) (bool, error) {
	if listingID == "" {
		return false, apperrors.NewValidationError("listing id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, present := s.members[listingID]; present {
		if err := s.store.Remove(ctx, s.key, listingID); err != nil {
			return true, apperrors.NewExternalError(fmt.Sprintf("failed to remove favorite %s", listingID), err)
		}
		delete(s.members, listingID)
		for i, id := range s.ids {
			if id == listingID {
				s.ids = append(s.ids[:i], s.ids[i+1:]...)
				break
			}
		}
		return false, nil
	}

	if err := s.store.Add(ctx, s.key, listingID); err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return false, err
		}
		return false, apperrors.NewExternalError(fmt.Sprintf("failed to add favorite %s", listingID), err)
	}
	s.members[listingID] = struct{}{}
	s.ids = append(s.ids, listingID)
	return true, nil
}

// Clear empties the set. The caller must pass confirmed=true.
func (s *FavoriteSet) Clear(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return apperrors.NewValidationError("clearing favorites must be confirmed")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Clear(ctx, s.key); err != nil {
		return apperrors.NewExternalError("failed to clear favorites", err)
	}
	s.ids = nil
	s.members = make(map[string]struct{})
	return nil
}
