package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uqac-logement/backend/internal/domain/entities"
	"github.com/uqac-logement/backend/internal/domain/providers"
)

// Source loads the publicly visible listings
type Source interface {
	ListAvailable(ctx context.Context) ([]*entities.Listing, error)
}

// RefreshHook is called after every successful refresh
type RefreshHook func(ctx context.Context, size int, duration time.Duration)

// Store holds the in-memory snapshot the browse page reads from.
// Readers never block on a refresh: the snapshot is swapped whole.
// Concurrent refresh requests are coalesced so that the snapshot always
// ends up reflecting a load started after the last request.
type Store struct {
	source Source
	hook   RefreshHook

	mu          sync.RWMutex
	listings    []entities.Listing
	index       map[string]int
	refreshedAt time.Time

	stateMu    sync.Mutex
	refreshing bool
	dirty      bool
}

// NewStore creates an empty store backed by source
func NewStore(source Source) *Store {
	return &Store{
		source: source,
		index:  make(map[string]int),
	}
}

// OnRefresh registers a hook for metrics
func (s *Store) OnRefresh(hook RefreshHook) {
	s.hook = hook
}

// Listings returns a copy of the current snapshot
func (s *Store) Listings() []entities.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entities.Listing, len(s.listings))
	for i := range s.listings {
		out[i] = s.listings[i].Clone()
	}
	return out
}

// Get looks a listing up by ID
func (s *Store) Get(id string) (entities.Listing, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return entities.Listing{}, false
	}
	return s.listings[i].Clone(), true
}

// Len returns the snapshot size
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listings)
}

// RefreshedAt returns when the snapshot was last replaced
func (s *Store) RefreshedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshedAt
}

// Replace swaps the snapshot directly
func (s *Store) Replace(listings []*entities.Listing) {
	next := make([]entities.Listing, 0, len(listings))
	index := make(map[string]int, len(listings))
	for _, l := range listings {
		if l == nil {
			continue
		}
		if _, dup := index[l.ID]; dup {
			continue
		}
		index[l.ID] = len(next)
		next = append(next, l.Clone())
	}

	s.mu.Lock()
	s.listings = next
	s.index = index
	s.refreshedAt = time.Now()
	s.mu.Unlock()
}

// Refresh reloads the snapshot from the source. When a refresh is already
// running the call only marks the snapshot stale and returns; the running
// refresh then loads once more before finishing.
func (s *Store) Refresh(ctx context.Context) error {
	s.stateMu.Lock()
	if s.refreshing {
		s.dirty = true
		s.stateMu.Unlock()
		return nil
	}
	s.refreshing = true
	s.stateMu.Unlock()

	for {
		err := s.load(ctx)

		s.stateMu.Lock()
		if err != nil || !s.dirty {
			s.refreshing = false
			s.dirty = false
			s.stateMu.Unlock()
			return err
		}
		s.dirty = false
		s.stateMu.Unlock()
	}
}

func (s *Store) load(ctx context.Context) error {
	start := time.Now()
	listings, err := s.source.ListAvailable(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("catalog refresh failed, keeping previous snapshot")
		return err
	}
	s.Replace(listings)

	duration := time.Since(start)
	log.Ctx(ctx).Debug().Int("size", len(listings)).Dur("duration", duration).Msg("catalog refreshed")
	if s.hook != nil {
		s.hook(ctx, len(listings), duration)
	}
	return nil
}

// Run refreshes on a fixed interval until ctx is done
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.Refresh(ctx)
		}
	}
}

// Watch refreshes the snapshot whenever a listing event arrives. It blocks
// until ctx is done or the subscription closes.
func (s *Store) Watch(ctx context.Context, bus providers.EventBus) error {
	events, err := bus.Subscribe(ctx, providers.EventChannelListingUpdates)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			log.Ctx(ctx).Debug().
				Str("listing_id", event.ListingID).
				Str("event_type", string(event.EventType)).
				Msg("listing changed, refreshing catalog")
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = s.Refresh(ctx)
			}()
		}
	}
}
