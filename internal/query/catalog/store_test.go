package catalog_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uqac-logement/backend/internal/domain/entities"
	"github.com/uqac-logement/backend/internal/domain/providers"
	"github.com/uqac-logement/backend/internal/query/catalog"
)

type fakeSource struct {
	mu       sync.Mutex
	listings []*entities.Listing
	err      error
	calls    atomic.Int32
	gate     chan struct{}
}

func (f *fakeSource) ListAvailable(ctx context.Context) ([]*entities.Listing, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.listings, nil
}

func (f *fakeSource) set(listings ...*entities.Listing) {
	f.mu.Lock()
	f.listings = listings
	f.mu.Unlock()
}

type chanBus struct {
	ch chan *entities.ListingEvent
}

func (b *chanBus) Publish(ctx context.Context, channel string, event *entities.ListingEvent) error {
	b.ch <- event
	return nil
}

func (b *chanBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ListingEvent, error) {
	return b.ch, nil
}

func (b *chanBus) Unsubscribe(ctx context.Context, channel string) error { return nil }

func (b *chanBus) Close() error {
	close(b.ch)
	return nil
}

var _ providers.EventBus = (*chanBus)(nil)

func TestStore_RefreshAndRead(t *testing.T) {
	src := &fakeSource{}
	src.set(&entities.Listing{ID: "a", Services: []string{"Wi-Fi"}}, &entities.Listing{ID: "b"}, &entities.Listing{ID: "a"})
	store := catalog.NewStore(src)

	var hookSize int
	store.OnRefresh(func(ctx context.Context, size int, d time.Duration) { hookSize = size })

	require.NoError(t, store.Refresh(context.Background()))
	assert.Equal(t, 2, store.Len())
	assert.Equal(t, 3, hookSize)
	assert.False(t, store.RefreshedAt().IsZero())

	l, ok := store.Get("a")
	require.True(t, ok)
	l.Services[0] = "mutated"

	again, _ := store.Get("a")
	assert.Equal(t, "Wi-Fi", again.Services[0])

	_, ok = store.Get("missing")
	assert.False(t, ok)

	snapshot := store.Listings()
	snapshot[0].ID = "changed"
	assert.Equal(t, "a", store.Listings()[0].ID)
}

func TestStore_FailedRefreshKeepsSnapshot(t *testing.T) {
	src := &fakeSource{}
	src.set(&entities.Listing{ID: "a"})
	store := catalog.NewStore(src)
	require.NoError(t, store.Refresh(context.Background()))

	src.err = errors.New("db down")
	assert.Error(t, store.Refresh(context.Background()))
	assert.Equal(t, 1, store.Len())
}

func TestStore_CoalescesConcurrentRefreshes(t *testing.T) {
	src := &fakeSource{gate: make(chan struct{})}
	src.set(&entities.Listing{ID: "old"})
	store := catalog.NewStore(src)

	done := make(chan error, 1)
	go func() { done <- store.Refresh(context.Background()) }()

	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)

	// these arrive while the first load is in flight
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Refresh(context.Background()))
	}
	src.set(&entities.Listing{ID: "new"})
	close(src.gate)

	require.NoError(t, <-done)
	assert.Equal(t, int32(2), src.calls.Load())

	_, ok := store.Get("new")
	assert.True(t, ok, "last write wins")
}

func TestStore_WatchRefreshesOnEvents(t *testing.T) {
	src := &fakeSource{}
	store := catalog.NewStore(src)
	bus := &chanBus{ch: make(chan *entities.ListingEvent, 1)}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		_ = store.Watch(ctx, bus)
		close(stopped)
	}()

	src.set(&entities.Listing{ID: "fresh"})
	require.NoError(t, bus.Publish(ctx, providers.EventChannelListingUpdates,
		entities.NewListingEvent("fresh", "owner-1", entities.ListingEventCreated, nil)))

	assert.Eventually(t, func() bool {
		_, ok := store.Get("fresh")
		return ok
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("watch did not stop")
	}
}
