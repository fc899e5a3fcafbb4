package events

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uqac-logement/backend/internal/domain/entities"
)

func TestRedisEventBus_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	bus := newRedisEventBus(client)
	defer bus.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := bus.Subscribe(ctx, "test:listings")
	require.NoError(t, err)

	event := entities.NewListingEvent("listing-9", "owner-1", entities.ListingEventStatusChanged, map[string]interface{}{"status": "taken"})
	require.NoError(t, bus.Publish(ctx, "test:listings", event))

	select {
	case got := <-ch:
		assert.Equal(t, event.ID, got.ID)
		assert.Equal(t, entities.ListingEventStatusChanged, got.EventType)
	case <-ctx.Done():
		t.Fatal("event not received")
	}
}
