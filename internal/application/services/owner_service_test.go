package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uqac-logement/backend/internal/application/services"
	"github.com/uqac-logement/backend/internal/domain/entities"
	"github.com/uqac-logement/backend/internal/domain/providers"
	apperrors "github.com/uqac-logement/backend/pkg/errors"
)

func TestOwnerService_RequiresAdmin(t *testing.T) {
	svc := services.NewOwnerService(new(MockOwnerRepository), new(MockListingRepository), nil, nil)
	ctx := context.Background()

	_, err := svc.List(ctx, ownerUser)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))

	_, err = svc.Stats(ctx, nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))
}

func TestOwnerService_ToggleActive(t *testing.T) {
	ctx := context.Background()
	owners := new(MockOwnerRepository)
	listings := new(MockListingRepository)
	bus := NewMockEventBus()
	svc := services.NewOwnerService(owners, listings, bus, nil)

	owners.On("GetByID", ctx, "owner-1").Return(&entities.Owner{ID: "owner-1", IsActive: true}, nil)
	owners.On("SetActive", ctx, "owner-1", false).Return(nil)
	listings.On("ListByOwner", ctx, "owner-1").Return([]*entities.Listing{{ID: "a"}, {ID: "b"}}, nil)

	owner, err := svc.ToggleActive(ctx, adminUser, "owner-1")
	require.NoError(t, err)
	assert.False(t, owner.IsActive)
	assert.Len(t, bus.Events(providers.EventChannelListingUpdates), 2)
}

func TestOwnerService_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	owners := new(MockOwnerRepository)
	listings := new(MockListingRepository)
	bus := NewMockEventBus()
	cleaner := &recordingCleaner{}
	svc := services.NewOwnerService(owners, listings, bus, cleaner)

	owners.On("GetByID", ctx, "owner-1").Return(&entities.Owner{ID: "owner-1"}, nil)
	listings.On("ListByOwner", ctx, "owner-1").Return([]*entities.Listing{{ID: "a"}, {ID: "b"}}, nil)
	listings.On("DeleteByOwner", ctx, "owner-1").Return(int64(2), nil)
	owners.On("Delete", ctx, "owner-1").Return(nil)

	require.NoError(t, svc.Delete(ctx, adminUser, "owner-1"))
	assert.Equal(t, []string{"a", "b"}, cleaner.removed)

	events := bus.Events(providers.EventChannelListingUpdates)
	require.Len(t, events, 2)
	assert.Equal(t, entities.ListingEventDeleted, events[0].EventType)
	owners.AssertExpectations(t)
	listings.AssertExpectations(t)
}

func TestOwnerService_Stats(t *testing.T) {
	ctx := context.Background()
	owners := new(MockOwnerRepository)
	svc := services.NewOwnerService(owners, new(MockListingRepository), nil, nil)
	owners.On("Stats", ctx).Return(&entities.PlatformStats{Owners: 3, Listings: 10}, nil)

	stats, err := svc.Stats(ctx, adminUser)
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Listings)
}
