package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uqac-logement/backend/internal/application/services"
	"github.com/uqac-logement/backend/internal/domain/entities"
	"github.com/uqac-logement/backend/internal/domain/providers"
	apperrors "github.com/uqac-logement/backend/pkg/errors"
)

type listingFixture struct {
	repo   *MockListingRepository
	owners *MockOwnerRepository
	search *MockSearchRepository
	bus    *MockEventBus
	svc    *services.ListingService
}

func newListingFixture() *listingFixture {
	f := &listingFixture{
		repo:   new(MockListingRepository),
		owners: new(MockOwnerRepository),
		search: new(MockSearchRepository),
		bus:    NewMockEventBus(),
	}
	f.svc = services.NewListingService(f.repo, f.owners, f.search, f.bus, nil)
	return f
}

func validListing() *entities.Listing {
	return &entities.Listing{
		Title:        "Studio meublé",
		Type:         "Studio",
		Address:      "123 rue Racine, Chicoutimi",
		Price:        750,
		DistanceKm:   0.4,
		Availability: entities.AvailableNow(),
		Utilities:    entities.ParseUtilities("Inclus"),
	}
}

func TestListingService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("owner creates own listing", func(t *testing.T) {
		f := newListingFixture()
		f.owners.On("Ensure", ctx, mock.MatchedBy(func(o *entities.Owner) bool { return o.ID == "owner-1" })).Return(nil)
		f.owners.On("GetByID", ctx, "owner-1").Return(&entities.Owner{ID: "owner-1", IsActive: true}, nil)
		f.repo.On("Create", ctx, mock.AnythingOfType("*entities.Listing")).Return(nil)
		f.search.On("Index", ctx, mock.AnythingOfType("*entities.Listing")).Return(nil)

		listing := validListing()
		listing.OwnerID = "someone-else"
		require.NoError(t, f.svc.Create(ctx, ownerUser, listing))

		assert.NotEmpty(t, listing.ID)
		assert.Equal(t, "owner-1", listing.OwnerID)
		assert.Equal(t, entities.ListingStatusAvailable, listing.Status)
		assert.False(t, listing.CreatedAt.IsZero())

		events := f.bus.Events(providers.EventChannelListingUpdates)
		require.Len(t, events, 1)
		assert.Equal(t, entities.ListingEventCreated, events[0].EventType)
		assert.Len(t, f.bus.Events(providers.GetListingChannel(listing.ID)), 1)
		f.repo.AssertExpectations(t)
		f.search.AssertExpectations(t)
	})

	t.Run("admin creates on behalf of owner", func(t *testing.T) {
		f := newListingFixture()
		f.owners.On("GetByID", ctx, "owner-2").Return(&entities.Owner{ID: "owner-2", IsActive: true}, nil)
		f.repo.On("Create", ctx, mock.Anything).Return(nil)
		f.search.On("Index", ctx, mock.Anything).Return(nil)

		listing := validListing()
		listing.OwnerID = "owner-2"
		require.NoError(t, f.svc.Create(ctx, adminUser, listing))
		assert.Equal(t, "owner-2", listing.OwnerID)
		f.owners.AssertNotCalled(t, "Ensure", mock.Anything, mock.Anything)
	})

	t.Run("validation error", func(t *testing.T) {
		f := newListingFixture()
		err := f.svc.Create(ctx, ownerUser, &entities.Listing{Price: -5})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("anonymous caller", func(t *testing.T) {
		f := newListingFixture()
		err := f.svc.Create(ctx, nil, validListing())
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))
	})

	t.Run("deactivated owner", func(t *testing.T) {
		f := newListingFixture()
		f.owners.On("Ensure", ctx, mock.Anything).Return(nil)
		f.owners.On("GetByID", ctx, "owner-1").Return(&entities.Owner{ID: "owner-1", IsActive: false}, nil)

		err := f.svc.Create(ctx, ownerUser, validListing())
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))
	})

	t.Run("index failure does not fail the request", func(t *testing.T) {
		f := newListingFixture()
		f.owners.On("Ensure", ctx, mock.Anything).Return(nil)
		f.owners.On("GetByID", ctx, "owner-1").Return(&entities.Owner{ID: "owner-1", IsActive: true}, nil)
		f.repo.On("Create", ctx, mock.Anything).Return(nil)
		f.search.On("Index", ctx, mock.Anything).Return(assert.AnError)

		assert.NoError(t, f.svc.Create(ctx, ownerUser, validListing()))
	})
}

func TestListingService_Update(t *testing.T) {
	ctx := context.Background()
	stored := validListing()
	stored.ID = "l1"
	stored.OwnerID = "owner-1"
	stored.Status = entities.ListingStatusTaken
	stored.Images = []string{"/api/images/a"}

	t.Run("keeps owner, status and images", func(t *testing.T) {
		f := newListingFixture()
		existing := *stored
		f.repo.On("GetByID", ctx, "l1").Return(&existing, nil)
		f.repo.On("Update", ctx, mock.Anything).Return(nil)
		f.search.On("Delete", ctx, "l1").Return(nil)

		update := validListing()
		update.ID = "l1"
		update.Price = 800
		update.Status = entities.ListingStatusAvailable
		require.NoError(t, f.svc.Update(ctx, ownerUser, update))

		assert.Equal(t, entities.ListingStatusTaken, update.Status)
		assert.Equal(t, []string{"/api/images/a"}, update.Images)

		events := f.bus.Events(providers.EventChannelListingUpdates)
		require.Len(t, events, 1)
		assert.Equal(t, 800, events[0].ChangedFields["price"])
		assert.NotContains(t, events[0].ChangedFields, "title")
	})

	t.Run("another owner is forbidden", func(t *testing.T) {
		f := newListingFixture()
		existing := *stored
		f.repo.On("GetByID", ctx, "l1").Return(&existing, nil)

		update := validListing()
		update.ID = "l1"
		err := f.svc.Update(ctx, otherUser, update)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))
		f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("missing listing", func(t *testing.T) {
		f := newListingFixture()
		f.repo.On("GetByID", ctx, "nope").Return(nil, apperrors.NewNotFoundError("listing nope not found"))

		update := validListing()
		update.ID = "nope"
		err := f.svc.Update(ctx, adminUser, update)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})
}

func TestListingService_ChangeStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("committed after the store acknowledges", func(t *testing.T) {
		f := newListingFixture()
		f.repo.On("GetByID", ctx, "l1").Return(&entities.Listing{ID: "l1", OwnerID: "owner-1", Status: entities.ListingStatusAvailable}, nil)
		f.repo.On("UpdateStatus", ctx, "l1", entities.ListingStatusTaken).Return(nil)
		f.search.On("Delete", ctx, "l1").Return(nil)

		listing, err := f.svc.ChangeStatus(ctx, ownerUser, "l1", entities.ListingStatusTaken)
		require.NoError(t, err)
		assert.Equal(t, entities.ListingStatusTaken, listing.Status)

		events := f.bus.Events(providers.EventChannelListingUpdates)
		require.Len(t, events, 1)
		assert.Equal(t, entities.ListingEventStatusChanged, events[0].EventType)
		assert.Equal(t, "available", events[0].ChangedFields["previous_status"])
	})

	t.Run("store failure publishes nothing", func(t *testing.T) {
		f := newListingFixture()
		f.repo.On("GetByID", ctx, "l1").Return(&entities.Listing{ID: "l1", OwnerID: "owner-1", Status: entities.ListingStatusAvailable}, nil)
		f.repo.On("UpdateStatus", ctx, "l1", entities.ListingStatusSuspended).Return(apperrors.NewInternalError("db down", assert.AnError))

		listing, err := f.svc.ChangeStatus(ctx, ownerUser, "l1", entities.ListingStatusSuspended)
		assert.Error(t, err)
		assert.Nil(t, listing)
		assert.Empty(t, f.bus.Events(providers.EventChannelListingUpdates))
		f.search.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		f := newListingFixture()
		f.repo.On("GetByID", ctx, "l1").Return(&entities.Listing{ID: "l1", OwnerID: "owner-1", Status: entities.ListingStatusTaken}, nil)

		_, err := f.svc.ChangeStatus(ctx, ownerUser, "l1", entities.ListingStatusTaken)
		require.NoError(t, err)
		f.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("back to available reindexes", func(t *testing.T) {
		f := newListingFixture()
		f.repo.On("GetByID", ctx, "l1").Return(&entities.Listing{ID: "l1", OwnerID: "owner-1", Status: entities.ListingStatusTaken}, nil)
		f.repo.On("UpdateStatus", ctx, "l1", entities.ListingStatusAvailable).Return(nil)
		f.search.On("Index", ctx, mock.Anything).Return(nil)

		_, err := f.svc.ChangeStatus(ctx, ownerUser, "l1", entities.ListingStatusAvailable)
		require.NoError(t, err)
		f.search.AssertExpectations(t)
	})
}

type recordingCleaner struct {
	removed []string
}

func (r *recordingCleaner) RemoveAll(ctx context.Context, listingID string) error {
	r.removed = append(r.removed, listingID)
	return nil
}

func TestListingService_Delete(t *testing.T) {
	ctx := context.Background()
	repo := new(MockListingRepository)
	search := new(MockSearchRepository)
	bus := NewMockEventBus()
	cleaner := &recordingCleaner{}
	svc := services.NewListingService(repo, new(MockOwnerRepository), search, bus, cleaner)

	repo.On("GetByID", ctx, "l1").Return(&entities.Listing{ID: "l1", OwnerID: "owner-1"}, nil)
	repo.On("Delete", ctx, "l1").Return(nil)
	search.On("Delete", ctx, "l1").Return(nil)

	require.NoError(t, svc.Delete(ctx, ownerUser, "l1"))
	assert.Equal(t, []string{"l1"}, cleaner.removed)

	events := bus.Events(providers.EventChannelListingUpdates)
	require.Len(t, events, 1)
	assert.Equal(t, entities.ListingEventDeleted, events[0].EventType)
}

func TestListingService_ListByOwnerAndDashboard(t *testing.T) {
	ctx := context.Background()
	f := newListingFixture()
	f.repo.On("ListByOwner", ctx, "owner-1").Return([]*entities.Listing{
		{ID: "a", Status: entities.ListingStatusAvailable},
		{ID: "b", Status: entities.ListingStatusAvailable},
		{ID: "c", Status: entities.ListingStatusTaken},
		{ID: "d", Status: entities.ListingStatusSuspended},
	}, nil)

	counts, err := f.svc.Dashboard(ctx, ownerUser, "")
	require.NoError(t, err)
	assert.Equal(t, entities.StatusCounts{Total: 4, Available: 2, Taken: 1, Suspended: 1}, *counts)

	_, err = f.svc.ListByOwner(ctx, otherUser, "owner-1")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))

	listings, err := f.svc.ListByOwner(ctx, adminUser, "owner-1")
	require.NoError(t, err)
	assert.Len(t, listings, 4)
}
