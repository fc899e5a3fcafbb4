package services_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uqac-logement/backend/internal/domain/entities"
	"github.com/uqac-logement/backend/internal/domain/repositories"
	"github.com/uqac-logement/backend/internal/query/catalog"
	"github.com/uqac-logement/backend/internal/query/loaders"
	"github.com/uqac-logement/backend/internal/query/services"
	apperrors "github.com/uqac-logement/backend/pkg/errors"
)

type MockSearchAdapter struct {
	mock.Mock
}

func (m *MockSearchAdapter) SearchIDs(ctx context.Context, query string, limit int) ([]string, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockListingRepository struct {
	mock.Mock
	repositories.ListingRepository
}

func (m *MockListingRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.Listing, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Listing), args.Error(1)
}

func newStore(listings ...*entities.Listing) *catalog.Store {
	store := catalog.NewStore(nil)
	store.Replace(listings)
	return store
}

func seed() *catalog.Store {
	var listings []*entities.Listing
	for i := 1; i <= 6; i++ {
		typ := "Studio"
		if i%2 == 0 {
			typ = "4½"
		}
		listings = append(listings, &entities.Listing{
			ID:          fmt.Sprintf("l%d", i),
			Title:       fmt.Sprintf("Logement %d", i),
			Address:     "Chicoutimi",
			Type:        typ,
			Price:       800 + i*100,
			Furnished:   i <= 3,
			Description: "Près de l'UQAC",
		})
	}
	listings[4].Title = "Grand loft lumineux"
	return newStore(listings...)
}

func listingIDs(listings []entities.Listing) []string {
	out := make([]string, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.ID)
	}
	return out
}

func TestListingQueryService_Browse(t *testing.T) {
	svc := services.NewListingQueryService(seed(), nil)
	ctx := context.Background()

	t.Run("no criteria returns everything", func(t *testing.T) {
		res, err := svc.Browse(ctx, services.BrowseParams{})
		require.NoError(t, err)
		assert.Equal(t, 6, res.TotalCount)
		assert.Equal(t, services.DefaultPageSize, res.Limit)
		assert.Len(t, res.Listings, 6)
	})

	t.Run("filters and paginates", func(t *testing.T) {
		res, err := svc.Browse(ctx, services.BrowseParams{
			Criteria: catalog.Criteria{UnitType: "Studio"},
			Limit:    2,
			Offset:   1,
		})
		require.NoError(t, err)
		assert.Equal(t, 3, res.TotalCount)
		assert.Equal(t, []string{"l3", "l5"}, listingIDs(res.Listings))
	})

	t.Run("offset past the end", func(t *testing.T) {
		res, err := svc.Browse(ctx, services.BrowseParams{Offset: 50})
		require.NoError(t, err)
		assert.Equal(t, 6, res.TotalCount)
		assert.NotNil(t, res.Listings)
		assert.Empty(t, res.Listings)
	})

	t.Run("limit is capped", func(t *testing.T) {
		res, err := svc.Browse(ctx, services.BrowseParams{Limit: 1000})
		require.NoError(t, err)
		assert.Equal(t, services.MaxPageSize, res.Limit)
	})

	t.Run("substring search without index", func(t *testing.T) {
		res, err := svc.Browse(ctx, services.BrowseParams{Query: "LOFT"})
		require.NoError(t, err)
		assert.Equal(t, []string{"l5"}, listingIDs(res.Listings))
	})
}

func TestListingQueryService_BrowseWithIndex(t *testing.T) {
	ctx := context.Background()

	t.Run("keeps snapshot order of hits", func(t *testing.T) {
		search := new(MockSearchAdapter)
		search.On("SearchIDs", ctx, "balcon", 250).Return([]string{"l4", "l1", "ghost"}, nil)
		svc := services.NewListingQueryService(seed(), search)

		res, err := svc.Browse(ctx, services.BrowseParams{Query: "balcon"})
		require.NoError(t, err)
		assert.Equal(t, []string{"l1", "l4"}, listingIDs(res.Listings))
		search.AssertExpectations(t)
	})

	t.Run("falls back when index fails", func(t *testing.T) {
		search := new(MockSearchAdapter)
		search.On("SearchIDs", ctx, "loft", 250).Return(nil, assert.AnError)
		svc := services.NewListingQueryService(seed(), search)

		res, err := svc.Browse(ctx, services.BrowseParams{Query: "loft"})
		require.NoError(t, err)
		assert.Equal(t, []string{"l5"}, listingIDs(res.Listings))
	})
}

func TestListingQueryService_GetByID(t *testing.T) {
	svc := services.NewListingQueryService(seed(), nil)

	l, err := svc.GetByID(context.Background(), "l2")
	require.NoError(t, err)
	assert.Equal(t, "4½", l.Type)

	_, err = svc.GetByID(context.Background(), "nope")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestListingQueryService_Similar(t *testing.T) {
	svc := services.NewListingQueryService(seed(), nil)

	got, err := svc.Similar(context.Background(), "l1", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"l3", "l5"}, listingIDs(got))

	_, err = svc.Similar(context.Background(), "missing", 3)
	assert.Error(t, err)
}

func TestListingQueryService_Favorites(t *testing.T) {
	svc := services.NewListingQueryService(seed(), nil)

	t.Run("snapshot only", func(t *testing.T) {
		got, err := svc.Favorites(context.Background(), []string{"l6", "gone", "l2"})
		require.NoError(t, err)
		assert.Equal(t, []string{"l6", "l2"}, listingIDs(got))
	})

	t.Run("loader resolves only available listings outside the snapshot", func(t *testing.T) {
		repo := new(MockListingRepository)
		repo.On("GetByIDs", mock.Anything, []string{"fresh", "taken", "hidden", "gone"}).Return([]*entities.Listing{
			{ID: "fresh", Status: entities.ListingStatusAvailable},
			{ID: "taken", Status: entities.ListingStatusTaken},
			{ID: "hidden", Status: entities.ListingStatusSuspended},
		}, nil)
		ctx := loaders.WithLoaders(context.Background(), loaders.NewLoaders(repo))

		got, err := svc.Favorites(ctx, []string{"fresh", "taken", "l1", "hidden", "gone"})
		require.NoError(t, err)
		assert.Equal(t, []string{"fresh", "l1"}, listingIDs(got))
		repo.AssertExpectations(t)
	})
}
