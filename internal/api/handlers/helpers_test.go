package handlers_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uqac-logement/backend/internal/domain/entities"
	"github.com/uqac-logement/backend/internal/query/catalog"
	queryservices "github.com/uqac-logement/backend/internal/query/services"
)

type staticSource struct {
	listings []*entities.Listing
}

func (s *staticSource) ListAvailable(ctx context.Context) ([]*entities.Listing, error) {
	return s.listings, nil
}

func sampleCatalog() []*entities.Listing {
	return []*entities.Listing{
		{ID: "1", Title: "Studio près du campus", Type: "Studio", Price: 850, DistanceKm: 0.5, Furnished: true,
			Address: "123 rue Université", Availability: entities.AvailableNow(),
			Utilities: entities.ParseUtilities("Inclus"), Services: []string{"Wi-Fi"}, Images: []string{"/img/1a.jpg", "/img/1b.jpg"},
			Status: entities.ListingStatusAvailable, OwnerID: "owner-1"},
		{ID: "2", Title: "Grand 4½ lumineux", Type: "4½", Price: 1200, DistanceKm: 1.2,
			Address: "45 boulevard Talbot", Availability: entities.AvailableOn("1er janvier 2026"),
			Utilities: entities.ParseUtilities("Non inclus"), Services: []string{"Stationnement"},
			Status: entities.ListingStatusAvailable},
		{ID: "3", Title: "Studio rénové", Type: "Studio", Price: 900, DistanceKm: 1.0,
			Address: "7 rue Racine", Availability: entities.AvailableNow(),
			Utilities: entities.ParseUtilities("Inclus"), Status: entities.ListingStatusAvailable},
	}
}

func newQueryService(t *testing.T, listings ...*entities.Listing) *queryservices.ListingQueryService {
	t.Helper()
	store := catalog.NewStore(&staticSource{listings: listings})
	require.NoError(t, store.Refresh(context.Background()))
	return queryservices.NewListingQueryService(store, nil)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dst))
}
