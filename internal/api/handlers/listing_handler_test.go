package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uqac-logement/backend/internal/api/handlers"
	"github.com/uqac-logement/backend/internal/domain/entities"
	"github.com/uqac-logement/backend/internal/query/catalog"
)

type listingsPage struct {
	Listings   []entities.Listing `json:"listings"`
	TotalCount int                `json:"total_count"`
	Limit      int                `json:"limit"`
	Offset     int                `json:"offset"`
}

func pageIDs(p listingsPage) []string {
	out := make([]string, 0, len(p.Listings))
	for _, l := range p.Listings {
		out = append(out, l.ID)
	}
	return out
}

func TestListingHandler_ListListings(t *testing.T) {
	handler := handlers.NewListingHandler(newQueryService(t, sampleCatalog()...), nil)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"no filters", "", []string{"1", "2", "3"}},
		{"studio", "type=Studio", []string{"1", "3"}},
		{"all types", "type=all", []string{"1", "2", "3"}},
		{"price bracket", "price=900-1200", []string{"2", "3"}},
		{"distance km", "distance=1", []string{"1", "3"}},
		{"distance minutes", "distance_min=6", []string{"1"}},
		{"furnished", "furnished=true", []string{"1"}},
		{"available now", "available=true", []string{"1", "3"}},
		{"utilities", "utilities=true", []string{"1", "3"}},
		{"parking", "parking=true", []string{"2"}},
		{"text", "q=talbot", []string{"2"}},
		{"inverted price matches nothing", "price=1200-900", []string{}},
		{"paged", "limit=1&offset=1", []string{"2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ListListings(rec, httptest.NewRequest(http.MethodGet, "/api/listings?"+tt.query, nil))

			require.Equal(t, http.StatusOK, rec.Code)
			var page listingsPage
			decodeBody(t, rec, &page)
			assert.Equal(t, tt.want, pageIDs(page))
		})
	}
}

func TestListingHandler_ListListings_BadParams(t *testing.T) {
	handler := handlers.NewListingHandler(newQueryService(t, sampleCatalog()...), nil)

	for _, query := range []string{"price=cheap", "distance=near", "furnished=maybe", "limit=-1", "offset=x"} {
		t.Run(query, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ListListings(rec, httptest.NewRequest(http.MethodGet, "/api/listings?"+query, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestListingHandler_GetListing(t *testing.T) {
	handler := handlers.NewListingHandler(newQueryService(t, sampleCatalog()...), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/listings/1", nil)
	req.SetPathValue("id", "1")
	rec := httptest.NewRecorder()
	handler.GetListing(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var listing entities.Listing
	decodeBody(t, rec, &listing)
	assert.Equal(t, "Studio près du campus", listing.Title)
	assert.True(t, listing.Availability.IsNow())

	req = httptest.NewRequest(http.MethodGet, "/api/listings/missing", nil)
	req.SetPathValue("id", "missing")
	rec = httptest.NewRecorder()
	handler.GetListing(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListingHandler_GetFacets(t *testing.T) {
	handler := handlers.NewListingHandler(newQueryService(t, sampleCatalog()...), nil)

	rec := httptest.NewRecorder()
	handler.GetFacets(rec, httptest.NewRequest(http.MethodGet, "/api/listings/facets", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var facets catalog.Facets
	decodeBody(t, rec, &facets)
	require.Len(t, facets.PriceRanges, 4)
	assert.Equal(t, "0-900", facets.PriceRanges[0].Value)
	assert.Equal(t, 900, facets.PriceRanges[0].Max)
	assert.Equal(t, []float64{0.5, 1, 2}, facets.Distances)
	assert.Contains(t, facets.Types, "Studio")
}

func TestListingHandler_GetSimilar(t *testing.T) {
	handler := handlers.NewListingHandler(newQueryService(t, sampleCatalog()...), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/listings/1/similar", nil)
	req.SetPathValue("id", "1")
	rec := httptest.NewRecorder()
	handler.GetSimilar(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body listingsPage
	decodeBody(t, rec, &body)
	assert.Equal(t, []string{"3"}, pageIDs(body))

	req = httptest.NewRequest(http.MethodGet, "/api/listings/1/similar?limit=0", nil)
	req.SetPathValue("id", "1")
	rec = httptest.NewRecorder()
	handler.GetSimilar(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListingHandler_GetImages_FromListing(t *testing.T) {
	handler := handlers.NewListingHandler(newQueryService(t, sampleCatalog()...), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/listings/1/images", nil)
	req.SetPathValue("id", "1")
	rec := httptest.NewRecorder()
	handler.GetImages(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Images []entities.ListingImage `json:"images"`
	}
	decodeBody(t, rec, &body)
	require.Len(t, body.Images, 2)
	assert.Equal(t, "/img/1a.jpg", body.Images[0].URL)
	assert.Equal(t, 1, body.Images[1].DisplayOrder)
}

func TestParseBrowseParams(t *testing.T) {
	params, err := handlers.ParseBrowseParams(url.Values{
		"price":        {"900-1200"},
		"distance_min": {"12"},
		"type":         {" 3½ "},
		"parking":      {"1"},
		"q":            {"  talbot "},
	})
	require.NoError(t, err)
	require.NotNil(t, params.Criteria.PriceRange)
	assert.Equal(t, 900, params.Criteria.PriceRange.Min)
	require.NotNil(t, params.Criteria.MaxDistanceKm)
	assert.InDelta(t, 1.0, *params.Criteria.MaxDistanceKm, 1e-9)
	assert.Equal(t, "3½", params.Criteria.UnitType)
	assert.True(t, params.Criteria.ParkingOnly)
	assert.Equal(t, "talbot", params.Query)

	params, err = handlers.ParseBrowseParams(url.Values{"distance": {"0.5"}, "distance_min": {"60"}})
	require.NoError(t, err)
	assert.Equal(t, 0.5, *params.Criteria.MaxDistanceKm, "kilometers win over minutes")
}
