package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/uqac-logement/backend/internal/domain/entities"
	"github.com/uqac-logement/backend/internal/query/catalog"
	queryservices "github.com/uqac-logement/backend/internal/query/services"
	apperrors "github.com/uqac-logement/backend/pkg/errors"
)

// ListingReader is the public read side of the catalog
type ListingReader interface {
	Browse(ctx context.Context, params queryservices.BrowseParams) (*queryservices.BrowseResult, error)
	GetByID(ctx context.Context, id string) (*entities.Listing, error)
	Similar(ctx context.Context, id string, limit int) ([]entities.Listing, error)
	Favorites(ctx context.Context, ids []string) ([]entities.Listing, error)
}

// GalleryReader lists the images of a listing
type GalleryReader interface {
	List(ctx context.Context, listingID string) ([]*entities.ListingImage, error)
}

// ListingHandler handles the public listing endpoints
type ListingHandler struct {
	listings ListingReader
	gallery  GalleryReader
}

// NewListingHandler creates a new listing handler. gallery may be nil, in
// which case the images embedded in the listing are returned.
func NewListingHandler(listings ListingReader, gallery GalleryReader) *ListingHandler {
	return &ListingHandler{
		listings: listings,
		gallery:  gallery,
	}
}

// ListListings handles GET /api/listings
func (h *ListingHandler) ListListings(w http.ResponseWriter, r *http.Request) {
	params, err := ParseBrowseParams(r.URL.Query())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	result, err := h.listings.Browse(r.Context(), params)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// GetFacets handles GET /api/listings/facets
func (h *ListingHandler) GetFacets(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, catalog.DefaultFacets())
}

// GetListing handles GET /api/listings/{id}
func (h *ListingHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "listing ID is required")
		return
	}

	listing, err := h.listings.GetByID(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, listing)
}

// GetSimilar handles GET /api/listings/{id}/similar
func (h *ListingHandler) GetSimilar(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	limit := catalog.DefaultSimilarLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	similar, err := h.listings.Similar(r.Context(), id, limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"listings": similar,
		"count":    len(similar),
	})
}

// GetImages handles GET /api/listings/{id}/images
func (h *ListingHandler) GetImages(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	listing, err := h.listings.GetByID(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	if h.gallery == nil {
		images := make([]*entities.ListingImage, len(listing.Images))
		for i, url := range listing.Images {
			images[i] = &entities.ListingImage{ListingID: id, URL: url, DisplayOrder: i}
		}
		respondWithJSON(w, http.StatusOK, map[string]interface{}{"images": images})
		return
	}

	images, err := h.gallery.List(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"images": images})
}

// ParseBrowseParams reads browse filters from a query string. Unknown
// values for a known facet are rejected; bounds that can never match are
// left to the filter, which then returns nothing.
func ParseBrowseParams(q url.Values) (queryservices.BrowseParams, error) {
	var params queryservices.BrowseParams

	price, err := catalog.ParsePriceRange(q.Get("price"))
	if err != nil {
		return params, apperrors.NewValidationError(err.Error())
	}
	params.Criteria.PriceRange = price

	distance, err := catalog.ParseMaxDistance(q.Get("distance"))
	if err != nil {
		return params, apperrors.NewValidationError(err.Error())
	}
	if distance == nil {
		minutes, err := catalog.ParseMaxDistance(q.Get("distance_min"))
		if err != nil {
			return params, apperrors.NewValidationError(err.Error())
		}
		if minutes != nil {
			km := *minutes / entities.WalkingMinutesPerKm
			distance = &km
		}
	}
	params.Criteria.MaxDistanceKm = distance

	params.Criteria.UnitType = catalog.ParseUnitType(q.Get("type"))

	flags := []struct {
		name string
		dst  *bool
	}{
		{"furnished", &params.Criteria.FurnishedOnly},
		{"available", &params.Criteria.AvailableNowOnly},
		{"utilities", &params.Criteria.UtilitiesIncludedOnly},
		{"parking", &params.Criteria.ParkingOnly},
	}
	for _, f := range flags {
		v, err := parseFlag(q.Get(f.name))
		if err != nil {
			return params, apperrors.NewValidationError(f.name + " must be true or false")
		}
		*f.dst = v
	}

	params.Query = strings.TrimSpace(q.Get("q"))

	if params.Limit, err = parseNonNegative(q.Get("limit")); err != nil {
		return params, apperrors.NewValidationError("limit must be a non-negative integer")
	}
	if params.Offset, err = parseNonNegative(q.Get("offset")); err != nil {
		return params, apperrors.NewValidationError("offset must be a non-negative integer")
	}
	return params, nil
}

func parseFlag(value string) (bool, error) {
	if value == "" {
		return false, nil
	}
	return strconv.ParseBool(value)
}

func parseNonNegative(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}
