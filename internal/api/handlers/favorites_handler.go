package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/uqac-logement/backend/internal/api/middleware"
	"github.com/uqac-logement/backend/internal/application/services"
	"github.com/uqac-logement/backend/internal/domain/entities"
	apperrors "github.com/uqac-logement/backend/pkg/errors"
)

// FavoritesManager reads and changes a visitor's favorites
type FavoritesManager interface {
	Open(ctx context.Context, scope entities.FavoriteScope) (*services.FavoriteSet, error)
	Toggle(ctx context.Context, scope entities.FavoriteScope, listingID string) (bool, error)
	Login(ctx context.Context, sessionID, userID string) (*services.FavoriteSet, error)
	Logout(ctx context.Context, sessionID string) (*services.FavoriteSet, error)
}

// FavoritesHandler handles favorites and session endpoints
type FavoritesHandler struct {
	favorites FavoritesManager
	listings  ListingReader
}

// NewFavoritesHandler creates a new favorites handler
func NewFavoritesHandler(favorites FavoritesManager, listings ListingReader) *FavoritesHandler {
	return &FavoritesHandler{
		favorites: favorites,
		listings:  listings,
	}
}

type favoritesResponse struct {
	IDs     []string `json:"ids"`
	Count   int      `json:"count"`
	Backend string   `json:"backend"`
}

func newFavoritesResponse(set *services.FavoriteSet) favoritesResponse {
	return favoritesResponse{IDs: set.IDs(), Count: set.Len(), Backend: set.Backend()}
}

func scopeFor(r *http.Request) entities.FavoriteScope {
	scope := entities.FavoriteScope{SessionID: middleware.SessionIDFromContext(r.Context())}
	if user := middleware.UserFromContext(r.Context()); user != nil {
		scope.UserID = user.ID
	}
	return scope
}

// GetFavorites handles GET /api/favorites
func (h *FavoritesHandler) GetFavorites(w http.ResponseWriter, r *http.Request) {
	set, err := h.favorites.Open(r.Context(), scopeFor(r))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, newFavoritesResponse(set))
}

// ToggleFavorite handles POST /api/favorites/{id}/toggle. A listing can be
// added only while it is publicly visible; an existing favorite can always
// be removed.
func (h *FavoritesHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	listingID := r.PathValue("id")
	if listingID == "" {
		respondWithError(w, http.StatusBadRequest, "listing ID is required")
		return
	}

	scope := scopeFor(r)
	set, err := h.favorites.Open(r.Context(), scope)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if !set.IsFavorite(listingID) {
		if _, err := h.listings.GetByID(r.Context(), listingID); err != nil {
			respondWithAppError(w, r, err)
			return
		}
	}

	favorite, err := h.favorites.Toggle(r.Context(), scope, listingID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"listing_id": listingID,
		"favorite":   favorite,
	})
}

// ClearFavorites handles DELETE /api/favorites?confirm=true
func (h *FavoritesHandler) ClearFavorites(w http.ResponseWriter, r *http.Request) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))

	set, err := h.favorites.Open(r.Context(), scopeFor(r))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if err := set.Clear(r.Context(), confirmed); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetFavoriteListings handles GET /api/favorites/listings
func (h *FavoritesHandler) GetFavoriteListings(w http.ResponseWriter, r *http.Request) {
	set, err := h.favorites.Open(r.Context(), scopeFor(r))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	listings, err := h.listings.Favorites(r.Context(), set.IDs())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"listings": listings,
		"count":    len(listings),
	})
}

// Login handles POST /api/session/login. The bearer token identifies the
// account; the session cookie identifies the anonymous favorites to merge.
func (h *FavoritesHandler) Login(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		respondWithAppError(w, r, apperrors.NewUnauthorizedError("authentication required"))
		return
	}

	set, err := h.favorites.Login(r.Context(), middleware.SessionIDFromContext(r.Context()), user.ID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	log.Ctx(r.Context()).Info().Str("user_id", user.ID).Msg("session login")
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"user":      user,
		"favorites": newFavoritesResponse(set),
	})
}

// Logout handles POST /api/session/logout and returns the anonymous set
// the visitor sees from now on
func (h *FavoritesHandler) Logout(w http.ResponseWriter, r *http.Request) {
	set, err := h.favorites.Logout(r.Context(), middleware.SessionIDFromContext(r.Context()))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"favorites": newFavoritesResponse(set),
	})
}
