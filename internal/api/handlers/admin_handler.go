package handlers

import (
	"context"
	"net/http"

	"github.com/uqac-logement/backend/internal/api/middleware"
	"github.com/uqac-logement/backend/internal/domain/entities"
)

// OwnerAdministration is the admin view over owner accounts
type OwnerAdministration interface {
	List(ctx context.Context, user *entities.User) ([]*entities.Owner, error)
	ToggleActive(ctx context.Context, user *entities.User, id string) (*entities.Owner, error)
	Delete(ctx context.Context, user *entities.User, id string) error
	Stats(ctx context.Context, user *entities.User) (*entities.PlatformStats, error)
}

// AdminHandler handles the admin back office
type AdminHandler struct {
	owners OwnerAdministration
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(owners OwnerAdministration) *AdminHandler {
	return &AdminHandler{owners: owners}
}

// ListOwners handles GET /api/admin/owners
func (h *AdminHandler) ListOwners(w http.ResponseWriter, r *http.Request) {
	owners, err := h.owners.List(r.Context(), middleware.UserFromContext(r.Context()))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"owners": owners,
		"count":  len(owners),
	})
}

// ToggleOwner handles PATCH /api/admin/owners/{id}/active
func (h *AdminHandler) ToggleOwner(w http.ResponseWriter, r *http.Request) {
	owner, err := h.owners.ToggleActive(r.Context(), middleware.UserFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, owner)
}

// DeleteOwner handles DELETE /api/admin/owners/{id}
func (h *AdminHandler) DeleteOwner(w http.ResponseWriter, r *http.Request) {
	if err := h.owners.Delete(r.Context(), middleware.UserFromContext(r.Context()), r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /api/admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.owners.Stats(r.Context(), middleware.UserFromContext(r.Context()))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}
