package handlers

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/uqac-logement/backend/internal/api/middleware"
	"github.com/uqac-logement/backend/internal/domain/entities"
	apperrors "github.com/uqac-logement/backend/pkg/errors"
)

// OwnerListings manages the listings of the calling owner
type OwnerListings interface {
	Create(ctx context.Context, user *entities.User, listing *entities.Listing) error
	Get(ctx context.Context, user *entities.User, id string) (*entities.Listing, error)
	Update(ctx context.Context, user *entities.User, listing *entities.Listing) error
	ChangeStatus(ctx context.Context, user *entities.User, id string, status entities.ListingStatus) (*entities.Listing, error)
	Delete(ctx context.Context, user *entities.User, id string) error
	ListByOwner(ctx context.Context, user *entities.User, ownerID string) ([]*entities.Listing, error)
	Dashboard(ctx context.Context, user *entities.User, ownerID string) (*entities.StatusCounts, error)
}

// ImageManager edits listing galleries
type ImageManager interface {
	Upload(ctx context.Context, user *entities.User, listingID, name, contentType string, size int64, content io.Reader) (*entities.ListingImage, error)
	Remove(ctx context.Context, user *entities.User, listingID, imageID string) error
	Move(ctx context.Context, user *entities.User, listingID string, from, to int) ([]*entities.ListingImage, error)
}

// FavoriteCounter counts how many accounts favorited a listing
type FavoriteCounter interface {
	CountForListing(ctx context.Context, listingID string) (int, error)
}

// UnreadCounter counts an owner's unread messages
type UnreadCounter interface {
	CountNew(ctx context.Context, user *entities.User) (int, error)
}

// OwnerHandler handles the owner back office
type OwnerHandler struct {
	listings    OwnerListings
	images      ImageManager
	favorites   FavoriteCounter
	messages    UnreadCounter
	uploadLimit int64
}

// NewOwnerHandler creates a new owner handler. uploadLimit bounds the size
// of one multipart upload request.
func NewOwnerHandler(listings OwnerListings, images ImageManager, favorites FavoriteCounter, messages UnreadCounter, uploadLimit int64) *OwnerHandler {
	return &OwnerHandler{
		listings:    listings,
		images:      images,
		favorites:   favorites,
		messages:    messages,
		uploadLimit: uploadLimit,
	}
}

// listingRequest is the editable part of a listing. Distance may be given
// in kilometers or in walking minutes.
type listingRequest struct {
	OwnerID      string                 `json:"owner_id"`
	Title        string                 `json:"title"`
	Description  string                 `json:"description"`
	Address      string                 `json:"address"`
	Type         string                 `json:"type"`
	Price        int                    `json:"price"`
	DistanceKm   *float64               `json:"distance_km"`
	DistanceMin  *float64               `json:"distance_min"`
	Bedrooms     int                    `json:"bedrooms"`
	Bathrooms    int                    `json:"bathrooms"`
	Surface      int                    `json:"surface"`
	Furnished    bool                   `json:"furnished"`
	Availability *entities.Availability `json:"availability"`
	Utilities    *entities.Utilities    `json:"utilities"`
	Services     []string               `json:"services"`
}

func (req *listingRequest) toListing(id string) *entities.Listing {
	listing := &entities.Listing{
		ID:           id,
		OwnerID:      req.OwnerID,
		Title:        req.Title,
		Description:  req.Description,
		Address:      req.Address,
		Type:         req.Type,
		Price:        req.Price,
		Bedrooms:     req.Bedrooms,
		Bathrooms:    req.Bathrooms,
		Surface:      req.Surface,
		Furnished:    req.Furnished,
		Availability: entities.AvailableNow(),
		Utilities:    entities.ParseUtilities(""),
		Services:     req.Services,
	}
	switch {
	case req.DistanceKm != nil:
		listing.DistanceKm = *req.DistanceKm
	case req.DistanceMin != nil:
		listing.DistanceKm = entities.DistanceFromMinutes(*req.DistanceMin)
	}
	if req.Availability != nil {
		listing.Availability = *req.Availability
	}
	if req.Utilities != nil {
		listing.Utilities = *req.Utilities
	}
	if listing.Services == nil {
		listing.Services = []string{}
	}
	return listing
}

// ListListings handles GET /api/owner/listings. Admins may pass owner_id.
func (h *OwnerHandler) ListListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.listings.ListByOwner(r.Context(), middleware.UserFromContext(r.Context()), r.URL.Query().Get("owner_id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"listings": listings,
		"count":    len(listings),
	})
}

// CreateListing handles POST /api/owner/listings
func (h *OwnerHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	var req listingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	listing := req.toListing("")
	if err := h.listings.Create(r.Context(), middleware.UserFromContext(r.Context()), listing); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, listing)
}

// UpdateListing handles PUT /api/owner/listings/{id}
func (h *OwnerHandler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	var req listingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	listing := req.toListing(r.PathValue("id"))
	if err := h.listings.Update(r.Context(), middleware.UserFromContext(r.Context()), listing); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, listing)
}

// DeleteListing handles DELETE /api/owner/listings/{id}
func (h *OwnerHandler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	if err := h.listings.Delete(r.Context(), middleware.UserFromContext(r.Context()), r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statusRequest struct {
	Status string `json:"status"`
}

// ChangeStatus handles PATCH /api/owner/listings/{id}/status
func (h *OwnerHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	status, err := entities.ParseListingStatus(req.Status)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	listing, err := h.listings.ChangeStatus(r.Context(), middleware.UserFromContext(r.Context()), r.PathValue("id"), status)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, listing)
}

// UploadImages handles POST /api/owner/listings/{id}/images. Files are
// read from the "images" form field, or "image" for a single file, and
// stored one by one; the first rejected file stops the upload.
func (h *OwnerHandler) UploadImages(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	listingID := r.PathValue("id")

	if h.uploadLimit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.uploadLimit)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid multipart upload")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files := append(r.MultipartForm.File["images"], r.MultipartForm.File["image"]...)
	if len(files) == 0 {
		respondWithError(w, http.StatusBadRequest, "no image provided")
		return
	}

	uploaded := make([]*entities.ListingImage, 0, len(files))
	for _, header := range files {
		image, err := h.uploadOne(r.Context(), user, listingID, header)
		if err != nil {
			respondWithAppError(w, r, err)
			return
		}
		uploaded = append(uploaded, image)
	}
	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"images": uploaded,
	})
}

func (h *OwnerHandler) uploadOne(ctx context.Context, user *entities.User, listingID string, header *multipart.FileHeader) (*entities.ListingImage, error) {
	file, err := header.Open()
	if err != nil {
		return nil, apperrors.NewValidationError("unreadable file " + header.Filename)
	}
	defer file.Close()

	return h.images.Upload(ctx, user, listingID, header.Filename, header.Header.Get("Content-Type"), header.Size, file)
}

// DeleteImage handles DELETE /api/owner/listings/{id}/images/{imageId}
func (h *OwnerHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	err := h.images.Remove(r.Context(), middleware.UserFromContext(r.Context()), r.PathValue("id"), r.PathValue("imageId"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type moveImageRequest struct {
	From *int `json:"from"`
	To   *int `json:"to"`
}

// MoveImage handles PATCH /api/owner/listings/{id}/images/order
func (h *OwnerHandler) MoveImage(w http.ResponseWriter, r *http.Request) {
	var req moveImageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if req.From == nil || req.To == nil {
		respondWithError(w, http.StatusBadRequest, "from and to are required")
		return
	}

	images, err := h.images.Move(r.Context(), middleware.UserFromContext(r.Context()), r.PathValue("id"), *req.From, *req.To)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"images": images,
	})
}

// FavoriteCount handles GET /api/owner/listings/{id}/favorites/count
func (h *OwnerHandler) FavoriteCount(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.listings.Get(r.Context(), middleware.UserFromContext(r.Context()), id); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	count, err := h.favorites.CountForListing(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"listing_id": id,
		"count":      count,
	})
}

// Stats handles GET /api/owner/stats
func (h *OwnerHandler) Stats(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	counts, err := h.listings.Dashboard(r.Context(), user, r.URL.Query().Get("owner_id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	unread, err := h.messages.CountNew(r.Context(), user)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"listings":     counts,
		"new_messages": unread,
	})
}
