package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/uqac-logement/backend/internal/domain/entities"
)

// ImageOpener streams stored image bytes
type ImageOpener interface {
	Open(ctx context.Context, objectID string) (io.ReadCloser, *entities.StoredObject, error)
}

// ImageHandler serves uploaded listing images
type ImageHandler struct {
	images ImageOpener
}

// NewImageHandler creates a new image handler
func NewImageHandler(images ImageOpener) *ImageHandler {
	return &ImageHandler{images: images}
}

// ServeImage handles GET /api/images/{id}
func (h *ImageHandler) ServeImage(w http.ResponseWriter, r *http.Request) {
	content, object, err := h.images.Open(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	defer content.Close()

	contentType := object.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if object.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(object.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, content); err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Str("object_id", object.ID).Msg("image transfer interrupted")
	}
}
