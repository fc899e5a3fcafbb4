package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/uqac-logement/backend/internal/domain/entities"
	"github.com/uqac-logement/backend/internal/domain/providers"
	"github.com/uqac-logement/backend/internal/domain/repositories"
	"github.com/uqac-logement/backend/pkg/config"
	apperrors "github.com/uqac-logement/backend/pkg/errors"
)

var errImageTooLarge = errors.New("image exceeds size limit")

// ImageService manages listing galleries
type ImageService struct {
	listings repositories.ListingRepository
	images   repositories.ListingImageRepository
	storage  providers.ObjectStorage
	eventBus providers.EventBus
	cfg      config.StorageConfig
}

// NewImageService creates a new image service
func NewImageService(
	listings repositories.ListingRepository,
	images repositories.ListingImageRepository,
	storage providers.ObjectStorage,
	eventBus providers.EventBus,
	cfg config.StorageConfig,
) *ImageService {
	return &ImageService{
		listings: listings,
		images:   images,
		storage:  storage,
		eventBus: eventBus,
		cfg:      cfg,
	}
}

// ImageURL returns the public URL of a stored object
func (s *ImageService) ImageURL(objectID string) string {
	return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + objectID
}

// ObjectID extracts the stored object ID from a public URL
func (s *ImageService) ObjectID(url string) string {
	prefix := strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return ""
	}
	return strings.TrimPrefix(url, prefix)
}

func (s *ImageService) authorize(ctx context.Context, user *entities.User, listingID string) (*entities.Listing, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !user.CanManage(listing.OwnerID) {
		return nil, apperrors.NewForbiddenError(fmt.Sprintf("listing %s belongs to another owner", listingID))
	}
	return listing, nil
}

// List returns a gallery ordered by display order
func (s *ImageService) List(ctx context.Context, listingID string) ([]*entities.ListingImage, error) {
	return s.images.ListByListing(ctx, listingID)
}

// Upload validates and stores one image, appending it to the gallery
func (s *ImageService) Upload(ctx context.Context, user *entities.User, listingID, name, contentType string, size int64, content io.Reader) (*entities.ListingImage, error) {
	listing, err := s.authorize(ctx, user, listingID)
	if err != nil {
		return nil, err
	}

	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return nil, apperrors.NewValidationError("only image files are accepted")
	}
	if size > s.cfg.MaxImageBytes {
		return nil, apperrors.NewValidationError(fmt.Sprintf("image must not exceed %d MB", s.cfg.MaxImageBytes/(1024*1024)))
	}

	existing, err := s.images.ListByListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if len(existing) >= s.cfg.MaxImagesPerListing {
		return nil, apperrors.NewValidationError(fmt.Sprintf("a listing may have at most %d images", s.cfg.MaxImagesPerListing))
	}

	objectID, err := s.storage.Upload(ctx, name, contentType, &limitedReader{r: content, remaining: s.cfg.MaxImageBytes})
	if errors.Is(err, errImageTooLarge) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("image must not exceed %d MB", s.cfg.MaxImageBytes/(1024*1024)))
	}
	if err != nil {
		return nil, apperrors.NewExternalError("failed to store image", err)
	}

	image := &entities.ListingImage{
		ID:           uuid.NewString(),
		ListingID:    listingID,
		URL:          s.ImageURL(objectID),
		DisplayOrder: len(existing),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.images.Add(ctx, image); err != nil {
		if delErr := s.storage.Delete(ctx, objectID); delErr != nil {
			log.Ctx(ctx).Warn().Err(delErr).Str("object_id", objectID).Msg("failed to remove orphaned image")
		}
		return nil, err
	}

	s.publishChange(ctx, listing, len(existing)+1)
	return image, nil
}

// Remove deletes one image and renumbers the rest
func (s *ImageService) Remove(ctx context.Context, user *entities.User, listingID, imageID string) error {
	listing, err := s.authorize(ctx, user, listingID)
	if err != nil {
		return err
	}

	gallery, err := s.images.ListByListing(ctx, listingID)
	if err != nil {
		return err
	}
	var target *entities.ListingImage
	remaining := make([]string, 0, len(gallery))
	for _, img := range gallery {
		if img.ID == imageID {
			target = img
			continue
		}
		remaining = append(remaining, img.ID)
	}
	if target == nil {
		return apperrors.NewNotFoundError(fmt.Sprintf("image %s not found", imageID))
	}

	if err := s.images.Delete(ctx, imageID); err != nil {
		return err
	}
	if len(remaining) > 0 {
		if err := s.images.Reorder(ctx, listingID, remaining); err != nil {
			return err
		}
	}
	s.deleteObject(ctx, target.URL)

	s.publishChange(ctx, listing, len(remaining))
	return nil
}

// Move shifts the image at position from to position to
func (s *ImageService) Move(ctx context.Context, user *entities.User, listingID string, from, to int) ([]*entities.ListingImage, error) {
	listing, err := s.authorize(ctx, user, listingID)
	if err != nil {
		return nil, err
	}

	gallery, err := s.images.ListByListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if from < 0 || from >= len(gallery) || to < 0 || to >= len(gallery) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("positions must be between 0 and %d", len(gallery)-1))
	}
	if from == to {
		return gallery, nil
	}

	moved := gallery[from]
	reordered := make([]*entities.ListingImage, 0, len(gallery))
	reordered = append(reordered, gallery[:from]...)
	reordered = append(reordered, gallery[from+1:]...)
	reordered = append(reordered[:to], append([]*entities.ListingImage{moved}, reordered[to:]...)...)

	ids := make([]string, len(reordered))
	for i, img := range reordered {
		ids[i] = img.ID
		img.DisplayOrder = i
	}
	if err := s.images.Reorder(ctx, listingID, ids); err != nil {
		return nil, err
	}

	s.publishChange(ctx, listing, len(reordered))
	return reordered, nil
}

// RemoveAll drops every stored object of a listing. Rows go with the
// listing through the foreign key.
func (s *ImageService) RemoveAll(ctx context.Context, listingID string) error {
	gallery, err := s.images.ListByListing(ctx, listingID)
	if err != nil {
		return err
	}
	for _, img := range gallery {
		s.deleteObject(ctx, img.URL)
	}
	return nil
}

// Open streams a stored image
func (s *ImageService) Open(ctx context.Context, objectID string) (io.ReadCloser, *entities.StoredObject, error) {
	return s.storage.Open(ctx, objectID)
}

func (s *ImageService) deleteObject(ctx context.Context, url string) {
	objectID := s.ObjectID(url)
	if objectID == "" {
		return
	}
	if err := s.storage.Delete(ctx, objectID); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("object_id", objectID).Msg("failed to delete stored image")
	}
}

func (s *ImageService) publishChange(ctx context.Context, listing *entities.Listing, count int) {
	publishListingEvent(ctx, s.eventBus, entities.NewListingEvent(listing.ID, listing.OwnerID, entities.ListingEventImagesChanged, map[string]interface{}{
		"image_count": count,
	}))
}

// limitedReader fails once more than remaining bytes have been read
type limitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, errImageTooLarge
	}
	return n, err
}
