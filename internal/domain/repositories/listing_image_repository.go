package repositories

import (
	"context"

	"github.com/uqac-logement/backend/internal/domain/entities"
)

// ListingImageRepository defines the interface for gallery rows
type ListingImageRepository interface {
	// ListByListing returns images ordered by display order
	ListByListing(ctx context.Context, listingID string) ([]*entities.ListingImage, error)

	// Add inserts an image row
	Add(ctx context.Context, image *entities.ListingImage) error

	// Delete removes an image row
	Delete(ctx context.Context, id string) error

	// Reorder persists display orders so that orderedIDs[i] gets order i
	Reorder(ctx context.Context, listingID string, orderedIDs []string) error
}
