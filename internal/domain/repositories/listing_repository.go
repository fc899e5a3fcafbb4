package repositories

import (
	"context"

	"github.com/uqac-logement/backend/internal/domain/entities"
)

// ListingRepository defines the interface for listing persistence
type ListingRepository interface {
	// Create creates a new listing
	Create(ctx context.Context, listing *entities.Listing) error

	// GetByID retrieves a listing by ID regardless of status
	GetByID(ctx context.Context, id string) (*entities.Listing, error)

	// GetByIDs retrieves multiple listings; missing IDs are skipped
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Listing, error)

	// Update updates the editable fields of a listing
	Update(ctx context.Context, listing *entities.Listing) error

	// UpdateStatus changes the lifecycle status of a listing
	UpdateStatus(ctx context.Context, id string, status entities.ListingStatus) error

	// Delete deletes a listing
	Delete(ctx context.Context, id string) error

	// ListAvailable returns available listings, newest first
	ListAvailable(ctx context.Context) ([]*entities.Listing, error)

	// ListByOwner returns every listing of an owner, newest first
	ListByOwner(ctx context.Context, ownerID string) ([]*entities.Listing, error)

	// DeleteByOwner deletes all listings of an owner and returns the count
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
}

// ListingSearchRepository defines text search over listings (e.g. Typesense)
type ListingSearchRepository interface {
	// Index adds or replaces a listing document
	Index(ctx context.Context, listing *entities.Listing) error

	// Delete removes a listing from the index
	Delete(ctx context.Context, id string) error

	// SearchIDs returns the IDs of listings matching query, best match first
	SearchIDs(ctx context.Context, query string, limit int) ([]string, error)
}
