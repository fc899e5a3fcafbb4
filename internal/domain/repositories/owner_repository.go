package repositories

import (
	"context"

	"github.com/uqac-logement/backend/internal/domain/entities"
)

// OwnerRepository defines the interface for owner accounts
type OwnerRepository interface {
	// Ensure creates the owner row if it does not exist yet
	Ensure(ctx context.Context, owner *entities.Owner) error

	// GetByID retrieves an owner
	GetByID(ctx context.Context, id string) (*entities.Owner, error)

	// List returns all owners, newest first
	List(ctx context.Context) ([]*entities.Owner, error)

	// SetActive toggles the active flag
	SetActive(ctx context.Context, id string, active bool) error

	// Delete removes an owner
	Delete(ctx context.Context, id string) error

	// Stats returns platform-wide counts
	Stats(ctx context.Context) (*entities.PlatformStats, error)
}
