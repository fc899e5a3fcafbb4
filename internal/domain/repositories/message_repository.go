package repositories

import (
	"context"

	"github.com/uqac-logement/backend/internal/domain/entities"
)

// MessageRepository defines the interface for contact messages
type MessageRepository interface {
	// Create stores a new message
	Create(ctx context.Context, message *entities.ContactMessage) error

	// GetByID retrieves a message
	GetByID(ctx context.Context, id string) (*entities.ContactMessage, error)

	// ListByOwner returns an owner's messages newest first, with listing titles
	ListByOwner(ctx context.Context, ownerID string) ([]*entities.ContactMessage, error)

	// UpdateStatus changes a message status
	UpdateStatus(ctx context.Context, id string, status entities.MessageStatus) error
}
