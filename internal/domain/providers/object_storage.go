package providers

import (
	"context"
	"io"

	"github.com/uqac-logement/backend/internal/domain/entities"
)

// ObjectStorage stores listing image bytes
type ObjectStorage interface {
	// Upload stores the content and returns its object ID
	Upload(ctx context.Context, name, contentType string, content io.Reader) (string, error)

	// Open returns a reader for an object; the caller closes it
	Open(ctx context.Context, id string) (io.ReadCloser, *entities.StoredObject, error)

	// Delete removes an object
	Delete(ctx context.Context, id string) error
}
