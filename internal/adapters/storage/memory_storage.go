package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/uqac-logement/backend/internal/domain/entities"
	"github.com/uqac-logement/backend/internal/domain/providers"
	apperrors "github.com/uqac-logement/backend/pkg/errors"
)

type memoryObject struct {
	contentType string
	data        []byte
}

// MemoryStorage keeps images in process memory. It backs development
// setups without MongoDB; objects are lost on restart.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

var _ providers.ObjectStorage = (*MemoryStorage)(nil)

// NewMemoryStorage creates an empty in-memory store
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string]memoryObject)}
}

// Upload stores the content and returns a new object ID
func (s *MemoryStorage) Upload(ctx context.Context, name, contentType string, content io.Reader) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.objects[id] = memoryObject{contentType: contentType, data: data}
	s.mu.Unlock()
	return id, nil
}

// Open returns a reader over a copy of the object
func (s *MemoryStorage) Open(ctx context.Context, id string) (io.ReadCloser, *entities.StoredObject, error) {
	s.mu.RLock()
	obj, ok := s.objects[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, apperrors.NewNotFoundError(fmt.Sprintf("image %s not found", id))
	}
	return io.NopCloser(bytes.NewReader(obj.data)), &entities.StoredObject{
		ID:          id,
		ContentType: obj.contentType,
		Size:        int64(len(obj.data)),
	}, nil
}

// Delete removes an object
func (s *MemoryStorage) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.objects, id)
	s.mu.Unlock()
	return nil
}
