package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/uqac-logement/backend/internal/domain/entities"
	"github.com/uqac-logement/backend/internal/domain/providers"
	mongoclient "github.com/uqac-logement/backend/internal/infrastructure/clients/mongo"
	apperrors "github.com/uqac-logement/backend/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const contentTypeKey = "contentType"

// GridFSStorage stores listing images in a MongoDB GridFS bucket
type GridFSStorage struct {
	bucket *gridfs.Bucket
}

var _ providers.ObjectStorage = (*GridFSStorage)(nil)

// NewGridFSStorage opens the configured bucket
func NewGridFSStorage(client *mongoclient.Client) (*GridFSStorage, error) {
	bucket, err := client.Bucket()
	if err != nil {
		return nil, fmt.Errorf("failed to open GridFS bucket: %w", err)
	}
	return &GridFSStorage{bucket: bucket}, nil
}

// Upload stores the content and returns the hex object ID
func (s *GridFSStorage) Upload(ctx context.Context, name, contentType string, content io.Reader) (string, error) {
	opts := options.GridFSUpload().SetMetadata(bson.D{{Key: contentTypeKey, Value: contentType}})
	stream, err := s.bucket.OpenUploadStream(name, opts)
	if err != nil {
		return "", fmt.Errorf("failed to open upload stream: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetWriteDeadline(deadline)
	}

	if _, err := io.Copy(stream, content); err != nil {
		_ = stream.Abort()
		return "", fmt.Errorf("failed to upload %s: %w", name, err)
	}
	if err := stream.Close(); err != nil {
		return "", fmt.Errorf("failed to finish upload of %s: %w", name, err)
	}

	id, ok := stream.FileID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected GridFS file id %v", stream.FileID)
	}
	return id.Hex(), nil
}

// Open returns a reader for an object; the caller closes it
func (s *GridFSStorage) Open(ctx context.Context, id string) (io.ReadCloser, *entities.StoredObject, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil, apperrors.NewNotFoundError(fmt.Sprintf("image %s not found", id))
	}

	stream, err := s.bucket.OpenDownloadStream(objectID)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, nil, apperrors.NewNotFoundError(fmt.Sprintf("image %s not found", id))
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open image %s: %w", id, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetReadDeadline(deadline)
	}

	file := stream.GetFile()
	object := &entities.StoredObject{ID: id, Size: file.Length, ContentType: "application/octet-stream"}
	if value, err := file.Metadata.LookupErr(contentTypeKey); err == nil {
		if ct, ok := value.StringValueOK(); ok && ct != "" {
			object.ContentType = ct
		}
	}
	return stream, object, nil
}

// Delete removes an object; a missing object is not an error
func (s *GridFSStorage) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	err = s.bucket.DeleteContext(ctx, objectID)
	if err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
		return fmt.Errorf("failed to delete image %s: %w", id, err)
	}
	return nil
}
