package database

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/uqac-logement/backend/internal/domain/entities"
	"github.com/uqac-logement/backend/internal/domain/repositories"
	"github.com/uqac-logement/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/uqac-logement/backend/pkg/errors"
)

const imagesTable = "property_images"

// ListingImageAdapter implements ListingImageRepository
type ListingImageAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewListingImageAdapter creates a new listing image adapter
func NewListingImageAdapter(client *postgres.Client) repositories.ListingImageRepository {
	return &ListingImageAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// ListByListing returns images ordered by display order
func (a *ListingImageAdapter) ListByListing(ctx context.Context, listingID string) ([]*entities.ListingImage, error) {
	query, args, err := a.db.Select("id", "property_id", "image_url", "display_order", "created_at").
		From(imagesTable).
		Where(goqu.Ex{"property_id": listingID}).
		Order(goqu.I("display_order").Asc(), goqu.I("created_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	images := []*entities.ListingImage{}
	if err := a.client.DBx().SelectContext(ctx, &images, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list listing images", err)
	}
	return images, nil
}

// Add inserts an image row
func (a *ListingImageAdapter) Add(ctx context.Context, image *entities.ListingImage) error {
	query, args, err := a.db.Insert(imagesTable).Rows(goqu.Record{
		"id":            image.ID,
		"property_id":   image.ListingID,
		"image_url":     image.URL,
		"display_order": image.DisplayOrder,
		"created_at":    image.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to add listing image", err)
	}
	return nil
}

// Delete removes an image row
func (a *ListingImageAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete(imagesTable).Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete listing image", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("image with id %s not found", id))
	}
	return nil
}

// Reorder persists display orders so that orderedIDs[i] gets order i.
// All rows are updated in one transaction.
func (a *ListingImageAdapter) Reorder(ctx context.Context, listingID string, orderedIDs []string) error {
	tx, err := a.client.DB().BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, id := range orderedIDs {
		query, args, err := a.db.Update(imagesTable).
			Set(goqu.Record{"display_order": i}).
			Where(goqu.Ex{"id": id, "property_id": listingID}).
			ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build reorder query", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return apperrors.NewInternalError("failed to reorder listing images", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit image order", err)
	}
	return nil
}
