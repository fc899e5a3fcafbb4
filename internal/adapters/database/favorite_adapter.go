package database

import (
	"context"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"
	"github.com/uqac-logement/backend/internal/domain/repositories"
	"github.com/uqac-logement/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/uqac-logement/backend/pkg/errors"
)

const favoritesTable = "favorites"

// foreign_key_violation
const pqForeignKeyViolation = "23503"

// FavoriteAdapter implements FavoriteRepository. The store key is the user ID.
type FavoriteAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewFavoriteAdapter creates a new favorite adapter
func NewFavoriteAdapter(client *postgres.Client) repositories.FavoriteRepository {
	return &FavoriteAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// List returns listing IDs in the order they were added
func (a *FavoriteAdapter) List(ctx context.Context, userID string) ([]string, error) {
	query, args, err := a.db.Select("property_id").
		From(favoritesTable).
		Where(goqu.Ex{"user_id": userID}).
		Order(goqu.I("created_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	ids := []string{}
	if err := a.client.DBx().SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list favorites", err)
	}
	return ids, nil
}

// Add adds a favorite; an existing pair is left untouched. A listing that
// no longer exists yields a NOT_FOUND error.
func (a *FavoriteAdapter) Add(ctx context.Context, userID, listingID string) error {
	query, args, err := a.db.Insert(favoritesTable).
		Rows(goqu.Record{
			"user_id":     userID,
			"property_id": listingID,
			"created_at":  time.Now(),
		}).
		OnConflict(goqu.DoNothing()).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
			return apperrors.NewNotFoundError("listing not found: " + listingID)
		}
		return apperrors.NewInternalError("failed to add favorite", err)
	}
	return nil
}

// Remove removes a favorite; a missing pair is not an error
func (a *FavoriteAdapter) Remove(ctx context.Context, userID, listingID string) error {
	query, args, err := a.db.Delete(favoritesTable).
		Where(goqu.Ex{"user_id": userID, "property_id": listingID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to remove favorite", err)
	}
	return nil
}

// Clear removes every favorite of a user
func (a *FavoriteAdapter) Clear(ctx context.Context, userID string) error {
	query, args, err := a.db.Delete(favoritesTable).Where(goqu.Ex{"user_id": userID}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to clear favorites", err)
	}
	return nil
}

// CountByListing returns how many accounts favorited a listing
func (a *FavoriteAdapter) CountByListing(ctx context.Context, listingID string) (int, error) {
	query, args, err := a.db.Select(goqu.COUNT("*")).
		From(favoritesTable).
		Where(goqu.Ex{"property_id": listingID}).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count favorites", err)
	}
	return count, nil
}
