package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uqac-logement/backend/internal/domain/entities"
	"github.com/uqac-logement/backend/internal/domain/repositories"
	"github.com/uqac-logement/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/uqac-logement/backend/pkg/errors"
)

// OwnerAdapter implements OwnerRepository
type OwnerAdapter struct {
	client *postgres.Client
}

// NewOwnerAdapter creates a new owner adapter
func NewOwnerAdapter(client *postgres.Client) repositories.OwnerRepository {
	return &OwnerAdapter{client: client}
}

// Ensure creates the owner row if it does not exist yet
func (a *OwnerAdapter) Ensure(ctx context.Context, owner *entities.Owner) error {
	query := `
		INSERT INTO owners (id, email, full_name, phone, is_active, created_at)
		VALUES (:id, :email, :full_name, :phone, :is_active, :created_at)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := a.client.DBx().NamedExecContext(ctx, query, owner); err != nil {
		return apperrors.NewInternalError("failed to ensure owner", err)
	}
	return nil
}

// GetByID retrieves an owner
func (a *OwnerAdapter) GetByID(ctx context.Context, id string) (*entities.Owner, error) {
	query := `SELECT id, email, full_name, phone, is_active, created_at FROM owners WHERE id = $1`

	owner := &entities.Owner{}
	err := a.client.DBx().GetContext(ctx, owner, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("owner with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get owner", err)
	}
	return owner, nil
}

// List returns all owners, newest first
func (a *OwnerAdapter) List(ctx context.Context) ([]*entities.Owner, error) {
	query := `SELECT id, email, full_name, phone, is_active, created_at FROM owners ORDER BY created_at DESC`

	owners := []*entities.Owner{}
	if err := a.client.DBx().SelectContext(ctx, &owners, query); err != nil {
		return nil, apperrors.NewInternalError("failed to list owners", err)
	}
	return owners, nil
}

// SetActive toggles the active flag
func (a *OwnerAdapter) SetActive(ctx context.Context, id string, active bool) error {
	result, err := a.client.DBx().ExecContext(ctx, `UPDATE owners SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return apperrors.NewInternalError("failed to update owner", err)
	}
	return ownerAffected(result, id)
}

// Delete removes an owner
func (a *OwnerAdapter) Delete(ctx context.Context, id string) error {
	result, err := a.client.DBx().ExecContext(ctx, `DELETE FROM owners WHERE id = $1`, id)
	if err != nil {
		return apperrors.NewInternalError("failed to delete owner", err)
	}
	return ownerAffected(result, id)
}

func ownerAffected(result sql.Result, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("owner with id %s not found", id))
	}
	return nil
}

// Stats returns platform-wide counts
func (a *OwnerAdapter) Stats(ctx context.Context) (*entities.PlatformStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM owners) AS owners,
			(SELECT COUNT(*) FROM owners WHERE is_active) AS active_owners,
			(SELECT COUNT(*) FROM properties) AS listings,
			(SELECT COUNT(*) FROM properties WHERE status = 'disponible') AS available_listings,
			(SELECT COUNT(*) FROM contact_messages) AS messages,
			(SELECT COUNT(*) FROM contact_messages WHERE status = 'new') AS new_messages
	`

	stats := &entities.PlatformStats{}
	if err := a.client.DBx().GetContext(ctx, stats, query); err != nil {
		return nil, apperrors.NewInternalError("failed to get platform stats", err)
	}
	return stats, nil
}
