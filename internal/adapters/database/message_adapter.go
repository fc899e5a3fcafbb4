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

const messageColumns = `m.id, m.property_id, m.owner_id, m.sender_id, m.sender_name, m.sender_email,
	m.message, m.status, m.created_at, COALESCE(p.title, '') AS listing_title`

// MessageAdapter implements MessageRepository
type MessageAdapter struct {
	client *postgres.Client
}

// NewMessageAdapter creates a new message adapter
func NewMessageAdapter(client *postgres.Client) repositories.MessageRepository {
	return &MessageAdapter{client: client}
}

// Create stores a new message
func (a *MessageAdapter) Create(ctx context.Context, message *entities.ContactMessage) error {
	query := `
		INSERT INTO contact_messages (id, property_id, owner_id, sender_id, sender_name, sender_email, message, status, created_at)
		VALUES (:id, :property_id, :owner_id, :sender_id, :sender_name, :sender_email, :message, :status, :created_at)
	`
	if _, err := a.client.DBx().NamedExecContext(ctx, query, message); err != nil {
		return apperrors.NewInternalError("failed to create message", err)
	}
	return nil
}

// GetByID retrieves a message
func (a *MessageAdapter) GetByID(ctx context.Context, id string) (*entities.ContactMessage, error) {
	query := `SELECT ` + messageColumns + `
		FROM contact_messages m
		LEFT JOIN properties p ON p.id = m.property_id
		WHERE m.id = $1`

	message := &entities.ContactMessage{}
	err := a.client.DBx().GetContext(ctx, message, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("message with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get message", err)
	}
	return message, nil
}

// ListByOwner returns an owner's messages newest first, with listing titles
func (a *MessageAdapter) ListByOwner(ctx context.Context, ownerID string) ([]*entities.ContactMessage, error) {
	query := `SELECT ` + messageColumns + `
		FROM contact_messages m
		LEFT JOIN properties p ON p.id = m.property_id
		WHERE m.owner_id = $1
		ORDER BY m.created_at DESC`

	messages := []*entities.ContactMessage{}
	if err := a.client.DBx().SelectContext(ctx, &messages, query, ownerID); err != nil {
		return nil, apperrors.NewInternalError("failed to list messages", err)
	}
	return messages, nil
}

// UpdateStatus changes a message status
func (a *MessageAdapter) UpdateStatus(ctx context.Context, id string, status entities.MessageStatus) error {
	result, err := a.client.DBx().ExecContext(ctx, `UPDATE contact_messages SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return apperrors.NewInternalError("failed to update message status", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("message with id %s not found", id))
	}
	return nil
}
