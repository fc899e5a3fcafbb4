package handlers

import (
	"context"
	"net/http"

	"github.com/uqac-logement/backend/internal/api/middleware"
	"github.com/uqac-logement/backend/internal/application/services"
	"github.com/uqac-logement/backend/internal/domain/entities"
)

// MessageSender delivers contact messages to owners
type MessageSender interface {
	Send(ctx context.Context, req services.SendMessageRequest) (*services.SendResult, error)
}

// Inbox is an owner's view of received messages
type Inbox interface {
	Inbox(ctx context.Context, user *entities.User, ownerID string) ([]*entities.ContactMessage, error)
	ByListing(ctx context.Context, user *entities.User, listingID string) ([]*entities.ContactMessage, error)
	UpdateStatus(ctx context.Context, user *entities.User, id string, status entities.MessageStatus) (*entities.ContactMessage, error)
}

// MessageHandler handles contact messages
type MessageHandler struct {
	sender MessageSender
	inbox  Inbox
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(sender MessageSender, inbox Inbox) *MessageHandler {
	return &MessageHandler{
		sender: sender,
		inbox:  inbox,
	}
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// ContactOwner handles POST /api/listings/{id}/messages
func (h *MessageHandler) ContactOwner(w http.ResponseWriter, r *http.Request) {
	var payload contactRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	req := services.SendMessageRequest{
		ListingID:   r.PathValue("id"),
		SenderName:  payload.Name,
		SenderEmail: payload.Email,
		Message:     payload.Message,
		ClientIP:    clientIP(r),
	}
	if user := middleware.UserFromContext(r.Context()); user != nil {
		id := user.ID
		req.SenderID = &id
	}

	result, err := h.sender.Send(r.Context(), req)
	if err != nil {
		if result != nil {
			setRetryAfter(w, result.RetryAfter)
		}
		respondWithAppError(w, r, err)
		return
	}

	if result.Duplicate {
		respondWithJSON(w, http.StatusAccepted, map[string]string{
			"status": "duplicate_ignored",
		})
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]string{
		"status": "sent",
		"id":     result.Message.ID,
	})
}

// ListMessages handles GET /api/owner/messages. listing_id narrows the
// inbox to one listing; admins may pass owner_id to read another inbox.
func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	query := r.URL.Query()

	var (
		messages []*entities.ContactMessage
		err      error
	)
	if listingID := query.Get("listing_id"); listingID != "" {
		messages, err = h.inbox.ByListing(r.Context(), user, listingID)
	} else {
		messages, err = h.inbox.Inbox(r.Context(), user, query.Get("owner_id"))
	}
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"messages": messages,
		"summary":  services.CountMessages(messages),
	})
}

type messageStatusRequest struct {
	Status string `json:"status"`
}

// UpdateMessage handles PATCH /api/owner/messages/{id}
func (h *MessageHandler) UpdateMessage(w http.ResponseWriter, r *http.Request) {
	var payload messageStatusRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	status, err := entities.ParseMessageStatus(payload.Status)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	message, err := h.inbox.UpdateStatus(r.Context(), middleware.UserFromContext(r.Context()), r.PathValue("id"), status)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, message)
}
