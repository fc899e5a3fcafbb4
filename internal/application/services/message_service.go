package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/uqac-logement/backend/internal/domain/entities"
	"github.com/uqac-logement/backend/internal/domain/repositories"
	apperrors "github.com/uqac-logement/backend/pkg/errors"
)

const (
	MaxMessageLength = 2000
	maxNameLength    = 120
	maxEmailLength   = 200
)

// SendMessageRequest is a contact form submission
type SendMessageRequest struct {
	ListingID   string
	SenderID    *string
	SenderName  string
	SenderEmail string
	Message     string
	ClientIP    string
}

// SendResult reports what happened to a submission
type SendResult struct {
	Message    *entities.ContactMessage
	Duplicate  bool
	RetryAfter time.Duration
}

// MessageService handles contact messages between students and owners
type MessageService struct {
	repo     repositories.MessageRepository
	listings repositories.ListingRepository
	guard    *ContactGuard
}

// NewMessageService creates a new message service
func NewMessageService(repo repositories.MessageRepository, listings repositories.ListingRepository, guard *ContactGuard) *MessageService {
	return &MessageService{
		repo:     repo,
		listings: listings,
		guard:    guard,
	}
}

func (r *SendMessageRequest) normalize() error {
	r.SenderName = strings.TrimSpace(r.SenderName)
	r.SenderEmail = strings.TrimSpace(r.SenderEmail)
	r.Message = strings.TrimSpace(r.Message)

	switch {
	case r.SenderName == "":
		return apperrors.NewValidationError("name is required")
	case utf8.RuneCountInString(r.SenderName) > maxNameLength:
		return apperrors.NewValidationError("name is too long")
	case r.SenderEmail == "":
		return apperrors.NewValidationError("email is required")
	case len(r.SenderEmail) > maxEmailLength:
		return apperrors.NewValidationError("email is too long")
	case r.Message == "":
		return apperrors.NewValidationError("message is required")
	case utf8.RuneCountInString(r.Message) > MaxMessageLength:
		return apperrors.NewValidationError(fmt.Sprintf("message must not exceed %d characters", MaxMessageLength))
	}

	addr, err := mail.ParseAddress(r.SenderEmail)
	if err != nil {
		return apperrors.NewValidationError("email is invalid")
	}
	r.SenderEmail = addr.Address
	return nil
}

// Send validates and stores a contact message for the owner of a listing
func (s *MessageService) Send(ctx context.Context, req SendMessageRequest) (*SendResult, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	listing, err := s.listings.GetByID(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.Status == entities.ListingStatusSuspended {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("listing %s not found", req.ListingID))
	}
	if !listing.CanContactOwner() {
		return nil, apperrors.NewValidationError("this listing cannot be contacted")
	}

	if s.guard != nil {
		if allowed, retryAfter := s.guard.Allow(ctx, req.ClientIP); !allowed {
			return &SendResult{RetryAfter: retryAfter}, apperrors.NewRateLimitedError("too many messages, try again later")
		}
		if s.guard.Duplicate(ctx, contactFingerprint(req.ListingID, req.SenderEmail, req.Message, req.ClientIP)) {
			return &SendResult{Duplicate: true}, nil
		}
	}

	msg := &entities.ContactMessage{
		ID:          uuid.NewString(),
		ListingID:   listing.ID,
		OwnerID:     listing.OwnerID,
		SenderID:    req.SenderID,
		SenderName:  req.SenderName,
		SenderEmail: req.SenderEmail,
		Message:     req.Message,
		Status:      entities.MessageStatusNew,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().Str("listing_id", listing.ID).Str("message_id", msg.ID).Msg("contact message stored")
	return &SendResult{Message: msg}, nil
}

// Inbox returns an owner's messages newest first. An empty ownerID means the caller.
func (s *MessageService) Inbox(ctx context.Context, user *entities.User, ownerID string) ([]*entities.ContactMessage, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	if ownerID == "" {
		ownerID = user.ID
	}
	if !user.CanManage(ownerID) {
		return nil, apperrors.NewForbiddenError("cannot read another owner's messages")
	}
	return s.repo.ListByOwner(ctx, ownerID)
}

// UpdateStatus marks a message read or archived
func (s *MessageService) UpdateStatus(ctx context.Context, user *entities.User, id string, status entities.MessageStatus) (*entities.ContactMessage, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	msg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.CanManage(msg.OwnerID) {
		return nil, apperrors.NewForbiddenError("cannot update another owner's messages")
	}
	if msg.Status == status {
		return msg, nil
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	msg.Status = status
	return msg, nil
}

// CountNew returns how many unread messages the caller has
func (s *MessageService) CountNew(ctx context.Context, user *entities.User) (int, error) {
	counts, err := s.Summary(ctx, user)
	if err != nil {
		return 0, err
	}
	return counts.New, nil
}

// ByListing returns the caller's messages about one listing
func (s *MessageService) ByListing(ctx context.Context, user *entities.User, listingID string) ([]*entities.ContactMessage, error) {
	inbox, err := s.Inbox(ctx, user, "")
	if err != nil {
		return nil, err
	}
	out := make([]*entities.ContactMessage, 0)
	for _, m := range inbox {
		if m.ListingID == listingID {
			out = append(out, m)
		}
	}
	return out, nil
}

// Summary counts the caller's messages overall and per listing
func (s *MessageService) Summary(ctx context.Context, user *entities.User) (*entities.MessageCounts, error) {
	inbox, err := s.Inbox(ctx, user, "")
	if err != nil {
		return nil, err
	}
	return CountMessages(inbox), nil
}

// CountMessages aggregates an inbox
func CountMessages(messages []*entities.ContactMessage) *entities.MessageCounts {
	counts := &entities.MessageCounts{
		ByListing:    make(map[string]int),
		NewByListing: make(map[string]int),
	}
	for _, m := range messages {
		counts.Total++
		counts.ByListing[m.ListingID]++
		if m.Status == entities.MessageStatusNew {
			counts.New++
			counts.NewByListing[m.ListingID]++
		}
	}
	return counts
}
