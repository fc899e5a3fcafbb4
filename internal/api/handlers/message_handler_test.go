package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uqac-logement/backend/internal/api/handlers"
	"github.com/uqac-logement/backend/internal/api/middleware"
	"github.com/uqac-logement/backend/internal/application/services"
	"github.com/uqac-logement/backend/internal/domain/entities"
	apperrors "github.com/uqac-logement/backend/pkg/errors"
)

type MockMessageService struct {
	mock.Mock
}

func (m *MockMessageService) Send(ctx context.Context, req services.SendMessageRequest) (*services.SendResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*services.SendResult)
	return result, args.Error(1)
}

func (m *MockMessageService) Inbox(ctx context.Context, user *entities.User, ownerID string) ([]*entities.ContactMessage, error) {
	args := m.Called(ctx, user, ownerID)
	messages, _ := args.Get(0).([]*entities.ContactMessage)
	return messages, args.Error(1)
}

func (m *MockMessageService) ByListing(ctx context.Context, user *entities.User, listingID string) ([]*entities.ContactMessage, error) {
	args := m.Called(ctx, user, listingID)
	messages, _ := args.Get(0).([]*entities.ContactMessage)
	return messages, args.Error(1)
}

func (m *MockMessageService) UpdateStatus(ctx context.Context, user *entities.User, id string, status entities.MessageStatus) (*entities.ContactMessage, error) {
	args := m.Called(ctx, user, id, status)
	msg, _ := args.Get(0).(*entities.ContactMessage)
	return msg, args.Error(1)
}

func contactRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/listings/1/messages", strings.NewReader(body))
	req.SetPathValue("id", "1")
	req.RemoteAddr = "10.0.0.1:1234"
	return req
}

func TestMessageHandler_ContactOwner(t *testing.T) {
	svc := new(MockMessageService)
	handler := handlers.NewMessageHandler(svc, svc)

	svc.On("Send", mock.Anything, mock.MatchedBy(func(req services.SendMessageRequest) bool {
		return req.ListingID == "1" && req.ClientIP == "10.0.0.1" && req.SenderEmail == "eleve@uqac.ca" && req.SenderID == nil
	})).Return(&services.SendResult{Message: &entities.ContactMessage{ID: "m-1"}}, nil).Once()

	rec := httptest.NewRecorder()
	handler.ContactOwner(rec, contactRequest(`{"name":"Léa","email":"eleve@uqac.ca","message":"Toujours libre?"}`))

	require.Equal(t, http.StatusCreated, rec.Code)
	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, "sent", body["status"])
	assert.Equal(t, "m-1", body["id"])
	svc.AssertExpectations(t)
}

func TestMessageHandler_ContactOwner_Outcomes(t *testing.T) {
	tests := []struct {
		name       string
		result     *services.SendResult
		err        error
		wantStatus int
		retryAfter string
	}{
		{"duplicate", &services.SendResult{Duplicate: true}, nil, http.StatusAccepted, ""},
		{"rate limited", &services.SendResult{RetryAfter: 90 * time.Second}, apperrors.NewRateLimitedError("too many messages"), http.StatusTooManyRequests, "90"},
		{"invalid", nil, apperrors.NewValidationError("email is invalid"), http.StatusBadRequest, ""},
		{"listing gone", nil, apperrors.NewNotFoundError("listing 1 not found"), http.StatusNotFound, ""},
		{"database down", nil, apperrors.NewInternalError("insert failed", assert.AnError), http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockMessageService)
			svc.On("Send", mock.Anything, mock.Anything).Return(tt.result, tt.err)
			handler := handlers.NewMessageHandler(svc, svc)

			rec := httptest.NewRecorder()
			handler.ContactOwner(rec, contactRequest(`{"name":"Léa","email":"eleve@uqac.ca","message":"Bonjour"}`))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.retryAfter, rec.Header().Get("Retry-After"))
		})
	}
}

func TestMessageHandler_ContactOwner_BadBody(t *testing.T) {
	svc := new(MockMessageService)
	handler := handlers.NewMessageHandler(svc, svc)

	rec := httptest.NewRecorder()
	handler.ContactOwner(rec, contactRequest(`{"name":`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestMessageHandler_SignedInSenderIsRecorded(t *testing.T) {
	svc := new(MockMessageService)
	handler := handlers.NewMessageHandler(svc, svc)
	svc.On("Send", mock.Anything, mock.MatchedBy(func(req services.SendMessageRequest) bool {
		return req.SenderID != nil && *req.SenderID == "user-9"
	})).Return(&services.SendResult{Message: &entities.ContactMessage{ID: "m-2"}}, nil)

	req := contactRequest(`{"name":"Léa","email":"eleve@uqac.ca","message":"Bonjour"}`)
	req = req.WithContext(middleware.WithUser(req.Context(), &entities.User{ID: "user-9"}))
	rec := httptest.NewRecorder()
	handler.ContactOwner(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestMessageHandler_ListMessages(t *testing.T) {
	svc := new(MockMessageService)
	handler := handlers.NewMessageHandler(svc, svc)
	owner := &entities.User{ID: "owner-1", Role: entities.RoleOwner}

	inbox := []*entities.ContactMessage{
		{ID: "a", ListingID: "1", Status: entities.MessageStatusNew},
		{ID: "b", ListingID: "1", Status: entities.MessageStatusRead},
		{ID: "c", ListingID: "2", Status: entities.MessageStatusNew},
	}
	svc.On("Inbox", mock.Anything, owner, "").Return(inbox, nil)
	svc.On("ByListing", mock.Anything, owner, "2").Return(inbox[2:], nil)

	req := httptest.NewRequest(http.MethodGet, "/api/owner/messages", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), owner))
	rec := httptest.NewRecorder()
	handler.ListMessages(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Messages []entities.ContactMessage `json:"messages"`
		Summary  entities.MessageCounts    `json:"summary"`
	}
	decodeBody(t, rec, &body)
	assert.Len(t, body.Messages, 3)
	assert.Equal(t, 2, body.Summary.New)
	assert.Equal(t, 2, body.Summary.ByListing["1"])

	req = httptest.NewRequest(http.MethodGet, "/api/owner/messages?listing_id=2", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), owner))
	rec = httptest.NewRecorder()
	handler.ListMessages(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	body.Messages = nil
	decodeBody(t, rec, &body)
	assert.Len(t, body.Messages, 1)
}

func TestMessageHandler_UpdateMessage(t *testing.T) {
	svc := new(MockMessageService)
	handler := handlers.NewMessageHandler(svc, svc)
	owner := &entities.User{ID: "owner-1"}

	svc.On("UpdateStatus", mock.Anything, owner, "m-1", entities.MessageStatusRead).
		Return(&entities.ContactMessage{ID: "m-1", Status: entities.MessageStatusRead}, nil)
	svc.On("UpdateStatus", mock.Anything, owner, "m-2", entities.MessageStatusArchived).
		Return(nil, apperrors.NewForbiddenError("cannot update another owner's messages"))

	patch := func(id, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPatch, "/api/owner/messages/"+id, strings.NewReader(body))
		req.SetPathValue("id", id)
		req = req.WithContext(middleware.WithUser(req.Context(), owner))
		rec := httptest.NewRecorder()
		handler.UpdateMessage(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, patch("m-1", `{"status":"read"}`).Code)
	assert.Equal(t, http.StatusForbidden, patch("m-2", `{"status":"archived"}`).Code)
	assert.Equal(t, http.StatusBadRequest, patch("m-3", `{"status":"deleted"}`).Code)
}
