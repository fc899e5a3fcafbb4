package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	apperrors "github.com/uqac-logement/backend/pkg/errors"
)

func TestRespondWithAppError(t *testing.T) {
	tests := []struct {
		err  error
		want int
		body string
	}{
		{apperrors.NewNotFoundError("listing x not found"), http.StatusNotFound, "listing x not found"},
		{apperrors.NewValidationError("title is required"), http.StatusBadRequest, "title is required"},
		{apperrors.NewConflictError("already exists"), http.StatusConflict, "already exists"},
		{apperrors.NewUnauthorizedError("authentication required"), http.StatusUnauthorized, "authentication required"},
		{apperrors.NewForbiddenError("not yours"), http.StatusForbidden, "not yours"},
		{apperrors.NewRateLimitedError("slow down"), http.StatusTooManyRequests, "slow down"},
		{apperrors.NewExternalError("redis", errors.New("dial tcp")), http.StatusBadGateway, "a dependency is unavailable"},
		{apperrors.NewInternalError("query failed", errors.New("pq: syntax")), http.StatusInternalServerError, "internal server error"},
		{errors.New("plain"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		respondWithAppError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
		assert.Equal(t, tt.want, rec.Code, tt.err.Error())
		assert.Contains(t, rec.Body.String(), tt.body)
		assert.NotContains(t, rec.Body.String(), "pq: syntax")
	}
}

func TestSetRetryAfter(t *testing.T) {
	rec := httptest.NewRecorder()
	setRetryAfter(rec, 1500*time.Millisecond)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))

	rec = httptest.NewRecorder()
	setRetryAfter(rec, 0)
	assert.Empty(t, rec.Header().Get("Retry-After"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.4:5555"
	assert.Equal(t, "192.168.1.4", clientIP(req))

	req.Header.Set("X-Real-IP", "10.1.1.1")
	assert.Equal(t, "10.1.1.1", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", clientIP(req))
}
