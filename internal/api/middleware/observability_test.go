package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uqac-logement/backend/internal/api/middleware"
)

func TestMuxRoutes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/listings/{id}", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("GET /api/listings/facets", func(w http.ResponseWriter, r *http.Request) {})
	routes := middleware.MuxRoutes(mux)

	assert.Equal(t, "GET /api/listings/{id}", routes(httptest.NewRequest(http.MethodGet, "/api/listings/3f2a", nil)))
	assert.Equal(t, "GET /api/listings/facets", routes(httptest.NewRequest(http.MethodGet, "/api/listings/facets", nil)))
	assert.Empty(t, routes(httptest.NewRequest(http.MethodGet, "/wp-login.php", nil)))
}

func TestObservabilityMiddleware_PassesThrough(t *testing.T) {
	mux := http.NewServeMux()
	var served bool
	mux.HandleFunc("GET /api/stream/listings", func(w http.ResponseWriter, r *http.Request) {
		served = true
		w.WriteHeader(http.StatusTeapot)
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)
		flusher.Flush()
	})
	handler := middleware.ObservabilityMiddleware(nil, middleware.MuxRoutes(mux))(mux)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stream/listings", nil))

	assert.True(t, served)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.True(t, rec.Flushed)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
