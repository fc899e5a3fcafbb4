package routes

import (
	"net/http"
	"time"

	"github.com/uqac-logement/backend/internal/api/handlers"
	"github.com/uqac-logement/backend/internal/api/middleware"
	"github.com/uqac-logement/backend/internal/domain/entities"
	"github.com/uqac-logement/backend/internal/domain/repositories"
	"github.com/uqac-logement/backend/internal/infrastructure/observability"
)

// Handlers groups the route handlers. Owner, Admin and SSE may be nil, in
// which case their routes are not registered.
type Handlers struct {
	Health    *handlers.HealthHandler
	Listings  *handlers.ListingHandler
	Favorites *handlers.FavoritesHandler
	Messages  *handlers.MessageHandler
	Owner     *handlers.OwnerHandler
	Admin     *handlers.AdminHandler
	Images    *handlers.ImageHandler
	SSE       *handlers.SSEHandler
}

// Options configures the middleware chain
type Options struct {
	Authenticator  *middleware.Authenticator
	Cache          *middleware.CacheMiddleware
	Metrics        *observability.Metrics
	ListingRepo    repositories.ListingRepository
	AllowedOrigins []string
	SessionCookie  string
	SessionTTL     time.Duration
	SecureCookies  bool
}

// Router holds all route handlers
type Router struct {
	mux      *http.ServeMux
	handlers Handlers
	opts     Options
}

// NewRouter creates a new router
func NewRouter(h Handlers, opts Options) *Router {
	if opts.SessionCookie == "" {
		opts.SessionCookie = "uqac_session"
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * 24 * time.Hour
	}
	if opts.Authenticator == nil {
		opts.Authenticator = middleware.NewAuthenticator("")
	}
	return &Router{
		mux:      http.NewServeMux(),
		handlers: h,
		opts:     opts,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	h := r.handlers

	r.mux.HandleFunc("GET /health", h.Health.Health)

	// Public catalog
	r.mux.HandleFunc("GET /api/listings", h.Listings.ListListings)
	r.mux.HandleFunc("GET /api/listings/facets", h.Listings.GetFacets)
	r.mux.HandleFunc("GET /api/listings/{id}", h.Listings.GetListing)
	r.mux.HandleFunc("GET /api/listings/{id}/similar", h.Listings.GetSimilar)
	r.mux.HandleFunc("GET /api/listings/{id}/images", h.Listings.GetImages)
	r.mux.HandleFunc("POST /api/listings/{id}/messages", h.Messages.ContactOwner)

	// Favorites
	r.mux.HandleFunc("GET /api/favorites", h.Favorites.GetFavorites)
	r.mux.HandleFunc("DELETE /api/favorites", h.Favorites.ClearFavorites)
	r.mux.HandleFunc("GET /api/favorites/listings", h.Favorites.GetFavoriteListings)
	r.mux.HandleFunc("POST /api/favorites/{id}/toggle", h.Favorites.ToggleFavorite)
	r.mux.HandleFunc("POST /api/session/login", h.Favorites.Login)
	r.mux.HandleFunc("POST /api/session/logout", h.Favorites.Logout)

	r.mux.HandleFunc("GET /api/images/{id}", h.Images.ServeImage)

	if h.SSE != nil {
		r.mux.HandleFunc("GET /api/stream/listings", h.SSE.StreamListings)
		r.mux.HandleFunc("GET /api/stream/listings/{id}", h.SSE.StreamListing)
	}

	if h.Owner != nil {
		owner := middleware.RequireRole(entities.RoleOwner)
		r.handle(owner, "GET /api/owner/listings", h.Owner.ListListings)
		r.handle(owner, "POST /api/owner/listings", h.Owner.CreateListing)
		r.handle(owner, "PUT /api/owner/listings/{id}", h.Owner.UpdateListing)
		r.handle(owner, "DELETE /api/owner/listings/{id}", h.Owner.DeleteListing)
		r.handle(owner, "PATCH /api/owner/listings/{id}/status", h.Owner.ChangeStatus)
		r.handle(owner, "POST /api/owner/listings/{id}/images", h.Owner.UploadImages)
		r.handle(owner, "PATCH /api/owner/listings/{id}/images/order", h.Owner.MoveImage)
		r.handle(owner, "DELETE /api/owner/listings/{id}/images/{imageId}", h.Owner.DeleteImage)
		r.handle(owner, "GET /api/owner/listings/{id}/favorites/count", h.Owner.FavoriteCount)
		r.handle(owner, "GET /api/owner/messages", h.Messages.ListMessages)
		r.handle(owner, "PATCH /api/owner/messages/{id}", h.Messages.UpdateMessage)
		r.handle(owner, "GET /api/owner/stats", h.Owner.Stats)
	}

	if h.Admin != nil {
		admin := middleware.RequireRole(entities.RoleAdmin)
		r.handle(admin, "GET /api/admin/owners", h.Admin.ListOwners)
		r.handle(admin, "PATCH /api/admin/owners/{id}/active", h.Admin.ToggleOwner)
		r.handle(admin, "DELETE /api/admin/owners/{id}", h.Admin.DeleteOwner)
		r.handle(admin, "GET /api/admin/stats", h.Admin.Stats)
	}

	// Apply middleware in reverse order (last middleware wraps first)

	var handler http.Handler = r.mux

	// Cache sits closest to the mux so hits skip handler work
	if r.opts.Cache != nil {
		handler = r.opts.Cache.Middleware(handler)
	}

	handler = middleware.Loaders(r.opts.ListingRepo)(handler)
	handler = middleware.Session(r.opts.SessionCookie, r.opts.SessionTTL, r.opts.SecureCookies)(handler)
	handler = r.opts.Authenticator.Middleware(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.opts.Metrics, middleware.MuxRoutes(r.mux))(handler)

	// Apply HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORS(r.opts.AllowedOrigins)(handler)

	return handler
}

func (r *Router) handle(guard func(http.Handler) http.Handler, pattern string, fn http.HandlerFunc) {
	r.mux.Handle(pattern, guard(fn))
}
