package middleware

import (
	"net/http"

	"github.com/uqac-logement/backend/internal/domain/repositories"
	"github.com/uqac-logement/backend/internal/query/loaders"
)

// Loaders gives every request its own batching loaders so results are never
// shared between callers
func Loaders(listingRepo repositories.ListingRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if listingRepo == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := loaders.WithLoaders(r.Context(), loaders.NewLoaders(listingRepo))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
