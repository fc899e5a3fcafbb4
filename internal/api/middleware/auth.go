package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"github.com/uqac-logement/backend/internal/domain/entities"
)

type userContextKey struct{}

// UserFromContext returns the authenticated user, or nil for anonymous requests
func UserFromContext(ctx context.Context) *entities.User {
	user, _ := ctx.Value(userContextKey{}).(*entities.User)
	return user
}

// WithUser stores user in ctx
func WithUser(ctx context.Context, user *entities.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// Authenticator verifies HS256 bearer tokens issued by the auth provider
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an authenticator. An empty secret rejects every token.
func NewAuthenticator(secret string) *Authenticator {
	if secret == "" {
		log.Warn().Msg("JWT_SECRET is not set, bearer tokens will be rejected")
	}
	return &Authenticator{secret: []byte(secret)}
}

// Middleware identifies the caller when a bearer token is present. Requests
// without a token continue anonymously; an invalid token is rejected.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			writeError(w, http.StatusUnauthorized, "invalid authorization header")
			return
		}

		user, err := a.Verify(strings.TrimSpace(raw))
		if err != nil {
			log.Ctx(r.Context()).Debug().Err(err).Msg("Rejected bearer token")
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		logger := log.Ctx(r.Context()).With().Str("user_id", user.ID).Logger()
		ctx := logger.WithContext(WithUser(r.Context(), user))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Verify parses a token and extracts the identity it carries
func (a *Authenticator) Verify(tokenString string) (*entities.User, error) {
	if len(a.secret) == 0 {
		return nil, errors.New("token verification is not configured")
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	user := &entities.User{ID: subject, Role: entities.RoleOwner}
	metadata, _ := claims["user_metadata"].(map[string]interface{})

	user.Email = stringClaim(claims, metadata, "email")
	user.FullName = stringClaim(claims, metadata, "full_name")
	user.Role = entities.ParseRole(roleClaim(claims, metadata))
	return user, nil
}

// roleClaim prefers the application role kept in user metadata. Hosted auth
// providers put their own database role ("authenticated") at the top level.
func roleClaim(claims jwt.MapClaims, metadata map[string]interface{}) string {
	if v, ok := metadata["role"].(string); ok && v != "" {
		return v
	}
	v, _ := claims["role"].(string)
	return v
}

// stringClaim prefers the top-level claim and falls back to user metadata
func stringClaim(claims jwt.MapClaims, metadata map[string]interface{}, name string) string {
	if v, ok := claims[name].(string); ok && v != "" {
		return v
	}
	if v, ok := metadata[name].(string); ok {
		return v
	}
	return ""
}

// RequireRole rejects anonymous callers with 401 and callers lacking one of
// roles with 403. Admins pass every check.
func RequireRole(roles ...entities.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !user.IsAdmin() && !hasRole(user.Role, roles) {
				writeError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func hasRole(role entities.Role, roles []entities.Role) bool {
	for _, allowed := range roles {
		if role == allowed {
			return true
		}
	}
	return false
}
