package services

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/uqac-logement/backend/internal/domain/entities"
	"github.com/uqac-logement/backend/internal/domain/repositories"
	"github.com/uqac-logement/backend/internal/infrastructure/observability"
	apperrors "github.com/uqac-logement/backend/pkg/errors"
)

// FavoritesService picks the favorites backend for a visitor and moves
// anonymous favorites into the account on login
type FavoritesService struct {
	session  repositories.FavoriteStore
	accounts repositories.FavoriteRepository
	metrics  *observability.Metrics
}

// NewFavoritesService creates a new favorites service. accounts may be nil
// when no database is configured, in which case everyone uses the session store.
func NewFavoritesService(session repositories.FavoriteStore, accounts repositories.FavoriteRepository, metrics *observability.Metrics) *FavoritesService {
	return &FavoritesService{
		session:  session,
		accounts: accounts,
		metrics:  metrics,
	}
}

// Open loads the favorites visible to scope
func (s *FavoritesService) Open(ctx context.Context, scope entities.FavoriteScope) (*FavoriteSet, error) {
	if scope.Authenticated() && s.accounts != nil {
		return LoadFavoriteSet(ctx, s.accounts, scope.UserID, FavoriteBackendAccount)
	}
	if scope.SessionID == "" {
		return nil, apperrors.NewValidationError("a session is required for favorites")
	}
	return LoadFavoriteSet(ctx, s.session, scope.SessionID, FavoriteBackendSession)
}

// Toggle flips one favorite and records the outcome
func (s *FavoritesService) Toggle(ctx context.Context, scope entities.FavoriteScope, listingID string) (bool, error) {
	set, err := s.Open(ctx, scope)
	if err != nil {
		return false, err
	}
	added, err := set.Toggle(ctx, listingID)
	if err != nil {
		return added, err
	}
	observability.RecordFavoriteToggle(ctx, s.metrics, set.Backend(), added)
	return added, nil
}

// Login merges the session favorites into the account. The result is the
// union of both sets, account entries first. Ids of listings that no longer
// exist are dropped. The session set is cleared only after every remaining
// id has been written to the account, so a failed merge loses nothing and
// can be retried.
func (s *FavoritesService) Login(ctx context.Context, sessionID, userID string) (*FavoriteSet, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("user id is required")
	}
	scope := entities.FavoriteScope{SessionID: sessionID, UserID: userID}
	if s.accounts == nil || sessionID == "" {
		return s.Open(ctx, scope)
	}

	account, err := LoadFavoriteSet(ctx, s.accounts, userID, FavoriteBackendAccount)
	if err != nil {
		return nil, err
	}
	anonymous, err := s.session.List(ctx, sessionID)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to read session favorites", err)
	}

	merged, dropped := 0, 0
	for _, id := range anonymous {
		if account.IsFavorite(id) {
			continue
		}
		if _, err := account.Toggle(ctx, id); err != nil {
			if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
				log.Ctx(ctx).Warn().Str("listing_id", id).Msg("dropping favorite of deleted listing")
				dropped++
				continue
			}
			return nil, err
		}
		merged++
	}

	if err := s.session.Clear(ctx, sessionID); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("session_id", sessionID).Msg("failed to clear session favorites after merge")
	}

	log.Ctx(ctx).Info().
		Str("user_id", userID).
		Int("merged", merged).
		Int("dropped", dropped).
		Int("total", account.Len()).
		Msg("merged session favorites into account")
	return account, nil
}

// Logout returns the set the visitor sees once signed out
func (s *FavoritesService) Logout(ctx context.Context, sessionID string) (*FavoriteSet, error) {
	return s.Open(ctx, entities.FavoriteScope{SessionID: sessionID})
}

// CountForListing returns how many accounts favorited a listing
func (s *FavoritesService) CountForListing(ctx context.Context, listingID string) (int, error) {
	if s.accounts == nil {
		return 0, nil
	}
	n, err := s.accounts.CountByListing(ctx, listingID)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to count favorites", err)
	}
	return n, nil
}
