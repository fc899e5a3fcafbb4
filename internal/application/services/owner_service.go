package services

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/uqac-logement/backend/internal/domain/entities"
	"github.com/uqac-logement/backend/internal/domain/providers"
	"github.com/uqac-logement/backend/internal/domain/repositories"
	apperrors "github.com/uqac-logement/backend/pkg/errors"
)

// OwnerService handles admin operations on owner accounts
type OwnerService struct {
	owners   repositories.OwnerRepository
	listings repositories.ListingRepository
	eventBus providers.EventBus
	images   ImageCleaner
}

// NewOwnerService creates a new owner service
func NewOwnerService(owners repositories.OwnerRepository, listings repositories.ListingRepository, eventBus providers.EventBus, images ImageCleaner) *OwnerService {
	return &OwnerService{
		owners:   owners,
		listings: listings,
		eventBus: eventBus,
		images:   images,
	}
}

func requireAdmin(user *entities.User) error {
	if err := requireUser(user); err != nil {
		return err
	}
	if !user.IsAdmin() {
		return apperrors.NewForbiddenError("admin role required")
	}
	return nil
}

// List returns every owner
func (s *OwnerService) List(ctx context.Context, user *entities.User) ([]*entities.Owner, error) {
	if err := requireAdmin(user); err != nil {
		return nil, err
	}
	return s.owners.List(ctx)
}

// ToggleActive flips an owner's active flag. Listings of inactive owners
// drop out of the public catalog, so each one is announced as updated.
func (s *OwnerService) ToggleActive(ctx context.Context, user *entities.User, id string) (*entities.Owner, error) {
	if err := requireAdmin(user); err != nil {
		return nil, err
	}
	owner, err := s.owners.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.owners.SetActive(ctx, id, !owner.IsActive); err != nil {
		return nil, err
	}
	owner.IsActive = !owner.IsActive

	s.announce(ctx, id, entities.ListingEventUpdated, map[string]interface{}{"owner_active": owner.IsActive})
	return owner, nil
}

// Delete removes an owner together with all their listings
func (s *OwnerService) Delete(ctx context.Context, user *entities.User, id string) error {
	if err := requireAdmin(user); err != nil {
		return err
	}
	if _, err := s.owners.GetByID(ctx, id); err != nil {
		return err
	}

	listings, err := s.listings.ListByOwner(ctx, id)
	if err != nil {
		return err
	}
	if s.images != nil {
		for _, l := range listings {
			if err := s.images.RemoveAll(ctx, l.ID); err != nil {
				log.Ctx(ctx).Warn().Err(err).Str("listing_id", l.ID).Msg("failed to remove listing images")
			}
		}
	}

	removed, err := s.listings.DeleteByOwner(ctx, id)
	if err != nil {
		return err
	}
	if err := s.owners.Delete(ctx, id); err != nil {
		return err
	}

	for _, l := range listings {
		publishListingEvent(ctx, s.eventBus, entities.NewListingEvent(l.ID, id, entities.ListingEventDeleted, nil))
	}
	log.Ctx(ctx).Info().Str("owner_id", id).Int64("listings_removed", removed).Msg("owner deleted")
	return nil
}

// Stats returns platform-wide counts
func (s *OwnerService) Stats(ctx context.Context, user *entities.User) (*entities.PlatformStats, error) {
	if err := requireAdmin(user); err != nil {
		return nil, err
	}
	return s.owners.Stats(ctx)
}

func (s *OwnerService) announce(ctx context.Context, ownerID string, eventType entities.ListingEventType, fields map[string]interface{}) {
	if s.eventBus == nil {
		return
	}
	listings, err := s.listings.ListByOwner(ctx, ownerID)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("owner_id", ownerID).Msg("failed to list owner listings for announcement")
		return
	}
	for _, l := range listings {
		publishListingEvent(ctx, s.eventBus, entities.NewListingEvent(l.ID, ownerID, eventType, fields))
	}
}
