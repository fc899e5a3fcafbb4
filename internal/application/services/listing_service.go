package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/uqac-logement/backend/internal/domain/entities"
	"github.com/uqac-logement/backend/internal/domain/providers"
	"github.com/uqac-logement/backend/internal/domain/repositories"
	apperrors "github.com/uqac-logement/backend/pkg/errors"
)

// ImageCleaner drops every stored image of a listing
type ImageCleaner interface {
	RemoveAll(ctx context.Context, listingID string) error
}

// ListingService handles owner-side listing management
type ListingService struct {
	repo       repositories.ListingRepository
	owners     repositories.OwnerRepository
	searchRepo repositories.ListingSearchRepository
	eventBus   providers.EventBus
	images     ImageCleaner
}

// NewListingService creates a new listing service. searchRepo, eventBus and
// images may be nil.
func NewListingService(
	repo repositories.ListingRepository,
	owners repositories.OwnerRepository,
	searchRepo repositories.ListingSearchRepository,
	eventBus providers.EventBus,
	images ImageCleaner,
) *ListingService {
	return &ListingService{
		repo:       repo,
		owners:     owners,
		searchRepo: searchRepo,
		eventBus:   eventBus,
		images:     images,
	}
}

func requireUser(user *entities.User) error {
	if user == nil || user.ID == "" {
		return apperrors.NewUnauthorizedError("authentication required")
	}
	return nil
}

// Create publishes a new listing owned by the caller. Admins may publish on
// behalf of another owner by setting OwnerID.
func (s *ListingService) Create(ctx context.Context, user *entities.User, listing *entities.Listing) error {
	if err := requireUser(user); err != nil {
		return err
	}
	if listing.OwnerID == "" || !user.IsAdmin() {
		listing.OwnerID = user.ID
	}
	if err := listing.Validate(); err != nil {
		return apperrors.NewValidationError(err.Error())
	}

	if listing.OwnerID == user.ID {
		owner := &entities.Owner{ID: user.ID, Email: user.Email, FullName: user.FullName, IsActive: true, CreatedAt: time.Now().UTC()}
		if err := s.owners.Ensure(ctx, owner); err != nil {
			return err
		}
	}
	owner, err := s.owners.GetByID(ctx, listing.OwnerID)
	if err != nil {
		return err
	}
	if !owner.IsActive {
		return apperrors.NewForbiddenError(fmt.Sprintf("owner %s is deactivated", owner.ID))
	}

	now := time.Now().UTC()
	if listing.ID == "" {
		listing.ID = uuid.NewString()
	}
	if listing.Status == "" {
		listing.Status = entities.ListingStatusAvailable
	}
	listing.CreatedAt = now
	listing.UpdatedAt = now

	if err := s.repo.Create(ctx, listing); err != nil {
		return err
	}

	s.syncIndex(ctx, listing)
	s.publish(ctx, entities.NewListingEvent(listing.ID, listing.OwnerID, entities.ListingEventCreated, nil))
	return nil
}

// Get returns a listing the caller may manage
func (s *ListingService) Get(ctx context.Context, user *entities.User, id string) (*entities.Listing, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	listing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.CanManage(listing.OwnerID) {
		return nil, apperrors.NewForbiddenError(fmt.Sprintf("listing %s belongs to another owner", id))
	}
	return listing, nil
}

// Update replaces the editable fields of a listing. Owner, status and
// creation time are kept from the stored row.
func (s *ListingService) Update(ctx context.Context, user *entities.User, listing *entities.Listing) error {
	existing, err := s.Get(ctx, user, listing.ID)
	if err != nil {
		return err
	}
	if err := listing.Validate(); err != nil {
		return apperrors.NewValidationError(err.Error())
	}

	listing.OwnerID = existing.OwnerID
	listing.Status = existing.Status
	listing.CreatedAt = existing.CreatedAt
	listing.Images = existing.Images
	listing.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, listing); err != nil {
		return err
	}

	s.syncIndex(ctx, listing)
	s.publish(ctx, entities.NewListingEvent(listing.ID, listing.OwnerID, entities.ListingEventUpdated, changedFields(existing, listing)))
	return nil
}

// ChangeStatus moves a listing between available, taken and suspended. The
// new status is only reported back once the store has accepted it.
func (s *ListingService) ChangeStatus(ctx context.Context, user *entities.User, id string, status entities.ListingStatus) (*entities.Listing, error) {
	listing, err := s.Get(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if listing.Status == status {
		return listing, nil
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	previous := listing.Status
	listing.Status = status
	listing.UpdatedAt = time.Now().UTC()

	s.syncIndex(ctx, listing)
	s.publish(ctx, entities.NewListingEvent(id, listing.OwnerID, entities.ListingEventStatusChanged, map[string]interface{}{
		"status":          string(status),
		"previous_status": string(previous),
	}))
	return listing, nil
}

// Delete removes a listing with its images
func (s *ListingService) Delete(ctx context.Context, user *entities.User, id string) error {
	listing, err := s.Get(ctx, user, id)
	if err != nil {
		return err
	}

	if s.images != nil {
		if err := s.images.RemoveAll(ctx, id); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("listing_id", id).Msg("failed to remove listing images")
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.searchRepo != nil {
		if err := s.searchRepo.Delete(ctx, id); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("listing_id", id).Msg("failed to delete listing from index")
		}
	}
	s.publish(ctx, entities.NewListingEvent(id, listing.OwnerID, entities.ListingEventDeleted, nil))
	return nil
}

// ListByOwner returns an owner's listings. An empty ownerID means the caller.
func (s *ListingService) ListByOwner(ctx context.Context, user *entities.User, ownerID string) ([]*entities.Listing, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	if ownerID == "" {
		ownerID = user.ID
	}
	if !user.CanManage(ownerID) {
		return nil, apperrors.NewForbiddenError("cannot list another owner's listings")
	}
	return s.repo.ListByOwner(ctx, ownerID)
}

// Dashboard counts an owner's listings per status
func (s *ListingService) Dashboard(ctx context.Context, user *entities.User, ownerID string) (*entities.StatusCounts, error) {
	listings, err := s.ListByOwner(ctx, user, ownerID)
	if err != nil {
		return nil, err
	}
	counts := &entities.StatusCounts{}
	for _, l := range listings {
		counts.Add(l.Status)
	}
	return counts, nil
}

// syncIndex keeps the text index in line with what is publicly visible
func (s *ListingService) syncIndex(ctx context.Context, listing *entities.Listing) {
	if s.searchRepo == nil {
		return
	}
	var err error
	if listing.Status == entities.ListingStatusAvailable {
		err = s.searchRepo.Index(ctx, listing)
	} else {
		err = s.searchRepo.Delete(ctx, listing.ID)
	}
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("listing_id", listing.ID).Msg("failed to sync listing index")
	}
}

func (s *ListingService) publish(ctx context.Context, event *entities.ListingEvent) {
	publishListingEvent(ctx, s.eventBus, event)
}

// publishListingEvent sends an event on the global and the listing channel
func publishListingEvent(ctx context.Context, bus providers.EventBus, event *entities.ListingEvent) {
	if bus == nil {
		return
	}
	for _, channel := range []string{providers.EventChannelListingUpdates, providers.GetListingChannel(event.ListingID)} {
		if err := bus.Publish(ctx, channel, event); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("channel", channel).Str("listing_id", event.ListingID).Msg("failed to publish listing event")
		}
	}
}

func changedFields(before, after *entities.Listing) map[string]interface{} {
	changed := make(map[string]interface{})
	if before.Title != after.Title {
		changed["title"] = after.Title
	}
	if before.Price != after.Price {
		changed["price"] = after.Price
	}
	if before.Type != after.Type {
		changed["type"] = after.Type
	}
	if before.DistanceKm != after.DistanceKm {
		changed["distance_km"] = after.DistanceKm
	}
	if before.Furnished != after.Furnished {
		changed["furnished"] = after.Furnished
	}
	if before.Availability != after.Availability {
		changed["availability"] = after.Availability.String()
	}
	if before.Utilities != after.Utilities {
		changed["utilities"] = after.Utilities.String()
	}
	if before.Address != after.Address {
		changed["address"] = after.Address
	}
	if before.Description != after.Description {
		changed["description"] = after.Description
	}
	return changed
}
