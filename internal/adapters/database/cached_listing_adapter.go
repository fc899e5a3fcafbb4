package database

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
	"github.com/uqac-logement/backend/internal/domain/entities"
	"github.com/uqac-logement/backend/internal/domain/providers"
	"github.com/uqac-logement/backend/internal/domain/repositories"
)

// listingByIDTTL is how long a single listing row stays cached (seconds)
const listingByIDTTL = 300

// CachedListingAdapter caches single-listing reads. Writes made through it
// drop the affected rows; gallery changes are dropped by the cache
// invalidation service when their event arrives.
type CachedListingAdapter struct {
	repositories.ListingRepository
	cache providers.CacheProvider
}

// NewCachedListingAdapter wraps a listing repository with caching
func NewCachedListingAdapter(adapter repositories.ListingRepository, cache providers.CacheProvider) repositories.ListingRepository {
	return &CachedListingAdapter{
		ListingRepository: adapter,
		cache:             cache,
	}
}

func (a *CachedListingAdapter) fromCache(ctx context.Context, id string) (*entities.Listing, bool) {
	data, err := a.cache.Get(ctx, providers.ListingRowCacheKey(id))
	if err != nil {
		return nil, false
	}
	var listing entities.Listing
	if err := json.Unmarshal(data, &listing); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("listing_id", id).Msg("Failed to unmarshal cached listing")
		return nil, false
	}
	return &listing, true
}

func (a *CachedListingAdapter) store(ctx context.Context, listing *entities.Listing) {
	data, err := json.Marshal(listing)
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, providers.ListingRowCacheKey(listing.ID), data, listingByIDTTL); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("listing_id", listing.ID).Msg("Failed to cache listing")
	}
}

func (a *CachedListingAdapter) forget(ctx context.Context, ids ...string) {
	for _, id := range ids {
		if err := a.cache.Delete(ctx, providers.ListingRowCacheKey(id)); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("listing_id", id).Msg("Failed to drop cached listing")
		}
	}
}

// GetByID retrieves a listing, from cache when possible
func (a *CachedListingAdapter) GetByID(ctx context.Context, id string) (*entities.Listing, error) {
	if listing, ok := a.fromCache(ctx, id); ok {
		return listing, nil
	}

	listing, err := a.ListingRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	a.store(ctx, listing)
	return listing, nil
}

// GetByIDs serves cached rows and loads the rest in one query
func (a *CachedListingAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Listing, error) {
	if len(ids) == 0 {
		return []*entities.Listing{}, nil
	}

	found := make(map[string]*entities.Listing, len(ids))
	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		if listing, ok := a.fromCache(ctx, id); ok {
			found[id] = listing
			continue
		}
		missing = append(missing, id)
	}

	if len(missing) > 0 {
		loaded, err := a.ListingRepository.GetByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, listing := range loaded {
			found[listing.ID] = listing
			a.store(ctx, listing)
		}
	}

	listings := make([]*entities.Listing, 0, len(found))
	for _, id := range ids {
		if listing, ok := found[id]; ok {
			listings = append(listings, listing)
		}
	}
	return listings, nil
}

// Update updates a listing and drops its cached row
func (a *CachedListingAdapter) Update(ctx context.Context, listing *entities.Listing) error {
	defer a.forget(ctx, listing.ID)
	return a.ListingRepository.Update(ctx, listing)
}

// UpdateStatus changes the status and drops the cached row
func (a *CachedListingAdapter) UpdateStatus(ctx context.Context, id string, status entities.ListingStatus) error {
	defer a.forget(ctx, id)
	return a.ListingRepository.UpdateStatus(ctx, id, status)
}

// Delete deletes a listing and drops its cached row
func (a *CachedListingAdapter) Delete(ctx context.Context, id string) error {
	defer a.forget(ctx, id)
	return a.ListingRepository.Delete(ctx, id)
}

// DeleteByOwner deletes an owner's listings and drops their cached rows
func (a *CachedListingAdapter) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	owned, err := a.ListingRepository.ListByOwner(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	ids := make([]string, 0, len(owned))
	for _, listing := range owned {
		ids = append(ids, listing.ID)
	}
	defer a.forget(ctx, ids...)
	return a.ListingRepository.DeleteByOwner(ctx, ownerID)
}
