package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uqac-logement/backend/internal/domain/entities"
	"github.com/uqac-logement/backend/internal/domain/providers"
)

// Cache groups used by the HTTP cache
const (
	CacheGroupListings = "listings"
	cacheGroupListing  = "listing"
)

// ListingCacheGroup is the cache group of one listing's responses
func ListingCacheGroup(listingID string) string {
	return cacheGroupListing + ":" + listingID
}

// CacheInvalidationService drops cached responses when listings change
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins listening for events and invalidating cache
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelListingUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to listing updates: %w", err)
	}

	go s.processEvents(eventChan)
	log.Info().Msg("Cache invalidation service started")
	return nil
}

// Stop stops the cache invalidation service
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	log.Info().Msg("Cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.ListingEvent) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

// handleEvent drops the listing's own responses and every browse page.
// Listings change rarely, so clearing browse pages does not cause stampedes.
func (s *CacheInvalidationService) handleEvent(event *entities.ListingEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log.Debug().
		Str("event_id", event.ID).
		Str("listing_id", event.ListingID).
		Str("event_type", string(event.EventType)).
		Msg("Processing cache invalidation")

	if err := s.InvalidateListingCache(ctx, event.ListingID); err != nil {
		log.Warn().Err(err).Str("listing_id", event.ListingID).Msg("Failed to invalidate listing cache")
	}
	if err := s.InvalidateBrowseCaches(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate browse caches")
	}
}

// InvalidateBrowseCaches drops every cached browse page
func (s *CacheInvalidationService) InvalidateBrowseCaches(ctx context.Context) error {
	pattern := providers.HTTPCachePattern(CacheGroupListings)
	if err := s.cache.DeletePattern(ctx, pattern); err != nil {
		return fmt.Errorf("failed to invalidate pattern %s: %w", pattern, err)
	}
	return nil
}

// InvalidateListingCache drops the cached row and responses of one listing
func (s *CacheInvalidationService) InvalidateListingCache(ctx context.Context, listingID string) error {
	if listingID == "" {
		return nil
	}
	if err := s.cache.Delete(ctx, providers.ListingRowCacheKey(listingID)); err != nil {
		return fmt.Errorf("failed to drop cached listing row: %w", err)
	}
	pattern := providers.HTTPCachePattern(ListingCacheGroup(listingID))
	if err := s.cache.DeletePattern(ctx, pattern); err != nil {
		return fmt.Errorf("failed to invalidate listing cache: %w", err)
	}
	log.Debug().Str("listing_id", listingID).Msg("Invalidated listing cache")
	return nil
}
