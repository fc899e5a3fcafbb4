package entities

import (
	"time"

	"github.com/google/uuid"
)

// ListingEventType represents the type of listing change
type ListingEventType string

const (
	ListingEventCreated       ListingEventType = "created"
	ListingEventUpdated       ListingEventType = "updated"
	ListingEventStatusChanged ListingEventType = "status_changed"
	ListingEventDeleted       ListingEventType = "deleted"
	ListingEventImagesChanged ListingEventType = "images_changed"
)

// ListingEvent is published on the change feed whenever listing data changes
type ListingEvent struct {
	ID            string                 `json:"id"`
	ListingID     string                 `json:"listing_id"`
	OwnerID       string                 `json:"owner_id,omitempty"`
	EventType     ListingEventType       `json:"event_type"`
	Timestamp     time.Time              `json:"timestamp"`
	ChangedFields map[string]interface{} `json:"changed_fields,omitempty"`
}

// NewListingEvent creates a new listing event
func NewListingEvent(listingID, ownerID string, eventType ListingEventType, changedFields map[string]interface{}) *ListingEvent {
	return &ListingEvent{
		ID:            uuid.NewString(),
		ListingID:     listingID,
		OwnerID:       ownerID,
		EventType:     eventType,
		Timestamp:     time.Now().UTC(),
		ChangedFields: changedFields,
	}
}
