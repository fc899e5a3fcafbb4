package entities

import "time"

// ListingImage is one picture in a listing gallery. DisplayOrder 0 is the primary image.
type ListingImage struct {
	ID           string    `json:"id" db:"id"`
	ListingID    string    `json:"listing_id" db:"property_id"`
	URL          string    `json:"url" db:"image_url"`
	DisplayOrder int       `json:"display_order" db:"display_order"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// StoredObject is an image held by the object store
type StoredObject struct {
	ID          string
	ContentType string
	Size        int64
}
