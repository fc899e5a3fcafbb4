package entities

import "time"

// Favorite links an account to a listing it bookmarked
type Favorite struct {
	UserID    string    `json:"user_id" db:"user_id"`
	ListingID string    `json:"listing_id" db:"property_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// FavoriteScope identifies whose favorites are being read. An empty UserID
// means the anonymous session set.
type FavoriteScope struct {
	SessionID string
	UserID    string
}

// Authenticated reports whether the scope belongs to an account
func (s FavoriteScope) Authenticated() bool {
	return s.UserID != ""
}
