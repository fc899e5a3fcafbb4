package entities

import "time"

// Owner is a landlord account that can publish listings
type Owner struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	FullName  string    `json:"full_name" db:"full_name"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PlatformStats is the admin dashboard summary
type PlatformStats struct {
	Owners            int `json:"owners" db:"owners"`
	ActiveOwners      int `json:"active_owners" db:"active_owners"`
	Listings          int `json:"listings" db:"listings"`
	AvailableListings int `json:"available_listings" db:"available_listings"`
	Messages          int `json:"messages" db:"messages"`
	NewMessages       int `json:"new_messages" db:"new_messages"`
}

// StatusCounts is the owner dashboard summary
type StatusCounts struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Taken     int `json:"taken"`
	Suspended int `json:"suspended"`
}

// Add counts one listing in status
func (c *StatusCounts) Add(status ListingStatus) {
	c.Total++
	switch status {
	case ListingStatusAvailable:
		c.Available++
	case ListingStatusTaken:
		c.Taken++
	case ListingStatusSuspended:
		c.Suspended++
	}
}
