package repositories

import "context"

// FavoriteStore is a backend holding one favorites set per key. The key is a
// session ID for anonymous visitors and a user ID for accounts.
type FavoriteStore interface {
	// List returns listing IDs in the order they were added
	List(ctx context.Context, key string) ([]string, error)

	// Add adds a listing; adding an existing one is not an error
	Add(ctx context.Context, key, listingID string) error

	// Remove removes a listing; removing a missing one is not an error
	Remove(ctx context.Context, key, listingID string) error

	// Clear removes every listing for key
	Clear(ctx context.Context, key string) error
}

// FavoriteRepository is the account-scoped store with aggregate queries
type FavoriteRepository interface {
	FavoriteStore

	// CountByListing returns how many accounts favorited a listing
	CountByListing(ctx context.Context, listingID string) (int, error)
}
