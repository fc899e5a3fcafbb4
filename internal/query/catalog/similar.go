package catalog

import (
	"github.com/uqac-logement/backend/internal/domain/entities"
)

// DefaultSimilarLimit is the number of suggestions shown under a listing
const DefaultSimilarLimit = 3

// Similar returns up to k listings of the same type as anchor, excluding
// anchor itself, in collection order.
func Similar(anchor entities.Listing, listings []entities.Listing, k int) []entities.Listing {
	if k <= 0 {
		return []entities.Listing{}
	}

	out := make([]entities.Listing, 0, k)
	for i := range listings {
		if len(out) == k {
			break
		}
		if listings[i].ID == anchor.ID || listings[i].Type != anchor.Type {
			continue
		}
		out = append(out, listings[i])
	}
	return out
}
