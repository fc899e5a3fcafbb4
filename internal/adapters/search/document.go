package search

import (
	"strings"

	"github.com/uqac-logement/backend/internal/domain/entities"
)

// MaxIndexedServices caps the amenity labels stored per document
const MaxIndexedServices = 50

// BuildListingDocument maps a listing to its search document
func BuildListingDocument(listing *entities.Listing) map[string]interface{} {
	return map[string]interface{}{
		"id":                 listing.ID,
		"title":              listing.Title,
		"description":        listing.Description,
		"address":            listing.Address,
		"type":               listing.Type,
		"price":              listing.Price,
		"distance_km":        listing.DistanceKm,
		"furnished":          listing.Furnished,
		"available_now":      listing.Availability.IsNow(),
		"utilities_included": listing.Utilities.IsIncluded(),
		"services":           normalizeServices(listing.Services, MaxIndexedServices),
		"created_at":         listing.CreatedAt.Unix(),
	}
}

// normalizeServices lowercases, trims and dedupes labels, keeping first-seen order
func normalizeServices(services []string, limit int) []string {
	seen := make(map[string]struct{}, len(services))
	out := make([]string, 0, len(services))
	for _, s := range services {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
		if len(out) >= limit {
			break
		}
	}
	return out
}
