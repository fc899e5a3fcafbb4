package catalog

import (
	"github.com/uqac-logement/backend/internal/domain/entities"
)

// Filter returns the listings matching every active facet, in input order.
// With no active facet the input is returned as is. Criteria that can
// never match (negative bounds, min above max) yield an empty result.
func Filter(listings []entities.Listing, c Criteria) []entities.Listing {
	if len(listings) == 0 {
		return []entities.Listing{}
	}
	if c.IsZero() {
		return listings
	}
	if c.Malformed() {
		return []entities.Listing{}
	}

	out := make([]entities.Listing, 0, len(listings))
	for i := range listings {
		if Matches(&listings[i], c) {
			out = append(out, listings[i])
		}
	}
	return out
}

// Matches reports whether one listing satisfies every active facet
func Matches(l *entities.Listing, c Criteria) bool {
	if c.PriceRange != nil && !c.PriceRange.Contains(l.Price) {
		return false
	}
	if c.MaxDistanceKm != nil && !(l.DistanceKm <= *c.MaxDistanceKm) {
		return false
	}
	if c.UnitType != "" && l.Type != c.UnitType {
		return false
	}
	if c.FurnishedOnly && !l.Furnished {
		return false
	}
	if c.AvailableNowOnly && !l.Availability.IsNow() {
		return false
	}
	if c.UtilitiesIncludedOnly && !l.Utilities.IsIncluded() {
		return false
	}
	if c.ParkingOnly && !HasParking(l) {
		return false
	}
	return true
}

// HasParking is a looser match than the other facets: any service whose
// label contains the parking keyword counts.
func HasParking(l *entities.Listing) bool {
	return l.HasService(ParkingKeyword)
}
