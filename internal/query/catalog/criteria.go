package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParkingKeyword is matched case-insensitively against service labels
const ParkingKeyword = "stationnement"

// PriceRange is an inclusive monthly rent bracket in dollars
type PriceRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Valid reports whether the bracket can match anything
func (p PriceRange) Valid() bool {
	return p.Min >= 0 && p.Max >= 0 && p.Min <= p.Max
}

// Contains reports whether price falls in the bracket, bounds included
func (p PriceRange) Contains(price int) bool {
	return price >= p.Min && price <= p.Max
}

// Criteria is a set of independently optional facets. The zero value
// matches every listing.
type Criteria struct {
	PriceRange            *PriceRange `json:"price_range,omitempty"`
	MaxDistanceKm         *float64    `json:"max_distance_km,omitempty"`
	UnitType              string      `json:"unit_type,omitempty"`
	FurnishedOnly         bool        `json:"furnished_only,omitempty"`
	AvailableNowOnly      bool        `json:"available_now_only,omitempty"`
	UtilitiesIncludedOnly bool        `json:"utilities_included_only,omitempty"`
	ParkingOnly           bool        `json:"parking_only,omitempty"`
}

// IsZero reports whether no facet is active
func (c Criteria) IsZero() bool {
	return c.PriceRange == nil &&
		c.MaxDistanceKm == nil &&
		c.UnitType == "" &&
		!c.FurnishedOnly &&
		!c.AvailableNowOnly &&
		!c.UtilitiesIncludedOnly &&
		!c.ParkingOnly
}

// Malformed reports whether the criteria can never match a listing
func (c Criteria) Malformed() bool {
	if c.PriceRange != nil && !c.PriceRange.Valid() {
		return true
	}
	if c.MaxDistanceKm != nil {
		d := *c.MaxDistanceKm
		if d < 0 || math.IsNaN(d) {
			return true
		}
	}
	return false
}

// Price brackets offered by the browse page
var PriceBrackets = []PriceRange{
	{Min: 0, Max: 900},
	{Min: 900, Max: 1200},
	{Min: 1200, Max: 1500},
	{Min: 1500, Max: 10000},
}

// Distance ceilings offered by the browse page, in kilometers
var DistancePresets = []float64{0.5, 1, 2}

// UnitTypes offered by the browse page
var UnitTypes = []string{"Studio", "3½", "4½", "5½"}

// String renders the bracket in the form ParsePriceRange accepts
func (p PriceRange) String() string {
	return fmt.Sprintf("%d-%d", p.Min, p.Max)
}

// PriceBracket is a price range together with its query value
type PriceBracket struct {
	Value string `json:"value"`
	PriceRange
}

// Facets lists the filter choices a browse page can offer
type Facets struct {
	PriceRanges []PriceBracket `json:"price_ranges"`
	Distances   []float64      `json:"distances"`
	Types       []string       `json:"types"`
}

// DefaultFacets returns the preset brackets, distances and unit types
func DefaultFacets() Facets {
	brackets := make([]PriceBracket, 0, len(PriceBrackets))
	for _, p := range PriceBrackets {
		brackets = append(brackets, PriceBracket{Value: p.String(), PriceRange: p})
	}
	return Facets{
		PriceRanges: brackets,
		Distances:   append([]float64(nil), DistancePresets...),
		Types:       append([]string(nil), UnitTypes...),
	}
}

func isAll(value string) bool {
	v := strings.TrimSpace(value)
	return v == "" || strings.EqualFold(v, "all")
}

// ParsePriceRange parses "min-max". Empty or "all" returns nil.
func ParsePriceRange(value string) (*PriceRange, error) {
	if isAll(value) {
		return nil, nil
	}
	lo, hi, ok := strings.Cut(strings.TrimSpace(value), "-")
	if !ok {
		return nil, fmt.Errorf("price range %q must look like min-max", value)
	}
	minPrice, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return nil, fmt.Errorf("invalid minimum price %q", lo)
	}
	maxPrice, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return nil, fmt.Errorf("invalid maximum price %q", hi)
	}
	return &PriceRange{Min: minPrice, Max: maxPrice}, nil
}

// ParseMaxDistance parses a ceiling in kilometers. Empty or "all" returns nil.
func ParseMaxDistance(value string) (*float64, error) {
	if isAll(value) {
		return nil, nil
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid distance %q", value)
	}
	return &d, nil
}

// ParseUnitType returns the exact type key, or "" for "all"
func ParseUnitType(value string) string {
	if isAll(value) {
		return ""
	}
	return strings.TrimSpace(value)
}
