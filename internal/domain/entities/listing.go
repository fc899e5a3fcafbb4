package entities

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Display labels used by the front-end and by legacy data files
const (
	AvailableNowLabel      = "Disponible maintenant"
	UnavailableLabel       = "Non disponible"
	UtilitiesIncludedLabel = "Inclus"
	UtilitiesExcludedLabel = "Non inclus"
)

// WalkingMinutesPerKm converts walking time to distance (5 km/h)
const WalkingMinutesPerKm = 12.0

// ListingStatus is the owner-controlled lifecycle of a listing
type ListingStatus string

const (
	ListingStatusAvailable ListingStatus = "available"
	ListingStatusTaken     ListingStatus = "taken"
	ListingStatusSuspended ListingStatus = "suspended"
)

// StorageValue returns the value persisted in the properties table
func (s ListingStatus) StorageValue() string {
	switch s {
	case ListingStatusTaken:
		return "pris"
	case ListingStatusSuspended:
		return "suspendu"
	default:
		return "disponible"
	}
}

// ParseListingStatus accepts both the API and the persisted spelling
func ParseListingStatus(value string) (ListingStatus, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "available", "disponible":
		return ListingStatusAvailable, nil
	case "taken", "pris":
		return ListingStatusTaken, nil
	case "suspended", "suspendu":
		return ListingStatusSuspended, nil
	}
	return "", fmt.Errorf("unknown listing status %q", value)
}

// AvailabilityKind discriminates Availability
type AvailabilityKind string

const (
	AvailabilityNow         AvailabilityKind = "now"
	AvailabilityOnDate      AvailabilityKind = "on_date"
	AvailabilityUnavailable AvailabilityKind = "unavailable"
)

// Availability says when a unit can be moved into. Only the OnDate variant
// carries a label, which is kept verbatim for display.
type Availability struct {
	Kind  AvailabilityKind `json:"kind"`
	Label string           `json:"label,omitempty"`
}

// AvailableNow returns the Now variant
func AvailableNow() Availability {
	return Availability{Kind: AvailabilityNow}
}

// AvailableOn returns the OnDate variant
func AvailableOn(label string) Availability {
	return Availability{Kind: AvailabilityOnDate, Label: label}
}

// NotAvailable returns the Unavailable variant
func NotAvailable() Availability {
	return Availability{Kind: AvailabilityUnavailable}
}

// ParseAvailability maps free text to a variant. Only the exact
// AvailableNowLabel means Now; any other non-empty text, including a
// differently cased or padded label, is kept as a date label. Empty text is
// treated as unavailable.
func ParseAvailability(text string) Availability {
	switch text {
	case AvailableNowLabel:
		return AvailableNow()
	case UnavailableLabel:
		return NotAvailable()
	}
	if strings.TrimSpace(text) == "" {
		return NotAvailable()
	}
	return AvailableOn(strings.TrimSpace(text))
}

// IsNow reports whether the unit is available immediately
func (a Availability) IsNow() bool {
	return a.Kind == AvailabilityNow
}

// String returns the display label
func (a Availability) String() string {
	switch a.Kind {
	case AvailabilityNow:
		return AvailableNowLabel
	case AvailabilityOnDate:
		return a.Label
	default:
		return UnavailableLabel
	}
}

// UnmarshalJSON accepts either the tagged object or a legacy free-text label
func (a *Availability) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*a = ParseAvailability(text)
		return nil
	}

	type raw Availability
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	switch r.Kind {
	case AvailabilityNow, AvailabilityUnavailable:
		*a = Availability{Kind: r.Kind}
	case AvailabilityOnDate:
		*a = AvailableOn(r.Label)
	default:
		return fmt.Errorf("unknown availability kind %q", r.Kind)
	}
	return nil
}

// UtilitiesKind discriminates Utilities
type UtilitiesKind string

const (
	UtilitiesIncluded UtilitiesKind = "included"
	UtilitiesExcluded UtilitiesKind = "excluded"
	UtilitiesPartial  UtilitiesKind = "partial"
)

// Utilities says whether heating and electricity are part of the rent
type Utilities struct {
	Kind  UtilitiesKind `json:"kind"`
	Label string        `json:"label,omitempty"`
}

// ParseUtilities maps free text to a variant. Only the exact
// UtilitiesIncludedLabel means included. Empty text means excluded.
func ParseUtilities(text string) Utilities {
	switch text {
	case UtilitiesIncludedLabel:
		return Utilities{Kind: UtilitiesIncluded}
	case UtilitiesExcludedLabel:
		return Utilities{Kind: UtilitiesExcluded}
	}
	if strings.TrimSpace(text) == "" {
		return Utilities{Kind: UtilitiesExcluded}
	}
	return Utilities{Kind: UtilitiesPartial, Label: strings.TrimSpace(text)}
}

// IsIncluded reports whether all utilities are included
func (u Utilities) IsIncluded() bool {
	return u.Kind == UtilitiesIncluded
}

// String returns the display label
func (u Utilities) String() string {
	switch u.Kind {
	case UtilitiesIncluded:
		return UtilitiesIncludedLabel
	case UtilitiesPartial:
		return u.Label
	default:
		return UtilitiesExcludedLabel
	}
}

// UnmarshalJSON accepts either the tagged object or a legacy free-text label
func (u *Utilities) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*u = ParseUtilities(text)
		return nil
	}

	type raw Utilities
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	switch r.Kind {
	case UtilitiesIncluded, UtilitiesExcluded:
		*u = Utilities{Kind: r.Kind}
	case UtilitiesPartial:
		*u = Utilities{Kind: r.Kind, Label: r.Label}
	default:
		return fmt.Errorf("unknown utilities kind %q", r.Kind)
	}
	return nil
}

// Listing is a rental unit offered to students
type Listing struct {
	ID           string        `json:"id" db:"id"`
	OwnerID      string        `json:"owner_id,omitempty" db:"owner_id"`
	Title        string        `json:"title" db:"title"`
	Description  string        `json:"description" db:"description"`
	Address      string        `json:"address" db:"address"`
	Type         string        `json:"type" db:"type"`
	Price        int           `json:"price" db:"price"`
	DistanceKm   float64       `json:"distance_km" db:"distance_km"`
	Bedrooms     int           `json:"bedrooms" db:"bedrooms"`
	Bathrooms    int           `json:"bathrooms" db:"bathrooms"`
	Surface      int           `json:"surface" db:"surface"`
	Furnished    bool          `json:"furnished" db:"furnished"`
	Availability Availability  `json:"availability" db:"-"`
	Utilities    Utilities     `json:"utilities" db:"-"`
	Services     []string      `json:"services" db:"-"`
	Images       []string      `json:"images" db:"-"`
	Status       ListingStatus `json:"status" db:"status"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" db:"updated_at"`
}

// CanContactOwner reports whether contact features are enabled
func (l *Listing) CanContactOwner() bool {
	return l.OwnerID != ""
}

// PrimaryImage returns the first image, or "" when there are none
func (l *Listing) PrimaryImage() string {
	if len(l.Images) == 0 {
		return ""
	}
	return l.Images[0]
}

// HasService reports whether any service label contains needle, ignoring case
func (l *Listing) HasService(needle string) bool {
	needle = strings.ToLower(needle)
	for _, s := range l.Services {
		if strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so snapshot readers cannot alias slices
func (l Listing) Clone() Listing {
	l.Services = append([]string(nil), l.Services...)
	l.Images = append([]string(nil), l.Images...)
	return l
}

// Validate checks the fields owners can edit
func (l *Listing) Validate() error {
	var problems []string
	if strings.TrimSpace(l.Title) == "" {
		problems = append(problems, "title is required")
	}
	if strings.TrimSpace(l.Type) == "" {
		problems = append(problems, "type is required")
	}
	if strings.TrimSpace(l.Address) == "" {
		problems = append(problems, "address is required")
	}
	if l.Price < 0 {
		problems = append(problems, "price must not be negative")
	}
	if l.DistanceKm < 0 {
		problems = append(problems, "distance must not be negative")
	}
	if l.Bedrooms < 0 || l.Bathrooms < 0 || l.Surface < 0 {
		problems = append(problems, "bedrooms, bathrooms and surface must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

// DistanceFromMinutes converts a walking time to kilometers
func DistanceFromMinutes(minutes float64) float64 {
	if minutes <= 0 {
		return 0
	}
	return minutes / WalkingMinutesPerKm
}
