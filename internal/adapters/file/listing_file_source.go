package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uqac-logement/backend/internal/domain/entities"
)

// ListingFileSource serves listings from a static JSON file. The file is
// re-read on every load so edits show up at the next catalog refresh.
type ListingFileSource struct {
	path string
}

// NewListingFileSource creates a source reading path
func NewListingFileSource(path string) *ListingFileSource {
	return &ListingFileSource{path: path}
}

// ListAvailable returns the available listings in file order
func (s *ListingFileSource) ListAvailable(ctx context.Context) ([]*entities.Listing, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read listing file %s: %w", s.path, err)
	}

	listings, err := ParseListings(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing file %s: %w", s.path, err)
	}

	available := make([]*entities.Listing, 0, len(listings))
	for _, l := range listings {
		if l.Status == entities.ListingStatusAvailable {
			available = append(available, l)
		}
	}
	log.Ctx(ctx).Debug().Str("path", s.path).Int("count", len(available)).Msg("Loaded listings from file")
	return available, nil
}

// flexibleID accepts both "1" and 1
type flexibleID string

func (id *flexibleID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*id = flexibleID(n.String())
	return nil
}

// record is one entry of the listing file. Distance is given either in
// kilometers or as a walking time in minutes.
type record struct {
	ID           flexibleID `json:"id"`
	OwnerID      string     `json:"owner_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Address      string     `json:"address"`
	Type         string     `json:"type"`
	Price        int        `json:"price"`
	DistanceKm   *float64   `json:"distance_km"`
	Distance     *float64   `json:"distance"`
	DistanceMin  *float64   `json:"distance_min"`
	Bedrooms     int        `json:"bedrooms"`
	Bathrooms    int        `json:"bathrooms"`
	Surface      int        `json:"surface"`
	Furnished    bool       `json:"furnished"`
	Availability string     `json:"availability"`
	Available    string     `json:"available"`
	Utilities    string     `json:"utilities"`
	Services     []string   `json:"services"`
	Image        string     `json:"image"`
	Images       []string   `json:"images"`
	Status       string     `json:"status"`
	CreatedAt    *time.Time `json:"created_at"`
}

// ParseListings decodes a JSON array of listing records. Records failing
// validation are skipped with a warning; duplicate IDs keep the first record.
func ParseListings(r io.Reader) ([]*entities.Listing, error) {
	var records []record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(records))
	listings := make([]*entities.Listing, 0, len(records))
	for i, rec := range records {
		listing, err := rec.toListing()
		if err != nil {
			log.Warn().Err(err).Int("index", i).Str("id", string(rec.ID)).Msg("Skipping listing record")
			continue
		}
		if _, dup := seen[listing.ID]; dup {
			log.Warn().Str("id", listing.ID).Msg("Skipping duplicate listing record")
			continue
		}
		seen[listing.ID] = struct{}{}
		listings = append(listings, listing)
	}
	return listings, nil
}

func (rec record) toListing() (*entities.Listing, error) {
	id := strings.TrimSpace(string(rec.ID))
	if id == "" {
		return nil, fmt.Errorf("id is required")
	}

	listing := &entities.Listing{
		ID:          id,
		OwnerID:     strings.TrimSpace(rec.OwnerID),
		Title:       rec.Title,
		Description: rec.Description,
		Address:     rec.Address,
		Type:        strings.TrimSpace(rec.Type),
		Price:       rec.Price,
		DistanceKm:  rec.distanceKm(),
		Bedrooms:    rec.Bedrooms,
		Bathrooms:   rec.Bathrooms,
		Surface:     rec.Surface,
		Furnished:   rec.Furnished,
		Utilities:   entities.ParseUtilities(rec.Utilities),
		Services:    append([]string{}, rec.Services...),
		Images:      rec.images(),
		Status:      entities.ListingStatusAvailable,
	}

	availability := rec.Availability
	if availability == "" {
		availability = rec.Available
	}
	listing.Availability = entities.ParseAvailability(availability)

	if rec.Status != "" {
		status, err := entities.ParseListingStatus(rec.Status)
		if err != nil {
			return nil, err
		}
		listing.Status = status
	}
	if rec.CreatedAt != nil {
		listing.CreatedAt = *rec.CreatedAt
		listing.UpdatedAt = *rec.CreatedAt
	}

	if err := listing.Validate(); err != nil {
		return nil, err
	}
	return listing, nil
}

func (rec record) distanceKm() float64 {
	switch {
	case rec.DistanceKm != nil:
		return *rec.DistanceKm
	case rec.Distance != nil:
		return *rec.Distance
	case rec.DistanceMin != nil:
		return entities.DistanceFromMinutes(*rec.DistanceMin)
	}
	return 0
}

// images puts the legacy single image first when the gallery omits it
func (rec record) images() []string {
	images := make([]string, 0, len(rec.Images)+1)
	found := false
	for _, img := range rec.Images {
		if img == "" {
			continue
		}
		found = found || img == rec.Image
		images = append(images, img)
	}
	if rec.Image != "" && !found {
		images = append([]string{rec.Image}, images...)
	}
	return images
}
