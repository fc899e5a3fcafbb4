package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/uqac-logement/backend/internal/domain/entities"
	"github.com/uqac-logement/backend/internal/query/catalog"
	"github.com/uqac-logement/backend/internal/query/loaders"
	apperrors "github.com/uqac-logement/backend/pkg/errors"
)

const (
	DefaultPageSize = 24
	MaxPageSize     = 100

	// searchCandidateLimit bounds how many ids the text index may return
	searchCandidateLimit = 250
)

// Snapshot is the read side of the catalog store
type Snapshot interface {
	Listings() []entities.Listing
	Get(id string) (entities.Listing, bool)
}

// SearchAdapter wraps the text index for search operations
type SearchAdapter interface {
	SearchIDs(ctx context.Context, query string, limit int) ([]string, error)
}

// BrowseParams defines parameters for the browse page
type BrowseParams struct {
	Criteria catalog.Criteria
	Query    string
	Limit    int
	Offset   int
}

// BrowseResult is one page of filtered listings
type BrowseResult struct {
	Listings   []entities.Listing `json:"listings"`
	TotalCount int                `json:"total_count"`
	Limit      int                `json:"limit"`
	Offset     int                `json:"offset"`
}

// ListingQueryService handles read-only listing operations
type ListingQueryService struct {
	snapshot Snapshot
	search   SearchAdapter
}

// NewListingQueryService creates a new listing query service. search may be nil.
func NewListingQueryService(snapshot Snapshot, search SearchAdapter) *ListingQueryService {
	return &ListingQueryService{
		snapshot: snapshot,
		search:   search,
	}
}

// Browse filters the snapshot and returns one page
func (s *ListingQueryService) Browse(ctx context.Context, params BrowseParams) (*BrowseResult, error) {
	listings := s.snapshot.Listings()

	if q := strings.TrimSpace(params.Query); q != "" {
		listings = s.matchText(ctx, q, listings)
	}

	filtered := catalog.Filter(listings, params.Criteria)

	limit := params.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	page := []entities.Listing{}
	if offset < len(filtered) {
		end := offset + limit
		if end > len(filtered) {
			end = len(filtered)
		}
		page = filtered[offset:end]
	}

	return &BrowseResult{
		Listings:   page,
		TotalCount: len(filtered),
		Limit:      limit,
		Offset:     offset,
	}, nil
}

// matchText keeps the listings the text index returned, in snapshot order.
// Without an index, or when it fails, a substring match is used.
func (s *ListingQueryService) matchText(ctx context.Context, query string, listings []entities.Listing) []entities.Listing {
	if s.search != nil {
		ids, err := s.search.SearchIDs(ctx, query, searchCandidateLimit)
		if err == nil {
			hits := make(map[string]struct{}, len(ids))
			for _, id := range ids {
				hits[id] = struct{}{}
			}
			out := make([]entities.Listing, 0, len(ids))
			for _, l := range listings {
				if _, ok := hits[l.ID]; ok {
					out = append(out, l)
				}
			}
			return out
		}
		log.Ctx(ctx).Warn().Err(err).Str("query", query).Msg("text search failed, falling back to substring match")
	}

	needle := strings.ToLower(query)
	out := make([]entities.Listing, 0, len(listings))
	for _, l := range listings {
		if strings.Contains(strings.ToLower(l.Title), needle) ||
			strings.Contains(strings.ToLower(l.Address), needle) ||
			strings.Contains(strings.ToLower(l.Description), needle) {
			out = append(out, l)
		}
	}
	return out
}

// GetByID returns one publicly visible listing
func (s *ListingQueryService) GetByID(ctx context.Context, id string) (*entities.Listing, error) {
	l, ok := s.snapshot.Get(id)
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("listing %s not found", id))
	}
	return &l, nil
}

// Similar returns up to limit listings of the same type as the given one
func (s *ListingQueryService) Similar(ctx context.Context, id string, limit int) ([]entities.Listing, error) {
	anchor, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = catalog.DefaultSimilarLimit
	}
	return catalog.Similar(*anchor, s.snapshot.Listings(), limit), nil
}

// Favorites resolves favorite ids to listings, keeping the favorites order.
// Ids missing from the snapshot are looked up through the request loaders,
// which covers listings published since the last refresh. Only available
// listings are returned; taken, suspended and deleted ones are skipped.
func (s *ListingQueryService) Favorites(ctx context.Context, ids []string) ([]entities.Listing, error) {
	found := make(map[string]entities.Listing, len(ids))
	var missing []string
	for _, id := range ids {
		if l, ok := s.snapshot.Get(id); ok {
			found[id] = l
		} else {
			missing = append(missing, id)
		}
	}

	if l := loaders.For(ctx); l != nil && len(missing) > 0 {
		for _, listing := range l.LoadListings(ctx, missing) {
			if listing.Status != entities.ListingStatusAvailable {
				continue
			}
			found[listing.ID] = listing.Clone()
		}
	}

	out := make([]entities.Listing, 0, len(found))
	for _, id := range ids {
		if l, ok := found[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}
