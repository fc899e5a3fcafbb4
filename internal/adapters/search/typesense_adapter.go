package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
	"github.com/uqac-logement/backend/internal/domain/entities"
	"github.com/uqac-logement/backend/internal/domain/repositories"
	tsclient "github.com/uqac-logement/backend/internal/infrastructure/clients/typesense"
)

// searchFields are queried in priority order
const searchFields = "title,address,description,services"

// maxPerPage is the Typesense per-page ceiling
const maxPerPage = 250

// TypesenseAdapter implements listing text search using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ repositories.ListingSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// Index adds or replaces a listing document
func (a *TypesenseAdapter) Index(ctx context.Context, listing *entities.Listing) error {
	_, err := a.client.Client().Collection(tsclient.ListingsCollection).Documents().Upsert(ctx, BuildListingDocument(listing))
	if err != nil {
		return fmt.Errorf("failed to index listing: %w", err)
	}
	return nil
}

// Delete removes a listing from the index; a missing document is not an error
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(tsclient.ListingsCollection).Document(id).Delete(ctx)
	var httpErr *typesense.HTTPError
	if errors.As(err, &httpErr) && httpErr.Status == http.StatusNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete listing from index: %w", err)
	}
	return nil
}

// SearchIDs returns the IDs of listings matching query, best match first
func (a *TypesenseAdapter) SearchIDs(ctx context.Context, query string, limit int) ([]string, error) {
	result, err := a.client.Client().Collection(tsclient.ListingsCollection).Documents().Search(ctx, searchParams(query, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to search listings: %w", err)
	}
	return hitIDs(result), nil
}

func searchParams(query string, limit int) *api.SearchCollectionParams {
	if limit <= 0 || limit > maxPerPage {
		limit = maxPerPage
	}
	return &api.SearchCollectionParams{
		Q:             pointer.String(query),
		QueryBy:       pointer.String(searchFields),
		IncludeFields: pointer.String("id"),
		Page:          pointer.Int(1),
		PerPage:       pointer.Int(limit),
	}
}

func hitIDs(result *api.SearchResult) []string {
	if result == nil || result.Hits == nil {
		return []string{}
	}
	ids := make([]string, 0, len(*result.Hits))
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		if id, ok := (*hit.Document)["id"].(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
