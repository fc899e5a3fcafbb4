package loaders

import (
	"context"
	"fmt"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/uqac-logement/backend/internal/domain/entities"
	"github.com/uqac-logement/backend/internal/domain/repositories"
)

type ctxKey string

const loadersKey ctxKey = "dataloaders"

// Loaders contains the per-request dataloaders
type Loaders struct {
	ListingLoader *dataloader.Loader[string, *entities.Listing]
}

// NewLoaders creates a new instance of Loaders
func NewLoaders(listingRepo repositories.ListingRepository) *Loaders {
	return &Loaders{
		ListingLoader: dataloader.NewBatchedLoader(func(ctx context.Context, keys []string) []*dataloader.Result[*entities.Listing] {
			results := make([]*dataloader.Result[*entities.Listing], len(keys))
			listings, err := listingRepo.GetByIDs(ctx, keys)

			listingMap := make(map[string]*entities.Listing)
			if err == nil {
				for _, l := range listings {
					listingMap[l.ID] = l
				}
			}

			for i, key := range keys {
				if err != nil {
					results[i] = &dataloader.Result[*entities.Listing]{Error: err}
				} else if l, ok := listingMap[key]; ok {
					results[i] = &dataloader.Result[*entities.Listing]{Data: l}
				} else {
					results[i] = &dataloader.Result[*entities.Listing]{Error: fmt.Errorf("listing %s not found", key)}
				}
			}
			return results
		}),
	}
}

// For returns the loaders for a given context, or nil when none are attached
func For(ctx context.Context) *Loaders {
	l, _ := ctx.Value(loadersKey).(*Loaders)
	return l
}

// WithLoaders returns a new context with the loaders attached
func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}

// LoadListings resolves ids through the listing loader. Listings that cannot
// be loaded are skipped; the order of ids is kept.
func (l *Loaders) LoadListings(ctx context.Context, ids []string) []*entities.Listing {
	thunks := make([]dataloader.Thunk[*entities.Listing], len(ids))
	for i, id := range ids {
		thunks[i] = l.ListingLoader.Load(ctx, id)
	}

	out := make([]*entities.Listing, 0, len(ids))
	for _, thunk := range thunks {
		listing, err := thunk()
		if err != nil || listing == nil {
			continue
		}
		out = append(out, listing)
	}
	return out
}
