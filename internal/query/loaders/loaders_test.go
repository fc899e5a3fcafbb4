package loaders_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/uqac-logement/backend/internal/domain/entities"
	"github.com/uqac-logement/backend/internal/domain/repositories"
	"github.com/uqac-logement/backend/internal/query/loaders"
)

type stubListingRepo struct {
	repositories.ListingRepository
	listings map[string]*entities.Listing
	err      error
	batches  atomic.Int32
}

func (s *stubListingRepo) GetByIDs(ctx context.Context, ids []string) ([]*entities.Listing, error) {
	s.batches.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	var out []*entities.Listing
	for _, id := range ids {
		if l, ok := s.listings[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func TestLoadListings_BatchesAndSkipsMissing(t *testing.T) {
	repo := &stubListingRepo{listings: map[string]*entities.Listing{
		"a": {ID: "a"},
		"c": {ID: "c"},
	}}
	l := loaders.NewLoaders(repo)

	got := l.LoadListings(context.Background(), []string{"c", "b", "a"})

	assert.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
	assert.Equal(t, int32(1), repo.batches.Load())
}

func TestLoadListings_RepositoryError(t *testing.T) {
	repo := &stubListingRepo{err: errors.New("boom")}
	l := loaders.NewLoaders(repo)

	assert.Empty(t, l.LoadListings(context.Background(), []string{"a"}))
}

func TestForAndWithLoaders(t *testing.T) {
	assert.Nil(t, loaders.For(context.Background()))

	l := loaders.NewLoaders(&stubListingRepo{})
	ctx := loaders.WithLoaders(context.Background(), l)
	assert.Same(t, l, loaders.For(ctx))
}
