package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uqac-logement/backend/internal/adapters/database"
	"github.com/uqac-logement/backend/internal/adapters/search"
	"github.com/uqac-logement/backend/internal/infrastructure/clients/postgres"
	"github.com/uqac-logement/backend/internal/infrastructure/clients/typesense"
	"github.com/uqac-logement/backend/internal/infrastructure/observability"
	"github.com/uqac-logement/backend/pkg/config"
)

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete existing Typesense collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	observability.InitLogger("uqac-logement-indexer", os.Getenv("APP_ENV"))

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	if intervalValue != "" {
		var err error
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatal().Err(err).Str("interval", intervalValue).Msg("Invalid interval")
		}
		if interval <= 0 {
			log.Fatal().Msg("Interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, reset); err != nil {
			log.Error().Err(err).Msg("Reindex failed")
		}

		if interval <= 0 {
			break
		}

		reset = false
		log.Info().Dur("next_run_in", interval).Msg("Reindex complete")

		select {
		case <-ctx.Done():
			log.Info().Msg("Reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

// indexOnce pushes every available listing to the search index. Documents of
// listings that left the catalog are only dropped with -reset; search results
// are intersected with the catalog snapshot anyway.
func indexOnce(ctx context.Context, reset bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		return err
	}

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		log.Info().Str("collection", typesense.ListingsCollection).Msg("Deleting collection before reindex")
		if err := tsClient.DropSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to delete collection")
		}
	}

	if err := tsClient.InitSchema(ctx); err != nil {
		return err
	}

	listingRepo := database.NewListingAdapter(pgClient)
	index := search.NewTypesenseAdapter(tsClient)

	listings, err := listingRepo.ListAvailable(ctx)
	if err != nil {
		return err
	}

	log.Info().Int("listings", len(listings)).Msg("Indexing listings")

	indexed := 0
	for _, listing := range listings {
		if listing == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := index.Index(ctx, listing); err != nil {
			log.Warn().Err(err).Str("listing_id", listing.ID).Msg("Failed to index listing")
			continue
		}
		indexed++
	}

	log.Info().Int("indexed", indexed).Int("skipped", len(listings)-indexed).Msg("Indexing complete")
	return nil
}
