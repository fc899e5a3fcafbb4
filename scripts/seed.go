package main

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/uqac-logement/backend/internal/adapters/database"
	"github.com/uqac-logement/backend/internal/adapters/file"
	"github.com/uqac-logement/backend/internal/adapters/search"
	"github.com/uqac-logement/backend/internal/domain/entities"
	"github.com/uqac-logement/backend/internal/infrastructure/clients/postgres"
	"github.com/uqac-logement/backend/internal/infrastructure/clients/typesense"
	"github.com/uqac-logement/backend/internal/infrastructure/observability"
	"github.com/uqac-logement/backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	observability.InitLogger("uqac-logement-seed", cfg.Server.Env)

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to DB")
	}
	defer pgClient.Close()

	var index *search.TypesenseAdapter
	if tsClient, err := typesense.NewClient(&cfg.Typesense); err == nil {
		if err := tsClient.InitSchema(context.Background()); err != nil {
			log.Warn().Err(err).Msg("Failed to init Typesense schema")
		}
		index = search.NewTypesenseAdapter(tsClient)
	} else {
		log.Warn().Err(err).Msg("Typesense unavailable, skipping search index")
	}

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Info().Msg("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				favorites,
				contact_messages,
				property_images,
				properties,
				owners
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to reset tables")
		}
	}

	path := cfg.Catalog.FilePath
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	f, err := os.Open(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to open listings file")
	}
	defer f.Close()

	listings, err := file.ParseListings(f)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to parse listings file")
	}

	ownerRepo := database.NewOwnerAdapter(pgClient)
	listingRepo := database.NewListingAdapter(pgClient)
	imageRepo := database.NewListingImageAdapter(pgClient)

	// SEED_OWNER_ID attaches every unowned listing to one demo owner so the
	// contact form and back office have something to show.
	demoOwner := os.Getenv("SEED_OWNER_ID")
	if demoOwner != "" {
		owner := &entities.Owner{
			ID:        demoOwner,
			Email:     getEnv("SEED_OWNER_EMAIL", "proprietaire@uqac-logement.ca"),
			FullName:  getEnv("SEED_OWNER_NAME", "Propriétaire démo"),
			IsActive:  true,
			CreatedAt: time.Now(),
		}
		if err := ownerRepo.Ensure(ctx, owner); err != nil {
			log.Fatal().Err(err).Msg("Failed to create demo owner")
		}
	}

	created := 0
	for i, listing := range listings {
		listing.ID = uuid.New().String()
		if listing.OwnerID == "" {
			listing.OwnerID = demoOwner
		} else if err := ownerRepo.Ensure(ctx, &entities.Owner{ID: listing.OwnerID, IsActive: true, CreatedAt: time.Now()}); err != nil {
			log.Warn().Err(err).Str("owner_id", listing.OwnerID).Msg("Failed to create owner")
			continue
		}
		if listing.CreatedAt.IsZero() {
			// keep file order as newest first
			listing.CreatedAt = time.Now().Add(-time.Duration(i) * time.Minute)
			listing.UpdatedAt = listing.CreatedAt
		}

		if err := listingRepo.Create(ctx, listing); err != nil {
			log.Warn().Err(err).Str("title", listing.Title).Msg("Failed to create listing")
			continue
		}

		for order, url := range listing.Images {
			image := &entities.ListingImage{
				ID:           uuid.New().String(),
				ListingID:    listing.ID,
				URL:          url,
				DisplayOrder: order,
				CreatedAt:    listing.CreatedAt,
			}
			if err := imageRepo.Add(ctx, image); err != nil {
				log.Warn().Err(err).Str("listing_id", listing.ID).Msg("Failed to add listing image")
			}
		}

		if index != nil && listing.Status == entities.ListingStatusAvailable {
			if err := index.Index(ctx, listing); err != nil {
				log.Warn().Err(err).Str("listing_id", listing.ID).Msg("Failed to index listing")
			}
		}
		created++
	}

	log.Info().Int("listings", created).Int("skipped", len(listings)-created).Msg("Seeding complete")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
