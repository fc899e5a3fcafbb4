package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uqac-logement/backend/internal/adapters/cache"
	"github.com/uqac-logement/backend/internal/adapters/database"
	"github.com/uqac-logement/backend/internal/adapters/events"
	"github.com/uqac-logement/backend/internal/adapters/file"
	"github.com/uqac-logement/backend/internal/adapters/search"
	"github.com/uqac-logement/backend/internal/adapters/storage"
	"github.com/uqac-logement/backend/internal/api/handlers"
	"github.com/uqac-logement/backend/internal/api/middleware"
	"github.com/uqac-logement/backend/internal/api/routes"
	"github.com/uqac-logement/backend/internal/application/services"
	"github.com/uqac-logement/backend/internal/domain/providers"
	"github.com/uqac-logement/backend/internal/domain/repositories"
	"github.com/uqac-logement/backend/internal/infrastructure/clients/mongo"
	"github.com/uqac-logement/backend/internal/infrastructure/clients/postgres"
	"github.com/uqac-logement/backend/internal/infrastructure/clients/redis"
	"github.com/uqac-logement/backend/internal/infrastructure/clients/typesense"
	"github.com/uqac-logement/backend/internal/infrastructure/observability"
	"github.com/uqac-logement/backend/internal/query/catalog"
	queryservices "github.com/uqac-logement/backend/internal/query/services"
	"github.com/uqac-logement/backend/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	// Set up context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			observability.ForwardLogsToOTel(cfg.OTEL.ServiceName)
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	// Redis backs the response cache, session favorites and the change feed.
	// Without it everything falls back to process memory.
	var (
		cacheProvider providers.CacheProvider
		eventBus      providers.EventBus
		sessionStore  repositories.FavoriteStore
	)
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, using in-memory cache, favorites and event bus")
		eventBus = events.NewMemoryEventBus()
		sessionStore = cache.NewMemoryFavoriteStore()
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
		sessionStore = cache.NewRedisFavoriteStore(redisClient, cfg.Auth.SessionTTL)
	}

	var searchRepo repositories.ListingSearchRepository
	var searchAdapter queryservices.SearchAdapter
	if cfg.Typesense.Enabled {
		tsClient, err := typesense.NewClient(&cfg.Typesense)
		if err != nil {
			log.Warn().Err(err).Msg("Typesense unavailable, text search disabled")
		} else {
			if err := tsClient.InitSchema(ctx); err != nil {
				log.Warn().Err(err).Msg("Failed to init Typesense schema")
			}
			adapter := search.NewTypesenseAdapter(tsClient)
			searchRepo = adapter
			searchAdapter = adapter
		}
	}

	var objectStorage providers.ObjectStorage = storage.NewMemoryStorage()
	if cfg.Mongo.Enabled {
		mongoClient, err := mongo.NewClient(&cfg.Mongo)
		if err != nil {
			log.Warn().Err(err).Msg("MongoDB unavailable, images are kept in memory")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = mongoClient.Close(ctx)
			}()
			gridfs, err := storage.NewGridFSStorage(mongoClient)
			if err != nil {
				log.Warn().Err(err).Msg("Failed to open GridFS bucket, images are kept in memory")
			} else {
				objectStorage = gridfs
			}
		}
	}

	// Initialize adapters
	baseListingAdapter := database.NewListingAdapter(pgClient)
	listingAdapter := baseListingAdapter
	if cacheProvider != nil {
		listingAdapter = database.NewCachedListingAdapter(baseListingAdapter, cacheProvider)
	}
	ownerAdapter := database.NewOwnerAdapter(pgClient)
	messageAdapter := database.NewMessageAdapter(pgClient)
	imageAdapter := database.NewListingImageAdapter(pgClient)
	favoriteAdapter := database.NewFavoriteAdapter(pgClient)

	// Initialize services
	imageService := services.NewImageService(listingAdapter, imageAdapter, objectStorage, eventBus, cfg.Storage)
	listingService := services.NewListingService(listingAdapter, ownerAdapter, searchRepo, eventBus, imageService)
	ownerService := services.NewOwnerService(ownerAdapter, listingAdapter, eventBus, imageService)
	messageService := services.NewMessageService(messageAdapter, listingAdapter, services.NewContactGuard(cacheProvider))
	favoritesService := services.NewFavoritesService(sessionStore, favoriteAdapter, metrics)

	// Public catalog snapshot
	var source catalog.Source = baseListingAdapter
	if cfg.Catalog.Source == "file" {
		source = file.NewListingFileSource(cfg.Catalog.FilePath)
	}
	store := catalog.NewStore(source)
	store.OnRefresh(func(ctx context.Context, size int, duration time.Duration) {
		observability.RecordCatalogRefresh(ctx, metrics, cfg.Catalog.Source, size, duration)
	})
	if err := store.Refresh(log.Logger.WithContext(ctx)); err != nil {
		log.Error().Err(err).Msg("Initial catalog load failed, starting with an empty catalog")
	}
	go store.Run(log.Logger.WithContext(ctx), cfg.Catalog.RefreshInterval)
	go func() {
		if err := store.Watch(log.Logger.WithContext(ctx), eventBus); err != nil {
			log.Error().Err(err).Msg("Catalog stopped following listing changes")
		}
	}()
	log.Info().Str("source", cfg.Catalog.Source).Int("listings", store.Len()).Msg("Catalog loaded")

	var cacheInvalidationService *services.CacheInvalidationService
	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider, metrics)
		cacheInvalidationService = services.NewCacheInvalidationService(cacheProvider, eventBus)
		if err := cacheInvalidationService.Start(); err != nil {
			log.Warn().Err(err).Msg("Failed to start cache invalidation service")
		}
	}

	queryService := queryservices.NewListingQueryService(store, searchAdapter)

	checks := []handlers.HealthCheck{{Name: "postgres", Check: pgClient.Ping}}
	if redisClient != nil {
		checks = append(checks, handlers.HealthCheck{Name: "redis", Check: redisClient.Ping})
	}

	router := routes.NewRouter(routes.Handlers{
		Health:    handlers.NewHealthHandler(store, checks...),
		Listings:  handlers.NewListingHandler(queryService, imageService),
		Favorites: handlers.NewFavoritesHandler(favoritesService, queryService),
		Messages:  handlers.NewMessageHandler(messageService, messageService),
		Owner:     handlers.NewOwnerHandler(listingService, imageService, favoritesService, messageService, cfg.Storage.MaxImageBytes),
		Admin:     handlers.NewAdminHandler(ownerService),
		Images:    handlers.NewImageHandler(imageService),
		SSE:       handlers.NewSSEHandler(eventBus),
	}, routes.Options{
		Authenticator:  middleware.NewAuthenticator(cfg.Auth.JWTSecret),
		Cache:          cacheMiddleware,
		Metrics:        metrics,
		ListingRepo:    listingAdapter,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		SessionCookie:  cfg.Auth.SessionCookie,
		SessionTTL:     cfg.Auth.SessionTTL,
		SecureCookies:  cfg.Server.Env != "development",
	})

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     router.SetupRoutes(),
		BaseContext: func(_ net.Listener) context.Context { return log.Logger.WithContext(context.Background()) },
		ReadTimeout: 15 * time.Second,
		// No write timeout: the change feed keeps responses open
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Server shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	if cacheInvalidationService != nil {
		cacheInvalidationService.Stop()
	}

	if err := eventBus.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing event bus")
	}

	log.Info().Msg("Server stopped")
}
