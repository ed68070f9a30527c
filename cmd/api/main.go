package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/estatehub/backend/internal/adapters/cache"
	"github.com/estatehub/backend/internal/adapters/database"
	"github.com/estatehub/backend/internal/adapters/events"
	"github.com/estatehub/backend/internal/api/handlers"
	"github.com/estatehub/backend/internal/api/routes"
	"github.com/estatehub/backend/internal/application/services"
	"github.com/estatehub/backend/internal/domain/providers"
	"github.com/estatehub/backend/internal/domain/repositories"
	"github.com/estatehub/backend/internal/infrastructure/auth"
	"github.com/estatehub/backend/internal/infrastructure/clients/postgres"
	"github.com/estatehub/backend/internal/infrastructure/clients/redis"
	"github.com/estatehub/backend/internal/infrastructure/observability"
	"github.com/estatehub/backend/pkg/config"
)

func main() {
	// Load .env if present; real environments set variables directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger("estatehub-api", cfg.Server.Environment)

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	// Initialize Redis client; the application degrades to uncached operation
	// without it
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize Redis client, running without cache")
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
	}

	// Initialize adapters
	baseListingAdapter := database.NewListingAdapter(pgClient)

	var listingRepo repositories.ListingRepository
	if cacheProvider != nil {
		listingRepo = database.NewCachedListingAdapter(baseListingAdapter, cacheProvider)
		log.Info().Msg("listing adapter wrapped with caching layer")
	} else {
		listingRepo = baseListingAdapter
	}

	userRepo := database.NewUserAdapter(pgClient)

	// Initialize services
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	listingService := services.NewListingService(listingRepo, eventBus)
	authService := services.NewAuthService(userRepo, tokens)

	var cacheInvalidationService *services.CacheInvalidationService
	if cacheProvider != nil && eventBus != nil {
		cacheInvalidationService = services.NewCacheInvalidationService(cacheProvider, eventBus)
		if err := cacheInvalidationService.Start(); err != nil {
			log.Warn().Err(err).Msg("failed to start cache invalidation service")
		}
	}

	// Initialize handlers and routes
	listingHandler := handlers.NewListingHandler(listingService)
	authHandler := handlers.NewAuthHandler(authService)

	router := routes.NewRouter(listingHandler, authHandler, tokens, cfg.Server.AllowedOrigins)
	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("error closing event bus")
		}
	}

	if cacheInvalidationService != nil {
		cacheInvalidationService.Stop()
	}

	log.Info().Msg("server stopped")
}
