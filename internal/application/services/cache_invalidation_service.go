package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/estatehub/backend/internal/domain/entities"
	"github.com/estatehub/backend/internal/domain/providers"
)

// CacheInvalidationService drops cached listings in response to lifecycle
// events. It runs as a background listener so every API instance sharing the
// Redis cache converges after a write on any instance.
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins listening for listing events and invalidating cache
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelListingUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to listing updates: %w", err)
	}

	go s.processEvents(eventChan)
	log.Info().Msg("cache invalidation service started")
	return nil
}

// Stop stops the cache invalidation service
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	log.Info().Msg("cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.ListingEvent) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case event := <-eventChan:
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

// handleEvent invalidates the cached listing behind an event. Events that
// change which listings are publicly visible also flush cached search
// windows; plain updates leave them to expire by TTL since those carry short
// TTLs and flushing them on every edit would stampede the database.
func (s *CacheInvalidationService) handleEvent(event *entities.ListingEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log.Debug().
		Str("event_id", event.ID).
		Str("listing_id", event.ListingID).
		Str("event_type", string(event.EventType)).
		Msg("processing cache invalidation")

	if err := s.cache.Delete(ctx, fmt.Sprintf("listing:%s", event.ListingID)); err != nil {
		log.Warn().Err(err).Str("listing_id", event.ListingID).Msg("failed to invalidate cached listing")
	}

	switch event.EventType {
	case entities.ListingEventTypeApproved,
		entities.ListingEventTypeTransacted,
		entities.ListingEventTypeDeleted:
		if err := s.InvalidateSearchCaches(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to invalidate search caches")
		}
	}
}

// InvalidateSearchCaches flushes every cached search window
func (s *CacheInvalidationService) InvalidateSearchCaches(ctx context.Context) error {
	if err := s.cache.DeletePattern(ctx, "listings:search:*"); err != nil {
		return fmt.Errorf("failed to invalidate search caches: %w", err)
	}
	return nil
}

// InvalidateListingCache drops the cached copy of a single listing
func (s *CacheInvalidationService) InvalidateListingCache(ctx context.Context, listingID string) error {
	if err := s.cache.Delete(ctx, fmt.Sprintf("listing:%s", listingID)); err != nil {
		return fmt.Errorf("failed to invalidate listing cache: %w", err)
	}
	return nil
}
