package services_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/estatehub/backend/internal/application/services"
	"github.com/estatehub/backend/internal/domain/entities"
	"github.com/estatehub/backend/internal/domain/providers"
)

// MockCacheProvider is an in-memory cache for testing
type MockCacheProvider struct {
	mu      sync.RWMutex
	data    map[string][]byte
	deleted []string
}

func NewMockCacheProvider() *MockCacheProvider {
	return &MockCacheProvider{
		data:    make(map[string][]byte),
		deleted: make([]string, 0),
	}
}

func (m *MockCacheProvider) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if val, ok := m.data[key]; ok {
		return val, nil
	}
	return nil, nil
}

func (m *MockCacheProvider) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MockCacheProvider) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *MockCacheProvider) DeletePattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			delete(m.data, key)
			m.deleted = append(m.deleted, key)
		}
	}
	return nil
}

func (m *MockCacheProvider) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok, nil
}

func (m *MockCacheProvider) Deleted() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.deleted...)
}

func (m *MockCacheProvider) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok
}

// MockEventBus is an in-process event bus for testing
type MockEventBus struct {
	mu          sync.Mutex
	subscribers map[string][]chan *entities.ListingEvent
}

func NewMockEventBus() *MockEventBus {
	return &MockEventBus{
		subscribers: make(map[string][]chan *entities.ListingEvent),
	}
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.ListingEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subscribers[channel] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ListingEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan *entities.ListingEvent, 10)
	m.subscribers[channel] = append(m.subscribers[channel], ch)
	return ch, nil
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subscribers[channel] {
		close(ch)
	}
	delete(m.subscribers, channel)
	return nil
}

func (m *MockEventBus) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, channels := range m.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}
	m.subscribers = make(map[string][]chan *entities.ListingEvent)
	return nil
}

func (m *MockEventBus) SubscriberCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscribers)
}

func TestCacheInvalidationService_Start(t *testing.T) {
	cache := NewMockCacheProvider()
	eventBus := NewMockEventBus()
	service := services.NewCacheInvalidationService(cache, eventBus)

	if err := service.Start(); err != nil {
		t.Fatalf("Failed to start service: %v", err)
	}
	defer service.Stop()

	if eventBus.SubscriberCount() != 1 {
		t.Errorf("Expected 1 subscriber, got %d", eventBus.SubscriberCount())
	}
}

func TestCacheInvalidationService_DropsListingOnAnyEvent(t *testing.T) {
	cache := NewMockCacheProvider()
	eventBus := NewMockEventBus()
	service := services.NewCacheInvalidationService(cache, eventBus)

	if err := service.Start(); err != nil {
		t.Fatalf("Failed to start service: %v", err)
	}
	defer service.Stop()

	if err := cache.Set(context.Background(), "listing:l-1", []byte("data"), 300); err != nil {
		t.Fatalf("Failed to seed cache: %v", err)
	}
	if err := cache.Set(context.Background(), "listings:search:abc", []byte("data"), 120); err != nil {
		t.Fatalf("Failed to seed cache: %v", err)
	}

	event := entities.NewListingEvent("l-1", entities.ListingEventTypeUpdated, "Mumbai")
	if err := eventBus.Publish(context.Background(), providers.EventChannelListingUpdates, event); err != nil {
		t.Fatalf("Failed to publish event: %v", err)
	}

	waitFor(t, func() bool { return !cache.Has("listing:l-1") })

	// Plain updates leave search windows to expire by TTL
	if !cache.Has("listings:search:abc") {
		t.Error("Expected search cache to survive a plain update event")
	}
}

func TestCacheInvalidationService_VisibilityEventsFlushSearchCaches(t *testing.T) {
	events := []entities.ListingEventType{
		entities.ListingEventTypeApproved,
		entities.ListingEventTypeTransacted,
		entities.ListingEventTypeDeleted,
	}

	for _, eventType := range events {
		t.Run(string(eventType), func(t *testing.T) {
			cache := NewMockCacheProvider()
			eventBus := NewMockEventBus()
			service := services.NewCacheInvalidationService(cache, eventBus)

			if err := service.Start(); err != nil {
				t.Fatalf("Failed to start service: %v", err)
			}
			defer service.Stop()

			if err := cache.Set(context.Background(), "listings:search:abc", []byte("data"), 120); err != nil {
				t.Fatalf("Failed to seed cache: %v", err)
			}

			event := entities.NewListingEvent("l-1", eventType, "Mumbai")
			if err := eventBus.Publish(context.Background(), providers.EventChannelListingUpdates, event); err != nil {
				t.Fatalf("Failed to publish event: %v", err)
			}

			waitFor(t, func() bool { return !cache.Has("listings:search:abc") })
		})
	}
}

func TestCacheInvalidationService_InvalidateSearchCaches(t *testing.T) {
	cache := NewMockCacheProvider()
	service := services.NewCacheInvalidationService(cache, NewMockEventBus())

	if err := cache.Set(context.Background(), "listings:search:1", []byte("data"), 120); err != nil {
		t.Fatalf("Failed to seed cache: %v", err)
	}
	if err := cache.Set(context.Background(), "listing:l-1", []byte("data"), 300); err != nil {
		t.Fatalf("Failed to seed cache: %v", err)
	}

	if err := service.InvalidateSearchCaches(context.Background()); err != nil {
		t.Fatalf("Failed to invalidate search caches: %v", err)
	}

	if cache.Has("listings:search:1") {
		t.Error("Expected search cache to be flushed")
	}
	if !cache.Has("listing:l-1") {
		t.Error("Expected listing cache to be untouched")
	}
}

func TestCacheInvalidationService_InvalidateListingCache(t *testing.T) {
	cache := NewMockCacheProvider()
	service := services.NewCacheInvalidationService(cache, NewMockEventBus())

	if err := cache.Set(context.Background(), "listing:l-1", []byte("data"), 300); err != nil {
		t.Fatalf("Failed to seed cache: %v", err)
	}

	if err := service.InvalidateListingCache(context.Background(), "l-1"); err != nil {
		t.Fatalf("Failed to invalidate listing cache: %v", err)
	}

	if cache.Has("listing:l-1") {
		t.Error("Expected listing cache to be deleted")
	}
}

func waitFor(t *testing.T, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Timed out waiting for condition")
}
