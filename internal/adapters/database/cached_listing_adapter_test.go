package database_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estatehub/backend/internal/adapters/database"
	"github.com/estatehub/backend/internal/domain/entities"
	"github.com/estatehub/backend/internal/domain/repositories"
)

type stubCache struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func newStubCache() *stubCache {
	return &stubCache{data: make(map[string][]byte)}
}

func (c *stubCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if val, ok := c.data[key]; ok {
		return val, nil
	}
	return nil, context.Canceled
}

func (c *stubCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *stubCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *stubCache) DeletePattern(ctx context.Context, pattern string) error { return nil }

func (c *stubCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.data[key]
	return ok, nil
}

func (c *stubCache) has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.data[key]
	return ok
}

// stubRepo counts calls so tests can tell cache hits from misses
type stubRepo struct {
	repositories.ListingRepository

	getCalls       int
	searchCalls    int
	pendingCalls   int
	incrementCalls int
	lastUpdated    *entities.Listing
	listing        *entities.Listing
	searchTotal    int
}

func (r *stubRepo) GetByID(ctx context.Context, id string) (*entities.Listing, error) {
	r.getCalls++
	return r.listing, nil
}

func (r *stubRepo) Search(ctx context.Context, query repositories.ListingQuery, window repositories.PageWindow) ([]*entities.Listing, int, error) {
	r.searchCalls++
	return []*entities.Listing{r.listing}, r.searchTotal, nil
}

func (r *stubRepo) ListPending(ctx context.Context, window repositories.PageWindow) ([]*entities.Listing, int, error) {
	r.pendingCalls++
	return []*entities.Listing{r.listing}, 1, nil
}

func (r *stubRepo) Update(ctx context.Context, listing *entities.Listing) error {
	r.lastUpdated = listing
	return nil
}

func (r *stubRepo) Delete(ctx context.Context, id string) error { return nil }

func (r *stubRepo) IncrementViews(ctx context.Context, id string) error {
	r.incrementCalls++
	return nil
}

func TestCachedListingAdapter_GetByID(t *testing.T) {
	listing := &entities.Listing{ID: "l-1", Title: "Apartment", ViewCount: 3}

	t.Run("cache hit never reaches the database", func(t *testing.T) {
		cache := newStubCache()
		repo := &stubRepo{listing: listing}
		adapter := database.NewCachedListingAdapter(repo, cache)

		payload, err := json.Marshal(listing)
		require.NoError(t, err)
		require.NoError(t, cache.Set(context.Background(), "listing:l-1", payload, 300))

		got, err := adapter.GetByID(context.Background(), "l-1")

		require.NoError(t, err)
		assert.Equal(t, "l-1", got.ID)
		assert.Zero(t, repo.getCalls)
	})

	t.Run("cache miss delegates and populates the cache", func(t *testing.T) {
		cache := newStubCache()
		repo := &stubRepo{listing: listing}
		adapter := database.NewCachedListingAdapter(repo, cache)

		got, err := adapter.GetByID(context.Background(), "l-1")

		require.NoError(t, err)
		assert.Equal(t, "l-1", got.ID)
		assert.Equal(t, 1, repo.getCalls)

		waitForKey(t, cache, "listing:l-1")
	})
}

func TestCachedListingAdapter_Search_CachesWindowWithTotal(t *testing.T) {
	cache := newStubCache()
	repo := &stubRepo{listing: &entities.Listing{ID: "l-1"}, searchTotal: 37}
	adapter := database.NewCachedListingAdapter(repo, cache)

	query := repositories.ListingQuery{City: "mumbai"}
	window := repositories.PageWindow{Offset: 0, Limit: 12}

	_, total, err := adapter.Search(context.Background(), query, window)
	require.NoError(t, err)
	assert.Equal(t, 37, total)
	assert.Equal(t, 1, repo.searchCalls)

	// Wait for the async store, then the same query must be served from cache
	require.Eventually(t, func() bool {
		_, total, err := adapter.Search(context.Background(), query, window)
		return err == nil && total == 37 && repo.searchCalls == 1
	}, 2*time.Second, 10*time.Millisecond)

	// A different window is a different cache entry
	_, _, err = adapter.Search(context.Background(), query, repositories.PageWindow{Offset: 12, Limit: 12})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.searchCalls)
}

func TestCachedListingAdapter_ListPendingIsNeverCached(t *testing.T) {
	cache := newStubCache()
	repo := &stubRepo{listing: &entities.Listing{ID: "l-1"}}
	adapter := database.NewCachedListingAdapter(repo, cache)

	window := repositories.PageWindow{Offset: 0, Limit: 12}
	for i := 0; i < 3; i++ {
		_, _, err := adapter.ListPending(context.Background(), window)
		require.NoError(t, err)
	}

	assert.Equal(t, 3, repo.pendingCalls)
}

func TestCachedListingAdapter_UpdateInvalidatesCachedListing(t *testing.T) {
	cache := newStubCache()
	repo := &stubRepo{}
	adapter := database.NewCachedListingAdapter(repo, cache)

	require.NoError(t, cache.Set(context.Background(), "listing:l-1", []byte("{}"), 300))

	require.NoError(t, adapter.Update(context.Background(), &entities.Listing{ID: "l-1"}))

	assert.False(t, cache.has("listing:l-1"))
	require.NotNil(t, repo.lastUpdated)
}

func TestCachedListingAdapter_IncrementViewsPassesThrough(t *testing.T) {
	cache := newStubCache()
	repo := &stubRepo{}
	adapter := database.NewCachedListingAdapter(repo, cache)

	require.NoError(t, cache.Set(context.Background(), "listing:l-1", []byte("{}"), 300))
	require.NoError(t, adapter.IncrementViews(context.Background(), "l-1"))

	assert.Equal(t, 1, repo.incrementCalls)
	// The cached copy may lag on view count until the TTL expires
	assert.True(t, cache.has("listing:l-1"))
}

func waitForKey(t *testing.T, cache *stubCache, key string) {
	t.Helper()
	require.Eventually(t, func() bool { return cache.has(key) }, 2*time.Second, 10*time.Millisecond)
}
