package database

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/estatehub/backend/internal/domain/entities"
	"github.com/estatehub/backend/internal/domain/providers"
	"github.com/estatehub/backend/internal/domain/repositories"
)

// CachedListingAdapter wraps a ListingRepository with caching
type CachedListingAdapter struct {
	adapter repositories.ListingRepository
	cache   providers.CacheProvider
}

// NewCachedListingAdapter creates a new cached listing adapter
func NewCachedListingAdapter(adapter repositories.ListingRepository, cache providers.CacheProvider) repositories.ListingRepository {
	return &CachedListingAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

// Cache TTLs (in seconds)
const (
	listingByIDTTL   = 300 // 5 minutes for single listings
	searchResultsTTL = 120 // 2 minutes for search windows
)

func listingCacheKey(id string) string {
	return fmt.Sprintf("listing:%s", id)
}

// searchCacheKey derives a deterministic key from the compiled query and
// window. Hashing keeps key length bounded regardless of filter contents.
func searchCacheKey(query repositories.ListingQuery, window repositories.PageWindow) string {
	payload, err := json.Marshal(struct {
		Query  repositories.ListingQuery
		Window repositories.PageWindow
	}{query, window})
	if err != nil {
		return ""
	}
	return fmt.Sprintf("listings:search:%x", md5.Sum(payload))
}

type cachedSearchResult struct {
	Listings []*entities.Listing `json:"listings"`
	Total    int                 `json:"total"`
}

// GetByID retrieves a listing by ID with caching. The cached copy may lag on
// view count by up to the TTL; lifecycle changes invalidate it immediately.
func (a *CachedListingAdapter) GetByID(ctx context.Context, id string) (*entities.Listing, error) {
	cacheKey := listingCacheKey(id)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var listing entities.Listing
		if err := json.Unmarshal(cached, &listing); err == nil {
			return &listing, nil
		}
	}

	listing, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	a.storeAsync(cacheKey, listing, listingByIDTTL)
	return listing, nil
}

// Search executes a compiled query with short-lived result caching. The total
// count is cached together with the window so pagination metadata stays
// consistent with the rows it was computed against.
func (a *CachedListingAdapter) Search(ctx context.Context, query repositories.ListingQuery, window repositories.PageWindow) ([]*entities.Listing, int, error) {
	cacheKey := searchCacheKey(query, window)

	if cacheKey != "" {
		if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
			var result cachedSearchResult
			if err := json.Unmarshal(cached, &result); err == nil {
				return result.Listings, result.Total, nil
			}
		}
	}

	listings, total, err := a.adapter.Search(ctx, query, window)
	if err != nil {
		return nil, 0, err
	}

	if cacheKey != "" {
		a.storeAsync(cacheKey, cachedSearchResult{Listings: listings, Total: total}, searchResultsTTL)
	}
	return listings, total, nil
}

// ListPending is never cached: moderators must always see the live queue.
func (a *CachedListingAdapter) ListPending(ctx context.Context, window repositories.PageWindow) ([]*entities.Listing, int, error) {
	return a.adapter.ListPending(ctx, window)
}

// Create passes through; new listings are unreviewed and not publicly
// visible, so no cached search window can contain them.
func (a *CachedListingAdapter) Create(ctx context.Context, listing *entities.Listing) error {
	return a.adapter.Create(ctx, listing)
}

// Update writes through and drops the cached listing. Search windows are left
// to expire by TTL.
func (a *CachedListingAdapter) Update(ctx context.Context, listing *entities.Listing) error {
	if err := a.adapter.Update(ctx, listing); err != nil {
		return err
	}
	a.invalidate(ctx, listing.ID)
	return nil
}

// Delete writes through and drops the cached listing.
func (a *CachedListingAdapter) Delete(ctx context.Context, id string) error {
	if err := a.adapter.Delete(ctx, id); err != nil {
		return err
	}
	a.invalidate(ctx, id)
	return nil
}

// IncrementViews passes through without invalidation; view counts are allowed
// to lag in cached copies until the TTL expires.
func (a *CachedListingAdapter) IncrementViews(ctx context.Context, id string) error {
	return a.adapter.IncrementViews(ctx, id)
}

// storeAsync updates the cache off the request path.
func (a *CachedListingAdapter) storeAsync(key string, value interface{}, ttlSeconds int) {
	go func() {
		data, err := json.Marshal(value)
		if err != nil {
			return
		}
		if err := a.cache.Set(context.Background(), key, data, ttlSeconds); err != nil {
			log.Debug().Err(err).Str("key", key).Msg("failed to cache value")
		}
	}()
}

func (a *CachedListingAdapter) invalidate(ctx context.Context, id string) {
	if err := a.cache.Delete(ctx, listingCacheKey(id)); err != nil {
		log.Debug().Err(err).Str("listing_id", id).Msg("failed to invalidate cached listing")
	}
}
