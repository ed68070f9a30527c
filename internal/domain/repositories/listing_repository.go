package repositories

import (
	"context"

	"github.com/estatehub/backend/internal/domain/entities"
)

// SortField is a whitelisted listing column the caller may sort by.
type SortField string

const (
	SortFieldCreatedAt SortField = "createdAt"
	SortFieldPrice     SortField = "price"
	SortFieldArea      SortField = "area"
	SortFieldViewCount SortField = "viewCount"
)

// SortDirection orders results ascending or descending.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortSpec maps a sort field and direction to a total order over the result
// set. Implementations must break ties by created_at descending, then id, so
// pagination over unchanged data is reproducible.
type SortSpec struct {
	Field     SortField
	Direction SortDirection
}

// ListingQuery is a compiled, validated search predicate. Nil pointer fields
// mean "no constraint on that dimension". Every query implicitly restricts
// results to approved, active listings; implementations must always apply
// that baseline regardless of the optional criteria.
type ListingQuery struct {
	DealType     *entities.DealType
	Category     *entities.Category
	PropertyKind *entities.PropertyKind
	City         string // case-insensitive substring match when non-empty
	MinPrice     *int64
	MaxPrice     *int64
	RoomCount    *int
	FeaturedOnly bool
	Sort         SortSpec
}

// PageWindow is the slice of the ordered result set to fetch.
type PageWindow struct {
	Offset int
	Limit  int
}

// ListingRepository defines the interface for listing data operations.
//
// Search and ListPending return the windowed rows together with the total
// number of rows matching the predicate before windowing; both values must be
// computed against the same logical snapshot for pagination metadata to be
// consistent.
type ListingRepository interface {
	// Create persists a new listing
	Create(ctx context.Context, listing *entities.Listing) error

	// GetByID retrieves a listing by ID regardless of approval state
	GetByID(ctx context.Context, id string) (*entities.Listing, error)

	// Search executes a compiled query over approved, active listings
	Search(ctx context.Context, query ListingQuery, window PageWindow) ([]*entities.Listing, int, error)

	// ListPending retrieves unreviewed listings for moderation, newest first
	ListPending(ctx context.Context, window PageWindow) ([]*entities.Listing, int, error)

	// Update persists all mutable fields of a listing, including its
	// approval flag, as a single write
	Update(ctx context.Context, listing *entities.Listing) error

	// Delete removes a listing permanently
	Delete(ctx context.Context, id string) error

	// IncrementViews applies an atomic view-count increment
	IncrementViews(ctx context.Context, id string) error
}
