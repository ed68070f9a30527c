package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/lib/pq"

	"github.com/estatehub/backend/internal/domain/entities"
	"github.com/estatehub/backend/internal/domain/repositories"
	"github.com/estatehub/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/estatehub/backend/pkg/errors"
)

var listingColumns = []interface{}{
	"id", "title", "description", "price", "deal_type", "category",
	"property_kind", "room_count", "area", "address", "city", "state",
	"postal_code", "latitude", "longitude", "images", "amenities",
	"features", "owner_id", "is_approved", "is_featured", "status",
	"view_count", "created_at", "updated_at",
}

// ListingAdapter implements the ListingRepository interface on PostgreSQL
type ListingAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewListingAdapter creates a new listing adapter
func NewListingAdapter(client *postgres.Client) repositories.ListingRepository {
	return &ListingAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create persists a new listing
func (a *ListingAdapter) Create(ctx context.Context, listing *entities.Listing) error {
	query, args, err := a.db.Insert("listings").Rows(listingRecord(listing)).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create listing", err)
	}
	return nil
}

// GetByID retrieves a listing by ID regardless of approval state
func (a *ListingAdapter) GetByID(ctx context.Context, id string) (*entities.Listing, error) {
	query, args, err := a.db.Select(listingColumns...).
		From("listings").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	listing, err := scanListing(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("listing with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get listing", err)
	}
	return listing, nil
}

// Search executes a compiled query over approved, active listings. The count
// and the windowed fetch share one WHERE clause so the reported total always
// describes the same predicate as the returned page.
func (a *ListingAdapter) Search(ctx context.Context, query repositories.ListingQuery, window repositories.PageWindow) ([]*entities.Listing, int, error) {
	ds := a.db.From("listings").
		// Baseline visibility constraint; caller-supplied criteria can only
		// narrow it further.
		Where(goqu.C("is_approved").IsTrue()).
		Where(goqu.C("status").Eq(string(entities.StatusActive)))

	if query.DealType != nil {
		ds = ds.Where(goqu.C("deal_type").Eq(string(*query.DealType)))
	}
	if query.Category != nil {
		ds = ds.Where(goqu.C("category").Eq(string(*query.Category)))
	}
	if query.PropertyKind != nil {
		ds = ds.Where(goqu.C("property_kind").Eq(string(*query.PropertyKind)))
	}
	if query.City != "" {
		ds = ds.Where(goqu.C("city").ILike(fmt.Sprintf("%%%s%%", query.City)))
	}
	if query.MinPrice != nil {
		ds = ds.Where(goqu.C("price").Gte(*query.MinPrice))
	}
	if query.MaxPrice != nil {
		ds = ds.Where(goqu.C("price").Lte(*query.MaxPrice))
	}
	if query.RoomCount != nil {
		ds = ds.Where(goqu.C("room_count").Eq(*query.RoomCount))
	}
	if query.FeaturedOnly {
		ds = ds.Where(goqu.C("is_featured").IsTrue())
	}

	return a.fetchWindow(ctx, ds, query.Sort, window)
}

// ListPending retrieves unreviewed listings for moderation, newest first
func (a *ListingAdapter) ListPending(ctx context.Context, window repositories.PageWindow) ([]*entities.Listing, int, error) {
	ds := a.db.From("listings").
		Where(goqu.C("is_approved").IsFalse()).
		Where(goqu.C("status").Eq(string(entities.StatusActive)))

	sort := repositories.SortSpec{
		Field:     repositories.SortFieldCreatedAt,
		Direction: repositories.SortDesc,
	}
	return a.fetchWindow(ctx, ds, sort, window)
}

// fetchWindow counts the full predicate match, then fetches one ordered page.
// Both queries run inside a single repeatable-read transaction so the reported
// total and the returned rows describe the same snapshot even while writers
// are committing.
func (a *ListingAdapter) fetchWindow(ctx context.Context, ds *goqu.SelectDataset, sort repositories.SortSpec, window repositories.PageWindow) ([]*entities.Listing, int, error) {
	countSQL, countArgs, err := ds.Select(goqu.COUNT("*")).ToSQL()
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to build count query", err)
	}

	paged := ds.Select(listingColumns...).Order(orderedExpressions(sort)...)
	if window.Limit > 0 {
		paged = paged.Limit(uint(window.Limit))
	}
	if window.Offset > 0 {
		paged = paged.Offset(uint(window.Offset))
	}

	query, args, err := paged.ToSQL()
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to build search query", err)
	}

	tx, err := a.client.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelRepeatableRead,
		ReadOnly:  true,
	})
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to begin search transaction", err)
	}
	defer tx.Rollback()

	var total int
	if err := tx.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, apperrors.NewInternalError("failed to count listings", err)
	}

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to search listings", err)
	}
	defer rows.Close()

	var listings []*entities.Listing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, 0, apperrors.NewInternalError("failed to scan listing", err)
		}
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.NewInternalError("failed to read listings", err)
	}

	rows.Close()
	if err := tx.Commit(); err != nil {
		return nil, 0, apperrors.NewInternalError("failed to commit search transaction", err)
	}
	return listings, total, nil
}

// orderedExpressions maps a sort spec to ORDER BY clauses. Ties always break
// by created_at descending, then id, so repeated requests page consistently.
func orderedExpressions(sort repositories.SortSpec) []exp.OrderedExpression {
	column := map[repositories.SortField]string{
		repositories.SortFieldCreatedAt: "created_at",
		repositories.SortFieldPrice:     "price",
		repositories.SortFieldArea:      "area",
		repositories.SortFieldViewCount: "view_count",
	}[sort.Field]
	if column == "" {
		column = "created_at"
	}

	primary := goqu.I(column).Desc()
	if sort.Direction == repositories.SortAsc {
		primary = goqu.I(column).Asc()
	}

	ordered := []exp.OrderedExpression{primary}
	if column != "created_at" {
		ordered = append(ordered, goqu.I("created_at").Desc())
	}
	return append(ordered, goqu.I("id").Asc())
}

// Update persists all mutable listing fields, including the approval flag,
// as a single write
func (a *ListingAdapter) Update(ctx context.Context, listing *entities.Listing) error {
	record := listingRecord(listing)
	delete(record, "id")
	delete(record, "owner_id")
	delete(record, "created_at")
	delete(record, "view_count")

	query, args, err := a.db.Update("listings").
		Set(record).
		Where(goqu.Ex{"id": listing.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update listing", err)
	}
	return requireRow(result, listing.ID)
}

// Delete removes a listing permanently
func (a *ListingAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("listings").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete listing", err)
	}
	return requireRow(result, id)
}

// IncrementViews applies an atomic view-count increment
func (a *ListingAdapter) IncrementViews(ctx context.Context, id string) error {
	query, args, err := a.db.Update("listings").
		Set(goqu.Record{"view_count": goqu.L("view_count + 1")}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build view increment query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to increment view count", err)
	}
	return requireRow(result, id)
}

func requireRow(result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to read rows affected", err)
	}
	if affected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("listing with id %s not found", id))
	}
	return nil
}

func listingRecord(l *entities.Listing) goqu.Record {
	var roomCount interface{}
	if l.RoomCount != nil {
		roomCount = *l.RoomCount
	}

	return goqu.Record{
		"id":            l.ID,
		"title":         l.Title,
		"description":   l.Description,
		"price":         l.Price,
		"deal_type":     string(l.DealType),
		"category":      string(l.Category),
		"property_kind": string(l.PropertyKind),
		"room_count":    roomCount,
		"area":          l.Area,
		"address":       l.Location.Address,
		"city":          l.Location.City,
		"state":         l.Location.State,
		"postal_code":   l.Location.PostalCode,
		"latitude":      l.Location.Latitude,
		"longitude":     l.Location.Longitude,
		"images":        pq.Array(l.Images),
		"amenities":     pq.Array(l.Amenities),
		"features":      pq.Array(l.Features),
		"owner_id":      l.OwnerID,
		"is_approved":   l.IsApproved,
		"is_featured":   l.IsFeatured,
		"status":        string(l.Status),
		"view_count":    l.ViewCount,
		"created_at":    l.CreatedAt,
		"updated_at":    l.UpdatedAt,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanListing(row rowScanner) (*entities.Listing, error) {
	listing := &entities.Listing{}
	var roomCount sql.NullInt64
	var dealType, category, propertyKind, status string

	err := row.Scan(
		&listing.ID,
		&listing.Title,
		&listing.Description,
		&listing.Price,
		&dealType,
		&category,
		&propertyKind,
		&roomCount,
		&listing.Area,
		&listing.Location.Address,
		&listing.Location.City,
		&listing.Location.State,
		&listing.Location.PostalCode,
		&listing.Location.Latitude,
		&listing.Location.Longitude,
		pq.Array(&listing.Images),
		pq.Array(&listing.Amenities),
		pq.Array(&listing.Features),
		&listing.OwnerID,
		&listing.IsApproved,
		&listing.IsFeatured,
		&status,
		&listing.ViewCount,
		&listing.CreatedAt,
		&listing.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	listing.DealType = entities.DealType(dealType)
	listing.Category = entities.Category(category)
	listing.PropertyKind = entities.PropertyKind(propertyKind)
	listing.Status = entities.Status(status)
	if roomCount.Valid {
		rc := int(roomCount.Int64)
		listing.RoomCount = &rc
	}
	return listing, nil
}
