package services

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/estatehub/backend/internal/domain/entities"
	"github.com/estatehub/backend/internal/domain/repositories"
	apperrors "github.com/estatehub/backend/pkg/errors"
)

// RawSearchFilter carries untyped search parameters exactly as received from
// the transport layer. Empty string means the criterion is absent.
type RawSearchFilter struct {
	DealType     string
	Category     string
	PropertyKind string
	City         string
	MinPrice     string
	MaxPrice     string
	RoomCount    string
	Featured     string
	SortBy       string
	SortOrder    string
	Page         string
	PageSize     string
}

// RawSearchFilterFromQuery extracts the supported search parameters from a
// URL query string.
func RawSearchFilterFromQuery(q url.Values) RawSearchFilter {
	return RawSearchFilter{
		DealType:     q.Get("type"),
		Category:     q.Get("category"),
		PropertyKind: q.Get("propertyType"),
		City:         q.Get("city"),
		MinPrice:     q.Get("minPrice"),
		MaxPrice:     q.Get("maxPrice"),
		RoomCount:    q.Get("rooms"),
		Featured:     q.Get("featured"),
		SortBy:       q.Get("sortBy"),
		SortOrder:    q.Get("sortOrder"),
		Page:         q.Get("page"),
		PageSize:     q.Get("limit"),
	}
}

// CompiledSearch is the validated, normalized form of a search request: a
// typed predicate plus sort spec for the repository and the requested page.
type CompiledSearch struct {
	Query    repositories.ListingQuery
	Page     int
	PageSize int
}

// CompileListingFilter validates raw search parameters into a CompiledSearch.
// Absent criteria impose no constraint; malformed or conflicting values are a
// validation error, never silently dropped. The compiled query always keeps
// the baseline restriction to approved, active listings.
func CompileListingFilter(raw RawSearchFilter) (CompiledSearch, error) {
	var query repositories.ListingQuery

	if raw.DealType != "" {
		dt, ok := entities.ParseDealType(raw.DealType)
		if !ok {
			return CompiledSearch{}, apperrors.NewValidationError("type must be 'rent' or 'buy'")
		}
		query.DealType = &dt
	}

	if raw.Category != "" {
		cat, ok := entities.ParseCategory(raw.Category)
		if !ok {
			return CompiledSearch{}, apperrors.NewValidationError("category must be 'residential' or 'commercial'")
		}
		query.Category = &cat
	}

	if raw.PropertyKind != "" {
		kind, ok := entities.ParsePropertyKind(raw.PropertyKind)
		if !ok {
			return CompiledSearch{}, apperrors.NewValidationError("propertyType is not a known property kind")
		}
		query.PropertyKind = &kind
	}

	query.City = raw.City

	if raw.MinPrice != "" {
		v, err := parseNonNegativeInt("minPrice", raw.MinPrice)
		if err != nil {
			return CompiledSearch{}, err
		}
		min := int64(v)
		query.MinPrice = &min
	}

	if raw.MaxPrice != "" {
		v, err := parseNonNegativeInt("maxPrice", raw.MaxPrice)
		if err != nil {
			return CompiledSearch{}, err
		}
		max := int64(v)
		query.MaxPrice = &max
	}

	if query.MinPrice != nil && query.MaxPrice != nil && *query.MinPrice > *query.MaxPrice {
		return CompiledSearch{}, apperrors.NewValidationError("minPrice cannot be greater than maxPrice")
	}

	if raw.RoomCount != "" {
		v, err := parseNonNegativeInt("rooms", raw.RoomCount)
		if err != nil {
			return CompiledSearch{}, err
		}
		query.RoomCount = &v
	}

	if raw.Featured != "" {
		featured, err := strconv.ParseBool(raw.Featured)
		if err != nil {
			return CompiledSearch{}, apperrors.NewValidationError("featured must be a boolean")
		}
		query.FeaturedOnly = featured
	}

	sort, err := compileSortSpec(raw.SortBy, raw.SortOrder)
	if err != nil {
		return CompiledSearch{}, err
	}
	query.Sort = sort

	page := 1
	if raw.Page != "" {
		page, err = strconv.Atoi(raw.Page)
		if err != nil {
			return CompiledSearch{}, apperrors.NewValidationError("page must be an integer")
		}
	}

	pageSize := DefaultPageSize
	if raw.PageSize != "" {
		pageSize, err = strconv.Atoi(raw.PageSize)
		if err != nil {
			return CompiledSearch{}, apperrors.NewValidationError("limit must be an integer")
		}
	}

	return CompiledSearch{Query: query, Page: page, PageSize: pageSize}, nil
}

func compileSortSpec(field, direction string) (repositories.SortSpec, error) {
	spec := repositories.SortSpec{
		Field:     repositories.SortFieldCreatedAt,
		Direction: repositories.SortDesc,
	}

	if field != "" {
		switch repositories.SortField(field) {
		case repositories.SortFieldCreatedAt, repositories.SortFieldPrice,
			repositories.SortFieldArea, repositories.SortFieldViewCount:
			spec.Field = repositories.SortField(field)
		default:
			return repositories.SortSpec{}, apperrors.NewValidationError("sortBy must be one of createdAt, price, area, viewCount")
		}
	}

	if direction != "" {
		switch repositories.SortDirection(direction) {
		case repositories.SortAsc, repositories.SortDesc:
			spec.Direction = repositories.SortDirection(direction)
		default:
			return repositories.SortSpec{}, apperrors.NewValidationError("sortOrder must be 'asc' or 'desc'")
		}
	}

	return spec, nil
}

func parseNonNegativeInt(name, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, apperrors.NewValidationError(fmt.Sprintf("%s must be an integer", name))
	}
	if v < 0 {
		return 0, apperrors.NewValidationError(fmt.Sprintf("%s cannot be negative", name))
	}
	return v, nil
}
