package services

import (
	"regexp"
	"strings"

	"github.com/estatehub/backend/internal/domain/entities"
	apperrors "github.com/estatehub/backend/pkg/errors"
)

var postalCodeRe = regexp.MustCompile(`^[0-9]{6}$`)

// LocationDraft is the location payload of a create or edit request.
type LocationDraft struct {
	Address    string  `json:"address"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

// ListingDraft is the payload for creating a listing. Owner, approval state
// and timestamps are assigned by the service, never by the caller.
type ListingDraft struct {
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Price        *int64        `json:"price"`
	DealType     string        `json:"deal_type"`
	Category     string        `json:"category"`
	PropertyKind string        `json:"property_kind"`
	RoomCount    *int          `json:"room_count,omitempty"`
	Area         float64       `json:"area"`
	Location     LocationDraft `json:"location"`
	Images       []string      `json:"images"`
	Amenities    []string      `json:"amenities,omitempty"`
	Features     []string      `json:"features,omitempty"`
	IsFeatured   bool          `json:"is_featured,omitempty"`
}

// ListingUpdate is a partial update: nil fields keep their current value.
type ListingUpdate struct {
	Title        *string        `json:"title,omitempty"`
	Description  *string        `json:"description,omitempty"`
	Price        *int64         `json:"price,omitempty"`
	DealType     *string        `json:"deal_type,omitempty"`
	Category     *string        `json:"category,omitempty"`
	PropertyKind *string        `json:"property_kind,omitempty"`
	RoomCount    *int           `json:"room_count,omitempty"`
	Area         *float64       `json:"area,omitempty"`
	Location     *LocationDraft `json:"location,omitempty"`
	Images       *[]string      `json:"images,omitempty"`
	Amenities    *[]string      `json:"amenities,omitempty"`
	Features     *[]string      `json:"features,omitempty"`
	IsFeatured   *bool          `json:"is_featured,omitempty"`
}

// toListing validates the draft and builds an unsaved listing. Identity,
// owner and timestamps are filled in by the caller.
func (d ListingDraft) toListing() (*entities.Listing, error) {
	if d.Price == nil {
		return nil, apperrors.NewValidationError("price is required")
	}

	dealType, ok := entities.ParseDealType(d.DealType)
	if !ok {
		return nil, apperrors.NewValidationError("deal_type must be 'rent' or 'buy'")
	}
	category, ok := entities.ParseCategory(d.Category)
	if !ok {
		return nil, apperrors.NewValidationError("category must be 'residential' or 'commercial'")
	}
	kind, ok := entities.ParsePropertyKind(d.PropertyKind)
	if !ok {
		return nil, apperrors.NewValidationError("property_kind is not a known property kind")
	}

	listing := &entities.Listing{
		Title:        strings.TrimSpace(d.Title),
		Description:  strings.TrimSpace(d.Description),
		Price:        *d.Price,
		DealType:     dealType,
		Category:     category,
		PropertyKind: kind,
		RoomCount:    d.RoomCount,
		Area:         d.Area,
		Location: entities.Location{
			Address:    strings.TrimSpace(d.Location.Address),
			City:       strings.TrimSpace(d.Location.City),
			State:      strings.TrimSpace(d.Location.State),
			PostalCode: strings.TrimSpace(d.Location.PostalCode),
			Latitude:   d.Location.Latitude,
			Longitude:  d.Location.Longitude,
		},
		Images:     d.Images,
		Amenities:  d.Amenities,
		Features:   d.Features,
		IsFeatured: d.IsFeatured,
		Status:     entities.StatusActive,
	}

	if err := validateListing(listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// apply copies the update's present fields onto the listing and revalidates
// the result. Enum fields are parsed strictly; an unknown value is rejected
// rather than coerced.
func (u ListingUpdate) apply(l *entities.Listing) error {
	if u.Title != nil {
		l.Title = strings.TrimSpace(*u.Title)
	}
	if u.Description != nil {
		l.Description = strings.TrimSpace(*u.Description)
	}
	if u.Price != nil {
		l.Price = *u.Price
	}
	if u.DealType != nil {
		dt, ok := entities.ParseDealType(*u.DealType)
		if !ok {
			return apperrors.NewValidationError("deal_type must be 'rent' or 'buy'")
		}
		l.DealType = dt
	}
	if u.Category != nil {
		cat, ok := entities.ParseCategory(*u.Category)
		if !ok {
			return apperrors.NewValidationError("category must be 'residential' or 'commercial'")
		}
		l.Category = cat
	}
	if u.PropertyKind != nil {
		kind, ok := entities.ParsePropertyKind(*u.PropertyKind)
		if !ok {
			return apperrors.NewValidationError("property_kind is not a known property kind")
		}
		l.PropertyKind = kind
	}
	if u.RoomCount != nil {
		l.RoomCount = u.RoomCount
	}
	if u.Area != nil {
		l.Area = *u.Area
	}
	if u.Location != nil {
		l.Location = entities.Location{
			Address:    strings.TrimSpace(u.Location.Address),
			City:       strings.TrimSpace(u.Location.City),
			State:      strings.TrimSpace(u.Location.State),
			PostalCode: strings.TrimSpace(u.Location.PostalCode),
			Latitude:   u.Location.Latitude,
			Longitude:  u.Location.Longitude,
		}
	}
	if u.Images != nil {
		l.Images = *u.Images
	}
	if u.Amenities != nil {
		l.Amenities = *u.Amenities
	}
	if u.Features != nil {
		l.Features = *u.Features
	}
	if u.IsFeatured != nil {
		l.IsFeatured = *u.IsFeatured
	}

	return validateListing(l)
}

// validateListing checks the full-record invariants shared by create and edit.
func validateListing(l *entities.Listing) error {
	switch {
	case l.Title == "":
		return apperrors.NewValidationError("title is required")
	case len(l.Title) > 100:
		return apperrors.NewValidationError("title cannot be more than 100 characters")
	case l.Description == "":
		return apperrors.NewValidationError("description is required")
	case len(l.Description) > 2000:
		return apperrors.NewValidationError("description cannot be more than 2000 characters")
	case l.Price < 0:
		return apperrors.NewValidationError("price cannot be negative")
	case l.Area < 1:
		return apperrors.NewValidationError("area must be at least 1 sq ft")
	case len(l.Images) == 0:
		return apperrors.NewValidationError("at least one image is required")
	case l.Location.Address == "":
		return apperrors.NewValidationError("address is required")
	case l.Location.City == "":
		return apperrors.NewValidationError("city is required")
	case l.Location.State == "":
		return apperrors.NewValidationError("state is required")
	case !postalCodeRe.MatchString(l.Location.PostalCode):
		return apperrors.NewValidationError("postal code must be a 6-digit code")
	case l.Location.Latitude < -90 || l.Location.Latitude > 90:
		return apperrors.NewValidationError("latitude must be between -90 and 90")
	case l.Location.Longitude < -180 || l.Location.Longitude > 180:
		return apperrors.NewValidationError("longitude must be between -180 and 180")
	}

	if l.RoomCount != nil && (*l.RoomCount < 1 || *l.RoomCount > 10) {
		return apperrors.NewValidationError("room count must be between 1 and 10")
	}

	return nil
}
