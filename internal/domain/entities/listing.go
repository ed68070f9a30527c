package entities

import (
	"time"
)

// DealType says whether a listing is offered for rent or for sale.
type DealType string

const (
	DealTypeRent DealType = "rent"
	DealTypeBuy  DealType = "buy"
)

// Category splits the market into residential and commercial listings.
type Category string

const (
	CategoryResidential Category = "residential"
	CategoryCommercial  Category = "commercial"
)

// PropertyKind is the concrete kind of property being listed.
type PropertyKind string

const (
	PropertyKindApartment PropertyKind = "apartment"
	PropertyKindHouse     PropertyKind = "house"
	PropertyKindVilla     PropertyKind = "villa"
	PropertyKindOffice    PropertyKind = "office"
	PropertyKindShop      PropertyKind = "shop"
	PropertyKindWarehouse PropertyKind = "warehouse"
)

// Listing represents a real-estate listing in the system
type Listing struct {
	ID           string       `json:"id" db:"id"`
	Title        string       `json:"title" db:"title"`
	Description  string       `json:"description" db:"description"`
	Price        int64        `json:"price" db:"price"`
	DealType     DealType     `json:"deal_type" db:"deal_type"`
	Category     Category     `json:"category" db:"category"`
	PropertyKind PropertyKind `json:"property_kind" db:"property_kind"`
	RoomCount    *int         `json:"room_count,omitempty" db:"room_count"`
	Area         float64      `json:"area" db:"area"`
	Location     Location     `json:"location" db:"-"`
	Images       []string     `json:"images" db:"-"`
	Amenities    []string     `json:"amenities" db:"-"`
	Features     []string     `json:"features" db:"-"`
	OwnerID      string       `json:"owner_id" db:"owner_id"`
	IsApproved   bool         `json:"is_approved" db:"is_approved"`
	IsFeatured   bool         `json:"is_featured" db:"is_featured"`
	Status       Status       `json:"status" db:"status"`
	ViewCount    int64        `json:"view_count" db:"view_count"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

// Location represents a listing's physical address and coordinates
type Location struct {
	Address    string  `json:"address" db:"address"`
	City       string  `json:"city" db:"city"`
	State      string  `json:"state" db:"state"`
	PostalCode string  `json:"postal_code" db:"postal_code"`
	Latitude   float64 `json:"latitude" db:"latitude"`
	Longitude  float64 `json:"longitude" db:"longitude"`
}

// ParseDealType converts a raw string to a DealType, returning false for
// unknown values.
func ParseDealType(s string) (DealType, bool) {
	switch DealType(s) {
	case DealTypeRent, DealTypeBuy:
		return DealType(s), true
	}
	return "", false
}

// ParseCategory converts a raw string to a Category.
func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CategoryResidential, CategoryCommercial:
		return Category(s), true
	}
	return "", false
}

// ParsePropertyKind converts a raw string to a PropertyKind.
func ParsePropertyKind(s string) (PropertyKind, bool) {
	switch PropertyKind(s) {
	case PropertyKindApartment, PropertyKindHouse, PropertyKindVilla,
		PropertyKindOffice, PropertyKindShop, PropertyKindWarehouse:
		return PropertyKind(s), true
	}
	return "", false
}

// PubliclyVisible reports whether the listing is discoverable through public
// search: approved by a reviewer and still active.
func (l *Listing) PubliclyVisible() bool {
	return l.IsApproved && l.Status == StatusActive
}
