package entities

import (
	"time"

	"github.com/google/uuid"
)

// ListingEventType represents the type of listing event
type ListingEventType string

const (
	ListingEventTypeCreated    ListingEventType = "created"
	ListingEventTypeUpdated    ListingEventType = "updated"
	ListingEventTypeApproved   ListingEventType = "approved"
	ListingEventTypeRejected   ListingEventType = "rejected"
	ListingEventTypeTransacted ListingEventType = "transacted"
	ListingEventTypeDeleted    ListingEventType = "deleted"
)

// ListingEvent represents a lifecycle event for a listing, published on the
// event bus so that caches and downstream consumers can react.
type ListingEvent struct {
	ID        string           `json:"id"`
	ListingID string           `json:"listing_id"`
	EventType ListingEventType `json:"event_type"`
	Timestamp time.Time        `json:"timestamp"`
	City      string           `json:"city,omitempty"`
}

// NewListingEvent creates a new listing event
func NewListingEvent(listingID string, eventType ListingEventType, city string) *ListingEvent {
	return &ListingEvent{
		ID:        uuid.NewString(),
		ListingID: listingID,
		EventType: eventType,
		Timestamp: time.Now(),
		City:      city,
	}
}
