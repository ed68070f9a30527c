package services

import (
	"github.com/estatehub/backend/internal/domain/entities"
)

// CanMutateListing is the single ownership rule for edits, deletes and status
// changes: admins may mutate any listing, everyone else only their own. Kept
// as one pure predicate so the rule stays auditable and testable in isolation.
func CanMutateListing(actor entities.Identity, listing *entities.Listing) bool {
	return actor.Role == entities.RoleAdmin || actor.UserID == listing.OwnerID
}

// CanViewListing reports whether an optional actor may fetch a listing by id.
// Approved, active listings are public; anything else is visible only to its
// owner or an admin.
func CanViewListing(actor *entities.Identity, listing *entities.Listing) bool {
	if listing.PubliclyVisible() {
		return true
	}
	if actor == nil {
		return false
	}
	return CanMutateListing(*actor, listing)
}
