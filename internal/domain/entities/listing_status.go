package entities

import (
	apperrors "github.com/estatehub/backend/pkg/errors"
)

// Status values mirror the listing_status enum in PostgreSQL.
type Status string

const (
	StatusActive   Status = "active"
	StatusSold     Status = "sold"
	StatusRented   Status = "rented"
	StatusInactive Status = "inactive"
)

// ParseStatus converts a raw string to a Status, returning false for unknown
// values.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusActive, StatusSold, StatusRented, StatusInactive:
		return Status(s), true
	}
	return "", false
}

// ReviewState is the tagged approval state derived from (is_approved, status).
//
// Valid transition graph:
//
//	Unreviewed ──approve──► Approved ──mark sold/rented──► Transacted
//	    │
//	    └──reject──► Inactive
//
// Any successful edit, from any state, moves the listing back to Unreviewed
// (is_approved = false). Delete is terminal from every state.
type ReviewState string

const (
	ReviewStateUnreviewed ReviewState = "unreviewed"
	ReviewStateApproved   ReviewState = "approved"
	ReviewStateInactive   ReviewState = "inactive"
	ReviewStateTransacted ReviewState = "transacted"
)

// ReviewStateOf derives the approval state of a listing.
func ReviewStateOf(l *Listing) ReviewState {
	switch {
	case l.Status == StatusInactive:
		return ReviewStateInactive
	case l.Status == StatusSold || l.Status == StatusRented:
		return ReviewStateTransacted
	case l.IsApproved:
		return ReviewStateApproved
	default:
		return ReviewStateUnreviewed
	}
}

// Approve moves an unreviewed listing to the approved state.
func Approve(l *Listing) error {
	if ReviewStateOf(l) != ReviewStateUnreviewed {
		return apperrors.NewValidationError("only unreviewed listings can be approved")
	}
	l.IsApproved = true
	l.Status = StatusActive
	return nil
}

// Reject moves an unreviewed listing to the inactive state.
func Reject(l *Listing) error {
	if ReviewStateOf(l) != ReviewStateUnreviewed {
		return apperrors.NewValidationError("only unreviewed listings can be rejected")
	}
	l.IsApproved = false
	l.Status = StatusInactive
	return nil
}

// MarkTransacted moves an approved listing to sold or rented. A listing must
// have passed review before it can be marked transacted.
func MarkTransacted(l *Listing, to Status) error {
	if to != StatusSold && to != StatusRented {
		return apperrors.NewValidationError("transacted status must be sold or rented")
	}
	if ReviewStateOf(l) != ReviewStateApproved {
		return apperrors.NewValidationError("listing must be approved before it can be marked " + string(to))
	}
	l.Status = to
	return nil
}

// ResetApproval forces a listing back to the unreviewed state. Applied on
// every edit so that changed content goes through review again.
func ResetApproval(l *Listing) {
	l.IsApproved = false
}
