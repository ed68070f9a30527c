package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/estatehub/backend/internal/domain/entities"
	"github.com/estatehub/backend/internal/domain/providers"
	"github.com/estatehub/backend/internal/domain/repositories"
	apperrors "github.com/estatehub/backend/pkg/errors"
)

// ListingService handles business logic for listings: search, the create/
// edit/delete lifecycle and the moderation workflow.
type ListingService struct {
	repo     repositories.ListingRepository
	eventBus providers.EventBus
}

// NewListingService creates a new listing service. The event bus is optional;
// without it lifecycle events are simply not published.
func NewListingService(repo repositories.ListingRepository, eventBus providers.EventBus) *ListingService {
	return &ListingService{
		repo:     repo,
		eventBus: eventBus,
	}
}

// SearchResult is the outcome of a public search: one page of listings plus
// pagination metadata.
type SearchResult struct {
	Listings   []*entities.Listing `json:"listings"`
	Pagination Pagination          `json:"pagination"`
}

// Search compiles the raw filter, plans the page window and executes the
// query. Only approved, active listings are reachable through this path.
func (s *ListingService) Search(ctx context.Context, raw RawSearchFilter) (*SearchResult, error) {
	compiled, err := CompileListingFilter(raw)
	if err != nil {
		return nil, err
	}

	plan := PlanPage(compiled.Page, compiled.PageSize, 0)
	listings, total, err := s.repo.Search(ctx, compiled.Query, plan.Window)
	if err != nil {
		return nil, err
	}
	if listings == nil {
		listings = []*entities.Listing{}
	}

	// Re-plan with the real total so PageCount is accurate; the window is
	// unchanged because the offset does not depend on the total.
	plan = PlanPage(compiled.Page, compiled.PageSize, total)
	return &SearchResult{Listings: listings, Pagination: plan.Pagination}, nil
}

// Create validates a draft and persists it as a new unreviewed listing owned
// by the acting user.
func (s *ListingService) Create(ctx context.Context, actingUserID string, draft ListingDraft) (*entities.Listing, error) {
	listing, err := draft.toListing()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	listing.ID = uuid.NewString()
	listing.OwnerID = actingUserID
	listing.IsApproved = false
	listing.CreatedAt = now
	listing.UpdatedAt = now

	if err := s.repo.Create(ctx, listing); err != nil {
		return nil, err
	}

	s.publish(listing, entities.ListingEventTypeCreated)
	return listing, nil
}

// Edit applies a partial update on behalf of the acting user. Any successful
// edit resets the approval flag; the reset and the field changes are one
// repository write.
func (s *ListingService) Edit(ctx context.Context, actor entities.Identity, id string, update ListingUpdate) (*entities.Listing, error) {
	listing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanMutateListing(actor, listing) {
		return nil, apperrors.NewForbiddenError("not allowed to edit this listing")
	}

	if err := update.apply(listing); err != nil {
		return nil, err
	}

	entities.ResetApproval(listing)
	listing.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, listing); err != nil {
		return nil, err
	}

	s.publish(listing, entities.ListingEventTypeUpdated)
	return listing, nil
}

// Delete removes a listing permanently on behalf of the acting user.
func (s *ListingService) Delete(ctx context.Context, actor entities.Identity, id string) error {
	listing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !CanMutateListing(actor, listing) {
		return apperrors.NewForbiddenError("not allowed to delete this listing")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(listing, entities.ListingEventTypeDeleted)
	return nil
}

// FetchByID returns a single listing and counts the view. Listings that are
// not approved and active are reported as not found to everyone except their
// owner and admins.
func (s *ListingService) FetchByID(ctx context.Context, id string, actor *entities.Identity) (*entities.Listing, error) {
	listing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanViewListing(actor, listing) {
		return nil, apperrors.NewNotFoundError("listing not found")
	}

	// Views count on every successful fetch, owner self-views included. The
	// increment is the repository's atomic operation, not read-modify-write.
	if err := s.repo.IncrementViews(ctx, id); err != nil {
		log.Warn().Err(err).Str("listing_id", id).Msg("failed to increment view count")
	} else {
		listing.ViewCount++
	}

	return listing, nil
}

// ListPending returns a page of unreviewed listings for moderation.
func (s *ListingService) ListPending(ctx context.Context, actor entities.Identity, page, pageSize int) (*SearchResult, error) {
	if actor.Role != entities.RoleAdmin {
		return nil, apperrors.NewForbiddenError("moderation queue is admin-only")
	}

	plan := PlanPage(page, pageSize, 0)
	listings, total, err := s.repo.ListPending(ctx, plan.Window)
	if err != nil {
		return nil, err
	}
	if listings == nil {
		listings = []*entities.Listing{}
	}

	plan = PlanPage(page, pageSize, total)
	return &SearchResult{Listings: listings, Pagination: plan.Pagination}, nil
}

// Approve moves an unreviewed listing to the approved state.
func (s *ListingService) Approve(ctx context.Context, actor entities.Identity, id string) (*entities.Listing, error) {
	return s.review(ctx, actor, id, entities.Approve, entities.ListingEventTypeApproved)
}

// Reject moves an unreviewed listing to the inactive state.
func (s *ListingService) Reject(ctx context.Context, actor entities.Identity, id string) (*entities.Listing, error) {
	return s.review(ctx, actor, id, entities.Reject, entities.ListingEventTypeRejected)
}

func (s *ListingService) review(ctx context.Context, actor entities.Identity, id string, transition func(*entities.Listing) error, event entities.ListingEventType) (*entities.Listing, error) {
	if actor.Role != entities.RoleAdmin {
		return nil, apperrors.NewForbiddenError("listing review is admin-only")
	}

	listing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := transition(listing); err != nil {
		return nil, err
	}

	listing.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, listing); err != nil {
		return nil, err
	}

	s.publish(listing, event)
	return listing, nil
}

// MarkTransacted marks an approved listing as sold or rented, removing it
// from public search results.
func (s *ListingService) MarkTransacted(ctx context.Context, actor entities.Identity, id string, to entities.Status) (*entities.Listing, error) {
	listing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanMutateListing(actor, listing) {
		return nil, apperrors.NewForbiddenError("not allowed to change this listing's status")
	}

	if err := entities.MarkTransacted(listing, to); err != nil {
		return nil, err
	}

	listing.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, listing); err != nil {
		return nil, err
	}

	s.publish(listing, entities.ListingEventTypeTransacted)
	return listing, nil
}

func (s *ListingService) publish(listing *entities.Listing, eventType entities.ListingEventType) {
	if s.eventBus == nil {
		return
	}

	event := entities.NewListingEvent(listing.ID, eventType, listing.Location.City)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.eventBus.Publish(ctx, providers.EventChannelListingUpdates, event); err != nil {
		log.Warn().Err(err).Str("listing_id", listing.ID).Str("event", string(eventType)).Msg("failed to publish listing event")
	}
}
