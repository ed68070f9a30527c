package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/estatehub/backend/internal/api/middleware"
	"github.com/estatehub/backend/internal/application/services"
	"github.com/estatehub/backend/internal/domain/entities"
	apperrors "github.com/estatehub/backend/pkg/errors"
)

// ListingService is the application surface the listing handler depends on
type ListingService interface {
	Search(ctx context.Context, raw services.RawSearchFilter) (*services.SearchResult, error)
	FetchByID(ctx context.Context, id string, actor *entities.Identity) (*entities.Listing, error)
	Create(ctx context.Context, actingUserID string, draft services.ListingDraft) (*entities.Listing, error)
	Edit(ctx context.Context, actor entities.Identity, id string, update services.ListingUpdate) (*entities.Listing, error)
	Delete(ctx context.Context, actor entities.Identity, id string) error
	ListPending(ctx context.Context, actor entities.Identity, page, pageSize int) (*services.SearchResult, error)
	Approve(ctx context.Context, actor entities.Identity, id string) (*entities.Listing, error)
	Reject(ctx context.Context, actor entities.Identity, id string) (*entities.Listing, error)
	MarkTransacted(ctx context.Context, actor entities.Identity, id string, to entities.Status) (*entities.Listing, error)
}

// ListingHandler handles listing-related HTTP requests
type ListingHandler struct {
	listings ListingService
}

// NewListingHandler creates a new listing handler
func NewListingHandler(listings ListingService) *ListingHandler {
	return &ListingHandler{listings: listings}
}

// SearchListings handles GET /api/listings
func (h *ListingHandler) SearchListings(w http.ResponseWriter, r *http.Request) {
	raw := services.RawSearchFilterFromQuery(r.URL.Query())

	result, err := h.listings.Search(r.Context(), raw)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// GetListing handles GET /api/listings/{id}
func (h *ListingHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "listing ID is required")
		return
	}

	var actor *entities.Identity
	if identity, ok := middleware.IdentityFromContext(r.Context()); ok {
		actor = &identity
	}

	listing, err := h.listings.FetchByID(r.Context(), id, actor)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, listing)
}

// CreateListing handles POST /api/listings
func (h *ListingHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var draft services.ListingDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	listing, err := h.listings.Create(r.Context(), identity.UserID, draft)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, listing)
}

// UpdateListing handles PUT /api/listings/{id}
func (h *ListingHandler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "listing ID is required")
		return
	}

	var update services.ListingUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	listing, err := h.listings.Edit(r.Context(), identity, id, update)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, listing)
}

// DeleteListing handles DELETE /api/listings/{id}
func (h *ListingHandler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "listing ID is required")
		return
	}

	if err := h.listings.Delete(r.Context(), identity, id); err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "listing deleted"})
}

type statusChangeRequest struct {
	Status string `json:"status"`
}

// ChangeListingStatus handles PATCH /api/listings/{id}/status
func (h *ListingHandler) ChangeListingStatus(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "listing ID is required")
		return
	}

	var body statusChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, valid := entities.ParseStatus(body.Status)
	if !valid || (status != entities.StatusSold && status != entities.StatusRented) {
		respondWithError(w, http.StatusBadRequest, "status must be 'sold' or 'rented'")
		return
	}

	listing, err := h.listings.MarkTransacted(r.Context(), identity, id, status)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, listing)
}

// ListPendingListings handles GET /api/admin/listings/pending
func (h *ListingHandler) ListPendingListings(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	page, pageSize, err := pageParams(r)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	result, err := h.listings.ListPending(r.Context(), identity, page, pageSize)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// ApproveListing handles POST /api/admin/listings/{id}/approve
func (h *ListingHandler) ApproveListing(w http.ResponseWriter, r *http.Request) {
	h.reviewListing(w, r, h.listings.Approve)
}

// RejectListing handles POST /api/admin/listings/{id}/reject
func (h *ListingHandler) RejectListing(w http.ResponseWriter, r *http.Request) {
	h.reviewListing(w, r, h.listings.Reject)
}

func (h *ListingHandler) reviewListing(w http.ResponseWriter, r *http.Request, review func(context.Context, entities.Identity, string) (*entities.Listing, error)) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "listing ID is required")
		return
	}

	listing, err := review(r.Context(), identity, id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, listing)
}

// pageParams parses pagination query parameters. Malformed values are a
// validation error, matching the public search path; out-of-range values are
// clamped downstream when the page is planned.
func pageParams(r *http.Request) (int, int, error) {
	page := 1
	pageSize := services.DefaultPageSize
	if v := r.URL.Query().Get("page"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, apperrors.NewValidationError("page must be an integer")
		}
		page = parsed
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, apperrors.NewValidationError("limit must be an integer")
		}
		pageSize = parsed
	}
	return page, pageSize, nil
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps the application error taxonomy onto HTTP status
// codes. Internal details never leak to the client.
func respondWithAppError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if !stderrors.As(err, &appErr) {
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	switch appErr.Type {
	case apperrors.ErrorTypeValidation:
		respondWithError(w, http.StatusBadRequest, appErr.Message)
	case apperrors.ErrorTypeUnauthorized:
		respondWithError(w, http.StatusUnauthorized, appErr.Message)
	case apperrors.ErrorTypeForbidden:
		respondWithError(w, http.StatusForbidden, appErr.Message)
	case apperrors.ErrorTypeNotFound:
		respondWithError(w, http.StatusNotFound, appErr.Message)
	case apperrors.ErrorTypeConflict:
		respondWithError(w, http.StatusConflict, appErr.Message)
	default:
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
