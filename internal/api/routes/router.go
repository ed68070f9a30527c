package routes

import (
	"net/http"

	"github.com/estatehub/backend/internal/api/handlers"
	"github.com/estatehub/backend/internal/api/middleware"
	"github.com/estatehub/backend/internal/infrastructure/auth"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	listingHandler *handlers.ListingHandler
	authHandler    *handlers.AuthHandler

	tokens         *auth.TokenManager
	allowedOrigins []string
}

// NewRouter creates a new router
func NewRouter(
	listingHandler *handlers.ListingHandler,
	authHandler *handlers.AuthHandler,
	tokens *auth.TokenManager,
	allowedOrigins []string,
) *Router {
	return &Router{
		mux:            http.NewServeMux(),
		listingHandler: listingHandler,
		authHandler:    authHandler,
		tokens:         tokens,
		allowedOrigins: allowedOrigins,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	required := middleware.AuthMiddleware(r.tokens)
	optional := middleware.OptionalAuthMiddleware(r.tokens)
	admin := func(h http.Handler) http.Handler {
		return required(middleware.AdminMiddleware(h))
	}

	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Auth endpoints
	r.mux.HandleFunc("POST /api/auth/register", r.authHandler.Register)
	r.mux.HandleFunc("POST /api/auth/login", r.authHandler.Login)
	r.mux.Handle("GET /api/auth/me", required(http.HandlerFunc(r.authHandler.Me)))

	// Public listing endpoints; the single-listing fetch resolves the identity
	// when present so owners and admins can see their hidden listings
	r.mux.HandleFunc("GET /api/listings", r.listingHandler.SearchListings)
	r.mux.Handle("GET /api/listings/{id}", optional(http.HandlerFunc(r.listingHandler.GetListing)))

	// Listing lifecycle endpoints
	r.mux.Handle("POST /api/listings", required(http.HandlerFunc(r.listingHandler.CreateListing)))
	r.mux.Handle("PUT /api/listings/{id}", required(http.HandlerFunc(r.listingHandler.UpdateListing)))
	r.mux.Handle("DELETE /api/listings/{id}", required(http.HandlerFunc(r.listingHandler.DeleteListing)))
	r.mux.Handle("PATCH /api/listings/{id}/status", required(http.HandlerFunc(r.listingHandler.ChangeListingStatus)))

	// Moderation endpoints
	r.mux.Handle("GET /api/admin/listings/pending", admin(http.HandlerFunc(r.listingHandler.ListPendingListings)))
	r.mux.Handle("POST /api/admin/listings/{id}/approve", admin(http.HandlerFunc(r.listingHandler.ApproveListing)))
	r.mux.Handle("POST /api/admin/listings/{id}/reject", admin(http.HandlerFunc(r.listingHandler.RejectListing)))

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	// HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so preflight requests never reach the mux
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
