package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/estatehub/backend/internal/api/handlers"
	"github.com/estatehub/backend/internal/api/routes"
	"github.com/estatehub/backend/internal/application/services"
	"github.com/estatehub/backend/internal/domain/entities"
	"github.com/estatehub/backend/internal/infrastructure/auth"
	apperrors "github.com/estatehub/backend/pkg/errors"
)

// MockListingService is a mock implementation of the handler's ListingService
type MockListingService struct {
	mock.Mock
}

func (m *MockListingService) Search(ctx context.Context, raw services.RawSearchFilter) (*services.SearchResult, error) {
	args := m.Called(ctx, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SearchResult), args.Error(1)
}

func (m *MockListingService) FetchByID(ctx context.Context, id string, actor *entities.Identity) (*entities.Listing, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Listing), args.Error(1)
}

func (m *MockListingService) Create(ctx context.Context, actingUserID string, draft services.ListingDraft) (*entities.Listing, error) {
	args := m.Called(ctx, actingUserID, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Listing), args.Error(1)
}

func (m *MockListingService) Edit(ctx context.Context, actor entities.Identity, id string, update services.ListingUpdate) (*entities.Listing, error) {
	args := m.Called(ctx, actor, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Listing), args.Error(1)
}

func (m *MockListingService) Delete(ctx context.Context, actor entities.Identity, id string) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func (m *MockListingService) ListPending(ctx context.Context, actor entities.Identity, page, pageSize int) (*services.SearchResult, error) {
	args := m.Called(ctx, actor, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SearchResult), args.Error(1)
}

func (m *MockListingService) Approve(ctx context.Context, actor entities.Identity, id string) (*entities.Listing, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Listing), args.Error(1)
}

func (m *MockListingService) Reject(ctx context.Context, actor entities.Identity, id string) (*entities.Listing, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Listing), args.Error(1)
}

func (m *MockListingService) MarkTransacted(ctx context.Context, actor entities.Identity, id string, to entities.Status) (*entities.Listing, error) {
	args := m.Called(ctx, actor, id, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Listing), args.Error(1)
}

// MockAuthService is a mock implementation of the handler's AuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, input services.RegisterInput) (*services.AuthResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AuthResult), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*services.AuthResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AuthResult), args.Error(1)
}

func (m *MockAuthService) Me(ctx context.Context, identity entities.Identity) (*entities.User, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

type testServer struct {
	handler  http.Handler
	tokens   *auth.TokenManager
	listings *MockListingService
	auth     *MockAuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	listings := new(MockListingService)
	authSvc := new(MockAuthService)
	tokens := auth.NewTokenManager("test-secret", time.Hour)

	router := routes.NewRouter(
		handlers.NewListingHandler(listings),
		handlers.NewAuthHandler(authSvc),
		tokens,
		[]string{"*"},
	)

	return &testServer{
		handler:  router.SetupRoutes(),
		tokens:   tokens,
		listings: listings,
		auth:     authSvc,
	}
}

func (s *testServer) tokenFor(t *testing.T, userID string, role entities.Role) string {
	t.Helper()
	token, err := s.tokens.Issue(&entities.User{ID: userID, Role: role})
	require.NoError(t, err)
	return token
}

func (s *testServer) do(method, path, token string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func emptyResult() *services.SearchResult {
	return &services.SearchResult{
		Listings:   []*entities.Listing{},
		Pagination: services.Pagination{CurrentPage: 1, PageSize: services.DefaultPageSize},
	}
}

func TestSearchListings(t *testing.T) {
	t.Run("passes the query parameters through untouched", func(t *testing.T) {
		srv := newTestServer(t)

		srv.listings.On("Search", mock.Anything, mock.MatchedBy(func(raw services.RawSearchFilter) bool {
			return raw.City == "mumbai" && raw.DealType == "rent" && raw.Page == "2"
		})).Return(emptyResult(), nil)

		rec := srv.do(http.MethodGet, "/api/listings?city=mumbai&type=rent&page=2", "", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		srv.listings.AssertExpectations(t)
	})

	t.Run("search responses carry the shared cache policy", func(t *testing.T) {
		srv := newTestServer(t)

		srv.listings.On("Search", mock.Anything, mock.Anything).Return(emptyResult(), nil)

		rec := srv.do(http.MethodGet, "/api/listings", "", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "public, max-age=120, must-revalidate", rec.Header().Get("Cache-Control"))
		assert.NotEmpty(t, rec.Header().Get("ETag"))
	})

	t.Run("rejected filter becomes a 400", func(t *testing.T) {
		srv := newTestServer(t)

		srv.listings.On("Search", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewValidationError("invalid listing type: castle"))

		rec := srv.do(http.MethodGet, "/api/listings?type=castle", "", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid listing type")
	})
}

func TestGetListing(t *testing.T) {
	t.Run("anonymous request resolves without an actor", func(t *testing.T) {
		srv := newTestServer(t)

		srv.listings.On("FetchByID", mock.Anything, "l-1", (*entities.Identity)(nil)).
			Return(&entities.Listing{ID: "l-1", Title: "Apartment"}, nil)

		rec := srv.do(http.MethodGet, "/api/listings/l-1", "", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		// Individual listings count views per fetch, so they stay uncached
		assert.Equal(t, "private, no-cache, must-revalidate", rec.Header().Get("Cache-Control"))
		srv.listings.AssertExpectations(t)
	})

	t.Run("authenticated request carries the caller identity", func(t *testing.T) {
		srv := newTestServer(t)
		token := srv.tokenFor(t, "u-1", entities.RoleUser)

		srv.listings.On("FetchByID", mock.Anything, "l-1", mock.MatchedBy(func(actor *entities.Identity) bool {
			return actor != nil && actor.UserID == "u-1"
		})).Return(&entities.Listing{ID: "l-1"}, nil)

		rec := srv.do(http.MethodGet, "/api/listings/l-1", token, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		srv.listings.AssertExpectations(t)
	})

	t.Run("unknown listing is a 404", func(t *testing.T) {
		srv := newTestServer(t)

		srv.listings.On("FetchByID", mock.Anything, "ghost", (*entities.Identity)(nil)).
			Return(nil, apperrors.NewNotFoundError("listing with id ghost not found"))

		rec := srv.do(http.MethodGet, "/api/listings/ghost", "", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCreateListing(t *testing.T) {
	body := `{"title":"New Flat","price":50000,"deal_type":"rent"}`

	t.Run("requires authentication", func(t *testing.T) {
		srv := newTestServer(t)

		rec := srv.do(http.MethodPost, "/api/listings", "", strings.NewReader(body))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		srv.listings.AssertNotCalled(t, "Create")
	})

	t.Run("creates on behalf of the caller", func(t *testing.T) {
		srv := newTestServer(t)
		token := srv.tokenFor(t, "u-1", entities.RoleUser)

		srv.listings.On("Create", mock.Anything, "u-1", mock.MatchedBy(func(d services.ListingDraft) bool {
			return d.Title == "New Flat" && d.Price != nil && *d.Price == 50000
		})).Return(&entities.Listing{ID: "l-new", Title: "New Flat"}, nil)

		rec := srv.do(http.MethodPost, "/api/listings", token, strings.NewReader(body))

		assert.Equal(t, http.StatusCreated, rec.Code)
		srv.listings.AssertExpectations(t)
	})

	t.Run("malformed body is a 400", func(t *testing.T) {
		srv := newTestServer(t)
		token := srv.tokenFor(t, "u-1", entities.RoleUser)

		rec := srv.do(http.MethodPost, "/api/listings", token, strings.NewReader("{not json"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		srv.listings.AssertNotCalled(t, "Create")
	})
}

func TestUpdateListing(t *testing.T) {
	t.Run("forbidden edit is a 403", func(t *testing.T) {
		srv := newTestServer(t)
		token := srv.tokenFor(t, "stranger", entities.RoleUser)

		srv.listings.On("Edit", mock.Anything, mock.Anything, "l-1", mock.Anything).
			Return(nil, apperrors.NewForbiddenError("only the owner or an admin may modify this listing"))

		rec := srv.do(http.MethodPut, "/api/listings/l-1", token, strings.NewReader(`{"title":"Taken over"}`))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("owner edit succeeds", func(t *testing.T) {
		srv := newTestServer(t)
		token := srv.tokenFor(t, "owner-1", entities.RoleUser)

		srv.listings.On("Edit", mock.Anything, mock.MatchedBy(func(actor entities.Identity) bool {
			return actor.UserID == "owner-1"
		}), "l-1", mock.Anything).Return(&entities.Listing{ID: "l-1"}, nil)

		rec := srv.do(http.MethodPut, "/api/listings/l-1", token, strings.NewReader(`{"title":"Updated"}`))

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestDeleteListing(t *testing.T) {
	srv := newTestServer(t)
	token := srv.tokenFor(t, "owner-1", entities.RoleUser)

	srv.listings.On("Delete", mock.Anything, mock.Anything, "l-1").Return(nil)

	rec := srv.do(http.MethodDelete, "/api/listings/l-1", token, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "listing deleted")
}

func TestChangeListingStatus(t *testing.T) {
	t.Run("marks a listing sold", func(t *testing.T) {
		srv := newTestServer(t)
		token := srv.tokenFor(t, "owner-1", entities.RoleUser)

		srv.listings.On("MarkTransacted", mock.Anything, mock.Anything, "l-1", entities.StatusSold).
			Return(&entities.Listing{ID: "l-1", Status: entities.StatusSold}, nil)

		rec := srv.do(http.MethodPatch, "/api/listings/l-1/status", token, strings.NewReader(`{"status":"sold"}`))

		assert.Equal(t, http.StatusOK, rec.Code)
		srv.listings.AssertExpectations(t)
	})

	t.Run("rejects statuses outside the transacted pair", func(t *testing.T) {
		srv := newTestServer(t)
		token := srv.tokenFor(t, "owner-1", entities.RoleUser)

		rec := srv.do(http.MethodPatch, "/api/listings/l-1/status", token, strings.NewReader(`{"status":"active"}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		srv.listings.AssertNotCalled(t, "MarkTransacted")
	})
}

func TestModerationRoutes(t *testing.T) {
	t.Run("pending queue requires an admin", func(t *testing.T) {
		srv := newTestServer(t)
		token := srv.tokenFor(t, "u-1", entities.RoleUser)

		rec := srv.do(http.MethodGet, "/api/admin/listings/pending", token, nil)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		srv.listings.AssertNotCalled(t, "ListPending")
	})

	t.Run("pending queue rejects anonymous callers", func(t *testing.T) {
		srv := newTestServer(t)

		rec := srv.do(http.MethodGet, "/api/admin/listings/pending", "", nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("admin reads the pending queue", func(t *testing.T) {
		srv := newTestServer(t)
		token := srv.tokenFor(t, "admin-1", entities.RoleAdmin)

		srv.listings.On("ListPending", mock.Anything, mock.Anything, 2, 5).
			Return(emptyResult(), nil)

		rec := srv.do(http.MethodGet, "/api/admin/listings/pending?page=2&limit=5", token, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		srv.listings.AssertExpectations(t)
	})

	t.Run("malformed pagination is rejected, not defaulted", func(t *testing.T) {
		srv := newTestServer(t)
		token := srv.tokenFor(t, "admin-1", entities.RoleAdmin)

		rec := srv.do(http.MethodGet, "/api/admin/listings/pending?page=first", token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = srv.do(http.MethodGet, "/api/admin/listings/pending?limit=all", token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		srv.listings.AssertNotCalled(t, "ListPending")
	})

	t.Run("admin approves a listing", func(t *testing.T) {
		srv := newTestServer(t)
		token := srv.tokenFor(t, "admin-1", entities.RoleAdmin)

		srv.listings.On("Approve", mock.Anything, mock.Anything, "l-1").
			Return(&entities.Listing{ID: "l-1", IsApproved: true}, nil)

		rec := srv.do(http.MethodPost, "/api/admin/listings/l-1/approve", token, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("approving twice surfaces the conflict as a 400", func(t *testing.T) {
		srv := newTestServer(t)
		token := srv.tokenFor(t, "admin-1", entities.RoleAdmin)

		srv.listings.On("Approve", mock.Anything, mock.Anything, "l-1").
			Return(nil, apperrors.NewValidationError("listing is already approved"))

		rec := srv.do(http.MethodPost, "/api/admin/listings/l-1/approve", token, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("admin rejects a listing", func(t *testing.T) {
		srv := newTestServer(t)
		token := srv.tokenFor(t, "admin-1", entities.RoleAdmin)

		srv.listings.On("Reject", mock.Anything, mock.Anything, "l-1").
			Return(&entities.Listing{ID: "l-1", Status: entities.StatusInactive}, nil)

		rec := srv.do(http.MethodPost, "/api/admin/listings/l-1/reject", token, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestAuthRoutes(t *testing.T) {
	t.Run("register returns the minted session", func(t *testing.T) {
		srv := newTestServer(t)

		srv.auth.On("Register", mock.Anything, mock.MatchedBy(func(in services.RegisterInput) bool {
			return in.Email == "user@demo.com"
		})).Return(&services.AuthResult{
			Token: "signed-token",
			User:  &entities.User{ID: "u-1", Email: "user@demo.com"},
		}, nil)

		rec := srv.do(http.MethodPost, "/api/auth/register", "",
			strings.NewReader(`{"name":"Demo","email":"user@demo.com","password":"password123"}`))

		assert.Equal(t, http.StatusCreated, rec.Code)

		var result services.AuthResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, "signed-token", result.Token)
	})

	t.Run("login failure is a 401", func(t *testing.T) {
		srv := newTestServer(t)

		srv.auth.On("Login", mock.Anything, "user@demo.com", "wrong").
			Return(nil, apperrors.NewUnauthorizedError("invalid email or password"))

		rec := srv.do(http.MethodPost, "/api/auth/login", "",
			strings.NewReader(`{"email":"user@demo.com","password":"wrong"}`))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("me requires a valid token", func(t *testing.T) {
		srv := newTestServer(t)

		rec := srv.do(http.MethodGet, "/api/auth/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = srv.do(http.MethodGet, "/api/auth/me", "garbage-token", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("me resolves the authenticated user", func(t *testing.T) {
		srv := newTestServer(t)
		token := srv.tokenFor(t, "u-1", entities.RoleUser)

		srv.auth.On("Me", mock.Anything, mock.MatchedBy(func(id entities.Identity) bool {
			return id.UserID == "u-1"
		})).Return(&entities.User{ID: "u-1", Email: "user@demo.com"}, nil)

		rec := srv.do(http.MethodGet, "/api/auth/me", token, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "user@demo.com")
	})
}

func TestHealthAndCORS(t *testing.T) {
	t.Run("health check", func(t *testing.T) {
		srv := newTestServer(t)
		rec := srv.do(http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("preflight requests short-circuit before the mux", func(t *testing.T) {
		srv := newTestServer(t)

		req := httptest.NewRequest(http.MethodOptions, "/api/listings", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rec := httptest.NewRecorder()
		srv.handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
