package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pwaburton/portal-backend/v1/models"
	authutils "github.com/pwaburton/portal-backend/v1/utils"
	"github.com/stretchr/testify/assert"
)

func authedRequest(method, path string, roles ...models.Role) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	user := &models.AuthenticatedUser{
		IdpUserID: "usr-test",
		Email:     "test@example.com",
		Roles:     models.RoleSet(roles),
	}
	return req.WithContext(authutils.SetAuthenticatedUser(req.Context(), user))
}

func TestAuthorizeRequest(t *testing.T) {
	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		w.WriteHeader(http.StatusOK)
	})

	t.Run("UnauthenticatedIsRejected", func(t *testing.T) {
		nextCalled = false
		handler := NewAuthorizationMiddleware().AuthorizeRequest(next)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/members", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, nextCalled)
	})

	t.Run("SkipPathsBypassAuthorization", func(t *testing.T) {
		nextCalled = false
		handler := NewAuthorizationMiddleware().AuthorizeRequest(next)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, nextCalled)
	})

	t.Run("PermittedRolePasses", func(t *testing.T) {
		nextCalled = false
		handler := NewAuthorizationMiddleware().AuthorizeRequest(next)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/members", models.RoleMember))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, nextCalled)
	})

	t.Run("MissingPermissionIsForbidden", func(t *testing.T) {
		nextCalled = false
		handler := NewAuthorizationMiddleware().AuthorizeRequest(next)

		// Role administration needs profile:manage_roles, which members lack
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/profiles/usr-1/roles", models.RoleMember))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.False(t, nextCalled)
	})

	t.Run("AdminPassesRoleAdministration", func(t *testing.T) {
		nextCalled = false
		handler := NewAuthorizationMiddleware().AuthorizeRequest(next)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/profiles/usr-1/roles", models.RoleAdmin))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, nextCalled)
	})

	t.Run("UndefinedEndpointFailOpenAdmin", func(t *testing.T) {
		handler := NewAuthorizationMiddleware().AuthorizeRequest(next)

		nextCalled = false
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authedRequest(http.MethodDelete, "/api/v1/unmapped", models.RoleAdmin))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, nextCalled)

		nextCalled = false
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, authedRequest(http.MethodDelete, "/api/v1/unmapped", models.RoleMember))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.False(t, nextCalled)
	})

	t.Run("UndefinedEndpointFailClosed", func(t *testing.T) {
		handler := NewAuthorizationMiddlewareWithConfig(AuthorizationConfig{
			Mode: models.AuthorizationModeFailClosed,
		}).AuthorizeRequest(next)

		nextCalled = false
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authedRequest(http.MethodDelete, "/api/v1/unmapped", models.RoleAdmin))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.False(t, nextCalled)
	})
}

func TestRequireRoleMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mw := NewAuthorizationMiddleware()

	t.Run("AllowsMatchingRole", func(t *testing.T) {
		handler := mw.RequireRole(models.RoleAdmin)(next)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/profiles", models.RoleAdmin))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("RejectsMissingRole", func(t *testing.T) {
		handler := mw.RequireRole(models.RoleAdmin)(next)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/profiles", models.RoleMember))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("AnyRoleMatchesOne", func(t *testing.T) {
		handler := mw.RequireAnyRole(models.RoleAdmin, models.RoleCollector)(next)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/members", models.RoleCollector))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
