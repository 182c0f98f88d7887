package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pwaburton/portal-backend/v1/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBearerToken(t *testing.T) {
	t.Run("ExtractsToken", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer abc.def.ghi")

		token, err := ExtractBearerToken(req)
		require.NoError(t, err)
		assert.Equal(t, "abc.def.ghi", token)
	})

	t.Run("MissingHeader", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		_, err := ExtractBearerToken(req)
		assert.Error(t, err)
	})

	t.Run("WrongScheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		_, err := ExtractBearerToken(req)
		assert.Error(t, err)
	})

	t.Run("EmptyToken", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer   ")
		_, err := ExtractBearerToken(req)
		assert.Error(t, err)
	})
}

func TestAuthenticatedUserContext(t *testing.T) {
	user := &models.AuthenticatedUser{
		IdpUserID: "usr-ctx",
		Roles:     models.RoleSet{models.RoleMember},
	}

	t.Run("RoundTrip", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(SetAuthenticatedUser(req.Context(), user))

		got, err := RequireAuthentication(req)
		require.NoError(t, err)
		assert.Equal(t, "usr-ctx", got.IdpUserID)
	})

	t.Run("MissingUser", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		_, err := RequireAuthentication(req)
		assert.Error(t, err)
	})
}

func TestRequireRoleHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(SetAuthenticatedUser(req.Context(), &models.AuthenticatedUser{
		IdpUserID: "usr-roles",
		Roles:     models.RoleSet{models.RoleMember, models.RoleCollector},
	}))

	t.Run("RequireRole", func(t *testing.T) {
		_, err := RequireRole(req, models.RoleCollector)
		assert.NoError(t, err)

		_, err = RequireRole(req, models.RoleAdmin)
		assert.Error(t, err)
	})

	t.Run("RequireAnyRole", func(t *testing.T) {
		_, err := RequireAnyRole(req, models.RoleAdmin, models.RoleMember)
		assert.NoError(t, err)

		_, err = RequireAnyRole(req, models.RoleAdmin)
		assert.Error(t, err)
	})

	t.Run("RequirePermission", func(t *testing.T) {
		_, err := RequirePermission(req, models.PermissionReadMember)
		assert.NoError(t, err)

		_, err = RequirePermission(req, models.PermissionManageRoles)
		assert.Error(t, err)
	})
}

func TestIsOwnerOrAdmin(t *testing.T) {
	owner := &models.AuthenticatedUser{IdpUserID: "usr-1", Roles: models.RoleSet{models.RoleMember}}
	admin := &models.AuthenticatedUser{IdpUserID: "usr-2", Roles: models.RoleSet{models.RoleAdmin}}
	stranger := &models.AuthenticatedUser{IdpUserID: "usr-3", Roles: models.RoleSet{models.RoleMember}}

	assert.True(t, IsOwnerOrAdmin(owner, "usr-1"))
	assert.True(t, IsOwnerOrAdmin(admin, "usr-1"))
	assert.False(t, IsOwnerOrAdmin(stranger, "usr-1"))
}

func TestFindEndpointPermission(t *testing.T) {
	ResetEndpointCacheForTesting()

	t.Run("ExactMatch", func(t *testing.T) {
		ep, found := FindEndpointPermission("GET", "/api/v1/members")
		require.True(t, found)
		assert.Equal(t, models.PermissionReadMember, ep.Permission)
	})

	t.Run("WildcardMatch", func(t *testing.T) {
		ep, found := FindEndpointPermission("POST", "/api/v1/profiles/usr-1/roles")
		require.True(t, found)
		assert.Equal(t, models.PermissionManageRoles, ep.Permission)
	})

	t.Run("NoMatch", func(t *testing.T) {
		_, found := FindEndpointPermission("DELETE", "/api/v1/unmapped")
		assert.False(t, found)
	})
}

func TestMatchesEndpoint(t *testing.T) {
	assert.True(t, MatchesEndpoint("/api/v1/members", "/api/v1/members"))
	assert.True(t, MatchesEndpoint("/api/v1/members/mem_1", "/api/v1/members/*"))
	assert.False(t, MatchesEndpoint("/api/v1/collectors", "/api/v1/members/*"))
}

func TestGetRequestIP(t *testing.T) {
	t.Run("PrefersForwardedFor", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		assert.Equal(t, "203.0.113.9", GetRequestIP(req))
	})

	t.Run("FallsBackToRemoteAddr", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.4:51234"
		assert.Equal(t, "192.0.2.4", GetRequestIP(req))
	})
}
