package utils

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/pwaburton/portal-backend/v1/models"
)

// AuthContextKey is the key used to store authentication context in request context
type AuthContextKey string

const (
	AuthContextKeyUser AuthContextKey = "authenticated_user"
	AuthContextKeyAuth AuthContextKey = "auth_context"
)

// ExtractBearerToken extracts the Bearer token from the Authorization header
func ExtractBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("authorization header is missing")
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", fmt.Errorf("authorization header must start with 'Bearer '")
	}

	token := strings.TrimPrefix(authHeader, "Bearer ")
	token = strings.TrimSpace(token)

	if token == "" {
		return "", fmt.Errorf("bearer token is empty")
	}

	return token, nil
}

// GetAuthenticatedUser retrieves the authenticated user from request context
func GetAuthenticatedUser(ctx context.Context) (*models.AuthenticatedUser, error) {
	user, ok := ctx.Value(AuthContextKeyUser).(*models.AuthenticatedUser)
	if !ok || user == nil {
		return nil, fmt.Errorf("no authenticated user found in context")
	}
	return user, nil
}

// GetAuthContext retrieves the auth context from request context
func GetAuthContext(ctx context.Context) (*models.AuthContext, error) {
	authCtx, ok := ctx.Value(AuthContextKeyAuth).(*models.AuthContext)
	if !ok || authCtx == nil {
		return nil, fmt.Errorf("no auth context found in request context")
	}
	return authCtx, nil
}

// SetAuthenticatedUser sets the authenticated user in request context
func SetAuthenticatedUser(ctx context.Context, user *models.AuthenticatedUser) context.Context {
	return context.WithValue(ctx, AuthContextKeyUser, user)
}

// SetAuthContext sets the auth context in request context
func SetAuthContext(ctx context.Context, authCtx *models.AuthContext) context.Context {
	return context.WithValue(ctx, AuthContextKeyAuth, authCtx)
}

// RequireAuthentication is a helper that checks if a user is authenticated
func RequireAuthentication(r *http.Request) (*models.AuthenticatedUser, error) {
	return GetAuthenticatedUser(r.Context())
}

// RequireRole checks if the authenticated user has the required role
func RequireRole(r *http.Request, requiredRole models.Role) (*models.AuthenticatedUser, error) {
	user, err := RequireAuthentication(r)
	if err != nil {
		return nil, err
	}

	if !user.HasRole(requiredRole) {
		return nil, fmt.Errorf("user does not have required role: %s", requiredRole)
	}

	return user, nil
}

// RequireAnyRole checks if the authenticated user has any of the required roles
func RequireAnyRole(r *http.Request, requiredRoles ...models.Role) (*models.AuthenticatedUser, error) {
	user, err := RequireAuthentication(r)
	if err != nil {
		return nil, err
	}

	if !user.HasAnyRole(requiredRoles...) {
		roleNames := make([]string, len(requiredRoles))
		for i, role := range requiredRoles {
			roleNames[i] = role.String()
		}
		return nil, fmt.Errorf("user does not have any of the required roles: %s", strings.Join(roleNames, ", "))
	}

	return user, nil
}

// RequirePermission checks if the authenticated user has the required permission
func RequirePermission(r *http.Request, requiredPermission models.Permission) (*models.AuthenticatedUser, error) {
	user, err := RequireAuthentication(r)
	if err != nil {
		return nil, err
	}

	if !user.HasPermission(requiredPermission) {
		return nil, fmt.Errorf("user does not have required permission: %s", requiredPermission)
	}

	return user, nil
}

// IsOwner checks if the authenticated user owns the resource by comparing their IdP user ID
func IsOwner(user *models.AuthenticatedUser, resourceOwnerIdpUserId string) bool {
	return user.IdpUserID == resourceOwnerIdpUserId
}

// IsOwnerOrAdmin checks if the user is either the owner of the resource or has admin role
func IsOwnerOrAdmin(user *models.AuthenticatedUser, resourceOwnerIdpUserId string) bool {
	return user.IsAdmin() || IsOwner(user, resourceOwnerIdpUserId)
}

// GetRequestIP extracts the client IP address from the request
func GetRequestIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	if r.RemoteAddr != "" {
		if idx := strings.LastIndex(r.RemoteAddr, ":"); idx != -1 {
			return r.RemoteAddr[:idx]
		}
		return r.RemoteAddr
	}

	return "unknown"
}

// MatchesEndpoint checks if a request path matches an endpoint pattern.
// Supports wildcard matching with *
func MatchesEndpoint(requestPath, endpointPattern string) bool {
	if endpointPattern == requestPath {
		return true
	}

	if strings.HasSuffix(endpointPattern, "*") {
		prefix := strings.TrimSuffix(endpointPattern, "*")
		return strings.HasPrefix(requestPath, prefix)
	}

	return false
}

// endpointLookupCache caches endpoint permissions for O(1) lookup
type endpointLookupCache struct {
	exactMatches    map[string]*models.EndpointPermission // method:path -> permission
	wildcardMatches []models.EndpointPermission           // patterns with wildcards
}

var (
	endpointCache *endpointLookupCache
	initOnce      sync.Once
)

// initializeEndpointCache builds the optimized lookup cache from EndpointPermissions
func initializeEndpointCache() {
	initOnce.Do(func() {
		cache := &endpointLookupCache{
			exactMatches:    make(map[string]*models.EndpointPermission),
			wildcardMatches: make([]models.EndpointPermission, 0),
		}

		for i := range models.EndpointPermissions {
			ep := &models.EndpointPermissions[i]
			key := ep.Method + ":" + ep.Path

			if strings.Contains(ep.Path, "*") {
				cache.wildcardMatches = append(cache.wildcardMatches, *ep)
			} else {
				cache.exactMatches[key] = ep
			}
		}

		endpointCache = cache
	})
}

// FindEndpointPermission finds the required permission for a given HTTP method and path
func FindEndpointPermission(method, path string) (*models.EndpointPermission, bool) {
	initializeEndpointCache()

	key := method + ":" + path
	if ep, exists := endpointCache.exactMatches[key]; exists {
		return ep, true
	}

	for i := range endpointCache.wildcardMatches {
		ep := &endpointCache.wildcardMatches[i]
		if ep.Method == method && MatchesEndpoint(path, ep.Path) {
			return ep, true
		}
	}

	return nil, false
}

// ResetEndpointCacheForTesting resets the endpoint cache for testing purposes
func ResetEndpointCacheForTesting() {
	endpointCache = nil
	initOnce = sync.Once{}
}
