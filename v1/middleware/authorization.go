package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	sharedutils "github.com/pwaburton/portal-backend/shared/utils"
	"github.com/pwaburton/portal-backend/v1/models"
	authutils "github.com/pwaburton/portal-backend/v1/utils"
)

// AuthorizationConfig configures the authorization middleware behavior
type AuthorizationConfig struct {
	// Mode defines the behavior when no explicit permission is defined for an endpoint
	Mode models.AuthorizationMode

	// StrictMode when true, logs warnings about undefined endpoints
	StrictMode bool
}

// AuthorizationMiddleware provides role-based access control functionality
type AuthorizationMiddleware struct {
	config AuthorizationConfig
}

// NewAuthorizationMiddleware creates a new authorization middleware with default configuration
func NewAuthorizationMiddleware() *AuthorizationMiddleware {
	return NewAuthorizationMiddlewareWithConfig(AuthorizationConfig{
		Mode:       models.AuthorizationModeFailOpenAdmin,
		StrictMode: false,
	})
}

// NewAuthorizationMiddlewareWithConfig creates a new authorization middleware with custom configuration
func NewAuthorizationMiddlewareWithConfig(config AuthorizationConfig) *AuthorizationMiddleware {
	return &AuthorizationMiddleware{
		config: config,
	}
}

// AuthorizeRequest returns a middleware function that checks user permissions for endpoints
func (a *AuthorizationMiddleware) AuthorizeRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.shouldSkipAuthorization(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		user, err := authutils.RequireAuthentication(r)
		if err != nil {
			slog.Warn("Authorization failed: user not authenticated", "path", r.URL.Path, "method", r.Method, "error", err)
			sharedutils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		endpointPermission, found := authutils.FindEndpointPermission(r.Method, r.URL.Path)
		if !found {
			if a.handleUndefinedEndpoint(w, r, user) {
				return // Response already sent
			}
			next.ServeHTTP(w, r)
			return
		}

		if !user.HasPermission(endpointPermission.Permission) {
			slog.Warn("Access denied: insufficient permissions",
				"user", user.Email,
				"role", user.GetPrimaryRole(),
				"required_permission", endpointPermission.Permission,
				"path", r.URL.Path,
				"method", r.Method)
			sharedutils.RespondWithError(w, http.StatusForbidden, "Insufficient permissions")
			return
		}

		// Ownership checks need resource ids and are enforced at the handler level

		slog.Info("Access granted",
			"user", user.Email,
			"role", user.GetPrimaryRole(),
			"permission", endpointPermission.Permission,
			"path", r.URL.Path,
			"method", r.Method)

		next.ServeHTTP(w, r)
	})
}

// RequireRole returns a middleware that requires a specific role
func (a *AuthorizationMiddleware) RequireRole(requiredRole models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := authutils.RequireRole(r, requiredRole)
			if err != nil {
				slog.Warn("Role requirement not met",
					"required_role", requiredRole,
					"path", r.URL.Path,
					"method", r.Method,
					"error", err)
				sharedutils.RespondWithError(w, http.StatusForbidden, "Insufficient privileges")
				return
			}

			slog.Info("Role requirement satisfied",
				"user", user.Email,
				"required_role", requiredRole,
				"user_roles", user.Roles,
				"path", r.URL.Path,
				"method", r.Method)

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyRole returns a middleware that requires any of the specified roles
func (a *AuthorizationMiddleware) RequireAnyRole(requiredRoles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := authutils.RequireAnyRole(r, requiredRoles...)
			if err != nil {
				roleNames := make([]string, len(requiredRoles))
				for i, role := range requiredRoles {
					roleNames[i] = role.String()
				}

				slog.Warn("Role requirement not met",
					"required_roles", strings.Join(roleNames, ", "),
					"path", r.URL.Path,
					"method", r.Method,
					"error", err)
				sharedutils.RespondWithError(w, http.StatusForbidden, "Insufficient privileges")
				return
			}

			slog.Info("Role requirement satisfied",
				"user", user.Email,
				"user_roles", user.Roles,
				"path", r.URL.Path,
				"method", r.Method)

			next.ServeHTTP(w, r)
		})
	}
}

// handleUndefinedEndpoint decides what happens to endpoints with no explicit
// permission entry. Returns true if a response was already written.
func (a *AuthorizationMiddleware) handleUndefinedEndpoint(w http.ResponseWriter, r *http.Request, user *models.AuthenticatedUser) bool {
	if a.config.StrictMode {
		slog.Warn("Request to endpoint with no permission mapping",
			"path", r.URL.Path, "method", r.Method, "user", user.Email)
	}

	switch a.config.Mode {
	case models.AuthorizationModeFailClosed:
		sharedutils.RespondWithError(w, http.StatusForbidden, "Access to this endpoint is not permitted")
		return true
	case models.AuthorizationModeFailOpenAdmin:
		if user.IsAdmin() {
			return false
		}
		sharedutils.RespondWithError(w, http.StatusForbidden, "Access to this endpoint is not permitted")
		return true
	default:
		sharedutils.RespondWithError(w, http.StatusForbidden, "Access to this endpoint is not permitted")
		return true
	}
}

// shouldSkipAuthorization determines if authorization should be skipped for this path
func (a *AuthorizationMiddleware) shouldSkipAuthorization(path string) bool {
	skipPaths := []string{
		"/health",
		"/debug",
		"/metrics",
		"/api/v1/auth/login",
		"/api/v1/auth/change-password",
		"/favicon.ico",
	}

	for _, skipPath := range skipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}
	return false
}
