package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/pwaburton/portal-backend/v1/models"
	authutils "github.com/pwaburton/portal-backend/v1/utils"
)

// Context keys for storing request information
type contextKey string

const (
	// Actor information
	contextKeyActorType contextKey = "actorType"
	contextKeyActorID   contextKey = "actorID"
	contextKeyActorRole contextKey = "actorRole"

	// Resource IDs extracted from path
	contextKeyProfileID   contextKey = "profileId"
	contextKeyMemberID    contextKey = "memberId"
	contextKeyCollectorID contextKey = "collectorId"
	contextKeyTicketID    contextKey = "ticketId"

	// Target resource type (for audit logging)
	contextKeyTargetResource contextKey = "targetResource"
)

// RequestContextMiddleware extracts information from the request and sets it
// in context. It should run after authentication but before audit logging.
func RequestContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actorType, actorID, actorRole := extractActorInfo(r)
		if actorType != "" {
			ctx = context.WithValue(ctx, contextKeyActorType, actorType)
		}
		if actorID != "" {
			ctx = context.WithValue(ctx, contextKeyActorID, actorID)
		}
		if actorRole != "" {
			ctx = context.WithValue(ctx, contextKeyActorRole, actorRole)
		}

		if id := pathResourceID(r.URL.Path, "/api/v1/profiles/"); id != "" {
			ctx = context.WithValue(ctx, contextKeyProfileID, id)
		}
		if id := pathResourceID(r.URL.Path, "/api/v1/members/"); id != "" {
			ctx = context.WithValue(ctx, contextKeyMemberID, id)
		}
		if id := pathResourceID(r.URL.Path, "/api/v1/collectors/"); id != "" {
			ctx = context.WithValue(ctx, contextKeyCollectorID, id)
		}
		if id := pathResourceID(r.URL.Path, "/api/v1/tickets/"); id != "" {
			ctx = context.WithValue(ctx, contextKeyTicketID, id)
		}

		if resourceType := determineResourceType(r.URL.Path, r.Method); resourceType != "" {
			ctx = context.WithValue(ctx, contextKeyTargetResource, resourceType)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractActorInfo extracts actor information from the authenticated user
// context, falling back to headers for service-to-service calls
func extractActorInfo(r *http.Request) (actorType, actorID, actorRole string) {
	user, err := authutils.GetAuthenticatedUser(r.Context())
	if err == nil && user != nil {
		return "USER", user.IdpUserID, strings.ToUpper(user.GetPrimaryRole().String())
	}

	userID := r.Header.Get("X-User-ID")
	if userID != "" {
		role := r.Header.Get("X-User-Role")
		if role == "" {
			role = strings.ToUpper(models.RoleMember.String())
		}
		return "USER", userID, strings.ToUpper(role)
	}

	return "SERVICE", "", ""
}

// pathResourceID pulls the first path segment after the given prefix
func pathResourceID(path, prefix string) string {
	if len(path) <= len(prefix) || path[:len(prefix)] != prefix {
		return ""
	}
	id := path[len(prefix):]
	if idx := strings.IndexByte(id, '/'); idx > 0 {
		return id[:idx]
	}
	return id
}

// determineResourceType determines the resource type for write operations
func determineResourceType(path, method string) string {
	if method != http.MethodPost && method != http.MethodPut && method != http.MethodPatch && method != http.MethodDelete {
		return ""
	}

	switch {
	case strings.HasPrefix(path, "/api/v1/profiles"):
		return "PROFILES"
	case strings.HasPrefix(path, "/api/v1/members"):
		return "MEMBERS"
	case strings.HasPrefix(path, "/api/v1/collectors"):
		return "COLLECTORS"
	case strings.HasPrefix(path, "/api/v1/tickets"):
		return "TICKETS"
	case strings.HasPrefix(path, "/api/v1/auth"):
		return "AUTH"
	}

	return ""
}

// Context getter functions (for use in handlers and middleware)

// GetActorType retrieves actor type from context
func GetActorType(ctx context.Context) string {
	if s, ok := ctx.Value(contextKeyActorType).(string); ok {
		return s
	}
	return ""
}

// GetActorID retrieves actor ID from context
func GetActorID(ctx context.Context) string {
	if s, ok := ctx.Value(contextKeyActorID).(string); ok {
		return s
	}
	return ""
}

// GetActorRole retrieves actor role from context
func GetActorRole(ctx context.Context) string {
	if s, ok := ctx.Value(contextKeyActorRole).(string); ok {
		return s
	}
	return ""
}

// GetProfileID retrieves profile ID from context
func GetProfileID(ctx context.Context) string {
	if s, ok := ctx.Value(contextKeyProfileID).(string); ok {
		return s
	}
	return ""
}

// GetMemberID retrieves member ID from context
func GetMemberID(ctx context.Context) string {
	if s, ok := ctx.Value(contextKeyMemberID).(string); ok {
		return s
	}
	return ""
}

// GetCollectorID retrieves collector ID from context
func GetCollectorID(ctx context.Context) string {
	if s, ok := ctx.Value(contextKeyCollectorID).(string); ok {
		return s
	}
	return ""
}

// GetTicketID retrieves ticket ID from context
func GetTicketID(ctx context.Context) string {
	if s, ok := ctx.Value(contextKeyTicketID).(string); ok {
		return s
	}
	return ""
}

// GetTargetResource retrieves target resource type from context
func GetTargetResource(ctx context.Context) string {
	if s, ok := ctx.Value(contextKeyTargetResource).(string); ok {
		return s
	}
	return ""
}
