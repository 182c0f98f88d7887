package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/pwaburton/portal-backend/pkg/monitoring"
)

// AuditMiddleware emits a structured audit record for every write operation.
// It reads actor and resource information from request context set by
// RequestContextMiddleware.
type AuditMiddleware struct {
	logger *slog.Logger
}

// NewAuditMiddleware creates a new audit middleware
func NewAuditMiddleware() *AuditMiddleware {
	return &AuditMiddleware{
		logger: slog.Default().With("component", "audit"),
	}
}

// AuditLoggingMiddleware wraps an http.Handler with audit logging
func (m *AuditMiddleware) AuditLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		responseWrapper := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(responseWrapper, r)

		// Only write operations are audited
		if !isWriteOperation(r.Method) {
			return
		}

		status := "SUCCESS"
		if responseWrapper.statusCode >= 400 {
			status = "FAILURE"
		}

		ctx := r.Context()
		targetResource := GetTargetResource(ctx)
		targetResourceID := resourceIDFor(ctx, targetResource)

		m.logger.Info("Audit event",
			"actorType", GetActorType(ctx),
			"actorId", GetActorID(ctx),
			"actorRole", GetActorRole(ctx),
			"method", r.Method,
			"path", r.URL.Path,
			"targetResource", targetResource,
			"targetResourceId", targetResourceID,
			"status", status,
			"statusCode", responseWrapper.statusCode,
			"durationMs", time.Since(startTime).Milliseconds())

		monitoring.RecordBusinessEvent(ctx, "audit."+r.Method, status == "SUCCESS")
	})
}

func resourceIDFor(ctx context.Context, targetResource string) string {
	switch targetResource {
	case "PROFILES":
		return GetProfileID(ctx)
	case "MEMBERS":
		return GetMemberID(ctx)
	case "COLLECTORS":
		return GetCollectorID(ctx)
	case "TICKETS":
		return GetTicketID(ctx)
	}
	return ""
}

func isWriteOperation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter captures the status code written by downstream handlers
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}
