package utils

import (
	"encoding/json"
	"log/slog"
	"net/http"

	apierrors "github.com/pwaburton/portal-backend/pkg/errors"
)

// ErrorResponse represents a standard error response structure
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse represents a standard success response structure
type SuccessResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// RespondWithJSON sends a JSON response with the given status code and data
func RespondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// RespondWithError sends a JSON error response
func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	RespondWithJSON(w, statusCode, ErrorResponse{Error: message})
}

// RespondWithSuccess sends a JSON success response
func RespondWithSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	RespondWithJSON(w, statusCode, data)
}

// RespondWithAPIError maps an error onto the API error taxonomy and writes it.
// Unclassified errors become generic 500s without leaking internals.
func RespondWithAPIError(w http.ResponseWriter, err error) {
	if apiErr := apierrors.GetAPIError(err); apiErr != nil {
		RespondWithJSON(w, apiErr.HTTPStatus, apierrors.NewErrorResponse(apiErr))
		return
	}
	slog.Error("Unclassified error in handler", "error", err)
	RespondWithError(w, http.StatusInternalServerError, "Internal server error")
}

// HealthHandler creates a health check handler
func HealthHandler(serviceName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := map[string]string{
			"service": serviceName,
			"status":  "healthy",
		}
		RespondWithJSON(w, http.StatusOK, response)
	}
}

// PanicRecoveryMiddleware provides panic recovery for HTTP handlers
func PanicRecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("Handler panicked", "error", err, "path", r.URL.Path)
				RespondWithError(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// ValidateMethod rejects requests whose method does not match
func ValidateMethod(w http.ResponseWriter, r *http.Request, allowedMethod string) bool {
	if r.Method != allowedMethod {
		w.Header().Set("Allow", allowedMethod)
		RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return false
	}
	return true
}
