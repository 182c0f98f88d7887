package errors

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"gorm.io/gorm"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeValidation      ErrorType = "validation"
	ErrorTypeUnauthenticated ErrorType = "unauthenticated"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeConflict        ErrorType = "conflict"
	ErrorTypeForbidden       ErrorType = "forbidden"
	ErrorTypeRoleUpdate      ErrorType = "role_update"
	ErrorTypeCollectorCreate ErrorType = "collector_create"
	ErrorTypeQuery           ErrorType = "query"
	ErrorTypeInternal        ErrorType = "internal"
)

// APIError represents a structured API error
type APIError struct {
	Type        ErrorType `json:"type"`
	Code        string    `json:"code"`
	Message     string    `json:"message"`
	Details     string    `json:"details,omitempty"`
	HTTPStatus  int       `json:"-"`
	InternalErr error     `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Message, e.Details, e.Code)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Unwrap returns the underlying error
func (e *APIError) Unwrap() error {
	return e.InternalErr
}

// NewAPIError creates a new API error
func NewAPIError(errorType ErrorType, code, message string, httpStatus int) *APIError {
	return &APIError{
		Type:       errorType,
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// NewAPIErrorWithCause creates a new API error with an underlying cause
func NewAPIErrorWithCause(errorType ErrorType, code, message string, httpStatus int, cause error) *APIError {
	return &APIError{
		Type:        errorType,
		Code:        code,
		Message:     message,
		HTTPStatus:  httpStatus,
		InternalErr: cause,
	}
}

// Predefined error constructors

// ValidationError creates a validation error
func ValidationError(code, message string) *APIError {
	return NewAPIError(ErrorTypeValidation, code, message, http.StatusBadRequest)
}

// ValidationErrorWithDetails creates a validation error with details
func ValidationErrorWithDetails(code, message, details string) *APIError {
	e := ValidationError(code, message)
	e.Details = details
	return e
}

// UnauthenticatedError creates an unauthenticated error
func UnauthenticatedError(message string) *APIError {
	return NewAPIError(ErrorTypeUnauthenticated, "UNAUTHENTICATED", message, http.StatusUnauthorized)
}

// ForbiddenError creates a forbidden error
func ForbiddenError(message string) *APIError {
	return NewAPIError(ErrorTypeForbidden, "FORBIDDEN", message, http.StatusForbidden)
}

// ProfileNotFoundError signals that no profile exists for the given id
func ProfileNotFoundError(profileID string) *APIError {
	return NewAPIError(ErrorTypeNotFound, "PROFILE_NOT_FOUND",
		fmt.Sprintf("profile %s not found", profileID), http.StatusNotFound)
}

// NotFoundError creates a not found error
func NotFoundError(resource string) *APIError {
	return NewAPIError(ErrorTypeNotFound, "RESOURCE_NOT_FOUND", fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// ConflictError creates a conflict error
func ConflictError(message string) *APIError {
	return NewAPIError(ErrorTypeConflict, "RESOURCE_CONFLICT", message, http.StatusConflict)
}

// RoleUpdateFailedError signals that persisting a profile's role set failed
func RoleUpdateFailedError(cause error) *APIError {
	return NewAPIErrorWithCause(ErrorTypeRoleUpdate, "ROLE_UPDATE_FAILED",
		"failed to update profile roles", http.StatusInternalServerError, cause)
}

// CollectorCreateFailedError signals that creating a collector record failed
func CollectorCreateFailedError(cause error) *APIError {
	return NewAPIErrorWithCause(ErrorTypeCollectorCreate, "COLLECTOR_CREATE_FAILED",
		"failed to create collector", http.StatusInternalServerError, cause)
}

// QueryFailedError signals that a store read failed
func QueryFailedError(operation string, cause error) *APIError {
	return NewAPIErrorWithCause(ErrorTypeQuery, "QUERY_FAILED",
		fmt.Sprintf("query failed: %s", operation), http.StatusInternalServerError, cause)
}

// InternalError creates an internal server error
func InternalError(message string) *APIError {
	return NewAPIError(ErrorTypeInternal, "INTERNAL_ERROR", message, http.StatusInternalServerError)
}

// InternalErrorWithCause creates an internal server error with cause
func InternalErrorWithCause(message string, cause error) *APIError {
	return NewAPIErrorWithCause(ErrorTypeInternal, "INTERNAL_ERROR", message, http.StatusInternalServerError, cause)
}

// Error handling utilities

// IsAPIError checks if an error is an APIError
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// GetAPIError extracts APIError from an error
func GetAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}

// HandleDatabaseError maps store errors onto the API error taxonomy
func HandleDatabaseError(err error, operation string) *APIError {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, sql.ErrNoRows):
		return NotFoundError("resource")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ConflictError("record already exists")
	default:
		return QueryFailedError(operation, err)
	}
}

// ErrorResponse represents the JSON structure for error responses
type ErrorResponse struct {
	Error     *APIError `json:"error"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp string    `json:"timestamp"`
}

// NewErrorResponse creates a new error response
func NewErrorResponse(apiErr *APIError) *ErrorResponse {
	return &ErrorResponse{
		Error:     apiErr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
