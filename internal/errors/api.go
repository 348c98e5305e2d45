package errors

import (
	"net/http"

	"github.com/go-chi/render"
)

// APIError is the structured error body rendered by the serve surface.
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// NewAPIError creates an API error response.
func NewAPIError(statusCode int, errorCode, message string) *APIError {
	return &APIError{StatusCode: statusCode, ErrorCode: errorCode, Message: message}
}

// Predefined API errors for the serve surface.
var (
	ErrTableNotFound    = NewAPIError(http.StatusNotFound, "TABLE_NOT_FOUND", "Output table not found")
	ErrNoPublishedRun   = NewAPIError(http.StatusNotFound, "NO_PUBLISHED_RUN", "No pipeline run has been published yet")
	ErrInvalidTableName = NewAPIError(http.StatusBadRequest, "INVALID_TABLE_NAME", "Invalid table name")
	ErrInternal         = NewAPIError(http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
)
