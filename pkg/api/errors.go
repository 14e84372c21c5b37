package api

import (
	"fmt"
	"net/http"
)

// Stable error labels. Each label pairs with exactly one HTTP status.
const (
	LabelAuthentication     = "Authentication failed"
	LabelPermission         = "Permission denied"
	LabelRateLimit          = "Rate limit exceeded"
	LabelInvalidRequest     = "Invalid request"
	LabelServiceUnavailable = "Service unavailable"
	LabelTimeout            = "Request timeout"
	LabelConnection         = "API connection failed"
	LabelContentPolicy      = "Content policy violation"
	LabelModelNotFound      = "Model not found"
	LabelBackend            = "LLM API error"
	LabelInternal           = "Internal server error"
	LabelValidation         = "Validation error"
)

// APIError is a classified error ready to cross the system boundary.
// Status is the HTTP status, Label the stable error label and Details
// the raw underlying message.
type APIError struct {
	Status  int
	Label   string
	Details string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Label, e.Details)
	}
	return e.Label
}

// Response returns the wire envelope for this error.
func (e *APIError) Response() ErrorResponse {
	return ErrorResponse{
		Error:   e.Label,
		Code:    e.Status,
		Details: e.Details,
	}
}

// ErrorResponse is the JSON error envelope: {error, code, details}.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// NewError creates an APIError with an explicit status and label.
func NewError(status int, label, details string) *APIError {
	return &APIError{Status: status, Label: label, Details: details}
}

// NewValidationError creates an APIError for a request that failed
// field validation (422).
func NewValidationError(details string) *APIError {
	return NewError(http.StatusUnprocessableEntity, LabelValidation, details)
}

// NewInvalidRequestError creates an APIError for a malformed request (400).
func NewInvalidRequestError(details string) *APIError {
	return NewError(http.StatusBadRequest, LabelInvalidRequest, details)
}

// NewAuthenticationError creates an APIError for rejected credentials (401).
func NewAuthenticationError(details string) *APIError {
	return NewError(http.StatusUnauthorized, LabelAuthentication, details)
}

// NewTooManyRequestsError creates an APIError for rate limiting (429).
func NewTooManyRequestsError(details string) *APIError {
	return NewError(http.StatusTooManyRequests, LabelRateLimit, details)
}

// NewServerError creates an APIError for unclassified internal failures (500).
func NewServerError(details string) *APIError {
	return NewError(http.StatusInternalServerError, LabelInternal, details)
}
