package provider

import "fmt"

// ErrorKind is the closed set of backend failure categories.
type ErrorKind int

const (
	// ErrorKindAPI is a backend failure that fits no narrower kind.
	ErrorKindAPI ErrorKind = iota
	ErrorKindAuthentication
	ErrorKindPermission
	ErrorKindRateLimit
	ErrorKindBadRequest
	ErrorKindServiceUnavailable
	ErrorKindTimeout
	ErrorKindConnection
	ErrorKindContentPolicy
)

// String returns a short label for logs and metrics.
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindAuthentication:
		return "authentication"
	case ErrorKindPermission:
		return "permission"
	case ErrorKindRateLimit:
		return "rate_limit"
	case ErrorKindBadRequest:
		return "bad_request"
	case ErrorKindServiceUnavailable:
		return "service_unavailable"
	case ErrorKindTimeout:
		return "timeout"
	case ErrorKindConnection:
		return "connection"
	case ErrorKindContentPolicy:
		return "content_policy"
	default:
		return "api"
	}
}

// BackendError is the single error type produced by provider adapters.
type BackendError struct {
	Kind ErrorKind

	// Provider names the adapter or endpoint that failed.
	Provider string

	// StatusCode is the upstream HTTP status, or 0 for network failures.
	StatusCode int

	// Message is the raw backend message.
	Message string
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (HTTP %d)", e.Provider, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// NewBackendError creates a BackendError.
func NewBackendError(kind ErrorKind, providerName string, status int, message string) *BackendError {
	return &BackendError{
		Kind:       kind,
		Provider:   providerName,
		StatusCode: status,
		Message:    message,
	}
}
