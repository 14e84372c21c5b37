package openaicompat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/rhuss/dolmetscher/pkg/debug"
	"github.com/rhuss/dolmetscher/pkg/provider"
)

// contentPolicyMarkers identify 400 responses caused by provider content
// moderation rather than a malformed request.
var contentPolicyMarkers = []string{
	"content_filter",
	"content_policy",
	"content management policy",
	"data_inspection_failed",
	"sensitive",
}

// MapHTTPError converts an HTTP response with a non-2xx status code into
// a BackendError. It reads the (decoded) body to extract a descriptive
// message.
func MapHTTPError(resp *http.Response, providerName string) *provider.BackendError {
	body := readErrorBody(resp)
	message := ExtractErrorMessage(body)

	kind := provider.ErrorKindAPI
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		kind = provider.ErrorKindBadRequest
		if isContentPolicy(body) {
			kind = provider.ErrorKindContentPolicy
		}
		if message == "" {
			message = "invalid request to backend"
		}

	case resp.StatusCode == http.StatusUnauthorized:
		kind = provider.ErrorKindAuthentication
		if message == "" {
			message = "backend authentication failed"
		}

	case resp.StatusCode == http.StatusForbidden:
		kind = provider.ErrorKindPermission
		if message == "" {
			message = "backend denied access"
		}

	case resp.StatusCode == http.StatusNotFound:
		if message == "" {
			message = "backend resource not found"
		}

	case resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusGatewayTimeout:
		kind = provider.ErrorKindTimeout
		if message == "" {
			message = "backend request timed out"
		}

	case resp.StatusCode == http.StatusUnprocessableEntity:
		kind = provider.ErrorKindBadRequest
		if message == "" {
			message = "backend rejected request parameters"
		}

	case resp.StatusCode == http.StatusTooManyRequests:
		kind = provider.ErrorKindRateLimit
		if message == "" {
			message = "backend rate limit exceeded"
		}

	case resp.StatusCode == http.StatusServiceUnavailable:
		kind = provider.ErrorKindServiceUnavailable
		if message == "" {
			message = "backend service unavailable"
		}

	case resp.StatusCode >= http.StatusInternalServerError:
		if message == "" {
			message = fmt.Sprintf("backend server error (HTTP %d)", resp.StatusCode)
		}

	default:
		if message == "" {
			message = fmt.Sprintf("unexpected backend error (HTTP %d)", resp.StatusCode)
		}
	}

	return provider.NewBackendError(kind, providerName, resp.StatusCode, message)
}

// MapNetworkError converts a transport-level failure (connection refused,
// DNS failure, deadline) into a BackendError.
func MapNetworkError(err error, providerName string) *provider.BackendError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return provider.NewBackendError(provider.ErrorKindTimeout, providerName, 0,
			fmt.Sprintf("backend request timed out: %s", err.Error()))
	}
	return provider.NewBackendError(provider.ErrorKindConnection, providerName, 0,
		fmt.Sprintf("backend connection error: %s", err.Error()))
}

// MapStreamError converts an error object received inside an SSE stream.
func MapStreamError(body *ChatErrorBody, providerName string) *provider.BackendError {
	kind := provider.ErrorKindAPI
	code := strings.ToLower(fmt.Sprint(body.Code))
	typ := strings.ToLower(body.Type)
	switch {
	case strings.Contains(typ, "rate_limit") || strings.Contains(code, "rate_limit"):
		kind = provider.ErrorKindRateLimit
	case isContentPolicy([]byte(typ + " " + code)):
		kind = provider.ErrorKindContentPolicy
	case strings.Contains(typ, "timeout"):
		kind = provider.ErrorKindTimeout
	}
	message := body.Message
	if message == "" {
		message = "backend reported a stream error"
	}
	return provider.NewBackendError(kind, providerName, 0, message)
}

// ExtractErrorMessage extracts a message from the error body shapes used
// by OpenAI-compatible backends:
//
//	{"error": {"message": "..."}}
//	{"error": "..."}
//	{"message": "..."}
//	{"detail": "..."}
//
// A non-JSON body is returned verbatim, truncated.
func ExtractErrorMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return debug.Truncate(strings.TrimSpace(string(body)), 512)
	}

	switch e := doc["error"].(type) {
	case map[string]any:
		if msg, ok := e["message"].(string); ok && msg != "" {
			return msg
		}
	case string:
		if e != "" {
			return e
		}
	}
	for _, key := range []string{"message", "detail"} {
		if msg, ok := doc[key].(string); ok && msg != "" {
			return msg
		}
	}
	return ""
}

func readErrorBody(resp *http.Response) []byte {
	if resp.Body == nil {
		return nil
	}
	body, err := decodedBody(resp)
	if err != nil {
		return nil
	}
	defer body.Close()
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return nil
	}
	return data
}

func isContentPolicy(body []byte) bool {
	lower := strings.ToLower(string(body))
	for _, m := range contentPolicyMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
