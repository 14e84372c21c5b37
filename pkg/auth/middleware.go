package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rhuss/dolmetscher/pkg/api"
	"github.com/rhuss/dolmetscher/pkg/observability"
	"github.com/rhuss/dolmetscher/pkg/transport"
)

// Middleware creates HTTP middleware from an AuthChain and optional RateLimiter.
// It checks the bypass list, runs authentication, stores the identity in
// the request context, and optionally enforces rate limits. Rejections use
// the same JSON envelope as every other gateway error.
func Middleware(chain *AuthChain, limiter RateLimiter, bypassEndpoints []string) func(http.Handler) http.Handler {
	bypass := make(map[string]bool, len(bypassEndpoints))
	for _, ep := range bypassEndpoints {
		bypass[ep] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// CORS preflights carry no credentials.
			if bypass[r.URL.Path] || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			result := chain.Authenticate(r.Context(), r)

			if result.Decision != Yes || result.Identity == nil {
				slog.Warn("authentication failed",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"error", result.Err,
				)
				reject(w, api.NewAuthenticationError(rejectDetails(result.Err)))
				return
			}

			if result.Identity.Subject == "" {
				slog.Error("authenticator returned identity with empty subject")
				reject(w, api.NewServerError("internal authentication error"))
				return
			}

			slog.Debug("authentication succeeded",
				"subject", result.Identity.Subject,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)

			if limiter != nil {
				if err := limiter.Allow(r.Context(), result.Identity); err != nil {
					slog.Warn("rate limit exceeded",
						"subject", result.Identity.Subject,
						"tier", result.Identity.Tier(),
					)
					observability.RateLimitRejectedTotal.WithLabelValues(result.Identity.Tier()).Inc()
					reject(w, api.NewTooManyRequestsError(err.Error()))
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(SetIdentity(r.Context(), result.Identity)))
		})
	}
}

func reject(w http.ResponseWriter, apiErr *api.APIError) {
	observability.ErrorsTotal.WithLabelValues(apiErr.Label, "auth").Inc()
	transport.WriteErrorResponse(w, apiErr)
}

// rejectDetails keeps token validation internals out of the response.
func rejectDetails(err error) string {
	if err == nil || errors.Is(err, ErrUnauthenticated) {
		return ErrUnauthenticated.Error()
	}
	if errors.Is(err, ErrForbidden) {
		return ErrForbidden.Error()
	}
	return "invalid credentials"
}

// DefaultBypassEndpoints lists endpoints that skip authentication.
var DefaultBypassEndpoints = []string{"/", "/api/version", "/metrics"}
