package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"
)

// UnknownLabel is used when a request did not reach a route handler or
// carried no model.
const UnknownLabel = "unknown"

// RequestLabels carries metric labels that are only known once the route
// handler has parsed the request. MetricsMiddleware installs an empty set
// in the request context; handlers fill it with SetRequestLabels.
type RequestLabels struct {
	Endpoint string
	Model    string
}

type labelsKeyType struct{}

var labelsKey = labelsKeyType{}

// SetRequestLabels records the endpoint and model of the current request.
// It is a no-op when the context was not prepared by MetricsMiddleware.
func SetRequestLabels(ctx context.Context, endpoint, model string) {
	if l, ok := ctx.Value(labelsKey).(*RequestLabels); ok {
		l.Endpoint = endpoint
		l.Model = model
	}
}

// MetricsMiddleware wraps an HTTP handler to record request metrics.
//
// It captures:
//   - dolmetscher_requests_total (counter): incremented per request with endpoint, status class, and model labels
//   - dolmetscher_request_duration_seconds (histogram): request duration with endpoint and model labels
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		labels := &RequestLabels{}
		r = r.WithContext(context.WithValue(r.Context(), labelsKey, labels))

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()

		endpoint := labels.Endpoint
		if endpoint == "" {
			endpoint = UnknownLabel
		}
		model := labels.Model
		if model == "" {
			model = UnknownLabel
		}

		// Build a status class label like "2xx", "4xx", "5xx".
		statusStr := strconv.Itoa(sw.status/100) + "xx"

		RequestsTotal.WithLabelValues(endpoint, statusStr, model).Inc()
		RequestDuration.WithLabelValues(endpoint, model).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

// WriteHeader captures the status code and delegates to the underlying writer.
func (w *statusWriter) WriteHeader(status int) {
	if !w.written {
		w.status = status
		w.written = true
	}
	w.ResponseWriter.WriteHeader(status)
}

// Write delegates to the underlying writer and marks the status as written.
func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	return w.ResponseWriter.Write(b)
}

// Flush delegates to the underlying writer if it implements http.Flusher.
// This is essential for streaming support.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the underlying ResponseWriter, enabling http.ResponseController
// and similar utilities to access the original writer.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
