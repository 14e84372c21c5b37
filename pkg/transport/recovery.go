package transport

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/rhuss/dolmetscher/pkg/api"
)

// Recovery returns middleware that catches panics in the handler and
// converts them to internal server errors. The server continues to
// accept new requests after a panic is recovered.
func Recovery() Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *Request, w ResponseWriter) (retErr error) {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("handler panic",
						"request_id", RequestIDFromContext(ctx),
						"panic", fmt.Sprint(r),
						"stack", string(debug.Stack()),
					)
					retErr = api.NewServerError(fmt.Sprintf("panic: %v", r))
				}
			}()
			return next.Handle(ctx, req, w)
		})
	}
}
