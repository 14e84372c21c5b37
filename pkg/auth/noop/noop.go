// Package noop provides an authenticator that accepts every request as the
// anonymous identity. It backs auth.type "none".
package noop

import (
	"context"
	"net/http"

	"github.com/rhuss/dolmetscher/pkg/auth"
)

// Authenticator always returns Yes with the anonymous identity.
type Authenticator struct{}

var _ auth.Authenticator = (*Authenticator)(nil)

func (a *Authenticator) Authenticate(_ context.Context, _ *http.Request) auth.AuthResult {
	return auth.AuthResult{Decision: auth.Yes, Identity: auth.Anonymous()}
}
