// Package apikey provides an API key authenticator that validates
// bearer tokens against a static key store using SHA-256 hashing
// and constant-time comparison.
//
// Keys are accepted from "Authorization: Bearer <key>" or, for clients
// that cannot set a bearer token, from the X-API-Key header.
package apikey

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rhuss/dolmetscher/pkg/auth"
)

// HeaderAPIKey is the alternative key header.
const HeaderAPIKey = "X-API-Key"

// KeyEntry maps a key hash to an identity.
type KeyEntry struct {
	KeyHash  [32]byte
	Identity auth.Identity
}

// Authenticator validates API keys against a static key store.
type Authenticator struct {
	keys []KeyEntry
}

// RawKeyEntry is the configuration format for API keys.
type RawKeyEntry struct {
	Key      string
	Identity auth.Identity
}

// New creates an API key authenticator from a list of raw keys and identities.
// Keys are hashed immediately; plaintext keys are not stored. Entries
// without a key or subject are rejected.
func New(entries []RawKeyEntry) (*Authenticator, error) {
	a := &Authenticator{}
	var errs []error
	for i, e := range entries {
		if e.Key == "" {
			errs = append(errs, fmt.Errorf("entry %d: empty key", i))
			continue
		}
		if e.Identity.Subject == "" {
			errs = append(errs, fmt.Errorf("entry %d: empty subject", i))
			continue
		}
		a.keys = append(a.keys, KeyEntry{
			KeyHash:  sha256.Sum256([]byte(e.Key)),
			Identity: e.Identity,
		})
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return a, nil
}

// Authenticate extracts the key and validates it.
// Returns Yes if valid, No if a key is present but invalid,
// Abstain if neither header carries a key.
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.AuthResult {
	token, ok := extractKey(r)
	if !ok {
		return auth.AuthResult{Decision: auth.Abstain}
	}
	if token == "" {
		return auth.AuthResult{Decision: auth.No, Err: auth.ErrUnauthenticated}
	}

	tokenHash := sha256.Sum256([]byte(token))

	for _, entry := range a.keys {
		if subtle.ConstantTimeCompare(tokenHash[:], entry.KeyHash[:]) == 1 {
			// Copy identity to avoid shared state.
			id := entry.Identity
			return auth.AuthResult{Decision: auth.Yes, Identity: &id}
		}
	}

	return auth.AuthResult{Decision: auth.No, Err: auth.ErrUnauthenticated}
}

func extractKey(r *http.Request) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		if !strings.HasPrefix(header, "Bearer ") {
			return "", false
		}
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")), true
	}
	if values, ok := r.Header[http.CanonicalHeaderKey(HeaderAPIKey)]; ok && len(values) > 0 {
		return strings.TrimSpace(values[0]), true
	}
	return "", false
}
