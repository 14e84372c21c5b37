package apikey

import (
	"context"
	"net/http"
	"testing"

	"github.com/rhuss/dolmetscher/pkg/auth"
)

func newTestAuth(t *testing.T) *Authenticator {
	t.Helper()
	a, err := New([]RawKeyEntry{
		{
			Key: "sk-test-key-1",
			Identity: auth.Identity{
				Subject:     "alice",
				ServiceTier: "standard",
			},
		},
		{
			Key: "sk-test-key-2",
			Identity: auth.Identity{
				Subject:     "bob",
				ServiceTier: "premium",
			},
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestValidKey(t *testing.T) {
	a := newTestAuth(t)
	r, _ := http.NewRequest("POST", "/api/chat", nil)
	r.Header.Set("Authorization", "Bearer sk-test-key-1")

	result := a.Authenticate(context.Background(), r)

	if result.Decision != auth.Yes {
		t.Fatalf("Decision = %d, want Yes", result.Decision)
	}
	if result.Identity.Subject != "alice" {
		t.Errorf("Subject = %q, want %q", result.Identity.Subject, "alice")
	}
	if result.Identity.ServiceTier != "standard" {
		t.Errorf("ServiceTier = %q, want %q", result.Identity.ServiceTier, "standard")
	}
}

func TestAPIKeyHeader(t *testing.T) {
	a := newTestAuth(t)
	r, _ := http.NewRequest("POST", "/api/chat", nil)
	r.Header.Set("X-API-Key", "sk-test-key-2")

	result := a.Authenticate(context.Background(), r)

	if result.Decision != auth.Yes {
		t.Fatalf("Decision = %d, want Yes", result.Decision)
	}
	if result.Identity.Subject != "bob" {
		t.Errorf("Subject = %q, want %q", result.Identity.Subject, "bob")
	}
}

func TestInvalidKey(t *testing.T) {
	a := newTestAuth(t)
	r, _ := http.NewRequest("POST", "/api/chat", nil)
	r.Header.Set("Authorization", "Bearer sk-wrong-key")

	result := a.Authenticate(context.Background(), r)

	if result.Decision != auth.No {
		t.Fatalf("Decision = %d, want No", result.Decision)
	}
}

func TestNoHeader(t *testing.T) {
	a := newTestAuth(t)
	r, _ := http.NewRequest("POST", "/api/chat", nil)

	result := a.Authenticate(context.Background(), r)

	if result.Decision != auth.Abstain {
		t.Fatalf("Decision = %d, want Abstain", result.Decision)
	}
}

func TestNonBearerHeader(t *testing.T) {
	a := newTestAuth(t)
	r, _ := http.NewRequest("POST", "/api/chat", nil)
	r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

	result := a.Authenticate(context.Background(), r)

	if result.Decision != auth.Abstain {
		t.Fatalf("Decision = %d, want Abstain (non-Bearer)", result.Decision)
	}
}

func TestEmptyBearerToken(t *testing.T) {
	a := newTestAuth(t)
	r, _ := http.NewRequest("POST", "/api/chat", nil)
	r.Header.Set("Authorization", "Bearer ")

	result := a.Authenticate(context.Background(), r)

	if result.Decision != auth.No {
		t.Fatalf("Decision = %d, want No (empty token)", result.Decision)
	}
}

func TestNew_RejectsIncompleteEntries(t *testing.T) {
	if _, err := New([]RawKeyEntry{{Key: "", Identity: auth.Identity{Subject: "x"}}}); err == nil {
		t.Error("expected error for empty key")
	}
	if _, err := New([]RawKeyEntry{{Key: "sk-1"}}); err == nil {
		t.Error("expected error for empty subject")
	}
}

func TestIdentityNotShared(t *testing.T) {
	a := newTestAuth(t)
	r, _ := http.NewRequest("POST", "/api/chat", nil)
	r.Header.Set("Authorization", "Bearer sk-test-key-1")

	first := a.Authenticate(context.Background(), r)
	first.Identity.Subject = "mutated"

	second := a.Authenticate(context.Background(), r)
	if second.Identity.Subject != "alice" {
		t.Errorf("Subject = %q, stored identity was mutated", second.Identity.Subject)
	}
}
