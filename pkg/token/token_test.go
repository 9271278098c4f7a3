package token

import (
	"strings"
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	m, err := NewManager("secret", "librarium-test", time.Hour)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	signed, err := m.Issue("42", "alice", "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := m.Verify(signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "42" || claims.Username != "alice" || claims.Role != "user" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer, err := NewManager("secret-a", "librarium-test", time.Hour)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	verifier, err := NewManager("secret-b", "librarium-test", time.Hour)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	signed, err := issuer.Issue("42", "alice", "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := verifier.Verify(signed); err == nil {
		t.Fatalf("expected wrong secret rejected")
	}
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	issuer, err := NewManager("secret", "other-service", time.Hour)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	verifier, err := NewManager("secret", "librarium-test", time.Hour)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	signed, err := issuer.Issue("42", "alice", "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := verifier.Verify(signed); err == nil {
		t.Fatalf("expected wrong issuer rejected")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	m, err := NewManager("secret", "librarium-test", time.Hour)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	// Past the leeway window.
	m.ttl = -2 * defaultLeeway

	signed, err := m.Issue("42", "alice", "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(signed); err == nil {
		t.Fatalf("expected expired token rejected")
	}
}

func TestVerifyRejectsMissingSubject(t *testing.T) {
	m, err := NewManager("secret", "librarium-test", time.Hour)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	signed, err := m.Issue("", "alice", "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(signed); err == nil {
		t.Fatalf("expected empty subject rejected")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m, err := NewManager("secret", "librarium-test", time.Hour)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	for _, token := range []string{"", "  ", "not.a.jwt", strings.Repeat("x", 64)} {
		if _, err := m.Verify(token); err == nil {
			t.Fatalf("expected %q rejected", token)
		}
	}
}

func TestNewManagerDefaults(t *testing.T) {
	if _, err := NewManager("", "issuer", time.Hour); err == nil {
		t.Fatalf("expected empty secret rejected")
	}
	m, err := NewManager("secret", "", 0)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if m.issuer != defaultIssuer {
		t.Fatalf("expected default issuer, got %q", m.issuer)
	}
	if m.ttl != 24*time.Hour {
		t.Fatalf("expected 24h default ttl, got %v", m.ttl)
	}
}
