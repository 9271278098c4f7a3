package util

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	trusted, err := NewTrustedProxies([]string{"10.0.0.0/8", "192.168.1.10"})
	if err != nil {
		t.Fatalf("new trusted proxies: %v", err)
	}

	resolve := func(remoteAddr, xff, xrip string, proxies *TrustedProxies) string {
		req := httptest.NewRequest("GET", "http://example.com", nil)
		req.RemoteAddr = remoteAddr
		if xff != "" {
			req.Header.Set("X-Forwarded-For", xff)
		}
		if xrip != "" {
			req.Header.Set("X-Real-IP", xrip)
		}
		return ClientIP(req, proxies)
	}

	t.Run("untrusted peer ignores forwarded headers", func(t *testing.T) {
		got := resolve("198.51.100.10:1234", "203.0.113.5", "203.0.113.6", nil)
		if got != "198.51.100.10" {
			t.Fatalf("client ip = %q, want peer address", got)
		}
	})

	t.Run("trusted peer accepts x-forwarded-for", func(t *testing.T) {
		got := resolve("10.0.0.20:1234", "203.0.113.5", "", trusted)
		if got != "203.0.113.5" {
			t.Fatalf("client ip = %q, want forwarded address", got)
		}
	})

	t.Run("chain walk picks first untrusted from the right", func(t *testing.T) {
		got := resolve("10.0.0.20:1234", "203.0.113.5, 10.0.0.10", "", trusted)
		if got != "203.0.113.5" {
			t.Fatalf("client ip = %q, want first untrusted hop", got)
		}
	})

	t.Run("x-real-ip fallback when forwarded chain unusable", func(t *testing.T) {
		got := resolve("10.0.0.20:1234", "invalid", "203.0.113.7", trusted)
		if got != "203.0.113.7" {
			t.Fatalf("client ip = %q, want x-real-ip", got)
		}
	})

	t.Run("fully trusted chain returns leftmost hop", func(t *testing.T) {
		got := resolve("10.0.0.20:1234", "10.0.0.5, 10.0.0.10", "", trusted)
		if got != "10.0.0.5" {
			t.Fatalf("client ip = %q, want leftmost hop", got)
		}
	})
}

func TestNewTrustedProxies(t *testing.T) {
	if _, err := NewTrustedProxies([]string{"10.0.0.0/8", "192.168.1.1"}); err != nil {
		t.Fatalf("expected valid entries, got err: %v", err)
	}
	if _, err := NewTrustedProxies([]string{"bad-cidr"}); err == nil {
		t.Fatalf("expected parse error for invalid entry")
	}
	// Empty input means trust none; Contains on nil is always false.
	trusted, err := NewTrustedProxies(nil)
	if err != nil {
		t.Fatalf("nil entries: %v", err)
	}
	if trusted != nil {
		t.Fatalf("expected nil allowlist for empty input")
	}
}
