package clientip

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.5:4411"
	req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")

	if got := RealClientIP(req); got != "10.0.0.5" {
		t.Fatalf("RealClientIP = %q", got)
	}
	if got := (Resolver{}).ClientIP(req); got != "10.0.0.5" {
		t.Fatalf("untrusted ClientIP = %q", got)
	}
	if got := (Resolver{TrustProxy: true}).ClientIP(req); got != "198.51.100.7" {
		t.Fatalf("trusted ClientIP = %q", got)
	}

	req.Header.Set("X-Forwarded-For", "garbage")
	req.Header.Set("X-Real-IP", "192.0.2.44")
	if got := (Resolver{TrustProxy: true}).ClientIP(req); got != "192.0.2.44" {
		t.Fatalf("X-Real-IP fallback = %q", got)
	}
}
