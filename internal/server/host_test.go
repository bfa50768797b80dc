package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEffectiveHost_StripsPortAndCase(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "Tenant-A.Example.COM:8443"
	if got := effectiveHost(req); got != "tenant-a.example.com" {
		t.Fatalf("host=%q", got)
	}
}

func TestEffectiveHost_IgnoresForwardedWithoutTrust(t *testing.T) {
	t.Setenv("TRUST_PROXY", "")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "real.example.com"
	req.Header.Set("X-Forwarded-Host", "spoofed.example.com")
	if got := effectiveHost(req); got != "real.example.com" {
		t.Fatalf("host=%q", got)
	}
}

func TestEffectiveHost_TrustProxyUsesFirstForwarded(t *testing.T) {
	t.Setenv("TRUST_PROXY", "1")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "edge.internal"
	req.Header.Set("X-Forwarded-Host", "tenant-b.example.com:443, edge.internal")
	if got := effectiveHost(req); got != "tenant-b.example.com" {
		t.Fatalf("host=%q", got)
	}
}
