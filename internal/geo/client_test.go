package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/perfilmente/funnel-api/internal/domain"
)

func TestLookupRejectsBadIPsLocally(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	c := NewClient("", WithBaseURL(srv.URL))

	tests := []struct {
		name string
		ip   string
	}{
		{"malformed", "not-an-ip"},
		{"empty", ""},
		{"loopback v4", "127.0.0.1"},
		{"loopback v6", "::1"},
		{"unspecified", "0.0.0.0"},
		{"private", "10.1.2.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Lookup(context.Background(), tt.ip)
			var fe *domain.FunnelError
			if !errors.As(err, &fe) || fe.Type != domain.ErrorTypeUpstreamLookup {
				t.Fatalf("Lookup(%q) err = %v, want upstream_lookup_failed", tt.ip, err)
			}
		})
	}

	if calls != 0 {
		t.Errorf("non-routable IPs must not reach the network, got %d calls", calls)
	}
}

func TestLookupResolvesFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/203.0.113.9" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("key = %q", r.URL.Query().Get("key"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"city":"Poá","region":"São Paulo","postal":"08550-000","country":"Brazil"}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	got, err := c.Lookup(context.Background(), "203.0.113.9")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}

	want := domain.GeoFields{City: "Poá", Region: "São Paulo", PostalCode: "08550-000", CountryName: "Brazil"}
	if got != want {
		t.Errorf("Lookup() = %+v, want %+v", got, want)
	}
}

func TestLookupToleratesPartialPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"city":"Lisboa"}`))
	}))
	defer srv.Close()

	c := NewClient("", WithBaseURL(srv.URL))
	got, err := c.Lookup(context.Background(), "203.0.113.9")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got.City != "Lisboa" || got.Region != "" || got.PostalCode != "" || got.CountryName != "" {
		t.Errorf("Lookup() = %+v, want only city populated", got)
	}
}

func TestLookupReportsProviderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"reserved range"}`))
	}))
	defer srv.Close()

	c := NewClient("", WithBaseURL(srv.URL))
	_, err := c.Lookup(context.Background(), "203.0.113.9")
	var fe *domain.FunnelError
	if !errors.As(err, &fe) || fe.Type != domain.ErrorTypeUpstreamLookup {
		t.Fatalf("err = %v, want upstream_lookup_failed", err)
	}
}

func TestLookupRetriesOnceOn5xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"city":"Poá"}`))
	}))
	defer srv.Close()

	c := NewClient("", WithBaseURL(srv.URL))
	got, err := c.Lookup(context.Background(), "203.0.113.9")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got.City != "Poá" {
		t.Errorf("city = %q", got.City)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2 (one retry)", calls.Load())
	}
}

func TestLookupDoesNotRetry4xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient("", WithBaseURL(srv.URL))
	if _, err := c.Lookup(context.Background(), "203.0.113.9"); err == nil {
		t.Fatal("expected error on 403")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (4xx is final)", calls.Load())
	}
}
