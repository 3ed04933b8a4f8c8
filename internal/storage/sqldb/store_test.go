package sqldb

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/perfilmente/funnel-api/internal/domain"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	now := time.Now().Truncate(time.Second)
	sess := &domain.Session{
		ID:       "abc-123",
		ClientIP: "203.0.113.9",
		Location: &domain.GeoFields{
			City:        "Poá",
			Region:      "São Paulo",
			PostalCode:  "08550-000",
			CountryName: "Brazil",
		},
		CreatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
	}

	if err := s.Put(ctx, sess); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := s.Get(ctx, "abc-123")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ClientIP != sess.ClientIP {
		t.Errorf("ClientIP = %q, want %q", got.ClientIP, sess.ClientIP)
	}
	if got.Location == nil || *got.Location != *sess.Location {
		t.Errorf("Location = %+v, want %+v", got.Location, sess.Location)
	}
}

func TestSessionWithoutLocation(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	now := time.Now()
	if err := s.Put(ctx, &domain.Session{ID: "noloc", ClientIP: "::1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, "noloc")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Location != nil {
		t.Errorf("Location = %+v, want nil", got.Location)
	}
}

func TestGetMissingAndExpired(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.Get(ctx, "missing")
	var fe *domain.FunnelError
	if !errors.As(err, &fe) || fe.Type != domain.ErrorTypeNotFound {
		t.Fatalf("Get(missing) err = %v, want not_found", err)
	}

	now := time.Now()
	s.Put(ctx, &domain.Session{ID: "old", ClientIP: "::1", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)})
	if _, err := s.Get(ctx, "old"); err == nil {
		t.Fatal("expired session must read as absent")
	}
}

func TestPurgeExpired(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	now := time.Now()
	s.Put(ctx, &domain.Session{ID: "live", ClientIP: "::1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)})
	s.Put(ctx, &domain.Session{ID: "dead", ClientIP: "::1", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)})

	purged, err := s.PurgeExpired(ctx, now)
	if err != nil {
		t.Fatalf("PurgeExpired() error = %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}
	if _, err := s.Get(ctx, "live"); err != nil {
		t.Errorf("live session was purged: %v", err)
	}
}
