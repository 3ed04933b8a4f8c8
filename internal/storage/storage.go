// Package storage defines the session store abstraction. Sessions are
// written once at creation, read by event handlers, and evicted after
// a TTL so the store never grows without bound.
package storage

import (
	"context"
	"time"

	"github.com/perfilmente/funnel-api/internal/domain"
)

// SessionStore persists visitor sessions.
type SessionStore interface {
	// Put stores a session. Session ids are unique; Put never merges.
	Put(ctx context.Context, s *domain.Session) error

	// Get returns the session with the given id, or a not_found error.
	// Expired sessions are treated as absent.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// Delete removes a session. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error

	// PurgeExpired removes every session whose expiry is before now and
	// reports how many were removed.
	PurgeExpired(ctx context.Context, now time.Time) (int, error)

	// Close releases any underlying resources.
	Close() error
}
