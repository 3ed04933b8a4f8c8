// Package memory is the default in-memory session store: a
// mutex-guarded map with TTL-based eviction driven by a janitor
// goroutine.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/perfilmente/funnel-api/internal/domain"
	"github.com/perfilmente/funnel-api/internal/storage"
)

// Store is an in-memory implementation of SessionStore.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

var _ storage.SessionStore = (*Store)(nil)

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		sessions: make(map[string]*domain.Session),
	}
}

func (s *Store) Put(ctx context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sess.ID]; exists {
		return domain.ErrServer("session " + sess.ID + " already exists")
	}

	s.sessions[sess.ID] = sess
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, exists := s.sessions[id]
	if !exists || sess.Expired(time.Now()) {
		return nil, domain.ErrNotFound("session " + id + " not found")
	}

	return sess, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

func (s *Store) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
			purged++
		}
	}
	return purged, nil
}

func (s *Store) Close() error { return nil }

// Len reports the number of stored sessions, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
