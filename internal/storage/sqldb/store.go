// Package sqldb is the SQLite-backed session store, for deployments
// that want sessions to survive a process restart.
package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/perfilmente/funnel-api/internal/domain"
	"github.com/perfilmente/funnel-api/internal/storage"
)

// Store is a SQL implementation of SessionStore.
type Store struct {
	db *sqlx.DB
}

var _ storage.SessionStore = (*Store)(nil)

// New creates a new SQLite store at the given path.
func New(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	for _, stmt := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute pragma: %w", err)
		}
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
id TEXT PRIMARY KEY,
client_ip TEXT NOT NULL,
location TEXT,
created_at TIMESTAMP NOT NULL,
expires_at TIMESTAMP NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

type sessionRow struct {
	ID        string         `db:"id"`
	ClientIP  string         `db:"client_ip"`
	Location  sql.NullString `db:"location"`
	CreatedAt time.Time      `db:"created_at"`
	ExpiresAt time.Time      `db:"expires_at"`
}

func (s *Store) Put(ctx context.Context, sess *domain.Session) error {
	var location sql.NullString
	if sess.Location != nil {
		raw, err := json.Marshal(sess.Location)
		if err != nil {
			return fmt.Errorf("failed to marshal location: %w", err)
		}
		location = sql.NullString{String: string(raw), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, client_ip, location, created_at, expires_at) VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.ClientIP, location, sess.CreatedAt, sess.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Session, error) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row, `SELECT id, client_ip, location, created_at, expires_at FROM sessions WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("session " + id + " not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	sess := &domain.Session{
		ID:        row.ID,
		ClientIP:  row.ClientIP,
		CreatedAt: row.CreatedAt,
		ExpiresAt: row.ExpiresAt,
	}
	if sess.Expired(time.Now()) {
		return nil, domain.ErrNotFound("session " + id + " not found")
	}

	if row.Location.Valid {
		var loc domain.GeoFields
		if err := json.Unmarshal([]byte(row.Location.String), &loc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal location: %w", err)
		}
		sess.Location = &loc
	}

	return sess, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *Store) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged sessions: %w", err)
	}
	return int(n), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
