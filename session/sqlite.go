package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/sinapp/dbopen"
)

// Migration creates the session tables. Values are stored one row per key.
var Migration = dbopen.Migration{
	Name: "session_001_init",
	SQL: `
CREATE TABLE IF NOT EXISTS sessions (
    id         TEXT PRIMARY KEY,
    expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
CREATE TABLE IF NOT EXISTS session_values (
    session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    key        TEXT NOT NULL,
    value      TEXT NOT NULL,
    updated_at INTEGER NOT NULL,
    PRIMARY KEY (session_id, key)
);`,
}

// SQLiteStore is a Store backed by the sessions/session_values tables.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore wraps db. Migration must have been applied.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (map[string]json.RawMessage, error) {
	var expiresAt int64
	err := s.db.QueryRowContext(ctx, `SELECT expires_at FROM sessions WHERE id = ?`, id).Scan(&expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: get %s: %w", id, err)
	}
	if expiresAt <= s.now().UnixMilli() {
		return nil, ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM session_values WHERE session_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("session: get values %s: %w", id, err)
	}
	defer rows.Close()

	values := map[string]json.RawMessage{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("session: scan value: %w", err)
		}
		values[k] = json.RawMessage(v)
	}
	return values, rows.Err()
}

func (s *SQLiteStore) Set(ctx context.Context, id string, set map[string]json.RawMessage, del []string, expiresAt time.Time) error {
	now := s.now().UnixMilli()
	return dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sessions (id, expires_at) VALUES (?, ?)
			ON CONFLICT(id) DO UPDATE SET expires_at = excluded.expires_at`,
			id, expiresAt.UnixMilli()); err != nil {
			return fmt.Errorf("upsert session: %w", err)
		}
		for k, v := range set {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO session_values (session_id, key, value, updated_at) VALUES (?, ?, ?, ?)
				ON CONFLICT(session_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
				id, k, string(v), now); err != nil {
				return fmt.Errorf("upsert value %q: %w", k, err)
			}
		}
		for _, k := range del {
			if _, err := tx.ExecContext(ctx, `DELETE FROM session_values WHERE session_id = ? AND key = ?`, id, k); err != nil {
				return fmt.Errorf("delete value %q: %w", k, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := dbopen.Exec(ctx, s.db, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("session: delete %s: %w", id, err)
	}
	return nil
}

// PurgeExpired removes expired sessions and their values.
func (s *SQLiteStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := dbopen.Exec(ctx, s.db, `DELETE FROM sessions WHERE expires_at <= ?`, s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("session: purge: %w", err)
	}
	return res.RowsAffected()
}

// Purger is implemented by stores that can drop expired records.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// StartJanitor purges expired sessions every interval until ctx is done.
func StartJanitor(ctx context.Context, p Purger, interval time.Duration, logger *slog.Logger) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := p.PurgeExpired(ctx)
				if err != nil {
					logger.Warn("session janitor", "error", err)
					continue
				}
				if n > 0 {
					logger.Debug("session janitor purged", "count", n)
				}
			}
		}
	}()
}
