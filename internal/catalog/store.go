package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"glimpse/internal/openrouter"
)

// Store persists the last successful catalog listing so a restarted server
// can pre-warm its directory within the TTL. One snapshot row, replaced
// wholesale on every save.
type Store struct {
	db   *sql.DB
	path string
}

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS catalog_snapshot (
    id         INTEGER PRIMARY KEY CHECK (id = 1),
    fetched_at TEXT NOT NULL,
    payload    BLOB NOT NULL
)`

// OpenStore initializes or connects to the snapshot database at path.
func OpenStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("catalog store: path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure snapshot directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(snapshotSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create snapshot schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save replaces the stored snapshot with the supplied listing.
func (s *Store) Save(ctx context.Context, models []openrouter.Model, fetchedAt time.Time) error {
	payload, err := json.Marshal(models)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO catalog_snapshot (id, fetched_at, payload) VALUES (1, ?, ?)
         ON CONFLICT(id) DO UPDATE SET fetched_at = excluded.fetched_at, payload = excluded.payload`,
		fetchedAt.UTC().Format(time.RFC3339Nano),
		payload,
	)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Load returns the stored snapshot, if any.
func (s *Store) Load(ctx context.Context) ([]openrouter.Model, time.Time, bool, error) {
	var fetchedAtRaw string
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT fetched_at, payload FROM catalog_snapshot WHERE id = 1`,
	).Scan(&fetchedAtRaw, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("read snapshot: %w", err)
	}

	fetchedAt, err := time.Parse(time.RFC3339Nano, fetchedAtRaw)
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("parse snapshot timestamp: %w", err)
	}
	var models []openrouter.Model
	if err := json.Unmarshal(payload, &models); err != nil {
		return nil, time.Time{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return models, fetchedAt, true, nil
}
