package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a TTL key/value cache backed by SQLite. Values are JSON
// blobs keyed by operation-derived strings; expired rows are treated as
// misses and swept lazily on write.
type Store struct {
	db   *sql.DB
	ttl  time.Duration
	path string
}

// Open initializes or connects to the cache database under dir.
func Open(dir string, ttl time.Duration) (*Store, error) {
	dbPath := filepath.Join(dir, "tmdb-cache.db")
	db, err := sql.Open("sqlite", dbPath)
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

	const schema = `CREATE TABLE IF NOT EXISTS entries (
        key        TEXT PRIMARY KEY,
        value      BLOB NOT NULL,
        expires_at INTEGER NOT NULL
    )`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}

	return &Store{db: db, ttl: ttl, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get unmarshals the cached value for key into dest. It reports false
// on a miss or an expired entry.
func (s *Store) Get(ctx context.Context, key string, dest any) (bool, error) {
	var value []byte
	var expiresAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM entries WHERE key = ?`, key,
	).Scan(&value, &expiresAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query cache: %w", err)
	}
	if time.Now().Unix() >= expiresAt {
		return false, nil
	}
	if err := json.Unmarshal(value, dest); err != nil {
		return false, fmt.Errorf("decode cached value: %w", err)
	}
	return true, nil
}

// Set stores value under key, replacing any prior entry. Expired rows
// are swept opportunistically so the database stays bounded.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}
	now := time.Now()
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM entries WHERE expires_at <= ?`, now.Unix(),
	); err != nil {
		return fmt.Errorf("sweep expired entries: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (key, value, expires_at) VALUES (?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, data, now.Add(s.ttl).Unix(),
	); err != nil {
		return fmt.Errorf("store cache entry: %w", err)
	}
	return nil
}
