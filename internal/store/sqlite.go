package store

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists both tiers in a single SQLite database. The session
// tier is wiped when a new browsing session begins (ClearTier, invoked by the
// launching command, not by the session core).
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (and if needed creates) the backing database
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	createKVTable := `
	CREATE TABLE IF NOT EXISTS kv_state (
		tier TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (tier, key)
	);`

	if _, err := db.Exec(createKVTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create kv_state table: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteStore{db: db, logger: logger}, nil
}

// Get returns the value for key in tier
func (s *SQLiteStore) Get(tier, key string) (string, bool) {
	var value string
	err := s.db.QueryRow(
		"SELECT value FROM kv_state WHERE tier = ? AND key = ?", tier, key,
	).Scan(&value)
	if err != nil {
		if err != sql.ErrNoRows {
			s.logger.Warn("store read failed", "tier", tier, "key", key, "error", err)
		}
		return "", false
	}
	return value, true
}

// Set writes key=value in tier. Write failures are logged and swallowed so a
// full disk or read-only profile never breaks the conversation.
func (s *SQLiteStore) Set(tier, key, value string) {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO kv_state (tier, key, value) VALUES (?, ?, ?)",
		tier, key, value,
	)
	if err != nil {
		s.logger.Warn("store write failed", "tier", tier, "key", key, "error", err)
	}
}

// Remove deletes key from tier
func (s *SQLiteStore) Remove(tier, key string) {
	if _, err := s.db.Exec("DELETE FROM kv_state WHERE tier = ? AND key = ?", tier, key); err != nil {
		s.logger.Warn("store remove failed", "tier", tier, "key", key, "error", err)
	}
}

// ClearTier drops every key in tier
func (s *SQLiteStore) ClearTier(tier string) {
	if _, err := s.db.Exec("DELETE FROM kv_state WHERE tier = ?", tier); err != nil {
		s.logger.Warn("store clear failed", "tier", tier, "error", err)
	}
}

// Close releases the database handle
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
