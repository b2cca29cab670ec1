package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps one row per match in a sessions table.
type SQLiteStore struct {
	sqlDB *sql.DB
}

const sessionsSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	match_id   TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);`

// OpenSQLite opens (or creates) the database file and ensures the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sessionsSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create sessions table: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, matchID string) ([]byte, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	var payload []byte
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT payload FROM sessions WHERE match_id = ?`, matchID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", matchID, err)
	}
	return payload, nil
}

func (s *SQLiteStore) Save(ctx context.Context, matchID string, payload []byte) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(matchID) == "" {
		return fmt.Errorf("match id is required")
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO sessions (match_id, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(match_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		matchID, payload, time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("save session %s: %w", matchID, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, matchID string) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM sessions WHERE match_id = ?`, matchID); err != nil {
		return fmt.Errorf("delete session %s: %w", matchID, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}
