package preferences

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite preference store.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS user_preferences (
		user_key TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_user_preferences_updated_at ON user_preferences(updated_at);
	`

	_, err := db.Exec(schema)
	return err
}

// Get returns the stored preferences or the defaults.
func (s *SQLiteStore) Get(ctx context.Context, userKey string) (Preferences, error) {
	if userKey == "" {
		return Preferences{}, ErrUserKeyRequired
	}

	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM user_preferences WHERE user_key = ?", userKey,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Defaults(), nil
	}
	if err != nil {
		return Preferences{}, fmt.Errorf("failed to get preferences: %w", err)
	}
	return decodePreferences(data)
}

// Save stores the full document.
func (s *SQLiteStore) Save(ctx context.Context, userKey string, prefs Preferences) error {
	data, err := encodePreferences(userKey, prefs)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_preferences (user_key, data, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_key) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`, userKey, string(data), now, now)
	if err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}

// Delete removes the user's document.
func (s *SQLiteStore) Delete(ctx context.Context, userKey string) error {
	if userKey == "" {
		return ErrUserKeyRequired
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM user_preferences WHERE user_key = ?", userKey)
	return err
}

// List returns stored records, most recently updated first.
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_key, data, created_at, updated_at
		FROM user_preferences
		ORDER BY updated_at DESC, user_key
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var result []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// Count returns the number of stored documents.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM user_preferences").Scan(&count)
	return count, err
}

func (s *SQLiteStore) exists(ctx context.Context, userKey string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM user_preferences WHERE user_key = ?", userKey).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// ExportJSON exports all documents to a JSON writer.
func (s *SQLiteStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	return writeExport(ctx, s, writer)
}

// ImportJSON imports documents from a JSON reader.
func (s *SQLiteStore) ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error) {
	return readImport(ctx, s, reader)
}

// Ping checks the database file is usable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
