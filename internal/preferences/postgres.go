package preferences

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore implements the Store interface using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL preference store.
// It expects the schema to already exist (created via migrations).
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Get returns the stored preferences or the defaults.
func (s *PostgresStore) Get(ctx context.Context, userKey string) (Preferences, error) {
	if userKey == "" {
		return Preferences{}, ErrUserKeyRequired
	}

	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM user_preferences WHERE user_key = $1", userKey,
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
func (s *PostgresStore) Save(ctx context.Context, userKey string, prefs Preferences) error {
	data, err := encodePreferences(userKey, prefs)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_preferences (user_key, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_key) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at
	`, userKey, data, now, now)
	if err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}

// Delete removes the user's document.
func (s *PostgresStore) Delete(ctx context.Context, userKey string) error {
	if userKey == "" {
		return ErrUserKeyRequired
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM user_preferences WHERE user_key = $1", userKey)
	if err != nil {
		return fmt.Errorf("failed to delete preferences: %w", err)
	}
	return nil
}

// List returns stored records, most recently updated first.
func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_key, data, created_at, updated_at
		FROM user_preferences
		ORDER BY updated_at DESC, user_key
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
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
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM user_preferences").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count preferences: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) exists(ctx context.Context, userKey string) (bool, error) {
	var found bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM user_preferences WHERE user_key = $1)", userKey,
	).Scan(&found)
	return found, err
}

// ExportJSON exports all documents to a JSON writer.
func (s *PostgresStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	return writeExport(ctx, s, writer)
}

// ImportJSON imports documents from a JSON reader.
func (s *PostgresStore) ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error) {
	return readImport(ctx, s, reader)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the store and releases resources.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
