package preferences

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*Record, error) {
	rec := &Record{}
	var data []byte
	if err := s.Scan(&rec.UserKey, &data, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	prefs, err := decodePreferences(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode preferences for %q: %w", rec.UserKey, err)
	}
	rec.Preferences = prefs
	return rec, nil
}

// decodePreferences reads a stored document over the defaults, so documents
// written before a field existed pick up its default.
func decodePreferences(data []byte) (Preferences, error) {
	prefs := Defaults()
	if err := json.Unmarshal(data, &prefs); err != nil {
		return Preferences{}, err
	}
	return prefs, nil
}

func encodePreferences(userKey string, prefs Preferences) ([]byte, error) {
	if userKey == "" {
		return nil, ErrUserKeyRequired
	}
	if err := Validate(prefs); err != nil {
		return nil, err
	}
	return json.Marshal(prefs)
}

func writeExport(ctx context.Context, s Store, writer io.Writer) error {
	all, err := s.List(ctx, maxExportLimit, 0)
	if err != nil {
		return fmt.Errorf("failed to list preferences: %w", err)
	}

	export := &Export{
		Version:     exportVersion,
		ExportedAt:  time.Now().UTC(),
		Count:       len(all),
		Preferences: all,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

type existenceChecker interface {
	Store
	exists(ctx context.Context, userKey string) (bool, error)
}

func readImport(ctx context.Context, s existenceChecker, reader io.Reader) (imported int, skipped int, err error) {
	var export Export
	if err := json.NewDecoder(reader).Decode(&export); err != nil {
		return 0, 0, fmt.Errorf("failed to decode JSON: %w", err)
	}

	for _, rec := range export.Preferences {
		if rec == nil {
			continue
		}
		found, err := s.exists(ctx, rec.UserKey)
		if err != nil {
			return imported, skipped, fmt.Errorf("failed to check existing: %w", err)
		}
		if found {
			skipped++
			continue
		}

		if err := s.Save(ctx, rec.UserKey, rec.Preferences); err != nil {
			return imported, skipped, fmt.Errorf("failed to save %q: %w", rec.UserKey, err)
		}
		imported++
	}

	return imported, skipped, nil
}
