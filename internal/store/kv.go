package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Keys used by the study organizer.
const (
	KeyFolders       = "folders"
	KeyHistory       = "pomodoroHistory"
	KeyDailyTotals   = "dailyTotals"
	KeyActiveFolder  = "activeFolder"
	KeyTimerSettings = "timerSettings"
)

var (
	ErrRead  = errors.New("store: read failed")
	ErrWrite = errors.New("store: write failed")
)

// KV is the key/value contract the repositories are written against.
// Values are JSON documents; Get reports false when the key is absent.
type KV interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Remove(ctx context.Context, key string) error
}

var _ KV = (*Store)(nil)

func (s *Store) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := s.GetRaw(ctx, key)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("%w: decode %q: %w", ErrRead, key, err)
	}
	return true, nil
}

// GetRaw returns the stored JSON for key, or nil if it does not exist.
func (s *Store) GetRaw(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %q: %w", ErrRead, key, err)
	}
	return []byte(value), nil
}

func (s *Store) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: encode %q: %w", ErrWrite, key, err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(raw), now,
	)
	if err != nil {
		return fmt.Errorf("%w: set %q: %w", ErrWrite, key, err)
	}
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("%w: remove %q: %w", ErrWrite, key, err)
	}
	return nil
}

// Clear removes every key.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv`)
	if err != nil {
		return fmt.Errorf("%w: clear: %w", ErrWrite, err)
	}
	return nil
}

// Keys lists stored keys in lexical order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("%w: list keys: %w", ErrRead, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("%w: scan key: %w", ErrRead, err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
