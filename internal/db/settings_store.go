// internal/db/settings_store.go
package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lucentchat/lucent/internal/settings"
)

// Compile-time interface guard.
var _ settings.Backend = (*SettingsStore)(nil)

// SettingsStore persists owner-scoped key/value settings in SQLite. It backs
// both user theme records and the admin-wide default record.
type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// FetchAllSettings returns every setting stored for the owner. An owner with
// no rows yields an empty map, not an error.
func (s *SettingsStore) FetchAllSettings(ctx context.Context, ownerID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM settings WHERE owner_id = ?`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("fetch settings for %q: %w", ownerID, err)
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting for %q: %w", ownerID, err)
		}
		result[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read settings for %q: %w", ownerID, err)
	}
	return result, nil
}

// WriteSetting upserts a single setting for the owner.
func (s *SettingsStore) WriteSetting(ctx context.Context, ownerID, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (owner_id, key, value, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (owner_id, key)
		 DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		ownerID, key, value)
	if err != nil {
		return fmt.Errorf("write setting %q for %q: %w", key, ownerID, err)
	}
	return nil
}

// DeleteSetting removes a single setting for the owner. Missing rows are not
// an error.
func (s *SettingsStore) DeleteSetting(ctx context.Context, ownerID, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM settings WHERE owner_id = ? AND key = ?`, ownerID, key)
	if err != nil {
		return fmt.Errorf("delete setting %q for %q: %w", key, ownerID, err)
	}
	return nil
}
