package db

import (
	"context"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lucentchat/lucent/internal/settings"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	database, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})
	return database
}

func TestSettingsStoreUpsert(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	record, err := database.Settings.FetchAllSettings(ctx, "user-1")
	if err != nil {
		t.Fatalf("FetchAllSettings() error = %v", err)
	}
	if len(record) != 0 {
		t.Fatalf("fresh owner record = %v, want empty", record)
	}

	if err := database.Settings.WriteSetting(ctx, "user-1", settings.KeyThemeSettings, "v1"); err != nil {
		t.Fatalf("WriteSetting() error = %v", err)
	}
	if err := database.Settings.WriteSetting(ctx, "user-1", settings.KeyThemeSettings, "v2"); err != nil {
		t.Fatalf("WriteSetting() upsert error = %v", err)
	}

	record, err = database.Settings.FetchAllSettings(ctx, "user-1")
	if err != nil {
		t.Fatalf("FetchAllSettings() error = %v", err)
	}
	if record[settings.KeyThemeSettings] != "v2" {
		t.Fatalf("setting = %q, want %q", record[settings.KeyThemeSettings], "v2")
	}
	if len(record) != 1 {
		t.Fatalf("record has %d keys, want 1", len(record))
	}
}

func TestSettingsStoreOwnerScoping(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	if err := database.Settings.WriteSetting(ctx, "user-1", settings.KeyThemeSettings, "mine"); err != nil {
		t.Fatalf("WriteSetting() error = %v", err)
	}
	if err := database.Settings.WriteSetting(ctx, settings.OwnerAdmin, settings.KeyThemeSettings, "default"); err != nil {
		t.Fatalf("WriteSetting() error = %v", err)
	}

	adminRecord, err := database.Settings.FetchAllSettings(ctx, settings.OwnerAdmin)
	if err != nil {
		t.Fatalf("FetchAllSettings() error = %v", err)
	}
	if adminRecord[settings.KeyThemeSettings] != "default" {
		t.Fatalf("admin setting = %q, want %q", adminRecord[settings.KeyThemeSettings], "default")
	}

	otherRecord, err := database.Settings.FetchAllSettings(ctx, "user-2")
	if err != nil {
		t.Fatalf("FetchAllSettings() error = %v", err)
	}
	if len(otherRecord) != 0 {
		t.Fatalf("user-2 record = %v, want empty", otherRecord)
	}
}

func TestSettingsStoreDelete(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	if err := database.Settings.DeleteSetting(ctx, "user-1", settings.KeyThemeSettings); err != nil {
		t.Fatalf("DeleteSetting() on missing row error = %v", err)
	}

	if err := database.Settings.WriteSetting(ctx, "user-1", settings.KeyThemeSettings, "v1"); err != nil {
		t.Fatalf("WriteSetting() error = %v", err)
	}
	if err := database.Settings.DeleteSetting(ctx, "user-1", settings.KeyThemeSettings); err != nil {
		t.Fatalf("DeleteSetting() error = %v", err)
	}

	record, err := database.Settings.FetchAllSettings(ctx, "user-1")
	if err != nil {
		t.Fatalf("FetchAllSettings() error = %v", err)
	}
	if len(record) != 0 {
		t.Fatalf("record after delete = %v, want empty", record)
	}
}
