package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  name: lucent
  environment: test
  port: 8080
database:
  filename: data/lucent.db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Theme.RefreshSchedule != "* * * * *" {
		t.Fatalf("refresh schedule default = %q", cfg.Theme.RefreshSchedule)
	}
	if cfg.Theme.LocalStorePath != filepath.Join("data", "local_settings.json") {
		t.Fatalf("local store path default = %q", cfg.Theme.LocalStorePath)
	}
}

func TestLoadRejectsBadCron(t *testing.T) {
	path := writeConfig(t, `
app:
  name: lucent
  port: 8080
database:
  filename: data/lucent.db
theme:
  refresh_schedule: "every five minutes"
`)

	_, err := Load(path)
	if err == nil {
		t.Fatalf("Load() error = nil, want cron validation error")
	}
	if !strings.Contains(err.Error(), "refresh_schedule") {
		t.Fatalf("Load() error = %q, want mention of refresh_schedule", err)
	}
}

func TestValidateRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing_name",
			yaml:    "app:\n  port: 8080\ndatabase:\n  filename: x.db\n",
			wantErr: "app name",
		},
		{
			name:    "missing_port",
			yaml:    "app:\n  name: lucent\ndatabase:\n  filename: x.db\n",
			wantErr: "port",
		},
		{
			name:    "missing_filename",
			yaml:    "app:\n  name: lucent\n  port: 8080\n",
			wantErr: "filename",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, test.yaml))
			if err == nil {
				t.Fatalf("Load() error = nil, want mention of %q", test.wantErr)
			}
			if !strings.Contains(err.Error(), test.wantErr) {
				t.Fatalf("Load() error = %q, want mention of %q", err, test.wantErr)
			}
		})
	}
}
