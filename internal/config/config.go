// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	Filename string `yaml:"filename"`
}

type ThemeConfig struct {
	// RefreshSchedule is a standard 5-field cron expression for the job that
	// re-fetches committed settings from the backend so external updates
	// propagate to connected sessions.
	RefreshSchedule string `yaml:"refresh_schedule"`
	// LocalStorePath is the JSON file backing the local fallback settings
	// tier for unauthenticated sessions.
	LocalStorePath string `yaml:"local_store_path"`
}

type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
		Port        int    `yaml:"port"`
		BaseURL     string `yaml:"base_url"`
		// AdminTokenHash is a bcrypt hash of the token required for
		// admin-default writes. Loaded from environment.
		AdminTokenHash string `yaml:"-"`
	} `yaml:"app"`

	Database DatabaseConfig `yaml:"database"`
	Theme    ThemeConfig    `yaml:"theme"`
}

// Load loads both .env and yaml configuration.
func Load(configPath string) (*Config, error) {
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Load sensitive values from environment
	cfg.App.AdminTokenHash = os.Getenv("ADMIN_TOKEN_HASH")

	if cfg.Theme.RefreshSchedule == "" {
		cfg.Theme.RefreshSchedule = "* * * * *"
	}
	if cfg.Theme.LocalStorePath == "" {
		cfg.Theme.LocalStorePath = filepath.Join(filepath.Dir(cfg.Database.Filename), "local_settings.json")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.Database.Filename == "" {
		return fmt.Errorf("database filename is required")
	}
	if _, err := cron.ParseStandard(c.Theme.RefreshSchedule); err != nil {
		return fmt.Errorf("theme refresh_schedule is not a valid cron expression: %w", err)
	}
	return nil
}
