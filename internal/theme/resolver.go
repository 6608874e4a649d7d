// internal/theme/resolver.go
package theme

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lucentchat/lucent/internal/models"
	"github.com/lucentchat/lucent/internal/settings"
)

const defaultBackendTimeout = 3 * time.Second

// SaveTarget selects where a save is written.
type SaveTarget string

const (
	// TargetUser writes the authenticated user's settings record. Falls back
	// to the local store when the resolver has no user.
	TargetUser SaveTarget = "user"
	// TargetLocal writes the local fallback store.
	TargetLocal SaveTarget = "localFallback"
)

// Resolver decides where theme settings are read from and written to. Load
// resolves through the tiers user record, admin default, factory default and
// always returns a valid ThemeSettings; tier failures are logged, never
// surfaced. Saves validate all-or-nothing before any write.
type Resolver struct {
	backend settings.Backend
	local   settings.LocalStore
	userID  string
	timeout time.Duration
	logger  zerolog.Logger
}

// NewResolver creates a resolver for the given user. An empty userID means an
// unauthenticated session whose settings tier is the local store.
func NewResolver(backend settings.Backend, local settings.LocalStore, userID string, logger zerolog.Logger) *Resolver {
	return &Resolver{
		backend: backend,
		local:   local,
		userID:  userID,
		timeout: defaultBackendTimeout,
		logger:  logger.With().Str("component", "theme_resolver").Logger(),
	}
}

// WithTimeout overrides the bounded wait applied to each backend call.
func (r *Resolver) WithTimeout(timeout time.Duration) *Resolver {
	r.timeout = timeout
	return r
}

// Load resolves the best-available committed settings. It never returns an
// error: every tier failure falls through to the next, ending at factory
// defaults.
func (r *Resolver) Load(ctx context.Context) models.ThemeSettings {
	if loaded, ok := r.loadUserTier(ctx); ok {
		return loaded
	}
	if loaded, ok := r.loadAdminTier(ctx); ok {
		return loaded
	}
	return models.DefaultThemeSettings()
}

// Defaults resolves the reset target: the admin-configured default when one
// exists, else factory defaults.
func (r *Resolver) Defaults(ctx context.Context) models.ThemeSettings {
	if loaded, ok := r.loadAdminTier(ctx); ok {
		return loaded
	}
	return models.DefaultThemeSettings()
}

// Save validates and writes the full settings record. Any invalid field
// rejects the whole save with ErrValidation; write failures return
// ErrPersistence. In both cases nothing was partially applied.
func (r *Resolver) Save(ctx context.Context, s models.ThemeSettings, target SaveTarget) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	raw, err := s.Serialize()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if target == TargetUser && r.userID != "" {
		writeCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		if err := r.backend.WriteSetting(writeCtx, r.userID, settings.KeyThemeSettings, raw); err != nil {
			r.logger.Error().Err(err).Str("user_id", r.userID).Msg("Failed to write user theme settings")
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		return nil
	}

	if err := r.local.Set(settings.KeyThemeSettings, raw); err != nil {
		r.logger.Error().Err(err).Msg("Failed to write local theme settings")
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// SetAsAdminDefault writes the settings as the admin-wide default tier. It
// changes future Load fallback resolution only; no individual user's
// committed state is touched. The caller must already be authorized.
func (r *Resolver) SetAsAdminDefault(ctx context.Context, s models.ThemeSettings) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	raw, err := s.Serialize()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.backend.WriteSetting(writeCtx, settings.OwnerAdmin, settings.KeyThemeSettings, raw); err != nil {
		r.logger.Error().Err(err).Msg("Failed to write admin default theme settings")
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

func (r *Resolver) loadUserTier(ctx context.Context) (models.ThemeSettings, bool) {
	if r.userID == "" {
		raw, ok := r.local.Get(settings.KeyThemeSettings)
		if !ok {
			return models.ThemeSettings{}, false
		}
		parsed, err := models.ParseThemeSettings(raw)
		if err != nil {
			r.logger.Warn().Err(err).Msg("Local theme settings are malformed, falling back")
			return models.ThemeSettings{}, false
		}
		return parsed, true
	}

	fetchCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	record, err := r.backend.FetchAllSettings(fetchCtx, r.userID)
	if err != nil {
		r.logger.Warn().Err(err).Str("user_id", r.userID).Msg("Failed to fetch user settings, falling back")
		return models.ThemeSettings{}, false
	}
	raw, ok := record[settings.KeyThemeSettings]
	if !ok {
		return models.ThemeSettings{}, false
	}
	parsed, err := models.ParseThemeSettings(raw)
	if err != nil {
		r.logger.Warn().Err(err).Str("user_id", r.userID).Msg("User theme settings are malformed, falling back")
		return models.ThemeSettings{}, false
	}
	return parsed, true
}

func (r *Resolver) loadAdminTier(ctx context.Context) (models.ThemeSettings, bool) {
	fetchCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	record, err := r.backend.FetchAllSettings(fetchCtx, settings.OwnerAdmin)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Failed to fetch admin default settings, falling back")
		return models.ThemeSettings{}, false
	}
	raw, ok := record[settings.KeyThemeSettings]
	if !ok {
		return models.ThemeSettings{}, false
	}
	parsed, err := models.ParseThemeSettings(raw)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Admin default theme settings are malformed, falling back")
		return models.ThemeSettings{}, false
	}
	return parsed, true
}
