// internal/theme/session.go
package theme

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lucentchat/lucent/internal/models"
)

// SessionState is the draft session's state machine position.
type SessionState string

const (
	// StateInactive means no draft exists.
	StateInactive SessionState = "inactive"
	// StateActiveClean means a draft exists and equals the committed state.
	StateActiveClean SessionState = "active_clean"
	// StateActiveDirty means the draft differs from the committed state.
	StateActiveDirty SessionState = "active_dirty"
)

// Session orchestrates settings mode: it snapshots the committed state into a
// draft, tracks whether the draft differs, previews every edit through the
// store, and gates save, discard, and reset. Drafts live only while the
// session is active and are never persisted implicitly.
type Session struct {
	mu         sync.Mutex
	state      SessionState
	committed  models.ThemeSettings
	draft      models.ThemeSettings
	saving     bool
	generation uint64

	store       *Store
	resolver    *Resolver
	unsubscribe func()
	logger      zerolog.Logger
}

// NewSession creates an inactive session bound to a store and resolver.
func NewSession(store *Store, resolver *Resolver, logger zerolog.Logger) *Session {
	return &Session{
		state:    StateInactive,
		store:    store,
		resolver: resolver,
		logger:   logger.With().Str("component", "theme_session").Logger(),
	}
}

// State returns the current state machine position.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// HasChanges reports whether the draft structurally differs from the
// committed baseline. Toggling a field back to its committed value clears it.
func (s *Session) HasChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateActiveDirty
}

// Draft returns a copy of the current draft. Valid only while active.
func (s *Session) Draft() (models.ThemeSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateInactive {
		return models.ThemeSettings{}, ErrSessionInactive
	}
	return s.draft.Clone(), nil
}

// EnterSettingsMode snapshots the committed state into a fresh draft and
// starts watching for external committed-state changes.
func (s *Session) EnterSettingsMode() error {
	s.mu.Lock()
	if s.state != StateInactive {
		s.mu.Unlock()
		return ErrSessionActive
	}
	s.committed = s.store.Committed()
	s.draft = s.committed.Clone()
	s.state = StateActiveClean
	s.generation++
	s.mu.Unlock()

	// Subscribed outside the lock: delivery is synchronous and the handler
	// locks s.mu itself.
	s.unsubscribe = s.store.Subscribe(s.onStoreEvent)
	return nil
}

// ExitSettingsMode destroys the draft without saving and clears any preview
// so the committed state shows again. A save still in flight will find the
// session generation changed and discard its result.
func (s *Session) ExitSettingsMode() {
	s.mu.Lock()
	if s.state == StateInactive {
		s.mu.Unlock()
		return
	}
	s.state = StateInactive
	s.draft = models.ThemeSettings{}
	s.generation++
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	s.store.ClearPreview()
}

// UpdateMode sets the draft's mode and previews it.
func (s *Session) UpdateMode(mode models.Mode) error {
	return s.updateDraft(func(draft *models.ThemeSettings) {
		draft.Mode = mode
	})
}

// UpdateLightTheme sets the draft's light color set and previews it.
func (s *Session) UpdateLightTheme(colors models.ThemeColorSet) error {
	return s.updateDraft(func(draft *models.ThemeSettings) {
		draft.LightTheme = colors
	})
}

// UpdateDarkTheme sets the draft's dark color set and previews it.
func (s *Session) UpdateDarkTheme(colors models.ThemeColorSet) error {
	return s.updateDraft(func(draft *models.ThemeSettings) {
		draft.DarkTheme = colors
	})
}

// UpdateBackgroundImage sets the draft's background image and previews it.
func (s *Session) UpdateBackgroundImage(image *string) error {
	return s.updateDraft(func(draft *models.ThemeSettings) {
		if image != nil {
			imageCopy := *image
			draft.BackgroundImage = &imageCopy
		} else {
			draft.BackgroundImage = nil
		}
	})
}

// UpdateBackgroundOpacity sets the draft's background opacity and previews it.
func (s *Session) UpdateBackgroundOpacity(opacity float64) error {
	return s.updateDraft(func(draft *models.ThemeSettings) {
		draft.BackgroundOpacity = opacity
	})
}

// UpdateAutoDim sets the draft's auto-dim flag and previews it.
func (s *Session) UpdateAutoDim(enabled bool) error {
	return s.updateDraft(func(draft *models.ThemeSettings) {
		draft.AutoDimDark = enabled
	})
}

// ApplyDraft replaces the whole draft at once (import and share-link paths)
// and previews it.
func (s *Session) ApplyDraft(settings models.ThemeSettings) error {
	return s.updateDraft(func(draft *models.ThemeSettings) {
		*draft = settings.Clone()
	})
}

// SaveChanges persists the draft through the resolver. A clean session is a
// no-op. A second save while one is pending is rejected with ErrSaveInFlight.
// On failure the draft and dirty state are preserved so the user can retry;
// on success the draft is promoted to the committed baseline and the session
// returns to clean.
func (s *Session) SaveChanges(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateInactive {
		s.mu.Unlock()
		return ErrSessionInactive
	}
	if s.state == StateActiveClean {
		s.mu.Unlock()
		return nil
	}
	if s.saving {
		s.mu.Unlock()
		return ErrSaveInFlight
	}
	s.saving = true
	draft := s.draft.Clone()
	generation := s.generation
	s.mu.Unlock()

	err := s.resolver.Save(ctx, draft, TargetUser)

	s.mu.Lock()
	s.saving = false
	if s.generation != generation {
		// The session exited or restarted while the save was in flight. The
		// write may have landed, but a stale result must not touch current
		// state; the refresh path reconciles it.
		s.mu.Unlock()
		s.logger.Debug().Msg("Discarding stale save result")
		return err
	}
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn().Err(err).Msg("Theme save failed, draft preserved")
		return err
	}
	s.committed = draft.Clone()
	s.state = StateActiveClean
	s.mu.Unlock()

	s.store.SetCommitted(draft)
	return nil
}

// DiscardChanges restores the draft from the committed baseline and snaps the
// live preview back to it.
func (s *Session) DiscardChanges() error {
	s.mu.Lock()
	if s.state == StateInactive {
		s.mu.Unlock()
		return ErrSessionInactive
	}
	s.draft = s.committed.Clone()
	s.state = StateActiveClean
	s.mu.Unlock()

	s.store.ClearPreview()
	return nil
}

// ResetToDefaults loads the admin default (else factory default) into the
// draft and previews it. Dirtiness is computed against the original committed
// baseline: a reset that happens to equal it stays clean.
func (s *Session) ResetToDefaults(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateInactive {
		s.mu.Unlock()
		return ErrSessionInactive
	}
	s.mu.Unlock()

	defaults := s.resolver.Defaults(ctx)
	return s.ApplyDraft(defaults)
}

func (s *Session) updateDraft(mutate func(*models.ThemeSettings)) error {
	s.mu.Lock()
	if s.state == StateInactive {
		s.mu.Unlock()
		return ErrSessionInactive
	}
	mutate(&s.draft)
	s.recomputeDirtyLocked()
	draft := s.draft.Clone()
	s.mu.Unlock()

	s.previewDraft(draft)
	return nil
}

// previewDraft pushes the full draft into the store overlay so the live UI
// reflects the edit before save.
func (s *Session) previewDraft(draft models.ThemeSettings) {
	s.store.PreviewTheme(draft.LightTheme, models.ModeLight)
	s.store.PreviewTheme(draft.DarkTheme, models.ModeDark)
	s.store.PreviewTheme(draft.ActiveColors(), draft.Mode)
	s.store.PreviewBackground(draft.BackgroundImage, draft.BackgroundOpacity)
	s.store.PreviewAutoDim(draft.AutoDimDark)
}

func (s *Session) recomputeDirtyLocked() {
	if s.draft.Equal(s.committed) {
		s.state = StateActiveClean
	} else {
		s.state = StateActiveDirty
	}
}

// onStoreEvent reconciles external committed changes with the session. While
// clean the baseline and draft re-snapshot transparently; while dirty the
// draft is preserved and dirtiness is recomputed against the new baseline
// (last writer wins at save time, not at observe time).
func (s *Session) onStoreEvent(event Event) {
	if event.Type != EventCommitted || event.Source != SourceExternal {
		return
	}

	s.mu.Lock()
	if s.state == StateInactive {
		s.mu.Unlock()
		return
	}
	s.committed = event.Settings.Clone()
	if s.state == StateActiveClean {
		s.draft = s.committed.Clone()
		s.mu.Unlock()
		return
	}
	s.recomputeDirtyLocked()
	stillDirty := s.state == StateActiveDirty
	draft := s.draft.Clone()
	s.mu.Unlock()

	// The external commit wiped the store's preview overlay. Re-preview the
	// draft, outside s.mu: previewDraft re-enters the store and the bus.
	if stillDirty {
		s.previewDraft(draft)
	}
}
