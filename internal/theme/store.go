// internal/theme/store.go
package theme

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/lucentchat/lucent/internal/models"
)

// State is the synchronous read shape of the store: committed settings merged
// with any active preview overlay, per field.
type State struct {
	models.ThemeSettings
	IsReady bool `json:"isReady"`
}

// Loader supplies the committed settings during initialization. Resolver
// satisfies it.
type Loader interface {
	Load(ctx context.Context) models.ThemeSettings
}

// previewOverlay holds transient per-field overrides. A nil field means the
// committed value shows through.
type previewOverlay struct {
	mode       *models.Mode
	light      *models.ThemeColorSet
	dark       *models.ThemeColorSet
	background *models.BackgroundConfig
}

func (p previewOverlay) empty() bool {
	return p.mode == nil && p.light == nil && p.dark == nil && p.background == nil
}

// Store is the single source of truth for the committed theme and the active
// preview overlay. It is constructed explicitly and injected; there is no
// package-level instance.
type Store struct {
	mu        sync.Mutex
	committed models.ThemeSettings
	preview   previewOverlay
	ready     bool

	bus       *Bus
	loader    Loader
	initGroup singleflight.Group
	logger    zerolog.Logger
}

// NewStore creates a store holding factory defaults, not yet ready. Call
// Initialize before serving reads that need persisted state; reads before
// that see the defaults with IsReady false.
func NewStore(bus *Bus, loader Loader, logger zerolog.Logger) *Store {
	return &Store{
		committed: models.DefaultThemeSettings(),
		bus:       bus,
		loader:    loader,
		logger:    logger.With().Str("component", "theme_store").Logger(),
	}
}

// Initialize loads committed state from the best-available source and marks
// the store ready. It is idempotent unless forceReinit is set, and concurrent
// calls collapse into a single load: every caller observes the same resolved
// state. The loader never fails (it bottoms out at factory defaults), so the
// store always becomes ready.
func (s *Store) Initialize(ctx context.Context, userSettings *models.ThemeSettings, forceReinit bool) State {
	s.mu.Lock()
	if s.ready && !forceReinit {
		state := s.stateLocked()
		s.mu.Unlock()
		return state
	}
	if forceReinit {
		// Reset the flight group key by forgetting prior results.
		s.initGroup.Forget("init")
	}
	s.mu.Unlock()

	result, _, _ := s.initGroup.Do("init", func() (any, error) {
		var loaded models.ThemeSettings
		if userSettings != nil {
			loaded = userSettings.Clone()
			if err := loaded.Validate(); err != nil {
				s.logger.Warn().Err(err).Msg("Provided settings invalid, loading from resolver")
				loaded = s.loader.Load(ctx)
			}
		} else {
			loaded = s.loader.Load(ctx)
		}

		s.mu.Lock()
		s.committed = loaded
		s.preview = previewOverlay{}
		s.ready = true
		state := s.stateLocked()
		s.mu.Unlock()

		s.bus.Publish(Event{Type: EventCommitted, Source: SourceInit, Settings: state.ThemeSettings})
		return state, nil
	})
	return result.(State)
}

// GetState returns the committed state merged with any active preview fields.
func (s *Store) GetState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Committed returns the committed settings with no preview applied.
func (s *Store) Committed() models.ThemeSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committed.Clone()
}

// Subscribe registers a listener for committed and preview changes.
func (s *Store) Subscribe(listener Listener) (unsubscribe func()) {
	return s.bus.Subscribe(listener)
}

// PreviewTheme overlays a color set for the given mode and makes that mode
// the previewed one. Nothing is persisted. Applying the same preview twice is
// idempotent.
func (s *Store) PreviewTheme(colors models.ThemeColorSet, mode models.Mode) {
	s.mu.Lock()
	colorsCopy := colors
	modeCopy := mode
	if mode == models.ModeDark {
		s.preview.dark = &colorsCopy
	} else {
		s.preview.light = &colorsCopy
	}
	s.preview.mode = &modeCopy
	state := s.stateLocked()
	s.mu.Unlock()

	s.bus.Publish(Event{Type: EventPreview, Source: SourcePreview, Settings: state.ThemeSettings})
}

// PreviewBackground overlays the background image and opacity without
// persisting.
func (s *Store) PreviewBackground(image *string, opacity float64) {
	s.mu.Lock()
	background := models.BackgroundConfig{Opacity: opacity}
	if image != nil {
		imageCopy := *image
		background.Image = &imageCopy
	}
	if s.preview.background != nil {
		background.AutoDimDark = s.preview.background.AutoDimDark
	} else {
		background.AutoDimDark = s.committed.AutoDimDark
	}
	s.preview.background = &background
	state := s.stateLocked()
	s.mu.Unlock()

	s.bus.Publish(Event{Type: EventPreview, Source: SourcePreview, Settings: state.ThemeSettings})
}

// PreviewAutoDim overlays the auto-dim-in-dark-mode flag, keeping whatever
// background image and opacity are already showing.
func (s *Store) PreviewAutoDim(enabled bool) {
	s.mu.Lock()
	background := models.BackgroundConfig{
		Opacity: s.committed.BackgroundOpacity,
	}
	if s.preview.background != nil {
		background = *s.preview.background
	} else if s.committed.BackgroundImage != nil {
		imageCopy := *s.committed.BackgroundImage
		background.Image = &imageCopy
	}
	background.AutoDimDark = enabled
	s.preview.background = &background
	state := s.stateLocked()
	s.mu.Unlock()

	s.bus.Publish(Event{Type: EventPreview, Source: SourcePreview, Settings: state.ThemeSettings})
}

// ClearPreview drops the whole overlay so the committed state shows again.
func (s *Store) ClearPreview() {
	s.mu.Lock()
	if s.preview.empty() {
		s.mu.Unlock()
		return
	}
	s.preview = previewOverlay{}
	state := s.stateLocked()
	s.mu.Unlock()

	s.bus.Publish(Event{Type: EventPreview, Source: SourcePreview, Settings: state.ThemeSettings})
}

// SetCommitted promotes a fully saved settings record to committed state,
// clears the preview overlay, and notifies subscribers. Only the persistence
// path calls this, after a successful write.
func (s *Store) SetCommitted(settings models.ThemeSettings) {
	s.applyCommitted(settings, SourceSave)
}

// ApplyExternal records a committed-state change observed from another
// session or tab.
func (s *Store) ApplyExternal(settings models.ThemeSettings) {
	s.applyCommitted(settings, SourceExternal)
}

// SetMode commits a mode change and clears any mode preview.
func (s *Store) SetMode(mode models.Mode) {
	s.mu.Lock()
	s.committed.Mode = mode
	s.preview.mode = nil
	state := s.stateLocked()
	s.mu.Unlock()

	s.bus.Publish(Event{Type: EventCommitted, Source: SourceSave, Settings: state.ThemeSettings})
}

// SetLightTheme commits the light color set and clears its preview.
func (s *Store) SetLightTheme(colors models.ThemeColorSet) {
	s.mu.Lock()
	s.committed.LightTheme = colors
	s.preview.light = nil
	state := s.stateLocked()
	s.mu.Unlock()

	s.bus.Publish(Event{Type: EventCommitted, Source: SourceSave, Settings: state.ThemeSettings})
}

// SetDarkTheme commits the dark color set and clears its preview.
func (s *Store) SetDarkTheme(colors models.ThemeColorSet) {
	s.mu.Lock()
	s.committed.DarkTheme = colors
	s.preview.dark = nil
	state := s.stateLocked()
	s.mu.Unlock()

	s.bus.Publish(Event{Type: EventCommitted, Source: SourceSave, Settings: state.ThemeSettings})
}

// SetBackgroundImage commits the background image and clears the background
// preview.
func (s *Store) SetBackgroundImage(image *string) {
	s.mu.Lock()
	if image != nil {
		imageCopy := *image
		s.committed.BackgroundImage = &imageCopy
	} else {
		s.committed.BackgroundImage = nil
	}
	s.preview.background = nil
	state := s.stateLocked()
	s.mu.Unlock()

	s.bus.Publish(Event{Type: EventCommitted, Source: SourceSave, Settings: state.ThemeSettings})
}

// SetBackgroundOpacity commits the background opacity and clears the
// background preview.
func (s *Store) SetBackgroundOpacity(opacity float64) {
	s.mu.Lock()
	s.committed.BackgroundOpacity = opacity
	s.preview.background = nil
	state := s.stateLocked()
	s.mu.Unlock()

	s.bus.Publish(Event{Type: EventCommitted, Source: SourceSave, Settings: state.ThemeSettings})
}

func (s *Store) applyCommitted(settings models.ThemeSettings, source Source) {
	s.mu.Lock()
	if source == SourceExternal && s.committed.Equal(settings) {
		s.mu.Unlock()
		return
	}
	s.committed = settings.Clone()
	s.preview = previewOverlay{}
	state := s.stateLocked()
	s.mu.Unlock()

	s.bus.Publish(Event{Type: EventCommitted, Source: source, Settings: state.ThemeSettings})
}

// stateLocked merges committed with the preview overlay. Caller holds mu.
func (s *Store) stateLocked() State {
	effective := s.committed.Clone()
	if s.preview.mode != nil {
		effective.Mode = *s.preview.mode
	}
	if s.preview.light != nil {
		effective.LightTheme = *s.preview.light
	}
	if s.preview.dark != nil {
		effective.DarkTheme = *s.preview.dark
	}
	if s.preview.background != nil {
		if s.preview.background.Image != nil {
			imageCopy := *s.preview.background.Image
			effective.BackgroundImage = &imageCopy
		} else {
			effective.BackgroundImage = nil
		}
		effective.BackgroundOpacity = s.preview.background.Opacity
		effective.AutoDimDark = s.preview.background.AutoDimDark
	}
	return State{ThemeSettings: effective, IsReady: s.ready}
}
