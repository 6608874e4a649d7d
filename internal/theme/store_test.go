package theme

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/lucentchat/lucent/internal/models"
	"github.com/lucentchat/lucent/internal/settings"
)

func newTestStore(t *testing.T) (*Store, *Resolver, *settings.MemoryStore) {
	t.Helper()
	backend := settings.NewMemoryStore()
	resolver := NewResolver(backend, backend, "user-1", zerolog.Nop())
	bus := NewBus(zerolog.Nop())
	return NewStore(bus, resolver, zerolog.Nop()), resolver, backend
}

func TestStoreInitializeFromBackend(t *testing.T) {
	store, _, backend := newTestStore(t)
	ctx := context.Background()

	saved := models.DefaultThemeSettings()
	saved.Mode = models.ModeDark
	backend.WriteSetting(ctx, "user-1", settings.KeyThemeSettings, mustSerialize(t, saved))

	if store.GetState().IsReady {
		t.Fatalf("store ready before Initialize")
	}

	state := store.Initialize(ctx, nil, false)
	if !state.IsReady {
		t.Fatalf("store not ready after Initialize")
	}
	if state.Mode != models.ModeDark {
		t.Fatalf("mode = %q, want dark from backend", state.Mode)
	}
}

func TestStoreInitializeIdempotent(t *testing.T) {
	store, _, backend := newTestStore(t)
	ctx := context.Background()

	first := store.Initialize(ctx, nil, false)

	// A record written after the first load is not picked up without
	// forceReinit.
	changed := models.DefaultThemeSettings()
	changed.Mode = models.ModeDark
	backend.WriteSetting(ctx, "user-1", settings.KeyThemeSettings, mustSerialize(t, changed))

	second := store.Initialize(ctx, nil, false)
	if second.Mode != first.Mode {
		t.Fatalf("second Initialize reloaded: mode %q, want %q", second.Mode, first.Mode)
	}

	forced := store.Initialize(ctx, nil, true)
	if forced.Mode != models.ModeDark {
		t.Fatalf("forceReinit mode = %q, want dark", forced.Mode)
	}
}

func TestStoreInitializeConcurrent(t *testing.T) {
	store, _, _ := newTestStore(t)

	var events int
	store.Subscribe(func(event Event) {
		if event.Type == EventCommitted && event.Source == SourceInit {
			events++
		}
	})

	var wg sync.WaitGroup
	states := make([]State, 8)
	for i := range states {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			states[i] = store.Initialize(context.Background(), nil, false)
		}(i)
	}
	wg.Wait()

	for i, state := range states {
		if !state.IsReady {
			t.Fatalf("caller %d got unready state", i)
		}
		if !state.ThemeSettings.Equal(states[0].ThemeSettings) {
			t.Fatalf("caller %d got divergent state", i)
		}
	}
	if events != 1 {
		t.Fatalf("init events = %d, want 1 (collapsed load)", events)
	}
}

func TestStoreInitializeFailureFallsBackReady(t *testing.T) {
	store, _, backend := newTestStore(t)
	backend.FailReads = true

	state := store.Initialize(context.Background(), nil, false)
	if !state.IsReady {
		t.Fatalf("store must become ready even when load fails")
	}
	if !state.ThemeSettings.Equal(models.DefaultThemeSettings()) {
		t.Fatalf("state = %+v, want factory defaults", state.ThemeSettings)
	}
}

func TestPreviewDoesNotPersist(t *testing.T) {
	store, _, backend := newTestStore(t)
	ctx := context.Background()
	store.Initialize(ctx, nil, false)

	colors := models.DefaultThemeSettings().LightTheme
	colors.AccentColor = "#123456"
	store.PreviewTheme(colors, models.ModeLight)

	if got := store.GetState().LightTheme.AccentColor; got != "#123456" {
		t.Fatalf("previewed accent = %q, want #123456", got)
	}
	if got := store.Committed().LightTheme.AccentColor; got == "#123456" {
		t.Fatalf("preview leaked into committed state")
	}
	record, err := backend.FetchAllSettings(ctx, "user-1")
	if err != nil {
		t.Fatalf("FetchAllSettings() error = %v", err)
	}
	if len(record) != 0 {
		t.Fatalf("preview persisted %v, want nothing", record)
	}
}

func TestPreviewIdempotent(t *testing.T) {
	store, _, _ := newTestStore(t)
	store.Initialize(context.Background(), nil, false)

	colors := models.DefaultThemeSettings().DarkTheme
	colors.PrimaryColor = "#ff0000"

	store.PreviewTheme(colors, models.ModeDark)
	once := store.GetState()
	store.PreviewTheme(colors, models.ModeDark)
	twice := store.GetState()

	if !once.ThemeSettings.Equal(twice.ThemeSettings) {
		t.Fatalf("repeated preview changed effective state")
	}
}

func TestPreviewBackgroundOverlay(t *testing.T) {
	store, _, _ := newTestStore(t)
	store.Initialize(context.Background(), nil, false)

	image := "https://cdn.example.com/bg.png"
	store.PreviewBackground(&image, 0.3)

	state := store.GetState()
	if state.BackgroundImage == nil || *state.BackgroundImage != image {
		t.Fatalf("previewed image not visible in state")
	}
	if state.BackgroundOpacity != 0.3 {
		t.Fatalf("previewed opacity = %v, want 0.3", state.BackgroundOpacity)
	}

	store.ClearPreview()
	state = store.GetState()
	if state.BackgroundImage != nil {
		t.Fatalf("ClearPreview left background image set")
	}
}

func TestCommitClearsPreviewAndNotifies(t *testing.T) {
	store, _, _ := newTestStore(t)
	store.Initialize(context.Background(), nil, false)

	var committedEvents int
	store.Subscribe(func(event Event) {
		if event.Type == EventCommitted && event.Source == SourceSave {
			committedEvents++
		}
	})

	colors := models.DefaultThemeSettings().LightTheme
	colors.AccentColor = "#654321"
	store.PreviewTheme(colors, models.ModeLight)

	saved := store.Committed()
	saved.LightTheme = colors
	store.SetCommitted(saved)

	state := store.GetState()
	if state.LightTheme.AccentColor != "#654321" {
		t.Fatalf("committed accent = %q, want #654321", state.LightTheme.AccentColor)
	}
	if committedEvents != 1 {
		t.Fatalf("committed events = %d, want 1", committedEvents)
	}

	// The overlay is gone: committed state is what shows.
	if got := store.Committed(); !got.Equal(state.ThemeSettings) {
		t.Fatalf("effective state still differs from committed after commit")
	}
}

func TestApplyExternalSkipsNoOp(t *testing.T) {
	store, _, _ := newTestStore(t)
	store.Initialize(context.Background(), nil, false)

	var externalEvents int
	store.Subscribe(func(event Event) {
		if event.Source == SourceExternal {
			externalEvents++
		}
	})

	store.ApplyExternal(store.Committed())
	if externalEvents != 0 {
		t.Fatalf("no-op external apply published %d events, want 0", externalEvents)
	}

	changed := store.Committed()
	changed.Mode = models.ModeDark
	store.ApplyExternal(changed)
	if externalEvents != 1 {
		t.Fatalf("external events = %d, want 1", externalEvents)
	}
}

func TestFieldCommitOps(t *testing.T) {
	store, _, _ := newTestStore(t)
	store.Initialize(context.Background(), nil, false)

	image := "https://cdn.example.com/bg.png"

	store.SetMode(models.ModeDark)
	store.SetBackgroundImage(&image)
	store.SetBackgroundOpacity(0.5)

	state := store.GetState()
	if state.Mode != models.ModeDark {
		t.Fatalf("mode = %q, want dark", state.Mode)
	}
	if state.BackgroundImage == nil || *state.BackgroundImage != image {
		t.Fatalf("background image not committed")
	}
	if state.BackgroundOpacity != 0.5 {
		t.Fatalf("background opacity = %v, want 0.5", state.BackgroundOpacity)
	}
}
