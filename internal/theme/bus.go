// internal/theme/bus.go

// Package theme implements the draft/preview theme-settings engine: a store
// for the committed theme with a transient preview overlay, a settings-mode
// draft session with dirty tracking, tiered persistence resolution, and a
// synchronous change-notification bus.
package theme

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/lucentchat/lucent/internal/models"
)

// EventType classifies a state transition published on the bus.
type EventType string

const (
	// EventCommitted fires when the committed theme changes: after a
	// successful save, on initialization, or when an external update from
	// another session is observed.
	EventCommitted EventType = "theme.committed"
	// EventPreview fires when the transient preview overlay changes. Nothing
	// has been persisted.
	EventPreview EventType = "theme.preview"
)

// Source says which path produced an event.
type Source string

const (
	SourceInit     Source = "init"
	SourceSave     Source = "save"
	SourcePreview  Source = "preview"
	SourceExternal Source = "external"
)

// Event carries the effective settings after a state transition.
type Event struct {
	Type     EventType
	Source   Source
	Settings models.ThemeSettings
}

// Listener is a bus callback. Delivery is synchronous on the goroutine that
// produced the change; a listener that blocks delays the others.
type Listener func(Event)

type listenerEntry struct {
	id       uint64
	listener Listener
}

// Bus fans state transitions out to subscribers. A panicking subscriber is
// logged and does not stop delivery to the rest. Subscribe and unsubscribe
// are safe to call from inside a listener.
type Bus struct {
	mu        sync.Mutex
	listeners []listenerEntry
	nextID    uint64
	logger    zerolog.Logger
}

// NewBus creates an empty bus.
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{logger: logger}
}

// Subscribe registers a listener and returns its unsubscribe function.
// Unsubscribing twice is harmless.
func (b *Bus) Subscribe(listener Listener) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners = append(b.listeners, listenerEntry{id: id, listener: listener})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, entry := range b.listeners {
			if entry.id == id {
				b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers the event synchronously to every subscriber registered at
// the time of the call. Listeners run outside the bus lock, so they may
// subscribe or unsubscribe without deadlocking.
func (b *Bus) Publish(event Event) {
	b.mu.Lock()
	snapshot := make([]listenerEntry, len(b.listeners))
	copy(snapshot, b.listeners)
	b.mu.Unlock()

	for _, entry := range snapshot {
		b.safeCall(entry.listener, event)
	}
}

// SubscriberCount reports the current number of subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

func (b *Bus) safeCall(listener Listener, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Str("event_type", string(event.Type)).
				Str("source", string(event.Source)).
				Interface("panic", r).
				Msg("Theme listener panicked")
		}
	}()
	listener(event)
}
