package themes

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lucentchat/lucent/internal/settings"
	"github.com/lucentchat/lucent/internal/theme"
)

// Engine bundles the per-user theme machinery: the event bus, the live
// state store and the persistence resolver. Draft sessions are a client-side
// concern; the HTTP save path is stateless.
type Engine struct {
	Bus      *theme.Bus
	Store    *theme.Store
	Resolver *theme.Resolver
}

// Registry lazily builds and caches one Engine per user. The empty user ID
// maps to the unauthenticated engine backed by the local fallback store.
type Registry struct {
	backend settings.Backend
	local   settings.LocalStore
	logger  zerolog.Logger

	mu      sync.Mutex
	engines map[string]*Engine
}

func NewRegistry(backend settings.Backend, local settings.LocalStore, logger zerolog.Logger) *Registry {
	return &Registry{
		backend: backend,
		local:   local,
		logger:  logger,
		engines: make(map[string]*Engine),
	}
}

// EngineFor returns the engine for the given user, building and
// initializing it on first use.
func (reg *Registry) EngineFor(ctx context.Context, userID string) *Engine {
	reg.mu.Lock()
	if engine, ok := reg.engines[userID]; ok {
		reg.mu.Unlock()
		return engine
	}

	bus := theme.NewBus(reg.logger)
	resolver := theme.NewResolver(reg.backend, reg.local, userID, reg.logger)
	store := theme.NewStore(bus, resolver, reg.logger)
	engine := &Engine{Bus: bus, Store: store, Resolver: resolver}
	reg.engines[userID] = engine
	reg.mu.Unlock()

	// Initialize outside the registry lock; the store's own singleflight
	// guard collapses concurrent first requests for the same user.
	store.Initialize(ctx, nil, false)
	return engine
}

// Reconcile runs one external-update reconciliation pass over every cached
// engine. The background refresh job calls this on its schedule.
func (reg *Registry) Reconcile(ctx context.Context) {
	reg.mu.Lock()
	engines := make([]*Engine, 0, len(reg.engines))
	for _, engine := range reg.engines {
		engines = append(engines, engine)
	}
	reg.mu.Unlock()

	for _, engine := range engines {
		theme.StoreReconciler{Store: engine.Store, Resolver: engine.Resolver}.Reconcile(ctx)
	}
}
