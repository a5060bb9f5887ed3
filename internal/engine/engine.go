package engine

import (
	"context"
	"log/slog"
	"sync"

	"go.uber.org/atomic"

	"github.com/mesh-intelligence/wayfind/pkg/types"
)

// Config carries the engine's collaborators and initial options.
type Config struct {
	Resolver types.RouteResolver
	Options  types.Options
	Logger   *slog.Logger
}

// Engine is the assembled navigation core. Construction order follows
// the ownership rule: the coordinator is built first and given a narrow
// is-active capability; the lifecycle owns the flags and never hands
// itself to the coordinator.
type Engine struct {
	logger      *slog.Logger
	resolver    types.RouteResolver
	store       *OptionsStore
	registry    *Registry
	dispatcher  *Dispatcher
	pipeline    *Pipeline
	coordinator *Coordinator
	lifecycle   *Lifecycle

	middlewareMu sync.RWMutex
	middleware   []types.Middleware
}

// New assembles an engine around a route resolver.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		logger:     logger,
		resolver:   cfg.Resolver,
		store:      NewOptionsStore(cfg.Options),
		registry:   NewRegistry(logger),
		dispatcher: NewDispatcher(logger),
	}

	e.pipeline = NewPipeline(e.registry, e.resolver, e.store, e.middlewareChain, logger)

	started := atomic.NewBool(false)
	active := atomic.NewBool(false)

	e.coordinator = NewCoordinator(e.resolver, e.store, e.pipeline, e.dispatcher,
		func() bool { return active.Load() }, logger)
	e.lifecycle = NewLifecycle(started, active, e.coordinator, e.resolver, e.store, e.dispatcher, logger)

	return e
}

// Start runs the initial transition; an empty path starts at the
// configured default route.
func (e *Engine) Start(ctx context.Context, path string) (*types.State, error) {
	return e.lifecycle.Start(ctx, path)
}

// Stop halts the router and cancels any in-flight transition.
func (e *Engine) Stop() {
	e.lifecycle.Stop()
}

func (e *Engine) IsStarted() bool { return e.lifecycle.IsStarted() }
func (e *Engine) IsActive() bool  { return e.lifecycle.IsActive() }

// State returns the current committed state, nil before the first
// commit and after Stop.
func (e *Engine) State() *types.State {
	return e.coordinator.State()
}

// Navigate moves the router to a named route.
func (e *Engine) Navigate(ctx context.Context, name string, params map[string]string, opts types.NavigationOptions) (*types.State, error) {
	return e.coordinator.Navigate(ctx, name, params, opts)
}

// NavigateToDefault moves the router to the configured default route.
func (e *Engine) NavigateToDefault(ctx context.Context, opts types.NavigationOptions) (*types.State, error) {
	return e.coordinator.NavigateToDefault(ctx, opts)
}

// RegisterGuard registers a lifecycle guard for a segment.
func (e *Engine) RegisterGuard(kind types.GuardKind, name string, handler types.Handler) error {
	return e.registry.Register(kind, name, handler)
}

// ClearGuard removes a lifecycle guard. The boolean reports whether an
// entry existed.
func (e *Engine) ClearGuard(kind types.GuardKind, name string) (bool, error) {
	return e.registry.Clear(kind, name)
}

// HasGuard reports whether a guard is registered.
func (e *Engine) HasGuard(kind types.GuardKind, name string) bool {
	return e.registry.Has(kind, name)
}

// Subscribe attaches an observer to router notifications.
func (e *Engine) Subscribe(observer types.Observer) {
	e.dispatcher.Subscribe(observer)
}

// UseMiddleware appends middleware to the chain in registration order.
func (e *Engine) UseMiddleware(middleware ...types.Middleware) {
	e.middlewareMu.Lock()
	e.middleware = append(e.middleware, middleware...)
	e.middlewareMu.Unlock()
}

// Options returns the current options snapshot.
func (e *Engine) Options() types.Options {
	return e.store.Get()
}

// SetOption replaces one option by key, subject to the store's lock.
func (e *Engine) SetOption(key string, value any) error {
	return e.store.Set(key, value)
}

// GuardCount returns the combined guard registry size.
func (e *Engine) GuardCount() int {
	return e.registry.Size()
}

func (e *Engine) middlewareChain() []types.Middleware {
	e.middlewareMu.RLock()
	defer e.middlewareMu.RUnlock()
	out := make([]types.Middleware, len(e.middleware))
	copy(out, e.middleware)
	return out
}
