// Package wayfind provides the public API for the Wayfind navigation
// engine: a framework-agnostic router that runs an ordered pipeline of
// lifecycle guards and middleware for every transition and commits the
// result as its current state.
//
// Example:
//
//	table := routes.NewTable(false)
//	table.Add("home", "/home")
//	table.Add("admin", "/admin")
//
//	router := wayfind.New(table,
//	    wayfind.WithOptions(types.Options{DefaultRoute: "home"}),
//	)
//	state, err := router.Start(ctx, "")
package wayfind

import (
	"context"
	"log/slog"

	"github.com/mesh-intelligence/wayfind/internal/engine"
	"github.com/mesh-intelligence/wayfind/pkg/types"
)

// Router is the assembled navigation engine. All methods are safe for
// concurrent use; navigation is last-writer-wins, a new transition
// cancels the in-flight one.
type Router struct {
	engine *engine.Engine
}

// Option configures a Router at construction time.
type Option func(*config)

type config struct {
	options   types.Options
	logger    *slog.Logger
	observers []types.Observer
}

// WithOptions seeds the router options. Omitted fields keep their
// zero values; use types.DefaultOptions as a base.
func WithOptions(options types.Options) Option {
	return func(cfg *config) {
		cfg.options = options
	}
}

// WithLogger sets the router's structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithObserver subscribes an observer to router notifications.
func WithObserver(observer types.Observer) Option {
	return func(cfg *config) {
		cfg.observers = append(cfg.observers, observer)
	}
}

// New builds a Router over a route resolver.
func New(resolver types.RouteResolver, opts ...Option) *Router {
	cfg := &config{options: types.DefaultOptions()}
	for _, opt := range opts {
		opt(cfg)
	}

	e := engine.New(engine.Config{
		Resolver: resolver,
		Options:  cfg.options,
		Logger:   cfg.logger,
	})
	for _, observer := range cfg.observers {
		e.Subscribe(observer)
	}

	return &Router{engine: e}
}

// Start runs the initial transition. An empty path starts at the
// configured default route. The router counts as started only once the
// transition commits; a failed start leaves it fully stopped.
func (r *Router) Start(ctx context.Context, path string) (*types.State, error) {
	return r.engine.Start(ctx, path)
}

// Stop halts the router, cancels any in-flight transition, and clears
// the current state. Idempotent.
func (r *Router) Stop() {
	r.engine.Stop()
}

// IsStarted reports whether the first transition has committed.
func (r *Router) IsStarted() bool { return r.engine.IsStarted() }

// IsActive reports whether the router is starting or running.
func (r *Router) IsActive() bool { return r.engine.IsActive() }

// State returns the current committed state, nil before the first
// commit. The returned state must not be mutated.
func (r *Router) State() *types.State { return r.engine.State() }

// Navigate moves the router to a named route.
func (r *Router) Navigate(ctx context.Context, name string, params map[string]string, opts types.NavigationOptions) (*types.State, error) {
	return r.engine.Navigate(ctx, name, params, opts)
}

// NavigateToDefault moves the router to the configured default route.
func (r *Router) NavigateToDefault(ctx context.Context, opts types.NavigationOptions) (*types.State, error) {
	return r.engine.NavigateToDefault(ctx, opts)
}

// CanActivate registers an activation guard for a segment.
func (r *Router) CanActivate(name string, handler types.Handler) error {
	return r.engine.RegisterGuard(types.KindActivate, name, handler)
}

// CanDeactivate registers a deactivation guard for a segment.
func (r *Router) CanDeactivate(name string, handler types.Handler) error {
	return r.engine.RegisterGuard(types.KindDeactivate, name, handler)
}

// ClearCanActivate removes an activation guard. The boolean reports
// whether an entry existed.
func (r *Router) ClearCanActivate(name string) (bool, error) {
	return r.engine.ClearGuard(types.KindActivate, name)
}

// ClearCanDeactivate removes a deactivation guard.
func (r *Router) ClearCanDeactivate(name string) (bool, error) {
	return r.engine.ClearGuard(types.KindDeactivate, name)
}

// UseMiddleware builds and appends middleware from factories, in order.
// Factories receive a read-only view of this router.
func (r *Router) UseMiddleware(factories ...types.MiddlewareFactory) {
	for _, factory := range factories {
		if factory == nil {
			continue
		}
		r.engine.UseMiddleware(factory(r))
	}
}

// Subscribe attaches an observer to router notifications.
func (r *Router) Subscribe(observer types.Observer) {
	r.engine.Subscribe(observer)
}

// Options returns the current options snapshot.
func (r *Router) Options() types.Options { return r.engine.Options() }

// SetOption replaces one option by key. While the router is started,
// only the runtime-safe keys (defaultRoute, defaultParams,
// allowNotFound) may change.
func (r *Router) SetOption(key string, value any) error {
	return r.engine.SetOption(key, value)
}

var _ types.RouterView = (*Router)(nil)
