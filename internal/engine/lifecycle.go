package engine

import (
	"context"
	"log/slog"

	"go.uber.org/atomic"

	"github.com/mesh-intelligence/wayfind/pkg/types"
)

// Lifecycle is the router state machine: stopped, starting, started.
// "Starting" is active=true, started=false. The active flag doubles as
// the cancellation oracle every in-flight transition checks; flipping it
// off cancels them all.
type Lifecycle struct {
	started *atomic.Bool
	active  *atomic.Bool

	coordinator *Coordinator
	resolver    types.RouteResolver
	store       *OptionsStore
	dispatcher  *Dispatcher
	logger      *slog.Logger

	// errAlreadyStarted is allocated once; rejecting a concurrent start
	// must not allocate per call.
	errAlreadyStarted error
}

// NewLifecycle wires the lifecycle over the coordinator. The returned
// component owns the started/active flags; the coordinator reads active
// through the capability function given to it at construction.
func NewLifecycle(started, active *atomic.Bool, coordinator *Coordinator, resolver types.RouteResolver, store *OptionsStore, dispatcher *Dispatcher, logger *slog.Logger) *Lifecycle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lifecycle{
		started:           started,
		active:            active,
		coordinator:       coordinator,
		resolver:          resolver,
		store:             store,
		dispatcher:        dispatcher,
		logger:            logger,
		errAlreadyStarted: types.NewError(types.ErrCodeAlreadyStarted, "router already started", nil),
	}
}

// IsStarted reports whether the first transition has committed.
func (l *Lifecycle) IsStarted() bool {
	return l.started.Load()
}

// IsActive reports whether the router is starting or running.
func (l *Lifecycle) IsActive() bool {
	return l.active.Load()
}

// Start resolves a start state and runs the initial transition. The
// started flag and the router-start notification are deferred until the
// transition commits; on any failure the router is left fully stopped,
// never partially started.
func (l *Lifecycle) Start(ctx context.Context, path string) (*types.State, error) {
	if l.started.Load() || l.active.Load() {
		return nil, l.errAlreadyStarted
	}

	options := l.store.Get()

	// Resolve the start path before flipping active: a router with no
	// possible start state should fail without any observable
	// active/inactive churn.
	if path == "" && options.DefaultRoute == "" {
		return nil, types.NewError(types.ErrCodeNoStartPath, "no start path and no default route", nil)
	}

	// The swap is the admission gate; of two concurrent starts only one
	// may flip active.
	if !l.active.CompareAndSwap(false, true) {
		return nil, l.errAlreadyStarted
	}

	startState, err := l.resolveStartState(path, options)
	if err != nil {
		l.active.Store(false)
		return nil, err
	}

	committed, err := l.coordinator.NavigateToState(ctx, startState, nil, types.NavigationOptions{Replace: true}, false)
	if err != nil {
		l.active.Store(false)
		return nil, err
	}

	l.started.Store(true)
	l.store.Lock()
	l.logger.Info("router started", "state", committed.Name, "path", committed.Path)

	// The start transition's success notification was deferred; deliver
	// it together with the router-start notification.
	l.dispatcher.Notify(types.Event{Kind: types.EventRouterStart, To: committed})
	l.dispatcher.Notify(types.Event{Kind: types.EventTransitionSuccess, To: committed})

	return committed, nil
}

// resolveStartState maps the start argument to a target state. An
// explicit path that matches nothing is an error, never a silent
// redirect to the default route; the default route fallback exists only
// for argument-less starts. The not-found state applies in either case
// when AllowNotFound is set.
func (l *Lifecycle) resolveStartState(path string, options types.Options) (*types.State, error) {
	if path != "" {
		if state, ok := l.resolver.PathMatch(path); ok {
			return state, nil
		}
		if options.AllowNotFound {
			return types.NotFoundState(path, types.NavigationOptions{Replace: true}), nil
		}
		return nil, types.NewError(types.ErrCodeRouteNotFound, "start path matches no route", nil).WithRoute(path)
	}

	state, err := l.resolver.Resolve(options.DefaultRoute, options.DefaultParams)
	if err == nil {
		return state, nil
	}
	if options.AllowNotFound {
		return types.NotFoundState("", types.NavigationOptions{Replace: true}), nil
	}
	return nil, types.NewError(types.ErrCodeRouteNotFound, "default route matches no route", err).
		WithRoute(options.DefaultRoute)
}

// Stop halts the router. Clearing active is unconditional and is what
// makes in-flight transitions observe cancellation. Idempotent.
func (l *Lifecycle) Stop() {
	wasStarted := l.started.Load()
	l.active.Store(false)
	l.coordinator.cancelInFlight()

	if !wasStarted {
		return
	}

	l.started.Store(false)
	l.store.Unlock()
	l.coordinator.clearState()
	l.logger.Info("router stopped")
	l.dispatcher.Notify(types.Event{Kind: types.EventRouterStop})
}
