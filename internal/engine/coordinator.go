package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/mesh-intelligence/wayfind/pkg/types"
)

// transitionRun is the single-slot "current transition". It exists only
// while one transition attempt is in flight and is owned by the
// coordinator; a superseding navigation cancels it and takes the slot.
type transitionRun struct {
	id        uuid.UUID
	cancelled *atomic.Bool
	cancel    context.CancelFunc
	toState   *types.State
	fromState *types.State
	opts      types.NavigationOptions
}

// Coordinator is the navigation entry point: it resolves targets,
// short-circuits no-op navigations, runs the pipeline, and commits the
// result as the router's current state. Navigation is last-writer-wins;
// a new transition cancels the in-flight one rather than queueing
// behind it.
type Coordinator struct {
	resolver   types.RouteResolver
	store      *OptionsStore
	pipeline   *Pipeline
	dispatcher *Dispatcher
	logger     *slog.Logger

	// isActive is the lifecycle's cancellation oracle, handed in as a
	// capability function so the coordinator never holds the lifecycle.
	isActive func() bool

	mu      sync.Mutex
	current *types.State
	run     *transitionRun
}

// NewCoordinator wires a coordinator. isActive is set by the engine once
// the lifecycle flags exist.
func NewCoordinator(resolver types.RouteResolver, store *OptionsStore, pipeline *Pipeline, dispatcher *Dispatcher, isActive func() bool, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if isActive == nil {
		isActive = func() bool { return false }
	}
	return &Coordinator{
		resolver:   resolver,
		store:      store,
		pipeline:   pipeline,
		dispatcher: dispatcher,
		logger:     logger,
		isActive:   isActive,
	}
}

// State returns the current committed state.
func (c *Coordinator) State() *types.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// clearState drops the committed state; called by the lifecycle on stop.
func (c *Coordinator) clearState() {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
}

// cancelInFlight marks and wakes the in-flight transition, if any. The
// mark matters beyond the active flag: a stop followed by an immediate
// restart must not let the old run slip through the oracle.
func (c *Coordinator) cancelInFlight() {
	c.mu.Lock()
	if c.run != nil {
		c.run.cancelled.Store(true)
		c.run.cancel()
	}
	c.mu.Unlock()
}

// Navigate resolves a route name and runs a transition to it. It fails
// before any resolution work if the router is not active.
func (c *Coordinator) Navigate(ctx context.Context, name string, params map[string]string, opts types.NavigationOptions) (*types.State, error) {
	if !c.isActive() {
		return nil, types.NewError(types.ErrCodeRouterNotStarted, "router is not started", nil)
	}

	fromState := c.State()

	toState, err := c.resolver.Resolve(name, params)
	if err != nil {
		notFound := types.NewError(types.ErrCodeRouteNotFound, "no route for name", err).WithRoute(name)
		c.logger.Warn("navigation target did not resolve", "route", name, "error", err)
		c.dispatcher.Notify(types.Event{Kind: types.EventTransitionError, From: fromState, Err: notFound})
		return nil, notFound
	}
	if toState.Meta == nil {
		toState.Meta = &types.StateMeta{}
	}
	toState.Meta.Options = opts
	toState.Meta.Redirected = opts.Redirected

	// Same-state fast path: no pipeline work is scheduled and nothing is
	// cancelled. Routine outcome, logged at debug only.
	if !opts.Reload && !opts.Force && fromState != nil &&
		c.resolver.StatesEqual(toState, fromState, c.store.Get().IgnoreQueryParams) {
		same := types.NewError(types.ErrCodeSameStates, "already at the requested state", nil).WithRoute(name)
		c.logger.Debug("navigation skipped", "route", name)
		c.dispatcher.Notify(types.Event{Kind: types.EventTransitionError, To: toState, From: fromState, Err: same})
		return nil, same
	}

	return c.NavigateToState(ctx, toState, fromState, opts, true)
}

// NavigateToDefault navigates to the configured default route.
func (c *Coordinator) NavigateToDefault(ctx context.Context, opts types.NavigationOptions) (*types.State, error) {
	options := c.store.Get()
	if options.DefaultRoute == "" {
		return nil, types.NewError(types.ErrCodeNoStartPath, "no default route configured", nil)
	}
	return c.Navigate(ctx, options.DefaultRoute, options.DefaultParams, opts)
}

// NavigateToState runs the pipeline against an already-resolved target.
// It is the internal entry point shared by Navigate and the lifecycle's
// start transition; emitSuccess lets the lifecycle defer the success
// notification and unify it with its own start notification.
func (c *Coordinator) NavigateToState(ctx context.Context, toState, fromState *types.State, opts types.NavigationOptions, emitSuccess bool) (*types.State, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	run := c.takeTransitionSlot(cancel, toState, fromState, opts)

	c.dispatcher.Notify(types.Event{Kind: types.EventTransitionStart, To: toState, From: fromState})

	cancelled := func() bool {
		return run.cancelled.Load() || !c.isActive()
	}

	finalState, meta, err := c.pipeline.Run(runCtx, toState, fromState, opts, cancelled)

	c.releaseTransitionSlot(run)

	// A run marked cancelled while the pipeline unwound must never
	// install its result, even when the pipeline returned one.
	if err == nil && run.cancelled.Load() {
		err = cancelledError()
	}

	if err != nil {
		c.settleFailure(toState, fromState, err)
		return nil, err
	}

	committed := c.commit(finalState, meta)
	if emitSuccess {
		c.dispatcher.Notify(types.Event{Kind: types.EventTransitionSuccess, To: committed, From: fromState})
	}
	return committed, nil
}

// takeTransitionSlot makes the new run the current one, cancelling any
// in-flight transition. Concurrent navigation on a shared router is a
// known hazard on server-side instances, so supersession is logged.
func (c *Coordinator) takeTransitionSlot(cancel context.CancelFunc, toState, fromState *types.State, opts types.NavigationOptions) *transitionRun {
	run := &transitionRun{
		id:        uuid.New(),
		cancelled: atomic.NewBool(false),
		cancel:    cancel,
		toState:   toState,
		fromState: fromState,
		opts:      opts,
	}

	c.mu.Lock()
	if prev := c.run; prev != nil {
		c.logger.Warn("navigation superseded an in-flight transition",
			"cancelled", prev.toState.Name,
			"superseded_by", toState.Name,
			"run", prev.id.String())
		prev.cancelled.Store(true)
		if prev.cancel != nil {
			prev.cancel()
		}
	}
	c.run = run
	c.mu.Unlock()

	return run
}

// releaseTransitionSlot clears the slot if the run still owns it; a
// superseded run must not evict its successor.
func (c *Coordinator) releaseTransitionSlot(run *transitionRun) {
	c.mu.Lock()
	if c.run == run {
		c.run = nil
	}
	c.mu.Unlock()
}

// commit installs the transition result as the current state, stamped
// with the transition metadata.
func (c *Coordinator) commit(finalState *types.State, meta *types.TransitionMeta) *types.State {
	committed := finalState.Copy()
	committed.Transition = meta

	c.mu.Lock()
	c.current = committed
	c.mu.Unlock()

	c.logger.Debug("transition committed",
		"to", committed.Name,
		"from", meta.FromName,
		"duration", meta.Duration)
	return committed
}

// settleFailure routes the terminal notification for a failed transition
// by error kind: cancellations and guard blocks are routine outcomes and
// get their own channels, everything else is an error.
func (c *Coordinator) settleFailure(toState, fromState *types.State, err error) {
	event := types.Event{To: toState, From: fromState, Err: err}

	switch {
	case types.IsTransitionCancelled(err):
		event.Kind = types.EventTransitionCancel
		c.logger.Debug("transition cancelled", "to", toState.Name)
	case types.Blocked(err):
		event.Kind = types.EventTransitionBlocked
		c.logger.Warn("transition blocked", "to", toState.Name, "error", err)
	default:
		event.Kind = types.EventTransitionError
		c.logger.Error("transition failed", "to", toState.Name, "error", err)
	}

	c.dispatcher.Notify(event)
}
