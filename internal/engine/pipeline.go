package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mesh-intelligence/wayfind/pkg/types"
)

// Pipeline executes one transition: deactivation guards, activation
// guards, then the middleware chain, with cooperative cancellation
// checks at the phase boundaries. It owns no state of its own beyond
// references to its collaborators.
type Pipeline struct {
	registry *Registry
	resolver types.RouteResolver
	store    *OptionsStore
	logger   *slog.Logger

	// middleware yields the chain current at transition time; the list
	// may grow between transitions but never during one.
	middleware func() []types.Middleware
}

// NewPipeline wires a pipeline to its collaborators. The middleware
// provider is a capability function rather than a component reference.
func NewPipeline(registry *Registry, resolver types.RouteResolver, store *OptionsStore, middleware func() []types.Middleware, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if middleware == nil {
		middleware = func() []types.Middleware { return nil }
	}
	return &Pipeline{
		registry:   registry,
		resolver:   resolver,
		store:      store,
		logger:     logger,
		middleware: middleware,
	}
}

// cancelPredicate reports whether the transition it belongs to has been
// superseded or the router deactivated. It is checked cooperatively: a
// guard that never returns cannot be interrupted mid-call.
type cancelPredicate func() bool

// Run executes the transition from fromState to toState. On success it
// returns the committed state (possibly replaced by middleware) and the
// transition metadata. Errors from guards and middleware are
// re-classified into the engine taxonomy; raw callback errors never
// reach the caller.
func (p *Pipeline) Run(ctx context.Context, toState, fromState *types.State, opts types.NavigationOptions, cancelled cancelPredicate) (*types.State, *types.TransitionMeta, error) {
	began := time.Now()
	diff := diffSegments(toState, fromState, opts)

	meta := &types.TransitionMeta{
		Phase:        types.PhaseDeactivation,
		Activated:    diff.toActivate,
		Deactivated:  diff.toDeactivate,
		Intersection: diff.intersection,
	}
	if fromState != nil {
		meta.FromName = fromState.Name
	}

	fail := func(err error) (*types.State, *types.TransitionMeta, error) {
		meta.Duration = time.Since(began)
		return nil, meta, err
	}

	// Deactivation, most specific segment first. Parents cannot be left
	// while a child still objects.
	if fromState != nil && !opts.ForceDeactivate && len(diff.toDeactivate) > 0 {
		if err := p.runGuards(ctx, types.KindDeactivate, diff.toDeactivate, toState, fromState, cancelled); err != nil {
			return fail(err)
		}
	}

	if cancelled() {
		return fail(cancelledError())
	}

	// Activation, root to leaf: parents gate children. The reserved
	// not-found state has no routes to guard.
	meta.Phase = types.PhaseActivation
	if !toState.IsUnknown() && len(diff.toActivate) > 0 {
		if err := p.runGuards(ctx, types.KindActivate, diff.toActivate, toState, fromState, cancelled); err != nil {
			return fail(err)
		}
	}

	if cancelled() {
		return fail(cancelledError())
	}

	// Guards may have suspended for a while; the route table can change
	// under a transition. Never commit a state for a route that is gone.
	if !toState.IsUnknown() && !p.resolver.HasRoute(toState.Name) {
		return fail(types.NewError(types.ErrCodeRouteNotFound,
			"route removed while the transition was in flight", nil).
			WithRoute(toState.Name))
	}

	meta.Phase = types.PhaseMiddleware
	finalState, err := p.runMiddleware(ctx, toState, fromState, cancelled)
	if err != nil {
		return fail(err)
	}

	// The chain may have suspended past its own supersession; a result
	// produced by a cancelled run must not survive it.
	if cancelled() {
		return fail(cancelledError())
	}

	if p.store.Get().AutoCleanUp {
		p.cleanUpGuards(fromState, finalState)
	}

	meta.Phase = types.PhaseComplete
	meta.Duration = time.Since(began)
	return finalState, meta, nil
}

// runGuards invokes each segment's guard in order, stopping at the first
// rejection. A guard error observed after cancellation is reported as a
// cancellation, not a block.
func (p *Pipeline) runGuards(ctx context.Context, kind types.GuardKind, segments []string, toState, fromState *types.State, cancelled cancelPredicate) error {
	for _, segment := range segments {
		guard, ok := p.registry.Guard(kind, segment)
		if !ok {
			continue
		}

		err := invokeGuard(ctx, guard, toState, fromState)
		if err == nil {
			continue
		}
		if cancelled() || errors.Is(err, context.Canceled) {
			return cancelledError()
		}
		return classifyGuardError(kind, segment, err)
	}
	return nil
}

// invokeGuard calls one guard, converting a panic into an error at the
// pipeline boundary.
func invokeGuard(ctx context.Context, guard types.GuardFn, toState, fromState *types.State) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("guard panicked: %v", rec)
		}
	}()
	return guard(ctx, toState, fromState)
}

func classifyGuardError(kind types.GuardKind, segment string, err error) error {
	code := types.ErrCodeCannotActivate
	message := "segment activation rejected"
	if kind == types.KindDeactivate {
		code = types.ErrCodeCannotDeactivate
		message = "segment deactivation rejected"
	}

	out := types.NewError(code, message, err).WithSegment(segment)

	var redirect *types.Redirect
	if errors.As(err, &redirect) {
		out = out.WithAttempted(redirect.Name)
	}
	return out
}

// runMiddleware runs the chain in registration order. A middleware may
// replace the target state; the replacement is marked redirected and
// feeds the rest of the chain.
func (p *Pipeline) runMiddleware(ctx context.Context, toState, fromState *types.State, cancelled cancelPredicate) (*types.State, error) {
	state := toState
	for _, mw := range p.middleware() {
		if cancelled() {
			return nil, cancelledError()
		}

		next, err := invokeMiddleware(ctx, mw, state, fromState)
		if err != nil {
			if cancelled() || errors.Is(err, context.Canceled) {
				return nil, cancelledError()
			}
			var typed *types.Error
			if errors.As(err, &typed) {
				return nil, typed
			}
			return nil, types.NewError(types.ErrCodeTransitionFailed, "middleware rejected the transition", err)
		}
		if next != nil {
			next = next.Copy()
			// Meta is shared by Copy; clone it before marking the redirect.
			meta := types.StateMeta{}
			if next.Meta != nil {
				meta = *next.Meta
			}
			meta.Redirected = true
			next.Meta = &meta
			state = next
		}
	}
	return state, nil
}

func invokeMiddleware(ctx context.Context, mw types.Middleware, toState, fromState *types.State) (state *types.State, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			state = nil
			err = fmt.Errorf("middleware panicked: %v", rec)
		}
	}()
	return mw(ctx, toState, fromState)
}

// cleanUpGuards drops deactivation guards for segments no longer active
// after a committed transition. Guards for left-behind segments would
// otherwise linger and fire against unrelated future states, notably
// when the route itself was removed from the table.
func (p *Pipeline) cleanUpGuards(fromState, finalState *types.State) {
	if fromState == nil {
		return
	}

	active := make(map[string]bool)
	for _, segment := range finalState.Segments() {
		active[segment] = true
	}

	for _, segment := range fromState.Segments() {
		if active[segment] {
			continue
		}
		if _, err := p.registry.Clear(types.KindDeactivate, segment); err != nil {
			p.logger.Warn("guard clean-up skipped", "segment", segment, "error", err)
		}
	}
}

func cancelledError() error {
	return types.NewError(types.ErrCodeTransitionCancelled, "transition superseded or router stopped", nil)
}
