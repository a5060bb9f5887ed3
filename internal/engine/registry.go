package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mesh-intelligence/wayfind/pkg/types"
)

// Registry capacity limits. The hard ceiling is an invariant; the two
// thresholds below it are observability signals only.
const (
	maxGuardEntries     = 200
	guardWarnThreshold  = 50
	guardAlertThreshold = 100
)

// guardEntry pairs a registration handler with its compiled guard. An
// entry exists if and only if compilation succeeded.
type guardEntry struct {
	handler types.Handler
	fn      types.GuardFn
}

// Registry stores compiled activation and deactivation guards keyed by
// full segment name. Registration is transactional: a failed compile
// leaves no trace of either the handler or the compiled function.
type Registry struct {
	mu            sync.Mutex
	logger        *slog.Logger
	canActivate   map[string]*guardEntry
	canDeactivate map[string]*guardEntry

	// compiling holds segment names whose factory is currently running,
	// to reject direct or transitive self-modification.
	compiling map[string]bool
}

// NewRegistry creates an empty guard registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:        logger,
		canActivate:   make(map[string]*guardEntry),
		canDeactivate: make(map[string]*guardEntry),
		compiling:     make(map[string]bool),
	}
}

var _ types.GuardAccess = (*Registry)(nil)

// Register compiles and stores a guard for a segment name. Overwriting
// an existing entry for the same name and kind is allowed and does not
// count toward capacity. Registration fails without side effects on an
// invalid handler, a factory error, a factory returning no guard, an
// attempt to touch the name currently being compiled, or the capacity
// ceiling.
func (r *Registry) Register(kind types.GuardKind, name string, handler types.Handler) error {
	if name == "" {
		return types.NewError(types.ErrCodeInvalidHandler, "empty segment name", nil)
	}
	if !handler.Valid() {
		return types.NewError(types.ErrCodeInvalidHandler, "handler is neither a constant nor a factory", nil).
			WithSegment(name)
	}

	if err := r.beginCompile(kind, name); err != nil {
		return err
	}
	defer r.endCompile(name)

	fn, err := compileHandler(handler, r)
	if err != nil {
		return err.WithSegment(name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.entries(kind)
	// First-time names count toward capacity; the stored count must stay
	// below the ceiling, so growth is rejected one entry short of it.
	if _, exists := entries[name]; !exists {
		if total := len(r.canActivate) + len(r.canDeactivate); total+1 >= maxGuardEntries {
			return types.NewError(types.ErrCodeCapacityExceeded,
				fmt.Sprintf("guard registry is full (%d entries)", total), nil).
				WithSegment(name)
		}
		r.noteGrowthLocked()
	}

	entries[name] = &guardEntry{handler: handler, fn: fn}
	return nil
}

// Clear removes both the handler and the compiled guard for a name in
// one step. Clearing an absent name is a no-op; the boolean reports
// whether anything was found. Clearing the name currently being
// compiled fails.
func (r *Registry) Clear(kind types.GuardKind, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.compiling[name] {
		return false, types.NewError(types.ErrCodeSelfRegistration,
			"guard cleared from inside its own registration", nil).
			WithSegment(name)
	}

	entries := r.entries(kind)
	if _, exists := entries[name]; !exists {
		return false, nil
	}
	delete(entries, name)
	return true, nil
}

// Guard returns the compiled guard for a name, if registered.
func (r *Registry) Guard(kind types.GuardKind, name string) (types.GuardFn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.entries(kind)[name]
	if !exists {
		return nil, false
	}
	return entry.fn, true
}

// Has reports whether a guard is registered for the name.
func (r *Registry) Has(kind types.GuardKind, name string) bool {
	_, ok := r.Guard(kind, name)
	return ok
}

// Size returns the combined entry count across both guard maps.
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.canActivate) + len(r.canDeactivate)
}

// beginCompile marks a name as being registered. The mark is the
// self-modification barrier: while it is held, Register and Clear for
// the same name fail.
func (r *Registry) beginCompile(kind types.GuardKind, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.compiling[name] {
		return types.NewError(types.ErrCodeSelfRegistration,
			fmt.Sprintf("%s guard registered from inside its own registration", kind), nil).
			WithSegment(name)
	}
	r.compiling[name] = true
	return nil
}

// endCompile releases the self-modification mark. It runs on every exit
// path of Register, including factory panics.
func (r *Registry) endCompile(name string) {
	r.mu.Lock()
	delete(r.compiling, name)
	r.mu.Unlock()
}

func (r *Registry) entries(kind types.GuardKind) map[string]*guardEntry {
	if kind == types.KindDeactivate {
		return r.canDeactivate
	}
	return r.canActivate
}

func (r *Registry) noteGrowthLocked() {
	total := len(r.canActivate) + len(r.canDeactivate) + 1
	switch total {
	case guardWarnThreshold:
		r.logger.Warn("guard registry growing", "entries", total)
	case guardAlertThreshold:
		r.logger.Warn("guard registry well above expected size", "entries", total)
	}
}

// compileHandler resolves a handler into a plain guard function. A
// factory that panics, errors, or returns a nil guard fails compilation.
func compileHandler(handler types.Handler, access types.GuardAccess) (fn types.GuardFn, err *types.Error) {
	if verdict, ok := handler.IsConstant(); ok {
		if verdict {
			return func(context.Context, *types.State, *types.State) error { return nil }, nil
		}
		return func(context.Context, *types.State, *types.State) error {
			return types.NewError(types.ErrCodeTransitionFailed, "segment blocked by constant guard", nil)
		}, nil
	}

	factory := handler.Factory()

	defer func() {
		if rec := recover(); rec != nil {
			fn = nil
			err = types.NewError(types.ErrCodeGuardCompileFailed,
				fmt.Sprintf("guard factory panicked: %v", rec), nil)
		}
	}()

	compiled, factoryErr := factory(access)
	if factoryErr != nil {
		return nil, types.NewError(types.ErrCodeGuardCompileFailed, "guard factory failed", factoryErr)
	}
	if compiled == nil {
		return nil, types.NewError(types.ErrCodeGuardCompileFailed, "guard factory returned no guard", nil)
	}
	return compiled, nil
}
