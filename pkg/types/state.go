package types

import (
	"strings"
	"time"
)

// UnknownRouteName is the reserved route name used for not-found states.
// Activation guards are never run against it.
const UnknownRouteName = "@@wayfind/UNKNOWN_ROUTE"

// Transition phases, recorded in TransitionMeta.Phase as the furthest
// phase a transition reached.
const (
	PhaseDeactivation = "deactivation"
	PhaseActivation   = "activation"
	PhaseMiddleware   = "middleware"
	PhaseComplete     = "complete"
)

// State is a resolved router state. States are produced by route
// resolution and must not be mutated after construction; use Copy when a
// derived state is needed.
type State struct {
	Name   string            // dot-delimited route name, e.g. "admin.users"
	Params map[string]string // resolved parameter values
	Path   string            // resolved path string

	// Meta describes how the state was built. Nil for hand-made states.
	Meta *StateMeta

	// Transition is attached only to the state committed by a completed
	// transition.
	Transition *TransitionMeta
}

// StateMeta carries resolution metadata for a State.
type StateMeta struct {
	// ParamsBySegment maps each full segment name to the parameter names
	// owned by that segment.
	ParamsBySegment map[string][]string

	// Options are the navigation options the state was built with.
	Options NavigationOptions

	// Redirected reports whether the state was produced by a middleware
	// redirect rather than the original navigation target.
	Redirected bool
}

// TransitionMeta describes a committed transition.
type TransitionMeta struct {
	Phase        string        // furthest phase reached
	Duration     time.Duration // wall time from intake to commit
	Activated    []string      // full segment names entered, root to leaf
	Deactivated  []string      // full segment names left, leaf to root
	Intersection []string      // full segment names shared with the source
	FromName     string        // source state name, empty on first transition
}

// NavigationOptions are caller-supplied flags for a single navigation.
// They are never merged across calls.
type NavigationOptions struct {
	Reload          bool // bypass the same-state short-circuit and re-run all segments
	Force           bool // bypass the same-state short-circuit only
	ForceDeactivate bool // skip deactivation guards
	Replace         bool // replace semantics for history-keeping observers
	Redirected      bool // set on states produced by a redirect
}

// Segments returns the full segment names of the state, root to leaf:
// "admin.users" yields ["admin", "admin.users"].
func (s *State) Segments() []string {
	if s == nil || s.Name == "" {
		return nil
	}
	parts := strings.Split(s.Name, ".")
	segments := make([]string, len(parts))
	for i := range parts {
		segments[i] = strings.Join(parts[:i+1], ".")
	}
	return segments
}

// Copy returns a shallow-immutable copy of the state with its own params
// map. Meta and Transition pointers are shared; both are read-only.
func (s *State) Copy() *State {
	if s == nil {
		return nil
	}
	out := *s
	if s.Params != nil {
		out.Params = make(map[string]string, len(s.Params))
		for k, v := range s.Params {
			out.Params[k] = v
		}
	}
	return &out
}

// IsUnknown reports whether the state is the reserved not-found state.
func (s *State) IsUnknown() bool {
	return s != nil && s.Name == UnknownRouteName
}

// NotFoundState builds the reserved not-found state for a path.
func NotFoundState(path string, opts NavigationOptions) *State {
	return &State{
		Name:   UnknownRouteName,
		Params: map[string]string{"path": path},
		Path:   path,
		Meta:   &StateMeta{Options: opts},
	}
}
