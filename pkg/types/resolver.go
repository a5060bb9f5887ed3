package types

import "errors"

// Route resolution errors reported by RouteResolver implementations.
var (
	ErrRouteUnknown = errors.New("route not in table")
	ErrMissingParam = errors.New("missing required path parameter")
	ErrBadRouteName = errors.New("malformed route name")
)

// RouteResolver is the external route-table contract the engine
// consumes. Implementations own path matching, path building, and state
// equality; the engine never parses paths itself.
type RouteResolver interface {
	// Resolve builds the State for a route name and params.
	// Returns ErrRouteUnknown (possibly wrapped) if the name is not in
	// the table.
	Resolve(name string, params map[string]string) (*State, error)

	// PathMatch matches a concrete path string against the table.
	PathMatch(path string) (*State, bool)

	// HasRoute reports whether the name is currently in the table. The
	// engine re-checks this after asynchronous guards; routes may be
	// removed mid-transition.
	HasRoute(name string) bool

	// BuildPath renders the path string for a route name and params.
	BuildPath(name string, params map[string]string) (string, error)

	// StatesEqual reports structural equality of two states. When
	// ignoreQuery is set, parameters declared as query parameters are
	// excluded from the comparison.
	StatesEqual(a, b *State, ignoreQuery bool) bool
}
