package types

import "context"

// GuardKind distinguishes the two lifecycle guard directions.
type GuardKind int

const (
	// KindActivate guards decide whether a segment may be entered.
	KindActivate GuardKind = iota
	// KindDeactivate guards decide whether a segment may be left.
	KindDeactivate
)

func (k GuardKind) String() string {
	switch k {
	case KindActivate:
		return "canActivate"
	case KindDeactivate:
		return "canDeactivate"
	default:
		return "unknown"
	}
}

// GuardFn is a compiled lifecycle guard. Returning nil allows the
// transition; returning an error blocks it. A guard may block on ctx;
// cancellation of the surrounding transition cancels ctx.
//
// An error that is (or wraps) a *Redirect is still a rejection: the
// attempted target is reported on the resulting error but never honored.
type GuardFn func(ctx context.Context, to, from *State) error

// GuardAccess is the narrow registry capability handed to guard
// factories. Registering or clearing a different segment name from
// inside a factory is the supported mechanism for batch guard setup;
// touching the name currently being registered fails.
type GuardAccess interface {
	Register(kind GuardKind, name string, handler Handler) error
	Clear(kind GuardKind, name string) (bool, error)
}

// GuardFactory builds a guard at registration time. It runs exactly once
// per registration and may co-register related guards through access.
type GuardFactory func(access GuardAccess) (GuardFn, error)

// Handler is a guard registration argument: either a constant verdict
// (Allow) or a factory that produces the guard (FromFactory).
type Handler struct {
	constant   bool
	isConstant bool
	factory    GuardFactory
}

// Allow returns a Handler that compiles to a constant-verdict guard.
func Allow(verdict bool) Handler {
	return Handler{constant: verdict, isConstant: true}
}

// FromFactory returns a Handler backed by a guard factory.
func FromFactory(factory GuardFactory) Handler {
	return Handler{factory: factory}
}

// FromFunc returns a Handler for a plain guard function, wrapping it in
// a trivial factory.
func FromFunc(fn GuardFn) Handler {
	if fn == nil {
		return Handler{}
	}
	return Handler{factory: func(GuardAccess) (GuardFn, error) { return fn, nil }}
}

// Valid reports whether the handler can be compiled at all.
func (h Handler) Valid() bool {
	return h.isConstant || h.factory != nil
}

// IsConstant reports whether the handler is a boolean shorthand, and the
// verdict if so.
func (h Handler) IsConstant() (verdict, ok bool) {
	return h.constant, h.isConstant
}

// Factory returns the factory behind the handler, nil for constants.
func (h Handler) Factory() GuardFactory {
	return h.factory
}
