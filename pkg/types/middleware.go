package types

import "context"

// Middleware runs after all guards have passed. It may replace the
// target state by returning a non-nil state (the only legitimate
// redirect mechanism) or reject the transition by returning an error.
// Returning (nil, nil) keeps the current target.
type Middleware func(ctx context.Context, to, from *State) (*State, error)

// RouterView is the read-only router capability handed to middleware
// factories.
type RouterView interface {
	State() *State
	Options() Options
	IsStarted() bool
	IsActive() bool
}

// MiddlewareFactory builds a middleware with access to a read-only view
// of the router. Factories run once, in registration order, when the
// middleware chain is assembled.
type MiddlewareFactory func(router RouterView) Middleware
