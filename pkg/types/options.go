package types

// Option keys accepted by the options store.
const (
	OptDefaultRoute      = "defaultRoute"
	OptDefaultParams     = "defaultParams"
	OptAllowNotFound     = "allowNotFound"
	OptAutoCleanUp       = "autoCleanUp"
	OptIgnoreQueryParams = "ignoreQueryParams"
	OptCaseSensitive     = "caseSensitive"
)

// Options is the router configuration snapshot. The engine reads a copy
// on every access; callers cannot mutate the stored value.
type Options struct {
	// DefaultRoute is the route started when no explicit path is given,
	// and the fallback for NavigateToDefault.
	DefaultRoute  string
	DefaultParams map[string]string

	// AllowNotFound commits the reserved not-found state instead of
	// failing when a start path matches nothing.
	AllowNotFound bool

	// AutoCleanUp drops deactivation guards for segments left behind by
	// a committed transition.
	AutoCleanUp bool

	// IgnoreQueryParams excludes query parameters from the same-state
	// comparison.
	IgnoreQueryParams bool

	// CaseSensitive controls path matching in the route table.
	CaseSensitive bool
}

// DefaultOptions returns the options a new router starts with.
func DefaultOptions() Options {
	return Options{
		AutoCleanUp:       true,
		IgnoreQueryParams: true,
	}
}

// Copy returns the options with their own params map.
func (o Options) Copy() Options {
	out := o
	if o.DefaultParams != nil {
		out.DefaultParams = make(map[string]string, len(o.DefaultParams))
		for k, v := range o.DefaultParams {
			out.DefaultParams[k] = v
		}
	}
	return out
}
