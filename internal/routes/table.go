// Package routes provides an in-memory route table implementing the
// engine's RouteResolver contract: name resolution, path matching, path
// building, and state equality. Paths use ":name" placeholders and an
// optional "?a&b" suffix declaring query parameters.
package routes

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/mesh-intelligence/wayfind/pkg/types"
)

var routeNamePattern = regexp.MustCompile(`^[a-zA-Z0-9-_]+(\.[a-zA-Z0-9-_]+)*$`)

// route is one table entry. The path is the full path for the route,
// not a suffix relative to its parent.
type route struct {
	name        string
	path        string   // pattern without the query declaration
	queryParams []string // declared query parameter names
	parts       []string // pattern split on "/", ":x" parts capture
	paramNames  []string // placeholder names in order of appearance
}

// Table is a flat, mutable route table. Mutation during an in-flight
// transition is tolerated by the engine, which re-validates targets
// after asynchronous guards.
type Table struct {
	mu            sync.RWMutex
	routes        map[string]*route
	caseSensitive bool
}

// NewTable creates an empty table.
func NewTable(caseSensitive bool) *Table {
	return &Table{
		routes:        make(map[string]*route),
		caseSensitive: caseSensitive,
	}
}

// Add registers a route under a dot-delimited name. Re-adding a name
// replaces its definition.
func (t *Table) Add(name, path string) error {
	if !routeNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", types.ErrBadRouteName, name)
	}

	pattern := path
	var query []string
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		pattern = path[:idx]
		for _, q := range strings.Split(path[idx+1:], "&") {
			q = strings.TrimPrefix(strings.TrimSpace(q), ":")
			if q != "" {
				query = append(query, q)
			}
		}
	}
	if pattern == "" || pattern[0] != '/' {
		return fmt.Errorf("route %q: path must begin with '/'", name)
	}

	r := &route{
		name:        name,
		path:        pattern,
		queryParams: query,
		parts:       strings.Split(strings.Trim(pattern, "/"), "/"),
	}
	for _, part := range r.parts {
		if strings.HasPrefix(part, ":") {
			r.paramNames = append(r.paramNames, part[1:])
		}
	}

	t.mu.Lock()
	t.routes[name] = r
	t.mu.Unlock()
	return nil
}

// Remove deletes a route and all of its descendants.
func (t *Table) Remove(name string) {
	prefix := name + "."

	t.mu.Lock()
	delete(t.routes, name)
	for key := range t.routes {
		if strings.HasPrefix(key, prefix) {
			delete(t.routes, key)
		}
	}
	t.mu.Unlock()
}

// Names returns all route names, sorted.
func (t *Table) Names() []string {
	t.mu.RLock()
	names := make([]string, 0, len(t.routes))
	for name := range t.routes {
		names = append(names, name)
	}
	t.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Path returns the raw path pattern for a name.
func (t *Table) Path(name string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.routes[name]
	if !ok {
		return "", false
	}
	return r.path, true
}

// HasRoute reports whether the name is currently in the table.
func (t *Table) HasRoute(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.routes[name]
	return ok
}

// Resolve builds the State for a route name and params.
func (t *Table) Resolve(name string, params map[string]string) (*types.State, error) {
	t.mu.RLock()
	r, ok := t.routes[name]
	t.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrRouteUnknown, name)
	}

	path, err := t.BuildPath(name, params)
	if err != nil {
		return nil, err
	}

	copied := make(map[string]string, len(params))
	for k, v := range params {
		copied[k] = v
	}

	return &types.State{
		Name:   name,
		Params: copied,
		Path:   path,
		Meta: &types.StateMeta{
			ParamsBySegment: t.paramsBySegment(r),
		},
	}, nil
}

// BuildPath renders the concrete path for a name and params. Declared
// query parameters that are present are appended as a query string.
func (t *Table) BuildPath(name string, params map[string]string) (string, error) {
	t.mu.RLock()
	r, ok := t.routes[name]
	t.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %q", types.ErrRouteUnknown, name)
	}

	var b strings.Builder
	for _, part := range r.parts {
		b.WriteByte('/')
		if strings.HasPrefix(part, ":") {
			value, present := params[part[1:]]
			if !present {
				return "", fmt.Errorf("%w: %q for route %q", types.ErrMissingParam, part[1:], name)
			}
			b.WriteString(url.PathEscape(value))
		} else {
			b.WriteString(part)
		}
	}

	query := url.Values{}
	for _, q := range r.queryParams {
		if value, present := params[q]; present {
			query.Set(q, value)
		}
	}
	if len(query) > 0 {
		return b.String() + "?" + query.Encode(), nil
	}
	return b.String(), nil
}

// PathMatch matches a concrete path against the table. Literal segments
// win over placeholder captures when both match.
func (t *Table) PathMatch(path string) (*types.State, bool) {
	rawPath := path
	var queryValues url.Values
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		queryValues, _ = url.ParseQuery(path[idx+1:])
		path = path[:idx]
	}

	parts := strings.Split(strings.Trim(path, "/"), "/")

	t.mu.RLock()
	var best *route
	var bestParams map[string]string
	for _, r := range t.routes {
		params, ok := t.matchParts(r, parts)
		if !ok {
			continue
		}
		if best == nil || literalCount(r) > literalCount(best) {
			best = r
			bestParams = params
		}
	}
	t.mu.RUnlock()

	if best == nil {
		return nil, false
	}

	for _, q := range best.queryParams {
		if queryValues.Has(q) {
			bestParams[q] = queryValues.Get(q)
		}
	}

	return &types.State{
		Name:   best.name,
		Params: bestParams,
		Path:   rawPath,
		Meta: &types.StateMeta{
			ParamsBySegment: t.paramsBySegment(best),
		},
	}, true
}

func (t *Table) matchParts(r *route, parts []string) (map[string]string, bool) {
	if len(r.parts) != len(parts) {
		return nil, false
	}
	params := make(map[string]string)
	for i, part := range r.parts {
		if strings.HasPrefix(part, ":") {
			value, err := url.PathUnescape(parts[i])
			if err != nil {
				return nil, false
			}
			params[part[1:]] = value
			continue
		}
		if t.caseSensitive {
			if part != parts[i] {
				return nil, false
			}
		} else if !strings.EqualFold(part, parts[i]) {
			return nil, false
		}
	}
	return params, true
}

func literalCount(r *route) int {
	count := 0
	for _, part := range r.parts {
		if !strings.HasPrefix(part, ":") {
			count++
		}
	}
	return count
}

// paramsBySegment attributes each placeholder to the innermost ancestor
// segment whose own pattern declares it. Placeholders with no ancestor
// owner belong to the leaf. Caller must not hold t.mu.
func (t *Table) paramsBySegment(leaf *route) map[string][]string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string][]string)
	seen := make(map[string]bool)

	segments := (&types.State{Name: leaf.name}).Segments()
	for _, segment := range segments {
		r, ok := t.routes[segment]
		if !ok {
			continue
		}
		for _, param := range r.paramNames {
			if seen[param] {
				continue
			}
			seen[param] = true
			out[segment] = append(out[segment], param)
		}
		for _, param := range r.queryParams {
			if seen[param] {
				continue
			}
			seen[param] = true
			out[segment] = append(out[segment], param)
		}
	}

	// Anything declared only on the leaf pattern but not yet attributed.
	for _, param := range leaf.paramNames {
		if !seen[param] {
			seen[param] = true
			out[leaf.name] = append(out[leaf.name], param)
		}
	}
	return out
}

// StatesEqual reports structural equality. When ignoreQuery is set,
// parameters declared as query parameters on the target route are
// excluded from the comparison.
func (t *Table) StatesEqual(a, b *types.State, ignoreQuery bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Name != b.Name {
		return false
	}

	ignored := make(map[string]bool)
	if ignoreQuery {
		t.mu.RLock()
		if r, ok := t.routes[a.Name]; ok {
			for _, q := range r.queryParams {
				ignored[q] = true
			}
		}
		t.mu.RUnlock()
	}

	for k, v := range a.Params {
		if ignored[k] {
			continue
		}
		if b.Params[k] != v {
			return false
		}
	}
	for k, v := range b.Params {
		if ignored[k] {
			continue
		}
		if a.Params[k] != v {
			return false
		}
	}
	return true
}

var _ types.RouteResolver = (*Table)(nil)
