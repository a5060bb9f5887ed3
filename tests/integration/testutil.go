// Package integration provides shared helpers for end-to-end router tests.
package integration

import (
	"sync"
	"testing"

	"github.com/mesh-intelligence/wayfind/internal/routes"
	"github.com/mesh-intelligence/wayfind/pkg/types"
)

// defaultRoutes is the route table used by most integration tests.
var defaultRoutes = []struct {
	name string
	path string
}{
	{"home", "/home"},
	{"login", "/login"},
	{"users", "/users"},
	{"users.detail", "/users/:id"},
	{"admin", "/admin"},
	{"admin.reports", "/admin/reports?period"},
}

// newTable builds the default route table or fails the test.
func newTable(t *testing.T) *routes.Table {
	t.Helper()
	table := routes.NewTable(false)
	for _, r := range defaultRoutes {
		if err := table.Add(r.name, r.path); err != nil {
			t.Fatalf("Add(%q): %v", r.name, err)
		}
	}
	return table
}

// eventRecorder collects emitted events for later assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []types.Event
}

func (r *eventRecorder) observe(event types.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// kinds returns the recorded event kinds in order.
func (r *eventRecorder) kinds() []types.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.EventKind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

// terminal returns only the terminal events, in order.
func (r *eventRecorder) terminal() []types.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []types.Event
	for _, e := range r.events {
		if e.Kind.Terminal() {
			out = append(out, e)
		}
	}
	return out
}
