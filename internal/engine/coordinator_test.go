package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/wayfind/internal/routes"
	"github.com/mesh-intelligence/wayfind/pkg/types"
)

// eventLog collects router events for assertions; safe for use from the
// navigating goroutines in the concurrency tests.
type eventLog struct {
	mu     sync.Mutex
	events []types.Event
}

func (l *eventLog) observer() types.Observer {
	return func(ev types.Event) {
		l.mu.Lock()
		l.events = append(l.events, ev)
		l.mu.Unlock()
	}
}

func (l *eventLog) kinds() []types.EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]types.EventKind, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.Kind
	}
	return out
}

func (l *eventLog) terminalCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	count := 0
	for _, ev := range l.events {
		if ev.Kind.Terminal() {
			count++
		}
	}
	return count
}

func newTestEngine(t *testing.T, opts types.Options) (*Engine, *routes.Table, *eventLog) {
	t.Helper()

	table := routes.NewTable(false)
	for _, r := range []struct{ name, path string }{
		{"home", "/home"},
		{"login", "/login"},
		{"admin", "/admin"},
		{"admin.users", "/admin/users?page"},
		{"admin.users.list", "/admin/users/list"},
		{"users.detail", "/users/:id"},
	} {
		require.NoError(t, table.Add(r.name, r.path))
	}

	if opts.DefaultRoute == "" {
		opts.DefaultRoute = "home"
	}

	e := New(Config{Resolver: table, Options: opts})
	log := &eventLog{}
	e.Subscribe(log.observer())
	return e, table, log
}

func startedEngine(t *testing.T) (*Engine, *routes.Table, *eventLog) {
	t.Helper()
	e, table, log := newTestEngine(t, types.DefaultOptions())
	_, err := e.Start(context.Background(), "")
	require.NoError(t, err)
	return e, table, log
}

func TestNavigateRequiresStartedRouter(t *testing.T) {
	e, _, log := newTestEngine(t, types.DefaultOptions())

	_, err := e.Navigate(context.Background(), "home", nil, types.NavigationOptions{})

	assert.True(t, types.IsRouterNotStarted(err))
	assert.Equal(t, 0, log.terminalCount(), "rejected before intake, no notification")
}

func TestNavigateCommitsState(t *testing.T) {
	e, _, _ := startedEngine(t)

	st, err := e.Navigate(context.Background(), "admin.users", nil, types.NavigationOptions{})
	require.NoError(t, err)

	assert.Equal(t, "admin.users", st.Name)
	assert.Equal(t, "/admin/users", st.Path)
	require.NotNil(t, st.Transition)
	assert.Equal(t, types.PhaseComplete, st.Transition.Phase)
	assert.Equal(t, "home", st.Transition.FromName)
	assert.Equal(t, []string{"admin", "admin.users"}, st.Transition.Activated)
	assert.Equal(t, []string{"home"}, st.Transition.Deactivated)

	assert.Equal(t, st, e.State())
}

func TestNavigateRouteNotFound(t *testing.T) {
	e, _, log := startedEngine(t)

	_, err := e.Navigate(context.Background(), "missing.route", nil, types.NavigationOptions{})

	assert.True(t, types.IsRouteNotFound(err))
	assert.Equal(t, "home", e.State().Name, "current state untouched")
	assert.Equal(t, 1, log.terminalCount())
}

func TestNavigateSameStates(t *testing.T) {
	e, _, _ := startedEngine(t)

	before := e.State()
	_, err := e.Navigate(context.Background(), "home", nil, types.NavigationOptions{})

	assert.True(t, types.IsSameStates(err))
	assert.Equal(t, before, e.State(), "same-state navigation leaves current state exactly as it was")
}

func TestNavigateSameStatesIgnoresQueryParams(t *testing.T) {
	e, _, _ := startedEngine(t)

	_, err := e.Navigate(context.Background(), "admin.users", map[string]string{"page": "1"}, types.NavigationOptions{})
	require.NoError(t, err)

	_, err = e.Navigate(context.Background(), "admin.users", map[string]string{"page": "2"}, types.NavigationOptions{})
	assert.True(t, types.IsSameStates(err), "query-only difference is the same state")
}

func TestNavigateReloadBypassesSameStates(t *testing.T) {
	e, _, _ := startedEngine(t)

	st, err := e.Navigate(context.Background(), "home", nil, types.NavigationOptions{Reload: true})
	require.NoError(t, err)
	assert.Equal(t, "home", st.Name)

	st, err = e.Navigate(context.Background(), "home", nil, types.NavigationOptions{Force: true})
	require.NoError(t, err)
	assert.Equal(t, "home", st.Name)
}

func TestNavigateToDefault(t *testing.T) {
	e, _, _ := startedEngine(t)

	_, err := e.Navigate(context.Background(), "admin", nil, types.NavigationOptions{})
	require.NoError(t, err)

	st, err := e.NavigateToDefault(context.Background(), types.NavigationOptions{})
	require.NoError(t, err)
	assert.Equal(t, "home", st.Name)
}

func TestNavigateTerminalNotificationByKind(t *testing.T) {
	e, _, log := startedEngine(t)

	require.NoError(t, e.RegisterGuard(types.KindActivate, "admin", types.Allow(false)))

	_, err := e.Navigate(context.Background(), "admin.users", nil, types.NavigationOptions{})
	require.Error(t, err)

	kinds := log.kinds()
	last := kinds[len(kinds)-1]
	assert.Equal(t, types.EventTransitionBlocked, last, "guard rejection routes to the blocked channel")
}

func TestNavigateSupersessionCancelsInFlight(t *testing.T) {
	e, _, log := startedEngine(t)

	entered := make(chan struct{})
	require.NoError(t, e.RegisterGuard(types.KindActivate, "admin",
		types.FromFunc(func(ctx context.Context, _, _ *types.State) error {
			close(entered)
			<-ctx.Done() // a guard that never resolves on its own
			return ctx.Err()
		})))

	type result struct {
		state *types.State
		err   error
	}
	firstDone := make(chan result, 1)

	go func() {
		st, err := e.Navigate(context.Background(), "admin.users", nil, types.NavigationOptions{})
		firstDone <- result{st, err}
	}()

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first navigation never reached its guard")
	}

	st, err := e.Navigate(context.Background(), "login", nil, types.NavigationOptions{})
	require.NoError(t, err)
	assert.Equal(t, "login", st.Name)

	select {
	case first := <-firstDone:
		require.Error(t, first.err)
		assert.True(t, types.IsTransitionCancelled(first.err),
			"the superseded navigation resolves as cancelled")
	case <-time.After(5 * time.Second):
		t.Fatal("superseded navigation never settled")
	}

	assert.Equal(t, "login", e.State().Name, "committed state is the superseding target")

	// One terminal event per attempt: the start, the cancelled attempt,
	// and the winning attempt.
	assert.Equal(t, 3, log.terminalCount())
}

func TestSupersededMiddlewareResultNeverCommits(t *testing.T) {
	e, _, log := startedEngine(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	e.UseMiddleware(func(_ context.Context, to, _ *types.State) (*types.State, error) {
		if to.Name != "admin" {
			return nil, nil
		}
		close(entered)
		<-release // suspend past the supersession
		return nil, nil
	})

	type result struct {
		state *types.State
		err   error
	}
	firstDone := make(chan result, 1)

	go func() {
		st, err := e.Navigate(context.Background(), "admin", nil, types.NavigationOptions{})
		firstDone <- result{st, err}
	}()

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first navigation never reached its middleware")
	}

	st, err := e.Navigate(context.Background(), "login", nil, types.NavigationOptions{})
	require.NoError(t, err)
	assert.Equal(t, "login", st.Name)

	// Let the suspended middleware finish after the superseder committed.
	close(release)

	select {
	case first := <-firstDone:
		require.Error(t, first.err)
		assert.True(t, types.IsTransitionCancelled(first.err),
			"a run that resumes after losing the slot settles as cancelled")
		assert.Nil(t, first.state)
	case <-time.After(5 * time.Second):
		t.Fatal("superseded navigation never settled")
	}

	assert.Equal(t, "login", e.State().Name, "the stale result never overwrites the winner")
	assert.Equal(t, 3, log.terminalCount())
}

func TestNavigateObserverPanicDoesNotBreakCommit(t *testing.T) {
	e, _, _ := startedEngine(t)
	e.Subscribe(func(types.Event) { panic("observer bug") })

	st, err := e.Navigate(context.Background(), "admin", nil, types.NavigationOptions{})
	require.NoError(t, err)
	assert.Equal(t, "admin", st.Name)
	assert.Equal(t, "admin", e.State().Name)
}

func TestUseMiddlewareRedirects(t *testing.T) {
	e, table, _ := startedEngine(t)

	login, err := table.Resolve("login", nil)
	require.NoError(t, err)

	e.UseMiddleware(func(_ context.Context, to, _ *types.State) (*types.State, error) {
		if to.Name == "admin" {
			return login, nil
		}
		return nil, nil
	})

	st, err := e.Navigate(context.Background(), "admin", nil, types.NavigationOptions{})
	require.NoError(t, err)
	assert.Equal(t, "login", st.Name)
	assert.Equal(t, "login", e.State().Name)
}

func TestGuardCleanUpAfterRouteRemoval(t *testing.T) {
	e, table, _ := startedEngine(t)

	_, err := e.Navigate(context.Background(), "admin.users", nil, types.NavigationOptions{})
	require.NoError(t, err)

	require.NoError(t, e.RegisterGuard(types.KindDeactivate, "admin.users", types.Allow(true)))

	table.Remove("admin.users")
	_, err = e.Navigate(context.Background(), "home", nil, types.NavigationOptions{})
	require.NoError(t, err)

	assert.False(t, e.HasGuard(types.KindDeactivate, "admin.users"),
		"guard for the removed route is gone after navigating away")
}
