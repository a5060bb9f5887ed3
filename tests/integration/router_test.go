// End-to-end tests driving the public router API through full
// start/navigate/stop cycles.
package integration

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/wayfind/internal/history"
	"github.com/mesh-intelligence/wayfind/pkg/types"
	"github.com/mesh-intelligence/wayfind/pkg/wayfind"
)

func TestRouterFullLifecycle(t *testing.T) {
	recorder := &eventRecorder{}
	router := wayfind.New(newTable(t),
		wayfind.WithOptions(types.Options{
			DefaultRoute: "home",
			AutoCleanUp:  true,
		}),
		wayfind.WithObserver(recorder.observe),
	)

	ctx := context.Background()

	state, err := router.Start(ctx, "")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "home", state.Name)
	assert.Equal(t, "/home", state.Path)
	assert.True(t, router.IsStarted())

	state, err = router.Navigate(ctx, "users.detail", map[string]string{"id": "42"}, types.NavigationOptions{})
	require.NoError(t, err)
	assert.Equal(t, "users.detail", state.Name)
	assert.Equal(t, "/users/42", state.Path)
	assert.Equal(t, "42", state.Params["id"])

	require.NotNil(t, state.Transition)
	assert.Equal(t, "home", state.Transition.FromName)
	assert.Contains(t, state.Transition.Activated, "users")
	assert.Contains(t, state.Transition.Activated, "users.detail")
	assert.Contains(t, state.Transition.Deactivated, "home")

	router.Stop()
	assert.False(t, router.IsStarted())
	assert.Nil(t, router.State())

	kinds := recorder.kinds()
	require.True(t, len(kinds) >= 4)
	assert.Equal(t, types.EventTransitionStart, kinds[0])
	assert.Equal(t, types.EventRouterStart, kinds[1])
	assert.Equal(t, types.EventTransitionSuccess, kinds[2])
	assert.Equal(t, types.EventRouterStop, kinds[len(kinds)-1])

	// Exactly one terminal event per attempt: start and one navigation.
	assert.Len(t, recorder.terminal(), 2)
}

func TestGuardedNavigation(t *testing.T) {
	loggedIn := false

	router := wayfind.New(newTable(t),
		wayfind.WithOptions(types.Options{DefaultRoute: "home", AutoCleanUp: true}),
	)

	err := router.CanActivate("admin", types.FromFunc(
		func(ctx context.Context, to, from *types.State) error {
			if !loggedIn {
				return errors.New("not logged in")
			}
			return nil
		}))
	require.NoError(t, err)

	ctx := context.Background()
	_, err = router.Start(ctx, "")
	require.NoError(t, err)
	defer router.Stop()

	_, err = router.Navigate(ctx, "admin", nil, types.NavigationOptions{})
	require.Error(t, err)
	assert.True(t, types.IsCannotActivate(err))
	assert.Equal(t, "home", router.State().Name)

	loggedIn = true
	state, err := router.Navigate(ctx, "admin", nil, types.NavigationOptions{})
	require.NoError(t, err)
	assert.Equal(t, "admin", state.Name)

	state, err = router.Navigate(ctx, "admin.reports", map[string]string{"period": "weekly"}, types.NavigationOptions{})
	require.NoError(t, err)
	assert.Equal(t, "admin.reports", state.Name)
	// admin stays active across the child navigation, its guard is not re-run.
	assert.Contains(t, state.Transition.Intersection, "admin")
}

func TestDeactivationGuardHoldsState(t *testing.T) {
	saved := false

	router := wayfind.New(newTable(t),
		wayfind.WithOptions(types.Options{DefaultRoute: "users.detail", DefaultParams: map[string]string{"id": "7"}}),
	)
	require.NoError(t, router.CanDeactivate("users.detail", types.FromFunc(
		func(ctx context.Context, to, from *types.State) error {
			if !saved {
				return errors.New("unsaved changes")
			}
			return nil
		})))

	ctx := context.Background()
	_, err := router.Start(ctx, "")
	require.NoError(t, err)
	defer router.Stop()

	_, err = router.Navigate(ctx, "home", nil, types.NavigationOptions{})
	require.Error(t, err)
	assert.True(t, types.IsCannotDeactivate(err))
	assert.Equal(t, "users.detail", router.State().Name)

	// Force deactivation bypasses the guard entirely.
	state, err := router.Navigate(ctx, "home", nil, types.NavigationOptions{ForceDeactivate: true})
	require.NoError(t, err)
	assert.Equal(t, "home", state.Name)
}

func TestMiddlewareRedirect(t *testing.T) {
	table := newTable(t)
	router := wayfind.New(table,
		wayfind.WithOptions(types.Options{DefaultRoute: "home"}),
	)

	login, err := table.Resolve("login", nil)
	require.NoError(t, err)

	router.UseMiddleware(func(view types.RouterView) types.Middleware {
		return func(ctx context.Context, to, from *types.State) (*types.State, error) {
			if to.Name == "admin" {
				return login, nil
			}
			return nil, nil
		}
	})

	ctx := context.Background()
	_, err = router.Start(ctx, "")
	require.NoError(t, err)
	defer router.Stop()

	state, err := router.Navigate(ctx, "admin", nil, types.NavigationOptions{})
	require.NoError(t, err)
	assert.Equal(t, "login", state.Name)
	require.NotNil(t, state.Meta)
	assert.True(t, state.Meta.Redirected)
}

func TestJournalRecordsTerminalEvents(t *testing.T) {
	journal, err := history.Open(filepath.Join(t.TempDir(), "transitions.db"))
	require.NoError(t, err)
	defer journal.Close()

	router := wayfind.New(newTable(t),
		wayfind.WithOptions(types.Options{DefaultRoute: "home"}),
		wayfind.WithObserver(journal.Observer()),
	)
	require.NoError(t, router.CanActivate("admin", types.Allow(false)))

	ctx := context.Background()
	_, err = router.Start(ctx, "")
	require.NoError(t, err)
	defer router.Stop()

	_, err = router.Navigate(ctx, "users", nil, types.NavigationOptions{})
	require.NoError(t, err)
	_, err = router.Navigate(ctx, "admin", nil, types.NavigationOptions{})
	require.Error(t, err)

	entries, err := journal.List(0)
	require.NoError(t, err)
	// Start success, users success, admin blocked.
	require.Len(t, entries, 3)
	assert.Equal(t, "admin", entries[0].ToName)
	assert.NotEmpty(t, entries[0].Error)

	limited, err := journal.List(1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestRestartAfterStop(t *testing.T) {
	router := wayfind.New(newTable(t),
		wayfind.WithOptions(types.Options{DefaultRoute: "home"}),
	)

	ctx := context.Background()
	_, err := router.Start(ctx, "")
	require.NoError(t, err)

	_, err = router.Start(ctx, "")
	require.Error(t, err)
	assert.True(t, types.IsAlreadyStarted(err))

	router.Stop()
	require.False(t, router.IsStarted())

	state, err := router.Start(ctx, "/users/9")
	require.NoError(t, err)
	assert.Equal(t, "users.detail", state.Name)
	assert.Equal(t, "9", state.Params["id"])
	router.Stop()
}
