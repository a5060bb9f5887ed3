package wayfind

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/wayfind/internal/routes"
	"github.com/mesh-intelligence/wayfind/pkg/types"
)

func newTestRouter(t *testing.T, opts ...Option) (*Router, *routes.Table) {
	t.Helper()

	table := routes.NewTable(false)
	for _, r := range []struct{ name, path string }{
		{"home", "/home"},
		{"login", "/login"},
		{"admin", "/admin"},
		{"admin.users", "/admin/users"},
	} {
		require.NoError(t, table.Add(r.name, r.path))
	}

	options := types.DefaultOptions()
	options.DefaultRoute = "home"
	all := append([]Option{WithOptions(options)}, opts...)
	return New(table, all...), table
}

func TestRouterStartNavigateStop(t *testing.T) {
	router, _ := newTestRouter(t)

	st, err := router.Start(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "home", st.Name)
	assert.True(t, router.IsStarted())

	st, err = router.Navigate(context.Background(), "admin.users", nil, types.NavigationOptions{})
	require.NoError(t, err)
	assert.Equal(t, "admin.users", st.Name)
	assert.Equal(t, st, router.State())

	router.Stop()
	assert.False(t, router.IsStarted())
	assert.Nil(t, router.State())
}

func TestRouterGuardRegistration(t *testing.T) {
	router, _ := newTestRouter(t)

	require.NoError(t, router.CanActivate("admin", types.Allow(false)))
	require.NoError(t, router.CanDeactivate("home", types.Allow(true)))

	_, err := router.Start(context.Background(), "")
	require.NoError(t, err)

	_, err = router.Navigate(context.Background(), "admin", nil, types.NavigationOptions{})
	assert.True(t, types.IsCannotActivate(err))

	found, err := router.ClearCanActivate("admin")
	require.NoError(t, err)
	assert.True(t, found)

	st, err := router.Navigate(context.Background(), "admin", nil, types.NavigationOptions{})
	require.NoError(t, err)
	assert.Equal(t, "admin", st.Name)
}

func TestRouterObserverOption(t *testing.T) {
	var kinds []types.EventKind
	router, _ := newTestRouter(t, WithObserver(func(ev types.Event) {
		kinds = append(kinds, ev.Kind)
	}))

	_, err := router.Start(context.Background(), "")
	require.NoError(t, err)

	assert.Contains(t, kinds, types.EventRouterStart)
	assert.Contains(t, kinds, types.EventTransitionSuccess)
}

func TestRouterMiddlewareFactoryReceivesView(t *testing.T) {
	router, table := newTestRouter(t)

	login, err := table.Resolve("login", nil)
	require.NoError(t, err)

	router.UseMiddleware(func(view types.RouterView) types.Middleware {
		return func(_ context.Context, to, _ *types.State) (*types.State, error) {
			// The view reflects live router state during the transition.
			if view.IsActive() && to.Name == "admin" {
				return login, nil
			}
			return nil, nil
		}
	})

	_, err = router.Start(context.Background(), "")
	require.NoError(t, err)

	st, err := router.Navigate(context.Background(), "admin", nil, types.NavigationOptions{})
	require.NoError(t, err)
	assert.Equal(t, "login", st.Name)
}

func TestRouterImplementsRouterView(t *testing.T) {
	router, _ := newTestRouter(t)

	var view types.RouterView = router
	assert.False(t, view.IsStarted())
	assert.Equal(t, "home", view.Options().DefaultRoute)
	assert.Nil(t, view.State())
}
