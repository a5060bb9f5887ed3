// Navigate command for the wayfind CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/wayfind/internal/history"
	"github.com/mesh-intelligence/wayfind/pkg/types"
	"github.com/mesh-intelligence/wayfind/pkg/wayfind"
)

var navigateCmd = &cobra.Command{
	Use:   "navigate <route>[:key=value,...] [<route>...]",
	Short: "Start the router and navigate through the given routes",
	Long: `Start the router at the configured default route, then navigate to each
argument in order. Route arguments use the form "name" or
"name:key=value,key=value", for example:

  wayfind navigate users "users.detail:id=42"

Each terminal transition is recorded in the history database.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := buildTable()
		if err != nil {
			fmt.Fprintln(os.Stderr, "navigate:", err)
			os.Exit(exitUserError)
		}

		journal, err := history.Open(cliConfig.GetString(cfgKeyHistoryPath))
		if err != nil {
			fmt.Fprintln(os.Stderr, "navigate:", err)
			os.Exit(exitSysError)
		}
		defer journal.Close()

		router := wayfind.New(table,
			wayfind.WithOptions(routerOptions()),
			wayfind.WithLogger(cliLogger),
			wayfind.WithObserver(journal.Observer()),
		)

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		state, err := router.Start(ctx, "")
		if err != nil {
			fmt.Fprintln(os.Stderr, "navigate: start:", err)
			os.Exit(exitUserError)
		}
		defer router.Stop()

		if err := printState(state); err != nil {
			return err
		}

		for _, arg := range args {
			name, params, err := parseRouteArg(arg)
			if err != nil {
				fmt.Fprintln(os.Stderr, "navigate:", err)
				os.Exit(exitUserError)
			}

			state, err := router.Navigate(ctx, name, params, types.NavigationOptions{})
			if err != nil {
				if types.IsSameStates(err) {
					cliLogger.Debug("already at route", "route", name)
					continue
				}
				fmt.Fprintln(os.Stderr, "navigate:", err)
				os.Exit(exitUserError)
			}

			if err := printState(state); err != nil {
				return err
			}
		}
		return nil
	},
}
