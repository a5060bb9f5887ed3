// Shared helpers for wayfind CLI commands.
package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/wayfind/internal/routes"
	"github.com/mesh-intelligence/wayfind/pkg/types"
)

// routeSpec is one entry of the routes list in the configuration file.
type routeSpec struct {
	Name string `mapstructure:"name"`
	Path string `mapstructure:"path"`
}

// buildTable constructs the route table from the loaded configuration.
// Returns a user error when the routes list is empty or an entry is invalid.
func buildTable() (*routes.Table, error) {
	var specs []routeSpec
	if err := cliConfig.UnmarshalKey(cfgKeyRoutes, &specs); err != nil {
		return nil, fmt.Errorf("parse routes: %w", err)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("no routes configured; run `wayfind init` or add a routes section to %s", configFileExt)
	}

	table := routes.NewTable(false)
	for _, spec := range specs {
		if err := table.Add(spec.Name, spec.Path); err != nil {
			return nil, fmt.Errorf("route %q: %w", spec.Name, err)
		}
	}
	return table, nil
}

// routerOptions maps the router section of the configuration to engine options.
func routerOptions() types.Options {
	opts := types.DefaultOptions()
	opts.DefaultRoute = cliConfig.GetString(cfgKeyDefaultRoute)
	opts.AllowNotFound = cliConfig.GetBool(cfgKeyAllowNotFound)
	opts.AutoCleanUp = cliConfig.GetBool(cfgKeyAutoCleanUp)
	return opts
}

// parseRouteArg splits a navigate argument into a route name and parameters.
// The form is "name" or "name:key=value,key=value".
func parseRouteArg(arg string) (string, map[string]string, error) {
	name, rest, found := strings.Cut(arg, ":")
	if name == "" {
		return "", nil, fmt.Errorf("empty route name in %q", arg)
	}
	if !found {
		return name, nil, nil
	}

	params := make(map[string]string)
	for _, pair := range strings.Split(rest, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return "", nil, fmt.Errorf("bad parameter %q in %q; expected key=value", pair, arg)
		}
		params[key] = value
	}
	return name, params, nil
}

// printState writes a navigation result to stdout, as JSON when --json is set.
func printState(state *types.State) error {
	if flagJSON {
		out, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal state: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("%s  %s\n", state.Name, state.Path)
	if len(state.Params) > 0 {
		for key, value := range state.Params {
			fmt.Printf("  %s=%s\n", key, value)
		}
	}
	return nil
}
