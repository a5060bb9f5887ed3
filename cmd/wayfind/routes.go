// Routes command for the wayfind CLI.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List the configured route table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := buildTable()
		if err != nil {
			fmt.Fprintln(os.Stderr, "routes:", err)
			os.Exit(exitUserError)
		}

		names := table.Names()

		if flagJSON {
			entries := make([]map[string]string, 0, len(names))
			for _, name := range names {
				path, _ := table.Path(name)
				entries = append(entries, map[string]string{"name": name, "path": path})
			}
			out, err := json.MarshalIndent(entries, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal routes: %w", err)
			}
			fmt.Println(string(out))
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tPATH")
		for _, name := range names {
			path, _ := table.Path(name)
			fmt.Fprintf(w, "%s\t%s\n", name, path)
		}
		return w.Flush()
	},
}
