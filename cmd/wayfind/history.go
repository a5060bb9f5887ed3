// History command for the wayfind CLI.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/wayfind/internal/history"
)

var flagHistoryLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded transitions, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		journal, err := history.Open(cliConfig.GetString(cfgKeyHistoryPath))
		if err != nil {
			fmt.Fprintln(os.Stderr, "history:", err)
			os.Exit(exitSysError)
		}
		defer journal.Close()

		entries, err := journal.List(flagHistoryLimit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "history:", err)
			os.Exit(exitSysError)
		}

		if flagJSON {
			out, err := json.MarshalIndent(entries, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal history: %w", err)
			}
			fmt.Println(string(out))
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "AT\tKIND\tFROM\tTO\tERROR")
		for _, entry := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				entry.At.Format(time.RFC3339), entry.Kind,
				entry.FromName, entry.ToName, entry.Error)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "maximum entries to show (0 for all)")
}
