// Root command for the wayfind CLI.
package main

import (
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/wayfind/pkg/wayfind"
)

// Exit codes: 1 for user errors, 2 for system errors.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfig  string
	flagVerbose bool
	flagJSON    bool
)

// cliConfig holds the loaded configuration. Set by PersistentPreRunE so
// all subcommands can use it.
var cliConfig *viper.Viper

// cliLogger is the structured logger shared by subcommands. Verbosity is
// controlled by --verbose.
var cliLogger *slog.Logger

var rootCmd = &cobra.Command{
	Use:     "wayfind",
	Short:   "Wayfind is a route-table driven navigation engine",
	Version: wayfind.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(flagConfig)
		if err != nil {
			return err
		}
		cliConfig = cfg

		level := charmlog.WarnLevel
		if flagVerbose {
			level = charmlog.DebugLevel
		}
		handler := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
			ReportTimestamp: true,
			Level:           level,
		})
		cliLogger = slog.New(handler)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "configuration file (default: $(CWD)/.wayfind.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(routesCmd)
	rootCmd.AddCommand(navigateCmd)
	rootCmd.AddCommand(historyCmd)
}
