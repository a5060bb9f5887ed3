// Init command for the wayfind CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := flagConfig
		if path == "" {
			path = configFileExt
		}

		created, err := ensureDefaultConfigFile(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "init:", err)
			os.Exit(exitSysError)
		}

		if created {
			fmt.Println("Wayfind initialized successfully")
		} else {
			fmt.Println("Configuration already exists")
		}
		fmt.Println("  config:", path)
		return nil
	},
}
