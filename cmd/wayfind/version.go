// Version command for the wayfind CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/wayfind/pkg/wayfind"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the wayfind version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("wayfind", wayfind.Version)
	},
}
