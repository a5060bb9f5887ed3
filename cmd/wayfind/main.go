// Package main provides the wayfind CLI: a route-table driven harness
// around the navigation engine, useful for exercising guard and
// middleware setups without a host application.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
