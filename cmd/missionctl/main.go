// Package main provides the CLI entry point for missionctl.
package main

import (
	"fmt"
	"os"

	"github.com/missionctl/missionctl/internal/cli"
)

func main() {
	rootCmd := cli.NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
}
