// Package main is the entry point for the Haven CLI.
package main

import (
	"os"

	"github.com/havenhq/haven/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
