// Package main provides the CLI entrypoint for the domain order counter.
// It wires subcommands (run, domains), loads configuration, and initializes logging.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stdin).Execute(); err != nil {
		os.Exit(1)
	}
}
