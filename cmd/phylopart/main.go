// Package main provides the phylopart command-line tool.
package main

import (
	"os"

	"github.com/leapstack-labs/phylopart/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
