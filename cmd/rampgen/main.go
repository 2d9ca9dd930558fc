// Package main is the entry point for rampgen.
package main

import (
	"fmt"
	"os"

	"github.com/rampworks/rampgen/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
