// Package main is the entry point for the vis2table CLI binary.
package main

import (
	"os"

	cli "vis2table/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
