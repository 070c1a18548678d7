// Package main is the entry point for the rlm CLI.
package main

import (
	"os"

	"github.com/AcidicSoil/fast-rlm/cmd/rlm/commands"
)

// version is injected at build time via ldflags.
var version = "dev"

func main() {
	os.Exit(commands.Execute(version))
}
