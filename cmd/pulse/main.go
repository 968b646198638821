// Package main is the entry point for the pulse CLI.
package main

import (
	"github.com/xvierd/pulse-cli/cmd"
	"github.com/xvierd/pulse-cli/internal/telemetry"
)

func main() {
	defer telemetry.RecoverPanic()
	cmd.Execute()
}
