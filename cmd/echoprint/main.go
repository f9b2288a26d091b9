// Package main is the entry point for the echoprint CLI.
//
// Usage:
//
//	echoprint [flags] <command> [args]
//
// Commands:
//
//	listen   - Record from the microphone and print its fingerprint code
//	devices  - List audio input devices
//	history  - Show past passes
//	config   - Show or initialize the configuration
//	version  - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/echoprint/go/cmd/echoprint/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
