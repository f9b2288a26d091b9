// Package cli provides terminal helpers for the echoprint command.
//
// It covers the per-user directory layout ([Paths]), structured result
// output in YAML, JSON or raw form ([Output]), and styled status lines
// ([Printer]).
//
//	cli.Output(records, cli.OutputOptions{Format: cli.FormatJSON})
package cli
