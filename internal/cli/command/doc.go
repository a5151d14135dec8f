// Package command provides the booklend-cli command definitions.
//
// Commands are built on urfave/cli/v2:
//
//   - root.go: application, global flags and error printing
//   - runtime.go: per-process state (config, store, session, catalog)
//   - auth.go: signin, unlock, logout and status
//   - book.go: the book subcommand group
//   - config.go: config show, validate and passcode
//   - shell.go: the interactive shell
//
// A single invocation runs the biometric gate when it needs the catalog.
// The shell keeps one session open and gates it once.
package command
