// Package repl implements the booklend-cli interactive shell.
//
// The shell keeps one process alive so the unlocked session survives
// between commands. Each line is split into arguments and handed to an
// Executor; exit, quit, help and history are handled locally.
package repl
