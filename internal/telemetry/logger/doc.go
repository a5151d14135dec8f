// Package logger provides structured logging for booklend.
//
// It wraps log/slog with a small Logger interface, a process-wide level
// that can be changed at runtime, and automatic redaction of credentials:
//
//   - logger.go: construction, level control, the process default
//   - context.go: logger and request ID propagation through context
//   - redact.go: masking of bearer tokens, JWTs and sensitive keys
//
// The CLI logs text to stderr at warn level by default; --verbose lowers
// the level to debug and --log-format json switches the handler.
package logger
