// Package main provides the entry point for booklend-cli.
//
// The CLI signs in to the catalog service, gates the stored session
// behind a local biometric check and manages books:
//
//   - Sign in, unlock, logout and status
//   - Book list, get, add, edit and delete
//   - Configuration display, validation and passcode setup
//
// Usage:
//
//	booklend-cli signin --email reader@example.com
//	booklend-cli book list -o json
//	booklend-cli shell
package main
