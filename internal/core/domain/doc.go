// Package domain defines the core domain models for booklend.
//
// Domain models are plain values without IO dependencies. This package
// contains:
//
//   - Book: client-side snapshot of a catalog record
//   - BookInput: validated create/update payload
//   - Errors: the client error taxonomy (storage, biometric, transport,
//     auth rejection, validation)
package domain
