// Package storage persists the client's on-device state.
//
// The state is a handful of short strings under registered keys (today
// only the session token). Backends:
//
//   - BadgerStore: durable, under the configured data directory
//   - MemoryStore: process local, for tests and --ephemeral runs
//   - SealedStore: AEAD decorator that encrypts values at rest
//
// Failures are reported as domain.ErrStorage. Callers reading state treat
// a failed read as an absent value.
package storage
