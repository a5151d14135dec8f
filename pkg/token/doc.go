// Package token provides helpers for handling opaque session tokens
// without exposing them.
//
// Fingerprint gives a short, stable identifier for a token that is safe to
// print in status output and logs. Mask shows only the edges of a token.
// GenerateBytes reads key material from crypto/rand. Inspect reads the
// subject and expiry of JWT tokens for display, without verification.
package token
