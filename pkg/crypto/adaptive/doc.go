// Package adaptive seals small values with an AEAD picked for the host.
//
// Supported algorithms:
//
//   - AES-256-GCM: preferred on amd64 and arm64 (hardware AES)
//   - ChaCha20-Poly1305: everywhere else
//
// Sealed output is self-describing: one algorithm byte, the nonce, then
// ciphertext and tag. Open dispatches on that byte, so values sealed on
// one machine open on another holding the same key.
//
// Usage:
//
//	s, err := adaptive.New(key)
//	sealed, err := s.Seal(plaintext, aad)
//	plaintext, err := s.Open(sealed, aad)
package adaptive
