package adaptive

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the required key length in bytes for every algorithm.
const KeySize = 32

// Algorithm identifies the AEAD construction.
type Algorithm byte

const (
	AESGCM   Algorithm = 1
	ChaCha20 Algorithm = 2
)

func (a Algorithm) String() string {
	switch a {
	case AESGCM:
		return "aes-256-gcm"
	case ChaCha20:
		return "chacha20-poly1305"
	default:
		return fmt.Sprintf("unknown(%d)", byte(a))
	}
}

var (
	// ErrKeySize is returned for keys that are not KeySize bytes.
	ErrKeySize = errors.New("adaptive: key must be 32 bytes")

	// ErrMalformed is returned when sealed data is too short or carries
	// an unknown algorithm byte.
	ErrMalformed = errors.New("adaptive: malformed sealed data")

	// ErrOpen is returned when authentication fails.
	ErrOpen = errors.New("adaptive: message authentication failed")
)

// Sealer provides authenticated encryption of small values.
// A Sealer is safe for concurrent use.
type Sealer struct {
	preferred Algorithm
	aeads     map[Algorithm]cipher.AEAD
}

// New creates a Sealer that seals with the algorithm best suited to the
// host and opens values sealed by either algorithm.
func New(key []byte) (*Sealer, error) {
	return NewWithAlgorithm(key, preferredAlgorithm())
}

// NewWithAlgorithm creates a Sealer that seals with alg.
func NewWithAlgorithm(key []byte, alg Algorithm) (*Sealer, error) {
	if len(key) != KeySize {
		return nil, ErrKeySize
	}
	if alg != AESGCM && alg != ChaCha20 {
		return nil, fmt.Errorf("adaptive: unsupported algorithm %s", alg)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	chacha, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}

	return &Sealer{
		preferred: alg,
		aeads: map[Algorithm]cipher.AEAD{
			AESGCM:   gcm,
			ChaCha20: chacha,
		},
	}, nil
}

// Algorithm returns the algorithm used by Seal.
func (s *Sealer) Algorithm() Algorithm {
	return s.preferred
}

// Seal encrypts plaintext, binding it to additionalData.
func (s *Sealer) Seal(plaintext, additionalData []byte) ([]byte, error) {
	aead := s.aeads[s.preferred]

	out := make([]byte, 1+aead.NonceSize(), 1+aead.NonceSize()+len(plaintext)+aead.Overhead())
	out[0] = byte(s.preferred)
	nonce := out[1:]
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("adaptive: read nonce: %w", err)
	}

	return aead.Seal(out, nonce, plaintext, additionalData), nil
}

// Open decrypts data produced by Seal.
func (s *Sealer) Open(sealed, additionalData []byte) ([]byte, error) {
	if len(sealed) < 1 {
		return nil, ErrMalformed
	}
	aead, ok := s.aeads[Algorithm(sealed[0])]
	if !ok {
		return nil, ErrMalformed
	}
	body := sealed[1:]
	if len(body) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrMalformed
	}

	nonce, ciphertext := body[:aead.NonceSize()], body[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, ErrOpen
	}
	return plaintext, nil
}

// preferredAlgorithm picks AES-GCM where Go uses hardware AES.
func preferredAlgorithm() Algorithm {
	switch runtime.GOARCH {
	case "amd64", "arm64", "s390x", "ppc64le":
		return AESGCM
	default:
		return ChaCha20
	}
}
