package biometric

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/term"

	"github.com/yndnr/booklend-go/pkg/token"
)

// Argon2id parameters for new passcode hashes.
const (
	argonTime    = 3
	argonMemory  = 64 * 1024
	argonThreads = 2
	argonKeyLen  = 32
	argonSaltLen = 16
)

// ErrInvalidHash is returned for malformed passcode hash strings.
var ErrInvalidHash = errors.New("invalid argon2id passcode hash")

// HashPasscode hashes passcode into a PHC string:
//
//	$argon2id$v=19$m=65536,t=3,p=2$<salt>$<key>
func HashPasscode(passcode string) (string, error) {
	if passcode == "" {
		return "", errors.New("passcode must not be empty")
	}
	salt, err := token.GenerateBytes(argonSaltLen)
	if err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(passcode), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPasscode checks passcode against a PHC hash in constant time.
func VerifyPasscode(encoded, passcode string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, ErrInvalidHash
	}

	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, ErrInvalidHash
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return false, ErrInvalidHash
	}

	got := argon2.IDKey([]byte(passcode), salt, iterations, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// PasscodeGate is the fallback gate for devices without a fingerprint
// reader. Hardware is always present; enrolment means a hash is set.
type PasscodeGate struct {
	hash string
	in   io.Reader
	out  io.Writer
}

// NewPasscodeGate creates a gate that verifies against hash, reading
// from in and prompting on out. Nil streams default to the terminal.
func NewPasscodeGate(hash string, in io.Reader, out io.Writer) *PasscodeGate {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stderr
	}
	return &PasscodeGate{hash: hash, in: in, out: out}
}

// QueryCapability implements Gate.
func (g *PasscodeGate) QueryCapability(context.Context) (Capability, error) {
	return Capability{
		HardwarePresent:   true,
		BiometricEnrolled: g.hash != "",
	}, nil
}

// Challenge implements Gate.
func (g *PasscodeGate) Challenge(ctx context.Context, prompt string) (Result, error) {
	fmt.Fprintf(g.out, "%s\n%s: ", prompt, FallbackLabel)

	passcode, err := ReadSecret(ctx, g.in)
	fmt.Fprintln(g.out)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, io.EOF) {
			return Result{Success: false, Reason: "cancelled"}, nil
		}
		return Result{}, err
	}

	ok, err := VerifyPasscode(g.hash, passcode)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{Success: false, Reason: "incorrect passcode"}, nil
	}
	return Result{Success: true}, nil
}

// ReadSecret reads one line without echo when in is a terminal.
// The read itself cannot be interrupted; cancellation is observed once
// it returns.
func ReadSecret(ctx context.Context, in io.Reader) (string, error) {
	type result struct {
		line string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			b, err := term.ReadPassword(int(f.Fd()))
			done <- result{string(b), err}
			return
		}
		line, err := readLine(in)
		done <- result{line, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.line, r.err
	}
}

// readLine reads up to a newline one byte at a time so input after the
// line stays unread for the next consumer of r.
func readLine(r io.Reader) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				return strings.TrimRight(sb.String(), "\r"), nil
			}
			sb.WriteByte(buf[0])
		}
		if err != nil {
			if errors.Is(err, io.EOF) && sb.Len() > 0 {
				return strings.TrimRight(sb.String(), "\r"), nil
			}
			return "", err
		}
	}
}
