package biometric

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/yndnr/booklend-go/internal/core/domain"
)

const (
	// DefaultPrompt is shown when a challenge starts.
	DefaultPrompt = "Authenticate to enter App"

	// FallbackLabel names the passcode alternative.
	FallbackLabel = "Enter Passcode"

	// capabilityMessage is reported when a device cannot run a challenge.
	capabilityMessage = "Your device does not support biometric authentication or no biometrics enrolled."
)

// Provider names accepted by New.
const (
	ProviderFprintd  = "fprintd"
	ProviderPasscode = "passcode"
	ProviderNone     = "none"
)

// Capability describes what the device can do.
type Capability struct {
	HardwarePresent   bool
	BiometricEnrolled bool
}

// Available reports whether a challenge can be run.
func (c Capability) Available() bool {
	return c.HardwarePresent && c.BiometricEnrolled
}

// Result is the outcome of one challenge.
type Result struct {
	Success bool
	// Reason explains a failure (cancelled, no match, ...).
	Reason string
}

// Gate is a local user-presence check.
type Gate interface {
	// QueryCapability reports hardware and enrolment. Querying never
	// prompts the user.
	QueryCapability(ctx context.Context) (Capability, error)

	// Challenge prompts the user once and reports the outcome.
	// Callers must check QueryCapability first.
	Challenge(ctx context.Context, prompt string) (Result, error)
}

// Authenticate runs a single challenge on gate if the device supports it.
//
// It returns domain.ErrCapability without prompting when hardware or
// enrolment is missing, and domain.ErrChallengeFailed when the user
// fails or cancels. It never retries.
func Authenticate(ctx context.Context, gate Gate, prompt string) (Result, error) {
	capability, err := gate.QueryCapability(ctx)
	if err != nil {
		return Result{}, domain.ErrCapability.WithDetails(capabilityMessage).WithCause(err)
	}
	if !capability.Available() {
		return Result{}, domain.ErrCapability.WithDetails(capabilityMessage)
	}

	if prompt == "" {
		prompt = DefaultPrompt
	}
	result, err := gate.Challenge(ctx, prompt)
	if err != nil {
		return result, domain.ErrChallengeFailed.Wrap(err)
	}
	if !result.Success {
		reason := result.Reason
		if reason == "" {
			reason = "Cannot enter app"
		}
		return result, domain.ErrChallengeFailed.WithDetails(reason)
	}
	return result, nil
}

// Options configures the gate returned by New.
type Options struct {
	// PasscodeHash is the Argon2id PHC string for the passcode provider.
	PasscodeHash string

	// In and Out are the terminal streams used for prompts.
	In  io.Reader
	Out io.Writer
}

// New returns the gate for provider.
func New(provider string, opts Options) (Gate, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case ProviderFprintd:
		return NewFprintdGate(opts.Out), nil
	case ProviderPasscode:
		return NewPasscodeGate(opts.PasscodeHash, opts.In, opts.Out), nil
	case ProviderNone, "":
		return DisabledGate{}, nil
	default:
		return nil, fmt.Errorf("unknown biometric provider %q (want %s, %s or %s)",
			provider, ProviderFprintd, ProviderPasscode, ProviderNone)
	}
}

// DisabledGate reports a device without biometric hardware.
type DisabledGate struct{}

// QueryCapability implements Gate.
func (DisabledGate) QueryCapability(context.Context) (Capability, error) {
	return Capability{}, nil
}

// Challenge implements Gate. It always fails.
func (DisabledGate) Challenge(context.Context, string) (Result, error) {
	return Result{Success: false, Reason: "biometric authentication disabled"}, nil
}
