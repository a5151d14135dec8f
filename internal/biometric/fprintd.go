package biometric

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/user"
	"strings"
)

// Runner executes an external command and returns its combined output.
// A non-zero exit is reported as *exec.ExitError.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// execRunner runs commands with os/exec.
func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// FprintdGate verifies a fingerprint through fprintd-list and
// fprintd-verify.
type FprintdGate struct {
	run      Runner
	username string
	out      io.Writer
}

// NewFprintdGate creates a gate for the current OS user that shows
// prompts on out (stderr when nil).
func NewFprintdGate(out io.Writer) *FprintdGate {
	return NewFprintdGateWithRunner(execRunner, currentUsername(), out)
}

// NewFprintdGateWithRunner creates a gate with a custom command runner.
func NewFprintdGateWithRunner(run Runner, username string, out io.Writer) *FprintdGate {
	if out == nil {
		out = os.Stderr
	}
	return &FprintdGate{run: run, username: username, out: out}
}

// QueryCapability implements Gate.
//
// A missing fprintd-list binary means no hardware. Output mentioning
// "No devices available" means no reader is attached; one listing no
// fingers means nothing is enrolled.
func (g *FprintdGate) QueryCapability(ctx context.Context) (Capability, error) {
	out, err := g.run(ctx, "fprintd-list", g.username)
	if errors.Is(err, exec.ErrNotFound) {
		return Capability{}, nil
	}

	text := string(out)
	if strings.Contains(text, "No devices available") {
		return Capability{}, nil
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// fprintd-list exits non-zero when the daemon has no devices.
			return Capability{}, nil
		}
		return Capability{}, err
	}

	return Capability{
		HardwarePresent:   true,
		BiometricEnrolled: hasEnrolledFinger(text),
	}, nil
}

// Challenge implements Gate. The prompt is shown before fprintd-verify
// starts waiting for a finger.
func (g *FprintdGate) Challenge(ctx context.Context, prompt string) (Result, error) {
	if prompt != "" {
		fmt.Fprintln(g.out, prompt)
	}
	out, err := g.run(ctx, "fprintd-verify", g.username)
	if ctx.Err() != nil {
		return Result{Success: false, Reason: "cancelled"}, nil
	}

	text := string(out)
	if err == nil && strings.Contains(text, "verify-match") {
		return Result{Success: true}, nil
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return Result{}, err
	}

	reason := "fingerprint not recognised"
	switch {
	case strings.Contains(text, "verify-disconnected"):
		reason = "reader disconnected"
	case strings.Contains(text, "verify-unknown-error"):
		reason = "reader error"
	}
	return Result{Success: false, Reason: reason}, nil
}

// hasEnrolledFinger scans fprintd-list output for " - #N: finger" lines.
func hasEnrolledFinger(out string) bool {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "- #") {
			return true
		}
	}
	return false
}

func currentUsername() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return os.Getenv("USER")
}
