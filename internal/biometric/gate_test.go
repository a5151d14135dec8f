package biometric

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yndnr/booklend-go/internal/core/domain"
)

// stubGate records challenges and returns canned answers.
type stubGate struct {
	capability Capability
	capErr     error
	result     Result
	err        error
	challenges int
	prompt     string
}

func (g *stubGate) QueryCapability(context.Context) (Capability, error) {
	return g.capability, g.capErr
}

func (g *stubGate) Challenge(_ context.Context, prompt string) (Result, error) {
	g.challenges++
	g.prompt = prompt
	return g.result, g.err
}

func TestCapability_Available(t *testing.T) {
	tests := []struct {
		cap  Capability
		want bool
	}{
		{Capability{}, false},
		{Capability{HardwarePresent: true}, false},
		{Capability{BiometricEnrolled: true}, false},
		{Capability{HardwarePresent: true, BiometricEnrolled: true}, true},
	}

	for _, tt := range tests {
		if got := tt.cap.Available(); got != tt.want {
			t.Errorf("%+v.Available() = %v, want %v", tt.cap, got, tt.want)
		}
	}
}

func TestAuthenticate(t *testing.T) {
	capable := Capability{HardwarePresent: true, BiometricEnrolled: true}

	tests := []struct {
		name           string
		gate           *stubGate
		wantErr        error
		wantChallenges int
	}{
		{
			name:           "success",
			gate:           &stubGate{capability: capable, result: Result{Success: true}},
			wantChallenges: 1,
		},
		{
			name:           "no hardware",
			gate:           &stubGate{capability: Capability{BiometricEnrolled: true}},
			wantErr:        domain.ErrCapability,
			wantChallenges: 0,
		},
		{
			name:           "not enrolled",
			gate:           &stubGate{capability: Capability{HardwarePresent: true}},
			wantErr:        domain.ErrCapability,
			wantChallenges: 0,
		},
		{
			name:           "capability query fails",
			gate:           &stubGate{capErr: errors.New("dbus down")},
			wantErr:        domain.ErrCapability,
			wantChallenges: 0,
		},
		{
			name:           "user fails",
			gate:           &stubGate{capability: capable, result: Result{Reason: "cancelled"}},
			wantErr:        domain.ErrChallengeFailed,
			wantChallenges: 1,
		},
		{
			name:           "challenge errors",
			gate:           &stubGate{capability: capable, err: errors.New("reader gone")},
			wantErr:        domain.ErrChallengeFailed,
			wantChallenges: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Authenticate(context.Background(), tt.gate, "")

			if tt.wantErr == nil && err != nil {
				t.Fatalf("Authenticate() error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Authenticate() error = %v, want %v", err, tt.wantErr)
			}
			if tt.gate.challenges != tt.wantChallenges {
				t.Errorf("challenges = %d, want %d", tt.gate.challenges, tt.wantChallenges)
			}
		})
	}
}

func TestAuthenticate_DefaultPrompt(t *testing.T) {
	g := &stubGate{capability: Capability{true, true}, result: Result{Success: true}}
	if _, err := Authenticate(context.Background(), g, ""); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if g.prompt != DefaultPrompt {
		t.Errorf("prompt = %q, want %q", g.prompt, DefaultPrompt)
	}
}

func TestAuthenticate_CapabilityMessage(t *testing.T) {
	_, err := Authenticate(context.Background(), DisabledGate{}, "")
	if err == nil || !strings.Contains(err.Error(), "no biometrics enrolled") {
		t.Errorf("Authenticate() error = %v, want capability message", err)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		provider string
		wantType string
		wantErr  bool
	}{
		{"fprintd", "*biometric.FprintdGate", false},
		{"passcode", "*biometric.PasscodeGate", false},
		{"none", "biometric.DisabledGate", false},
		{"", "biometric.DisabledGate", false},
		{"faceid", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			g, err := New(tt.provider, Options{})
			if tt.wantErr {
				if err == nil {
					t.Error("New() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if got := typeName(g); got != tt.wantType {
				t.Errorf("New(%q) = %s, want %s", tt.provider, got, tt.wantType)
			}
		})
	}
}

func typeName(g Gate) string {
	switch g.(type) {
	case *FprintdGate:
		return "*biometric.FprintdGate"
	case *PasscodeGate:
		return "*biometric.PasscodeGate"
	case DisabledGate:
		return "biometric.DisabledGate"
	default:
		return "unknown"
	}
}
