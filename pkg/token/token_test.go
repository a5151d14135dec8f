package token

import (
	"bytes"
	"strings"
	"testing"
)

func TestGenerateBytes(t *testing.T) {
	a, err := GenerateBytes(32)
	if err != nil {
		t.Fatalf("GenerateBytes() error = %v", err)
	}
	if len(a) != 32 {
		t.Errorf("GenerateBytes() length = %d, want 32", len(a))
	}

	b, err := GenerateBytes(32)
	if err != nil {
		t.Fatalf("GenerateBytes() error = %v", err)
	}
	if bytes.Equal(a, b) {
		t.Error("GenerateBytes() returned identical output twice")
	}
}

func TestFingerprint(t *testing.T) {
	fp := Fingerprint("abc123")

	if len(fp) != FingerprintLength {
		t.Errorf("Fingerprint() length = %d, want %d", len(fp), FingerprintLength)
	}
	if fp != Fingerprint("abc123") {
		t.Error("Fingerprint() should be deterministic")
	}
	if fp == Fingerprint("abc124") {
		t.Error("different tokens should have different fingerprints")
	}
	if strings.Contains(fp, "abc123") {
		t.Error("Fingerprint() must not contain the token")
	}
	if Fingerprint("") != "" {
		t.Error("Fingerprint(\"\") should be empty")
	}
}

func TestEqual(t *testing.T) {
	if !Equal("abc123", "abc123") {
		t.Error("Equal() should be true for identical tokens")
	}
	if Equal("abc123", "abc124") {
		t.Error("Equal() should be false for different tokens")
	}
	if Equal("abc", "abc123") {
		t.Error("Equal() should be false for different lengths")
	}
}

func TestMask(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"abc123", "******"},
		{"eyJhbGciOiJIUzI1NiJ9", "eyJh************NiJ9"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Mask(tt.in); got != tt.want {
				t.Errorf("Mask(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
