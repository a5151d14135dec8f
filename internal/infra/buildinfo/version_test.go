package buildinfo

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()

	if info.Version == "" {
		t.Error("Version should not be empty")
	}
	if info.Commit == "" {
		t.Error("Commit should not be empty")
	}
	if info.BuildTime == "" {
		t.Error("BuildTime should not be empty")
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
}

func TestGet_LdflagsWin(t *testing.T) {
	saved := Version
	t.Cleanup(func() { Version = saved })

	Version = "v1.2.3"
	if got := Get().Version; got != "v1.2.3" {
		t.Errorf("Get().Version = %q, want %q", got, "v1.2.3")
	}
}

func TestString(t *testing.T) {
	s := String()
	if !strings.Contains(s, "built at") {
		t.Errorf("String() = %q, want it to contain %q", s, "built at")
	}
}

func TestUserAgent(t *testing.T) {
	saved := Version
	t.Cleanup(func() { Version = saved })

	Version = "v0.4.0"
	if got := UserAgent(); got != "booklend-cli/v0.4.0" {
		t.Errorf("UserAgent() = %q, want %q", got, "booklend-cli/v0.4.0")
	}
}
