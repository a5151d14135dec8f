package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

// newJSON returns a JSON logger writing to buf.
func newJSON(t *testing.T, level string, buf *bytes.Buffer) Logger {
	t.Helper()
	l, err := New(Config{Level: level, Format: "json", Output: buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return l
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", DefaultConfig(), false},
		{"empty", Config{}, false},
		{"json debug", Config{Level: "debug", Format: "json"}, false},
		{"upper case", Config{Level: "ERROR", Format: "TEXT"}, false},
		{"bad level", Config{Level: "loud"}, true},
		{"bad format", Config{Format: "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && l == nil {
				t.Fatal("New() returned nil logger")
			}
		})
	}
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := newJSON(t, "debug", &buf)

	tests := []struct {
		level   string
		logFunc func(string, ...any)
	}{
		{"DEBUG", l.Debug},
		{"INFO", l.Info},
		{"WARN", l.Warn},
		{"ERROR", l.Error},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf.Reset()
			tt.logFunc("book saved", "id", "42")

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("decode: %v (%q)", err, buf.String())
			}
			if entry["level"] != tt.level {
				t.Errorf("level = %v, want %s", entry["level"], tt.level)
			}
			if entry["msg"] != "book saved" || entry["id"] != "42" {
				t.Errorf("entry = %v", entry)
			}
		})
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	l := newJSON(t, "info", &buf)

	l.With("command", "book list").Info("done")

	if !strings.Contains(buf.String(), `"command":"book list"`) {
		t.Errorf("output = %q, want command attribute", buf.String())
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newJSON(t, "error", &buf)

	l.Info("hidden")
	if buf.Len() > 0 {
		t.Fatal("info should be filtered at error level")
	}

	if err := SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel() error = %v", err)
	}
	l.Info("shown")
	if buf.Len() == 0 {
		t.Error("existing loggers should follow the new level")
	}

	if err := SetLevel("loud"); err == nil {
		t.Error("SetLevel() should reject unknown levels")
	}
	if got := GetLevel(); got != "debug" {
		t.Errorf("GetLevel() = %q after rejected change, want %q", got, "debug")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"", slog.LevelWarn, false},
		{" error ", slog.LevelError, false},
		{"trace", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTextFormat_Timestamps(t *testing.T) {
	tests := []struct {
		name       string
		timestamps bool
		wantTime   bool
	}{
		{"terminal default", false, false},
		{"timestamps on", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := New(Config{Level: "info", Format: "text", Output: &buf, Timestamps: tt.timestamps})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			l.Info("unlocked", "route", "catalog")

			out := buf.String()
			if !strings.Contains(out, "route=catalog") {
				t.Errorf("output = %q, want route attribute", out)
			}
			if got := strings.Contains(out, "time="); got != tt.wantTime {
				t.Errorf("time present = %v, want %v (%q)", got, tt.wantTime, out)
			}
		})
	}
}

func TestJSONFormat_KeepsTime(t *testing.T) {
	var buf bytes.Buffer
	newJSON(t, "info", &buf).Info("x")

	if !strings.Contains(buf.String(), `"time":`) {
		t.Errorf("JSON output should carry time, got %q", buf.String())
	}
}

func TestDefault(t *testing.T) {
	var buf bytes.Buffer
	l := newJSON(t, "info", &buf)
	saved := Default()
	t.Cleanup(func() { SetDefault(saved) })

	SetDefault(l)
	Default().Info("via default")

	if !strings.Contains(buf.String(), "via default") {
		t.Errorf("Default() should return the logger set by SetDefault")
	}
}

func TestSlog(t *testing.T) {
	var buf bytes.Buffer
	l := newJSON(t, "info", &buf)

	Slog(l).Info("from slog", "authorization", "Bearer abc123def456")

	output := buf.String()
	if !strings.Contains(output, "from slog") {
		t.Errorf("Slog() logger should share the handler, got: %s", output)
	}
	if strings.Contains(output, "abc123def456") {
		t.Errorf("Slog() logger should redact, got: %s", output)
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("dropped")
	if Slog(l) == nil {
		t.Error("Slog(Discard()) returned nil")
	}
}
