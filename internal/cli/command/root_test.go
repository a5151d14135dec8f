package command

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/yndnr/booklend-go/internal/cli/connection"
	"github.com/yndnr/booklend-go/internal/core/domain"
	"github.com/yndnr/booklend-go/internal/infra/buildinfo"
)

func TestApp(t *testing.T) {
	app := App()
	if app == nil {
		t.Fatal("App() returned nil")
	}

	if app.Name != "booklend-cli" {
		t.Errorf("Name = %q, want %q", app.Name, "booklend-cli")
	}
	if app.Usage == "" {
		t.Error("Usage should not be empty")
	}

	commandNames := make(map[string]bool)
	for _, cmd := range app.Commands {
		commandNames[cmd.Name] = true
	}
	for _, name := range []string{"signin", "unlock", "logout", "status", "book", "config", "version", "shell"} {
		if !commandNames[name] {
			t.Errorf("missing required command: %s", name)
		}
	}
}

func TestApp_GlobalFlags(t *testing.T) {
	app := App()

	flagNames := make(map[string]bool)
	for _, flag := range app.Flags {
		flagNames[flag.Names()[0]] = true
	}
	for _, name := range []string{"config", "server", "output", "wide", "verbose", "log-level", "ephemeral", "metrics-file"} {
		if !flagNames[name] {
			t.Errorf("missing required flag: %s", name)
		}
	}
}

func TestBookCommand_Subcommands(t *testing.T) {
	cmd := BookCommand()

	names := make(map[string]bool)
	for _, sub := range cmd.Subcommands {
		names[sub.Name] = true
	}
	for _, name := range []string{"list", "get", "add", "edit", "delete"} {
		if !names[name] {
			t.Errorf("missing subcommand: %s", name)
		}
	}
}

func TestVersion(t *testing.T) {
	e := newTestEnv(t, "")

	r := e.mustRun("", "-o", "json", "version")

	var info buildinfo.Info
	if err := json.Unmarshal([]byte(r.stdout), &info); err != nil {
		t.Fatalf("decode: %v\n%s", err, r.stdout)
	}
	if info.Version != buildinfo.Get().Version {
		t.Errorf("Version = %q, want %q", info.Version, buildinfo.Get().Version)
	}
	if n := len(e.srv.Requests()); n != 0 {
		t.Errorf("requests = %d, want 0", n)
	}
}

func TestInvalidOutputFormat(t *testing.T) {
	e := newTestEnv(t, "")

	r := e.run("", "-o", "xml", "version")
	if r.err == nil {
		t.Fatal("expected error for unknown output format")
	}
}

func TestPrintError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "validation",
			err: domain.NewValidationError(
				domain.FieldError{Field: "title", Message: "is required"},
				domain.FieldError{Field: "year", Message: "must be a year"},
			),
			want: []string{"invalid input", "  - title: is required", "  - year: must be a year"},
		},
		{
			name: "status",
			err:  &connection.StatusError{Status: 500, Message: "boom", RequestID: "01J0"},
			want: []string{"returned 500: boom", "request id: 01J0"},
		},
		{
			name: "not authenticated hint",
			err:  domain.ErrNotAuthenticated,
			want: []string{"error: ", "booklend-cli signin"},
		},
		{
			name: "wrapped transport hint",
			err:  fmt.Errorf("list: %w", domain.ErrTransport.Wrap(errors.New("refused"))),
			want: []string{"refused", "catalog.base_url"},
		},
		{
			name: "plain",
			err:  errors.New("something odd"),
			want: []string{"error: something odd"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			PrintError(&buf, tt.err)
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("PrintError() = %q, want it to contain %q", buf.String(), want)
				}
			}
		})
	}
}
