package command

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/yndnr/booklend-go/internal/core/catalog/catalogtest"
	"github.com/yndnr/booklend-go/internal/core/domain"
)

// testEnv is a fake catalog service plus an isolated HOME and config file.
type testEnv struct {
	t          *testing.T
	srv        *catalogtest.Server
	home       string
	configPath string
	storeDir   string
}

// newTestEnv writes a config pointing at a fresh fake catalog service.
// The gate is disabled and the policy lets it through, so sessions
// unlock without prompting unless extra overrides that.
func newTestEnv(t *testing.T, extra string) *testEnv {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)

	e := &testEnv{
		t:          t,
		srv:        catalogtest.NewServer(t),
		home:       home,
		configPath: filepath.Join(home, "cli.yaml"),
		storeDir:   filepath.Join(home, "store"),
	}

	cfg := fmt.Sprintf(`catalog:
  base_url: %s
session:
  biometric_policy: if_available
biometric:
  provider: none
storage:
  dir: %s
log:
  level: error
%s`, e.srv.BaseURL(), e.storeDir, extra)
	if err := os.WriteFile(e.configPath, []byte(cfg), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return e
}

// result captures one CLI invocation.
type result struct {
	stdout string
	stderr string
	err    error
}

// run executes the CLI once, as a separate process would.
func (e *testEnv) run(stdin string, args ...string) result {
	e.t.Helper()

	var out, errOut bytes.Buffer
	app := NewApp(strings.NewReader(stdin), &out, &errOut)
	argv := append([]string{"booklend-cli", "--config", e.configPath}, args...)
	err := app.RunContext(context.Background(), argv)
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

// mustRun fails the test if the invocation returns an error.
func (e *testEnv) mustRun(stdin string, args ...string) result {
	e.t.Helper()
	r := e.run(stdin, args...)
	if r.err != nil {
		e.t.Fatalf("%v: %v\nstderr: %s", args, r.err, r.stderr)
	}
	return r
}

// signIn signs in with the fake service's credentials.
func (e *testEnv) signIn() {
	e.t.Helper()
	e.mustRun("", "signin", "--email", catalogtest.Email, "--password", catalogtest.Password)
}

func sampleBooks() []domain.Book {
	return []domain.Book{
		{
			Title:     "Dune",
			Author:    "Frank Herbert",
			Genre:     "Science Fiction",
			Year:      1965,
			Price:     decimal.RequireFromString("9.99"),
			Available: true,
		},
		{
			Title:  "Emma",
			Author: "Jane Austen",
			Year:   1815,
			Price:  decimal.RequireFromString("4.50"),
		},
	}
}
