package command

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/booklend-go/internal/cli/connection"
	"github.com/yndnr/booklend-go/internal/core/domain"
	"github.com/yndnr/booklend-go/internal/infra/buildinfo"
)

// runtimeKey stores the *Runtime in cli.App.Metadata.
const runtimeKey = "runtime"

// App creates the CLI application bound to the process streams.
func App() *cli.App {
	return NewApp(os.Stdin, os.Stdout, os.Stderr)
}

// NewApp creates the CLI application with explicit streams.
func NewApp(in io.Reader, out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:                 buildinfo.Product,
		Usage:                "Browse and manage the book-lending catalog",
		Version:              buildinfo.String(),
		Flags:                globalFlags(),
		Commands:             append(commands(), ShellCommand()),
		EnableBashCompletion: true,
		Reader:               in,
		Writer:               out,
		ErrWriter:            errOut,
		Metadata:             map[string]any{},
		Before: func(c *cli.Context) error {
			rt, err := newRuntime(c)
			if err != nil {
				return err
			}
			c.App.Metadata[runtimeKey] = rt
			return nil
		},
		After: func(c *cli.Context) error {
			if rt, ok := c.App.Metadata[runtimeKey].(*Runtime); ok {
				return rt.Close(c.Context)
			}
			return nil
		},
	}
}

// commands lists the commands shared by single-shot mode and the shell.
func commands() []*cli.Command {
	return []*cli.Command{
		SignInCommand(),
		UnlockCommand(),
		LogoutCommand(),
		StatusCommand(),
		BookCommand(),
		ConfigCommand(),
		VersionCommand(),
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Config file (default ~/.booklend/cli.yaml)",
			EnvVars: []string{"BOOKLEND_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "Catalog base URL (e.g. http://localhost:3000/api)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable debug logging",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: text, json",
		},
		&cli.BoolFlag{
			Name:  "ephemeral",
			Usage: "Keep the session token in memory only",
		},
		&cli.StringFlag{
			Name:  "metrics-file",
			Usage: "Write Prometheus metrics to this file on exit",
		},
	}
}

// flagOverrides maps set global flags onto config keys.
func flagOverrides(c *cli.Context) map[string]any {
	overrides := map[string]any{}
	set := func(flag, key string) {
		if c.IsSet(flag) {
			overrides[key] = c.String(flag)
		}
	}
	set("server", "catalog.base_url")
	set("output", "output.format")
	set("log-format", "log.format")
	set("metrics-file", "metrics_file")
	set("log-level", "log.level")
	if c.Bool("verbose") && !c.IsSet("log-level") {
		overrides["log.level"] = "debug"
	}
	return overrides
}

// runtimeFrom returns the runtime created by the app's Before hook.
func runtimeFrom(c *cli.Context) (*Runtime, error) {
	if rt, ok := c.App.Metadata[runtimeKey].(*Runtime); ok {
		return rt, nil
	}
	return nil, errors.New("command runtime not initialised")
}

// PrintError writes err to w in a form suited to the terminal.
// Validation errors list one field per line.
func PrintError(w io.Writer, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		fmt.Fprintln(w, "error: invalid input")
		for _, f := range ve.Fields {
			fmt.Fprintf(w, "  - %s\n", f)
		}
		return
	}

	var se *connection.StatusError
	if errors.As(err, &se) {
		fmt.Fprintf(w, "error: catalog service returned %d: %s\n", se.Status, se.Message)
		if se.RequestID != "" {
			fmt.Fprintf(w, "  request id: %s\n", se.RequestID)
		}
		return
	}

	fmt.Fprintf(w, "error: %v\n", err)
	if code := domain.GetErrorCode(err); code != "" {
		if hint := hints[code]; hint != "" {
			fmt.Fprintf(w, "  %s\n", hint)
		}
	}
}

// hints suggest the next step for recoverable errors.
var hints = map[string]string{
	domain.ErrNotAuthenticated.Code: "run 'booklend-cli signin' to start a session",
	domain.ErrAuthRejected.Code:     "the session has ended; sign in again",
	domain.ErrCapability.Code:       "set session.biometric_policy: if_available or biometric.provider: passcode",
	domain.ErrTransport.Code:        "check catalog.base_url and that the service is reachable",
}
