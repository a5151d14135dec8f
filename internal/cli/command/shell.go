package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/booklend-go/internal/cli/repl"
	"github.com/yndnr/booklend-go/internal/core/session"
	"github.com/yndnr/booklend-go/internal/telemetry/logger"
)

// ShellCommand returns the interactive shell command.
//
// The shell keeps one session for its lifetime: the biometric gate runs
// at most once per unlock, not once per command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:    "shell",
		Aliases: []string{"sh"},
		Usage:   "Start an interactive shell",
		Action:  shell,
	}
}

func shell(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	ctx := c.Context
	if err := rt.Open(ctx); err != nil {
		return err
	}

	fmt.Fprintf(rt.out, "booklend shell (%s). Type 'help' for commands, 'exit' to quit.\n", rt.client.BaseURL())
	if rt.session.State() == session.AwaitingBiometric {
		if err := rt.session.Unlock(ctx); err != nil {
			PrintError(rt.errOut, err)
		}
	}

	history := repl.NewHistory()
	if rt.ephemeral {
		history = repl.NewHistoryAt("")
	}

	r := repl.New(shellExecutor(rt),
		repl.WithIO(rt.in, rt.out),
		repl.WithHistory(history),
		repl.WithLogger(rt.Logger),
		repl.WithPrompt(func() string {
			return fmt.Sprintf("booklend(%s)> ", rt.session.Route())
		}),
	)
	return r.Run(ctx)
}

// shellExecutor runs each line through a sub-app sharing rt. Errors are
// printed and never end the shell.
func shellExecutor(rt *Runtime) repl.Executor {
	return func(ctx context.Context, args []string) error {
		app := &cli.App{
			Name:           "booklend",
			HideVersion:    true,
			Commands:       append(commands(), logLevelCommand()),
			Reader:         rt.in,
			Writer:         rt.out,
			ErrWriter:      rt.errOut,
			Metadata:       map[string]any{runtimeKey: rt},
			ExitErrHandler: func(*cli.Context, error) {},
		}
		if err := app.RunContext(ctx, append([]string{"booklend"}, args...)); err != nil {
			PrintError(rt.errOut, err)
		}
		return nil
	}
}

// logLevelCommand changes the log level for the rest of the shell.
func logLevelCommand() *cli.Command {
	return &cli.Command{
		Name:      "log-level",
		Usage:     "Show or set the log level",
		ArgsUsage: "[debug|info|warn|error]",
		Action: func(c *cli.Context) error {
			rt, err := runtimeFrom(c)
			if err != nil {
				return err
			}
			if level := c.Args().First(); level != "" {
				if err := logger.SetLevel(level); err != nil {
					return err
				}
			}
			fmt.Fprintf(rt.out, "log level: %s\n", logger.GetLevel())
			return nil
		},
	}
}
