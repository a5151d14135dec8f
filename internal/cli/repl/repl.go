package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yndnr/booklend-go/internal/telemetry/logger"
)

// Executor runs one shell line, already split into arguments.
type Executor func(ctx context.Context, args []string) error

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	prompt    func() string
	exec      Executor
	completer *Completer
	history   *History
	logger    logger.Logger
}

// Option configures a REPL.
type Option func(*REPL)

// WithIO sets the input and output streams.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *REPL) {
		r.input = in
		r.output = out
	}
}

// WithPrompt sets a prompt function evaluated before every line.
func WithPrompt(prompt func() string) Option {
	return func(r *REPL) {
		r.prompt = prompt
	}
}

// WithHistory replaces the default history.
func WithHistory(h *History) Option {
	return func(r *REPL) {
		r.history = h
	}
}

// WithCompleter replaces the default command list.
func WithCompleter(c *Completer) Option {
	return func(r *REPL) {
		r.completer = c
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *REPL) {
		r.logger = l
	}
}

// New creates a REPL that hands every line to exec.
func New(exec Executor, opts ...Option) *REPL {
	r := &REPL{
		input:     os.Stdin,
		output:    os.Stdout,
		prompt:    func() string { return "booklend> " },
		exec:      exec,
		completer: NewCompleter(),
		history:   NewHistory(),
		logger:    logger.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reads lines until exit, EOF or ctx is done. Command errors are
// printed and the loop continues.
func (r *REPL) Run(ctx context.Context) error {
	if err := r.history.Load(); err != nil {
		r.logger.Warn("history not loaded", "error", err)
	}
	defer func() {
		if err := r.history.Save(); err != nil {
			r.logger.Warn("history not saved", "error", err)
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		fmt.Fprint(r.output, r.prompt())

		line, err := ReadLine(r.input)
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(r.output)
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.history.Add(line)

		args, err := SplitArgs(line)
		if err != nil {
			fmt.Fprintf(r.output, "Error: %v\n", err)
			continue
		}

		switch args[0] {
		case "exit", "quit":
			return nil
		case "help", "?":
			r.help(args[1:])
			continue
		case "history":
			r.printHistory()
			continue
		}

		if err := r.exec(ctx, args); err != nil {
			fmt.Fprintf(r.output, "Error: %v\n", err)
		}
	}
}

func (r *REPL) help(args []string) {
	prefix := strings.Join(args, " ")
	matches := r.completer.Complete(prefix)
	if len(matches) == 0 {
		fmt.Fprintf(r.output, "No commands match %q\n", prefix)
		return
	}
	for _, m := range matches {
		fmt.Fprintf(r.output, "  %s\n", m)
	}
}

func (r *REPL) printHistory() {
	entries := r.history.Entries()
	for i, e := range entries {
		fmt.Fprintf(r.output, "%4d  %s\n", i+1, e)
	}
}

// SplitArgs splits a shell line into arguments, honouring single and
// double quotes and backslash escapes.
func SplitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inToken bool
		quote   rune
		escaped bool
	)

	for _, c := range line {
		switch {
		case escaped:
			cur.WriteRune(c)
			escaped = false
		case c == '\\' && quote != '\'':
			escaped = true
			inToken = true
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				cur.WriteRune(c)
			}
		case c == '"' || c == '\'':
			quote = c
			inToken = true
		case c == ' ' || c == '\t':
			if inToken {
				args = append(args, cur.String())
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteRune(c)
			inToken = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if escaped {
		return nil, errors.New("trailing backslash")
	}
	if inToken {
		args = append(args, cur.String())
	}
	return args, nil
}

// ReadLine reads one line a byte at a time. The passcode prompt reads the
// same stdin, so nothing past the newline may be consumed.
func ReadLine(r io.Reader) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				return strings.TrimRight(sb.String(), "\r"), nil
			}
			sb.WriteByte(buf[0])
		}
		if err != nil {
			if errors.Is(err, io.EOF) && sb.Len() > 0 {
				return sb.String(), nil
			}
			return "", err
		}
	}
}
