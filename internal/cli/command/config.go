package command

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/booklend-go/internal/biometric"
	"github.com/yndnr/booklend-go/internal/cli/config"
	"github.com/yndnr/booklend-go/internal/cli/output"
	"github.com/yndnr/booklend-go/internal/core/domain"
)

// minPasscodeLength is the shortest passcode accepted by config passcode.
const minPasscodeLength = 4

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration",
				Action: configShow,
			},
			{
				Name:   "validate",
				Usage:  "Validate the configuration",
				Action: configValidate,
			},
			{
				Name:  "passcode",
				Usage: "Hash a passcode for the passcode gate",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Switch to the passcode provider and write the config file",
					},
				},
				Action: configPasscode,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}

	// Table output has no sensible shape for nested config; use YAML.
	format := rt.format
	if format == output.FormatTable {
		format = output.FormatYAML
		fmt.Fprintf(rt.out, "# %s\n", rt.ConfigPath)
	}
	return output.NewFormatter(format, false).Format(rt.out, rt.Config)
}

func configValidate(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	if err := config.Verify(rt.Config); err != nil {
		return err
	}
	fmt.Fprintln(rt.out, "✓ Configuration is valid")
	return nil
}

func configPasscode(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	ctx := c.Context

	fmt.Fprint(rt.errOut, "New passcode: ")
	first, err := biometric.ReadSecret(ctx, rt.in)
	fmt.Fprintln(rt.errOut)
	if err != nil {
		return fmt.Errorf("read passcode: %w", err)
	}
	if len([]rune(first)) < minPasscodeLength {
		return domain.NewValidationError(domain.FieldError{
			Field:   "passcode",
			Message: fmt.Sprintf("must be at least %d characters", minPasscodeLength),
		})
	}

	fmt.Fprint(rt.errOut, "Repeat passcode: ")
	second, err := biometric.ReadSecret(ctx, rt.in)
	fmt.Fprintln(rt.errOut)
	if err != nil {
		return fmt.Errorf("read passcode: %w", err)
	}
	if first != second {
		return errors.New("passcodes do not match")
	}

	hash, err := biometric.HashPasscode(first)
	if err != nil {
		return err
	}

	if !c.Bool("save") {
		fmt.Fprintf(rt.out, "biometric:\n  provider: %s\n  passcode_hash: %q\n", biometric.ProviderPasscode, hash)
		return nil
	}

	rt.Config.Biometric.Provider = biometric.ProviderPasscode
	rt.Config.Biometric.PasscodeHash = hash
	if err := config.Save(rt.Config, rt.ConfigPath); err != nil {
		return err
	}
	fmt.Fprintf(rt.out, "✓ Passcode saved to %s\n", rt.ConfigPath)
	return nil
}
