package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/booklend-go/internal/biometric"
	"github.com/yndnr/booklend-go/internal/core/domain"
	"github.com/yndnr/booklend-go/internal/core/session"
	"github.com/yndnr/booklend-go/internal/storage"
	"github.com/yndnr/booklend-go/pkg/token"
)

// SignInCommand returns the signin command.
func SignInCommand() *cli.Command {
	return &cli.Command{
		Name:  "signin",
		Usage: "Sign in to the catalog service",
		Description: "Exchanges email and password for a session token, or stores a token\n" +
			"obtained elsewhere. The session must then pass the biometric gate.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "email",
				Aliases: []string{"e"},
				Usage:   "Account email",
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Account password (prompted when omitted)",
			},
			&cli.StringFlag{
				Name:  "token",
				Usage: "Use an existing session token",
			},
		},
		Action: signIn,
	}
}

func signIn(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	ctx := c.Context
	if err := rt.Open(ctx); err != nil {
		return err
	}

	tok := strings.TrimSpace(c.String("token"))
	who := "token"
	if tok == "" {
		email := strings.TrimSpace(c.String("email"))
		if email == "" {
			return domain.ErrMissingArgument.WithDetails("--email or --token is required")
		}
		password := c.String("password")
		if password == "" {
			fmt.Fprint(rt.errOut, "Password: ")
			password, err = biometric.ReadSecret(ctx, rt.in)
			fmt.Fprintln(rt.errOut)
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
		}

		stop := rt.Spin("Signing in")
		tok, err = rt.client.SignIn(ctx, rt.Config.Catalog.SignInPath, email, password)
		stop()
		if err != nil {
			return err
		}
		who = email
	}

	if err := rt.session.SignIn(ctx, tok); err != nil {
		return err
	}
	rt.Notice("✓ Signed in (%s)", who)

	// A fresh sign-in is gated like every launch.
	if err := rt.session.Unlock(ctx); err != nil {
		rt.Logger.Warn("unlock after sign-in failed", "error", err)
		rt.Notice("Session saved but locked: %v", err)
		return nil
	}
	rt.Notice("✓ Unlocked")
	return nil
}

// UnlockCommand returns the unlock command.
func UnlockCommand() *cli.Command {
	return &cli.Command{
		Name:   "unlock",
		Usage:  "Pass the biometric gate for the stored session",
		Action: unlock,
	}
}

func unlock(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	if err := rt.Open(c.Context); err != nil {
		return err
	}
	if err := rt.session.Unlock(c.Context); err != nil {
		return err
	}
	rt.Notice("✓ Unlocked")
	return nil
}

// LogoutCommand returns the logout command.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Sign out and clear the stored session",
		Action: logout,
	}
}

func logout(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	if err := rt.Open(c.Context); err != nil {
		return err
	}
	if err := rt.session.Logout(c.Context); err != nil {
		return err
	}
	rt.Notice("✓ Signed out")
	return nil
}

// statusView is the status command's output.
type statusView struct {
	State       string `json:"state" yaml:"state"`
	Route       string `json:"route" yaml:"route"`
	Token       string `json:"token,omitempty" yaml:"token,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	Subject     string `json:"subject,omitempty" yaml:"subject,omitempty" table:"wide"`
	Expires     string `json:"expires,omitempty" yaml:"expires,omitempty"`
	Server      string `json:"server" yaml:"server"`
	Store       string `json:"store" yaml:"store"`
	Biometric   string `json:"biometric" yaml:"biometric"`
	Policy      string `json:"policy" yaml:"policy"`
}

// StatusCommand returns the status command.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show the session state",
		Action: status,
	}
}

func status(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	if err := rt.Open(c.Context); err != nil {
		return err
	}

	view := statusView{
		State:     rt.session.State().String(),
		Route:     rt.session.Route().String(),
		Server:    rt.client.BaseURL(),
		Store:     rt.storeDesc,
		Biometric: rt.Config.Biometric.Provider,
		Policy:    rt.Config.Session.BiometricPolicy,
	}

	// Only a fingerprint of the credential is ever shown.
	if rt.session.State() != session.Unauthenticated {
		tok, ok, err := rt.store.Get(c.Context, storage.KeyToken)
		if err != nil {
			rt.Logger.Warn("token read failed", "error", err)
		} else if ok {
			view.Token = token.Mask(tok)
			view.Fingerprint = token.Fingerprint(tok)
			if claims, ok := token.Inspect(tok); ok {
				view.Subject = claims.Subject
				if !claims.ExpiresAt.IsZero() {
					view.Expires = claims.ExpiresAt.Local().Format(time.RFC3339)
					if claims.Expired(time.Now()) {
						view.Expires += " (expired)"
					}
				}
			}
		}
	}

	return rt.Print(view)
}
