package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"auditai/pkg/auth"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type credentials struct {
	orgName  string
	email    string
	password string
}

// fillCredentials prompts for anything not given as a flag.
func fillCredentials(p *prompter, c *credentials, withOrg bool) error {
	var err error
	if withOrg && c.orgName == "" {
		if c.orgName, err = p.ask("Organisation name: "); err != nil {
			return err
		}
	}
	if c.email == "" {
		if c.email, err = p.ask("Email: "); err != nil {
			return err
		}
	}
	if c.password == "" {
		if c.password, err = p.secret("Password: "); err != nil {
			return err
		}
	}
	return nil
}

func submitAuth(ctx context.Context, rt *runtime, mode auth.Mode, c credentials) error {
	screen := rt.app.Auth
	screen.SetMode(mode)
	screen.SetCredentials(c.orgName, c.email, c.password)
	return screen.Submit(ctx)
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var c credentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.load()
			if err != nil {
				return err
			}
			p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err := fillCredentials(p, &c, false); err != nil {
				return err
			}
			if err := submitAuth(cmd.Context(), rt, auth.ModeLogin, c); err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", c.email)
			return nil
		},
	}
	cmd.Flags().StringVar(&c.email, "email", "", "Account email")
	cmd.Flags().StringVar(&c.password, "password", "", "Account password (prompted when omitted)")
	return cmd
}

func newRegisterCmd(opts *rootOptions) *cobra.Command {
	var c credentials
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.load()
			if err != nil {
				return err
			}
			p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err := fillCredentials(p, &c, true); err != nil {
				return err
			}
			if err := submitAuth(cmd.Context(), rt, auth.ModeRegister, c); err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Registered %s (%s)\n", c.email, c.orgName)
			return nil
		},
	}
	cmd.Flags().StringVar(&c.orgName, "org", "", "Organisation name")
	cmd.Flags().StringVar(&c.email, "email", "", "Account email")
	cmd.Flags().StringVar(&c.password, "password", "", "Account password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.load()
			if err != nil {
				return err
			}
			if err := rt.app.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.load()
			if err != nil {
				return err
			}
			sess, ok := rt.store.Current()
			if !ok {
				return errNotLoggedIn
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Email:        %s\n", sess.User.Email)
			fmt.Fprintf(out, "Organisation: %s\n", orDefault(sess.User.OrgName, "-"))
			fmt.Fprintf(out, "Backend:      %s\n", rt.client.BaseURL())
			fmt.Fprintf(out, "Session file: %s\n", rt.storage.Path())
			if c, ok := rt.store.Claims(); ok && !c.ExpiresAt.IsZero() {
				expiry := c.ExpiresAt.Local().Format(time.DateTime)
				if c.Expired(time.Now()) {
					color.New(color.FgRed).Fprintf(out, "Token:        expired %s\n", expiry)
				} else {
					fmt.Fprintf(out, "Token:        valid until %s\n", expiry)
				}
			}
			return nil
		},
	}
}

var errOffline = errors.New("backend is offline")

func printHealth(w io.Writer, status auth.HealthStatus) {
	switch status {
	case auth.HealthConnected:
		color.New(color.FgGreen).Fprintln(w, "● connected")
	case auth.HealthOffline:
		color.New(color.FgRed).Fprintln(w, "● offline")
	default:
		color.New(color.FgYellow).Fprintln(w, "● checking")
	}
}

func newHealthCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe the backend liveness endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.load()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s ", rt.client.BaseURL())
			status := rt.app.Auth.ProbeHealth(cmd.Context())
			printHealth(cmd.OutOrStdout(), status)
			if status == auth.HealthOffline {
				return errOffline
			}
			return nil
		},
	}
}
