package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/profilesync/internal/auth"
	"github.com/aussiebroadwan/profilesync/pkg/profilesdk"
)

var errRejected = errors.New("request rejected")

func (c *cli) loginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the bearer token",
		Long:  `Exchanges an email and password for a bearer token. Use --password - to read the password from stdin.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readSecret(cmd.InOrStdin(), password)
			if err != nil {
				return err
			}

			err = c.app.Auth().Login(cmd.Context(), email, pw)
			if printRequestError(cmd.ErrOrStderr(), err) {
				return fmt.Errorf("login: %w", errRejected)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Logged in.")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password, or - for stdin")
	return cmd
}

func (c *cli) signupCmd() *cobra.Command {
	var req profilesdk.SignupRequest

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readSecret(cmd.InOrStdin(), req.Password)
			if err != nil {
				return err
			}
			req.Password = pw

			user, err := c.app.Auth().Signup(cmd.Context(), req)
			if printRequestError(cmd.ErrOrStderr(), err) {
				return fmt.Errorf("signup: %w", errRejected)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s.\n", user.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "Account password, or - for stdin")
	cmd.Flags().StringVar(&req.Username, "username", "", "Username")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Last name")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Auth().Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show what the stored token says about you",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := c.app.Auth().Whoami(cmd.Context(), time.Now())
			if errors.Is(err, auth.ErrNotLoggedIn) {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
				return nil
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if id.Opaque {
				fmt.Fprintf(out, "Logged in (token %s).\n", id.Fingerprint)
				return nil
			}

			fmt.Fprintf(out, "Email:   %s\n", id.Email)
			fmt.Fprintf(out, "User ID: %d\n", id.UserID)
			if !id.ExpiresAt.IsZero() {
				state := "valid"
				if id.Expired {
					state = "expired"
				}
				fmt.Fprintf(out, "Expires: %s (%s)\n", id.ExpiresAt.Local().Format(time.RFC1123), state)
			}
			fmt.Fprintf(out, "Token:   %s\n", id.Fingerprint)
			return nil
		},
	}
}

// readSecret returns flag, or the first line of stdin when flag is "-".
func readSecret(in io.Reader, flag string) (string, error) {
	if flag != "-" {
		return flag, nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func sortedFields(fields map[string]string) []string {
	out := make([]string, 0, len(fields))
	for name, reason := range fields {
		out = append(out, name+": "+reason)
	}
	sort.Strings(out)
	return out
}
