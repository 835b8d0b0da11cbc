package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/profilesync/internal/app"
	"github.com/aussiebroadwan/profilesync/pkg/profilesdk"
)

// cli carries state shared by every command of one invocation.
type cli struct {
	configFile string
	storeFlag  string
	hostFlag   string
	verbose    bool

	app *app.Application
}

// run executes one invocation of the CLI and releases what it opened.
func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	c := &cli{}

	rootCmd := c.rootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	err := rootCmd.ExecuteContext(ctx)
	if c.app != nil {
		err = errors.Join(err, c.app.Close())
	}
	return err
}

func (c *cli) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "profilectl",
		Short: "Log in to the account API and edit your profile",
		Long: `profilectl talks to the account API: it logs you in, keeps the bearer
token in an encrypted local store, and reads or updates your profile.

The API address comes from PROFILESYNC_API_HOST (or IP_address), a .env file
in the working directory, or profilesync.yaml.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	rootCmd.PersistentFlags().StringVar(&c.configFile, "config", "", "Config file (default: profilesync.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&c.storeFlag, "store", "", "Credential store driver: sqlite or memory")
	rootCmd.PersistentFlags().StringVar(&c.hostFlag, "host", "", "API host, overrides configuration")
	rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		c.loginCmd(),
		c.signupCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.profileCmd(),
	)

	return rootCmd
}

func (c *cli) setup(cmd *cobra.Command, args []string) error {
	cfg, err := app.LoadConfig(c.configFile)
	if err != nil {
		return err
	}

	if c.storeFlag != "" {
		cfg.Store.Driver = c.storeFlag
	}
	if c.hostFlag != "" {
		cfg.API.Host = c.hostFlag
	}
	if c.verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.app, err = app.New(cfg, app.WithLogWriter(cmd.ErrOrStderr()))
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	cmd.SetContext(c.app.Context(cmd.Context()))
	return nil
}

// printRequestError writes field-level detail for validation and API
// errors. It reports whether err was one of those.
func printRequestError(w io.Writer, err error) bool {
	var valErr *profilesdk.ValidationError
	if errors.As(err, &valErr) {
		for _, line := range sortedFields(valErr.Fields) {
			fmt.Fprintln(w, "  "+line)
		}
		return true
	}

	var apiErr *profilesdk.APIError
	if errors.As(err, &apiErr) {
		for _, msg := range apiErr.Messages() {
			fmt.Fprintln(w, "  "+msg)
		}
		return true
	}

	return false
}
