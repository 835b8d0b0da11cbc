package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/profilesync/internal/profile"
	"github.com/aussiebroadwan/profilesync/pkg/profilesdk"
)

var (
	errSaveFailed  = errors.New("profile not saved")
	errFetchFailed = errors.New("could not load your current profile, nothing was saved")
)

func (c *cli) profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit your profile",
	}

	cmd.AddCommand(c.profileShowCmd(), c.profileEditCmd(), c.profilePictureCmd())
	return cmd
}

func (c *cli) profileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g := c.app.ProfileGateway(nil)
			defer g.Status().Close()

			// A failed fetch leaves the draft empty, which is what gets shown.
			_ = g.FetchProfile(cmd.Context())

			printDraft(cmd, g.Holder().Snapshot(), c.app.Resolver())
			return nil
		},
	}
}

func (c *cli) profileEditCmd() *cobra.Command {
	var (
		values  = map[profile.Field]*string{}
		picture string
	)

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Change profile fields and save",
		Long: `Fetches your profile, applies the given changes and saves it.
Only flags that are passed change anything. Email cannot be changed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g := c.app.ProfileGateway(statusPrinter(cmd))
			defer g.Status().Close()

			if err := fetchForEdit(cmd, g); err != nil {
				return err
			}

			for field, v := range values {
				if !cmd.Flags().Changed(flagName(field)) {
					continue
				}
				if err := g.Holder().SetField(field, *v); err != nil {
					return err
				}
			}

			if picture != "" {
				stagePicture(g.Holder(), picture)
			}

			return save(cmd, g)
		},
	}

	for _, field := range []profile.Field{profile.FieldUsername, profile.FieldFirstName, profile.FieldLastName} {
		values[field] = cmd.Flags().String(flagName(field), "", "New "+string(field))
	}
	cmd.Flags().StringVar(&picture, "picture", "", "Image file to upload as the profile picture")
	return cmd
}

func (c *cli) profilePictureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "picture <file>",
		Short: "Upload a new profile picture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g := c.app.ProfileGateway(statusPrinter(cmd))
			defer g.Status().Close()

			if err := fetchForEdit(cmd, g); err != nil {
				return err
			}
			stagePicture(g.Holder(), args[0])

			if err := save(cmd, g); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Picture:", c.app.Resolver().Resolve(g.Holder().Snapshot()))
			return nil
		},
	}
}

// fetchForEdit loads the profile before a save. Every text field is sent on
// save, so saving over an empty draft would blank the ones not edited.
func fetchForEdit(cmd *cobra.Command, g *profile.Gateway) error {
	err := g.FetchProfile(cmd.Context())
	if err == nil {
		return nil
	}

	if errors.Is(err, profilesdk.ErrNoToken) || errors.Is(err, profilesdk.ErrTokenExpired) || profilesdk.IsUnauthorized(err) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Not logged in or session expired. Run `profilectl login` first.")
	} else {
		printRequestError(cmd.ErrOrStderr(), err)
	}
	return errFetchFailed
}

func save(cmd *cobra.Command, g *profile.Gateway) error {
	if !g.SaveProfile(cmd.Context()) {
		return errSaveFailed
	}
	return nil
}

func stagePicture(h *profile.Holder, path string) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	h.SetPendingImage(profile.FileImage{URI: path})
}

// statusPrinter prints status messages as they are set. Clears are not
// printed.
func statusPrinter(cmd *cobra.Command) func(string) {
	return func(msg string) {
		if msg != "" {
			fmt.Fprintln(cmd.OutOrStdout(), msg)
		}
	}
}

// flagName turns first_name into first-name.
func flagName(f profile.Field) string {
	b := []byte(f)
	for i := range b {
		if b[i] == '_' {
			b[i] = '-'
		}
	}
	return string(b)
}

func printDraft(cmd *cobra.Command, d profile.Draft, r profile.Resolver) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Username:   %s\n", d.Username)
	fmt.Fprintf(out, "First name: %s\n", d.FirstName)
	fmt.Fprintf(out, "Last name:  %s\n", d.LastName)
	fmt.Fprintf(out, "Email:      %s\n", d.Email)
	fmt.Fprintf(out, "Picture:    %s\n", r.Resolve(d))
}
