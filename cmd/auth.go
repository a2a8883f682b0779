// Package cmd (auth.go) defines the commands that manage the saved Google
// authorization: 'auth login', 'auth logout' and 'auth status'.
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tonimelisma/gdrive-ownership/internal/app"
	"github.com/tonimelisma/gdrive-ownership/internal/ui"
)

// authCmd represents the base 'auth' command.
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authorization with Google Drive",
	Long:  `Provides subcommands to authorize this tool (login), forget the saved authorization (logout), and check which account is in use (status).`,
}

// authLoginCmd handles 'auth login'. It always runs the browser consent
// flow, replacing any saved refresh token.
var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize access to Google Drive in the browser",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		return authLoginLogic(a, cmd)
	},
}

// authLogoutCmd handles 'auth logout'.
var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Delete the saved token file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		return authLogoutLogic(a, cmd)
	},
}

// authStatusCmd handles 'auth status'. It never opens the browser.
var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the account the saved token belongs to",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		if err := a.Connect(cmd.Context(), false); err != nil {
			if errors.Is(err, app.ErrNotLoggedIn) {
				fmt.Fprintln(cmd.OutOrStdout(), "You are not logged in.")
				return nil
			}
			return err
		}
		return authStatusLogic(a, cmd)
	},
}

func authLoginLogic(a *app.App, cmd *cobra.Command) error {
	if _, err := a.Auth.Login(cmd.Context()); err != nil {
		return err
	}
	ui.PrintSuccess(cmd.OutOrStdout(), "Login successful. Credentials saved to %s.", a.Config.TokenPath)
	return nil
}

func authLogoutLogic(a *app.App, cmd *cobra.Command) error {
	if err := a.Auth.Logout(); err != nil {
		return fmt.Errorf("logging out: %w", err)
	}
	ui.Success(cmd.OutOrStdout(), "You have been logged out.")
	return nil
}

func authStatusLogic(a *app.App, cmd *cobra.Command) error {
	user, err := a.SDK.AboutUser(cmd.Context())
	if err != nil {
		return fmt.Errorf("checking login status: %w", err)
	}
	ui.DisplayUser(cmd.OutOrStdout(), user)
	return nil
}

func init() {
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}
