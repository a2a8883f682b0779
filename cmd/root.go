// Package cmd (root.go) defines the root command for the gdrive-ownership CLI.
// It sets up the global flags, resolves configuration for subcommands and
// maps a failing command to exit status 1.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/tonimelisma/gdrive-ownership/internal/app"
	"github.com/tonimelisma/gdrive-ownership/internal/config"
	"github.com/tonimelisma/gdrive-ownership/internal/logger"
	"github.com/tonimelisma/gdrive-ownership/internal/transfer"
	"github.com/tonimelisma/gdrive-ownership/internal/ui"
	"github.com/tonimelisma/gdrive-ownership/pkg/gdrive"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "gdrive-ownership",
	Short: "Hand ownership of Google Drive files to another account",
	Long: `gdrive-ownership offers ownership of a Google Drive file to another user.

The recipient is added as a writer flagged as pending owner and receives an
email asking them to accept. Authorization uses credentials.json (an OAuth
client downloaded from the Google Cloud console) and keeps the resulting
refresh token in token.json.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command and exits with status 1 on any error.
// This is called by main.main(). Ctrl-C cancels the running command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		ui.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	addGlobalFlags(rootCmd)
}

func addGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("config", "", fmt.Sprintf("TOML config file (default %s, or $%s)", config.DefaultConfigFile, config.EnvConfigPath))
	flags.Bool("debug", false, "Enable debug logging")
	flags.String("token", "", fmt.Sprintf("Token file (default %s)", config.DefaultTokenPath))
	flags.String("credentials", "", fmt.Sprintf("OAuth client registration file (default %s)", config.DefaultCredentialsPath))
}

// loadConfig resolves configuration from defaults, the config file, the
// environment and finally the global flags.
func loadConfig(cmd *cobra.Command) (*config.Configuration, error) {
	flags := cmd.Flags()

	path, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	if flags.Changed("token") {
		cfg.TokenPath, _ = flags.GetString("token")
	}
	if flags.Changed("credentials") {
		cfg.CredentialsPath, _ = flags.GetString("credentials")
	}
	if flags.Changed("debug") {
		cfg.Debug, _ = flags.GetBool("debug")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp loads configuration and wires the application. No network call is
// made until Connect.
func newApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log := logger.NewDefaultLogger(cfg.Debug)
	log.Debug("configuration loaded", "token", cfg.TokenPath, "credentials", cfg.CredentialsPath)
	return app.New(cfg, log), nil
}

// connectedApp returns an App with a ready Drive client, running consent
// when no credential is saved.
func connectedApp(cmd *cobra.Command) (*app.App, error) {
	a, err := newApp(cmd)
	if err != nil {
		return nil, err
	}
	if err := a.Connect(cmd.Context(), true); err != nil {
		return nil, err
	}
	return a, nil
}

func workflowOptions(cfg *config.Configuration) transfer.Options {
	return transfer.Options{
		PageSize:           cfg.PageSize,
		PermissionPageSize: cfg.PermissionPageSize,
		Create: gdrive.CreateOptions{
			SendNotificationEmail: cfg.SendNotificationEmail,
			EmailMessage:          cfg.EmailMessage,
			MoveToNewOwnersRoot:   cfg.MoveToNewOwnersRoot,
		},
	}
}
