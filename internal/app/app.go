package app

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/tonimelisma/gdrive-ownership/internal/config"
	"github.com/tonimelisma/gdrive-ownership/internal/credstore"
	"github.com/tonimelisma/gdrive-ownership/internal/logger"
	"github.com/tonimelisma/gdrive-ownership/internal/session"
	"github.com/tonimelisma/gdrive-ownership/pkg/gdrive"
	"golang.org/x/oauth2"
)

// App holds what a command needs once configuration has been resolved.
// SDK and Client are set by Connect.
type App struct {
	Config   *config.Configuration
	Logger   logger.Logger
	Auth     *Authorizer
	Sessions *session.Manager
	Client   *http.Client
	SDK      SDK
}

// New wires the credential store and authorizer for cfg. It does no I/O.
func New(cfg *config.Configuration, log logger.Logger) *App {
	if log == nil {
		log = logger.NoopLogger{}
	}
	store := credstore.New(cfg.TokenPath, cfg.CredentialsPath)
	consent := NewLoopbackConsent(cfg.ConsentTimeout.Duration, log)

	return &App{
		Config:   cfg,
		Logger:   log,
		Auth:     NewAuthorizer(store, cfg.Scopes, consent, log),
		Sessions: newSessionManager(cfg, log),
	}
}

// newSessionManager uses cfg.SessionDir, then the user config directory, then
// the directory of the token file.
func newSessionManager(cfg *config.Configuration, log logger.Logger) *session.Manager {
	if cfg.SessionDir != "" {
		return session.NewManagerWithConfigDir(cfg.SessionDir)
	}
	m, err := session.NewManager()
	if err != nil {
		log.Debug("no user config directory, keeping sessions beside the token file", "error", err)
		return session.NewManagerWithConfigDir(filepath.Dir(cfg.TokenPath))
	}
	return m
}

// Connect authorizes and builds the Drive client. With allowConsent unset a
// missing credential yields ErrNotLoggedIn instead of opening the browser.
func (a *App) Connect(ctx context.Context, allowConsent bool) error {
	base := &http.Client{Timeout: a.Config.HTTPTimeout.Duration}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)

	var (
		src oauth2.TokenSource
		err error
	)
	if allowConsent {
		src, err = a.Auth.Authorize(ctx)
	} else {
		src, err = a.Auth.Saved(ctx)
	}
	if err != nil {
		return err
	}

	client := oauth2.NewClient(ctx, src)
	client.Timeout = a.Config.HTTPTimeout.Duration

	sdk, err := gdrive.NewClient(ctx, client, a.Logger)
	if err != nil {
		return fmt.Errorf("initializing drive client: %w", err)
	}

	a.Client = client
	a.SDK = sdk
	return nil
}
