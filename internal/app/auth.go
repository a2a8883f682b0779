package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/tonimelisma/gdrive-ownership/internal/credstore"
	"github.com/tonimelisma/gdrive-ownership/internal/logger"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var (
	// ErrConsentFailed wraps any failure of the interactive consent flow.
	ErrConsentFailed = errors.New("authorization failed")
	// ErrNotLoggedIn means no usable credential is saved and consent was not
	// allowed.
	ErrNotLoggedIn = errors.New("not logged in")
)

// Consenter obtains a token interactively from the user.
type Consenter interface {
	Consent(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error)
}

// Authorizer turns a saved credential, or a fresh user consent, into an
// oauth2.TokenSource.
type Authorizer struct {
	store    *credstore.Store
	scopes   []string
	consent  Consenter
	endpoint oauth2.Endpoint
	logger   logger.Logger
}

// NewAuthorizer returns an Authorizer against Google's OAuth endpoint.
func NewAuthorizer(store *credstore.Store, scopes []string, consent Consenter, log logger.Logger) *Authorizer {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &Authorizer{
		store:    store,
		scopes:   scopes,
		consent:  consent,
		endpoint: google.Endpoint,
		logger:   log,
	}
}

// Authorize returns a token source from the saved credential when one is
// usable, and otherwise runs consent once and saves the result.
func (a *Authorizer) Authorize(ctx context.Context) (oauth2.TokenSource, error) {
	src, err := a.Saved(ctx)
	if err == nil {
		return src, nil
	}
	if !errors.Is(err, ErrNotLoggedIn) {
		return nil, err
	}
	return a.Login(ctx)
}

// Saved returns a token source built from the saved credential without any
// network call. A missing or malformed token file yields ErrNotLoggedIn.
func (a *Authorizer) Saved(ctx context.Context) (oauth2.TokenSource, error) {
	cred, err := a.store.Load()
	switch {
	case err == nil:
		a.logger.Debug("using saved credential", "path", a.store.TokenPath())
		return a.tokenSource(ctx, cred, &oauth2.Token{RefreshToken: cred.RefreshToken}), nil
	case errors.Is(err, credstore.ErrNoCredential):
		a.logger.Info("no credentials stored", "path", a.store.TokenPath())
		return nil, fmt.Errorf("%w: %w", ErrNotLoggedIn, err)
	case errors.Is(err, credstore.ErrMalformedCredential):
		a.logger.Warn("ignoring unusable token file", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrNotLoggedIn, err)
	default:
		return nil, err
	}
}

// Login always runs consent and overwrites the token file on success.
// Nothing is written when consent fails.
func (a *Authorizer) Login(ctx context.Context) (oauth2.TokenSource, error) {
	reg, err := a.store.LoadRegistration()
	if err != nil {
		return nil, err
	}

	cfg := a.oauthConfig(reg.ClientID, reg.ClientSecret)
	if reg.AuthURI != "" && reg.TokenURI != "" {
		cfg.Endpoint = oauth2.Endpoint{AuthURL: reg.AuthURI, TokenURL: reg.TokenURI, AuthStyle: a.endpoint.AuthStyle}
	}

	tok, err := a.consent.Consent(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConsentFailed, err)
	}
	if tok.RefreshToken == "" {
		return nil, fmt.Errorf("%w: provider returned no refresh token", ErrConsentFailed)
	}

	a.logger.Info("saving credentials", "path", a.store.TokenPath())
	cred, err := a.store.Save(tok.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("saving credential: %w", err)
	}

	return a.tokenSourceWithConfig(ctx, cfg, cred, tok), nil
}

// Logout removes the saved credential.
func (a *Authorizer) Logout() error {
	return a.store.Delete()
}

func (a *Authorizer) oauthConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     a.endpoint,
		Scopes:       a.scopes,
	}
}

func (a *Authorizer) tokenSource(ctx context.Context, cred *credstore.Credential, tok *oauth2.Token) oauth2.TokenSource {
	return a.tokenSourceWithConfig(ctx, a.oauthConfig(cred.ClientID, cred.ClientSecret), cred, tok)
}

func (a *Authorizer) tokenSourceWithConfig(ctx context.Context, cfg *oauth2.Config, cred *credstore.Credential, tok *oauth2.Token) oauth2.TokenSource {
	onRotate := func(t *oauth2.Token) error {
		rotated := *cred
		rotated.RefreshToken = t.RefreshToken
		a.logger.Debug("refresh token rotated, saving", "path", a.store.TokenPath())
		return a.store.Write(&rotated)
	}
	onError := func(err error) {
		a.logger.Warn("could not save rotated refresh token", "error", err)
	}
	return newPersistingTokenSource(cfg.TokenSource(ctx, tok), cred.RefreshToken, onRotate, onError)
}
