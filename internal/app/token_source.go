package app

import (
	"sync"

	"golang.org/x/oauth2"
)

// persistingTokenSource wraps an oauth2.TokenSource and calls onRotate when
// the provider hands back a refresh token different from the saved one.
type persistingTokenSource struct {
	base         oauth2.TokenSource
	mu           sync.Mutex
	refreshToken string
	onRotate     func(token *oauth2.Token) error
	onError      func(err error)
}

func newPersistingTokenSource(base oauth2.TokenSource, refreshToken string, onRotate func(token *oauth2.Token) error, onError func(err error)) *persistingTokenSource {
	return &persistingTokenSource{
		base:         base,
		refreshToken: refreshToken,
		onRotate:     onRotate,
		onError:      onError,
	}
}

// Token returns a token from the underlying source. A failure to persist a
// rotated refresh token is reported through onError; the token in memory is
// still returned.
func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	if tok.RefreshToken == "" || tok.RefreshToken == s.refreshToken {
		return tok, nil
	}

	s.refreshToken = tok.RefreshToken
	if s.onRotate != nil {
		if err := s.onRotate(tok); err != nil && s.onError != nil {
			s.onError(err)
		}
	}
	return tok, nil
}
