package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	cv "github.com/nirasan/go-oauth-pkce-code-verifier"
	"github.com/pkg/browser"
	"github.com/tonimelisma/gdrive-ownership/internal/logger"
	"golang.org/x/oauth2"
)

const (
	callbackPattern  = "GET /{$}"
	stateTokenBytes  = 16
	shutdownTimeout  = 5 * time.Second
	defaultConsentTO = 5 * time.Minute
)

var errStateMismatch = errors.New("oauth2 state mismatch")

type callbackResult struct {
	code string
	err  error
}

// LoopbackConsent runs the authorization code + PKCE flow with a redirect to
// a short-lived server on 127.0.0.1.
type LoopbackConsent struct {
	// OpenURL opens the consent page. Defaults to browser.OpenURL.
	OpenURL func(string) error
	// Out receives the consent URL when the browser cannot be opened.
	Out     io.Writer
	Timeout time.Duration
	Logger  logger.Logger
}

// NewLoopbackConsent returns a consent flow that opens the system browser.
func NewLoopbackConsent(timeout time.Duration, log logger.Logger) *LoopbackConsent {
	return &LoopbackConsent{
		OpenURL: browser.OpenURL,
		Out:     os.Stderr,
		Timeout: timeout,
		Logger:  log,
	}
}

// Consent asks the user to approve cfg's scopes and returns the exchanged token.
func (c *LoopbackConsent) Consent(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	log := c.Logger
	if log == nil {
		log = logger.NoopLogger{}
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultConsentTO
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resultCh := make(chan callbackResult, 1)
	mux := http.NewServeMux()

	srv, port, err := startCallbackServer(ctx, mux, resultCh, log)
	if err != nil {
		return nil, err
	}
	defer shutdownCallbackServer(srv, log)

	local := *cfg
	local.RedirectURL = fmt.Sprintf("http://127.0.0.1:%d", port)

	verifier, err := cv.CreateCodeVerifier()
	if err != nil {
		return nil, fmt.Errorf("creating PKCE code verifier: %w", err)
	}
	state, err := generateState()
	if err != nil {
		return nil, fmt.Errorf("generating state token: %w", err)
	}

	mux.HandleFunc(callbackPattern, func(w http.ResponseWriter, r *http.Request) {
		handleOAuthCallback(w, r, state, resultCh)
	})

	authURL := local.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.SetAuthURLParam("code_challenge", verifier.CodeChallengeS256()),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)

	c.launchBrowser(authURL, log)

	code, err := waitForCallback(ctx, resultCh)
	if err != nil {
		return nil, err
	}

	log.Debug("received authorization code, exchanging for token")
	tok, err := local.Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", verifier.String()))
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	return tok, nil
}

func startCallbackServer(ctx context.Context, mux *http.ServeMux, resultCh chan<- callbackResult, log logger.Logger) (*http.Server, int, error) {
	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", "127.0.0.1:0")
	if err != nil {
		return nil, 0, fmt.Errorf("binding loopback listener: %w", err)
	}

	tcpAddr, ok := listener.Addr().(*net.TCPAddr)
	if !ok {
		listener.Close()
		return nil, 0, errors.New("listener address is not TCP")
	}
	log.Debug("callback server listening", "port", tcpAddr.Port)

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: shutdownTimeout,
	}
	go func() {
		if serveErr := srv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			select {
			case resultCh <- callbackResult{err: fmt.Errorf("callback server: %w", serveErr)}:
			default:
			}
		}
	}()

	return srv, tcpAddr.Port, nil
}

func handleOAuthCallback(w http.ResponseWriter, r *http.Request, state string, resultCh chan<- callbackResult) {
	var result callbackResult
	q := r.URL.Query()

	switch {
	case q.Get("state") != state:
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		result.err = errStateMismatch
	case q.Get("error") != "":
		http.Error(w, "Authorization failed: "+q.Get("error"), http.StatusBadRequest)
		result.err = fmt.Errorf("authorization denied: %s", q.Get("error"))
	case q.Get("code") == "":
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		result.err = errors.New("callback missing authorization code")
	default:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><body><h1>Authorization complete</h1>"+
			"<p>You can close this window and return to the terminal.</p></body></html>")
		result.code = q.Get("code")
	}

	// Only the first callback counts.
	select {
	case resultCh <- result:
	default:
	}
}

func shutdownCallbackServer(srv *http.Server, log logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("callback server shutdown error", "error", err)
	}
}

func (c *LoopbackConsent) launchBrowser(authURL string, log logger.Logger) {
	openURL := c.OpenURL
	if openURL == nil {
		openURL = browser.OpenURL
	}
	out := c.Out
	if out == nil {
		out = os.Stderr
	}

	fmt.Fprintln(out, "Opening browser to authorize access to Google Drive.")
	if err := openURL(authURL); err != nil {
		log.Warn("failed to open browser", "error", err)
		fmt.Fprintf(out, "Open this URL in your browser:\n%s\n", authURL)
	}
}

func waitForCallback(ctx context.Context, resultCh <-chan callbackResult) (string, error) {
	select {
	case result := <-resultCh:
		if result.err != nil {
			return "", result.err
		}
		return result.code, nil
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for authorization: %w", ctx.Err())
	}
}

func generateState() (string, error) {
	b := make([]byte, stateTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
