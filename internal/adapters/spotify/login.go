package spotify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/xvierd/pulse-cli/internal/domain"
)

const (
	// loginTimeout bounds how long the callback server waits for the browser.
	loginTimeout = 5 * time.Minute

	// exchangeTimeout bounds the token exchange.
	exchangeTimeout = 30 * time.Second
)

// Authorizer is the part of the auth manager the login flow needs.
type Authorizer interface {
	AuthCodeURL(state, verifier string) string
	ExchangeCode(ctx context.Context, code, verifier, redirectURI string) error
}

// Login runs the PKCE authorization-code flow with a loopback callback
// server on the host and path of RedirectURL.
type Login struct {
	RedirectURL string
	Out         io.Writer
	// OpenBrowser opens the authorization URL; nil only prints it.
	OpenBrowser func(url string) error
	Timeout     time.Duration
	Log         logrus.FieldLogger
}

type callbackResult struct {
	code string
	err  error
}

// Run prints the authorization URL, waits for the redirect and exchanges the
// code through a.
func (l *Login) Run(ctx context.Context, a Authorizer) error {
	redirect, err := url.Parse(l.RedirectURL)
	if err != nil || redirect.Host == "" {
		return fmt.Errorf("invalid redirect url %q", l.RedirectURL)
	}

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return fmt.Errorf("could not bind callback server on %s: %w", redirect.Host, err)
	}
	defer listener.Close()

	verifier := oauth2.GenerateVerifier()
	state := uuid.NewString()
	authURL := a.AuthCodeURL(state, verifier)

	results := make(chan callbackResult, 1)
	path := redirect.Path
	if path == "" {
		path = "/"
	}

	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		res := parseCallback(r.URL.Query(), state)
		if res.err != nil {
			http.Error(w, res.err.Error(), http.StatusBadRequest)
		} else {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, "<html><body><h1>pulse is connected to Spotify</h1><p>You may close this window.</p></body></html>")
		}
		select {
		case results <- res:
		default:
		}
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case results <- callbackResult{err: err}:
			default:
			}
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if l.Out != nil {
		fmt.Fprintln(l.Out, "Open this URL in your browser to connect Spotify:")
		fmt.Fprintln(l.Out, authURL)
	}
	if l.OpenBrowser != nil {
		if err := l.OpenBrowser(authURL); err != nil && l.Log != nil {
			l.Log.WithError(err).Debug("failed to open browser")
		}
	}

	timeout := l.Timeout
	if timeout <= 0 {
		timeout = loginTimeout
	}

	var res callbackResult
	select {
	case res = <-results:
	case <-time.After(timeout):
		return fmt.Errorf("oauth callback timed out after %s", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
	if res.err != nil {
		return res.err
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()
	return a.ExchangeCode(exchangeCtx, res.code, verifier, l.RedirectURL)
}

func parseCallback(q url.Values, state string) callbackResult {
	if e := q.Get("error"); e != "" {
		return callbackResult{err: fmt.Errorf("authorization denied: %s", e)}
	}
	if q.Get("state") != state {
		return callbackResult{err: domain.ErrLoginStateDenied}
	}
	code := q.Get("code")
	if code == "" {
		return callbackResult{err: errors.New("no code in callback")}
	}
	return callbackResult{code: code}
}
