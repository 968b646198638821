package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/xvierd/pulse-cli/internal/domain"
	"github.com/xvierd/pulse-cli/internal/ports"
)

// Scopes requested at login.
var Scopes = []string{
	spotifyauth.ScopeUserReadPlaybackState,
	spotifyauth.ScopeUserModifyPlaybackState,
	spotifyauth.ScopeUserReadCurrentlyPlaying,
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistReadCollaborative,
}

// AuthConfig configures the OAuth client. Empty URLs default to Spotify's
// accounts service.
type AuthConfig struct {
	ClientID    string
	RedirectURL string
	AuthURL     string
	TokenURL    string
	// HTTPClient is used for token requests when set.
	HTTPClient *http.Client
}

// AuthManager owns the Spotify session: it loads stored tokens, exchanges
// authorization codes, refreshes access tokens and disconnects.
// It implements ports.TokenProvider.
type AuthManager struct {
	tokens     ports.TokenStore
	oauth      *oauth2.Config
	httpClient *http.Client
	log        logrus.FieldLogger
	now        func() time.Time
	refreshes  singleflight.Group

	mu           sync.RWMutex
	state        domain.AuthState
	session      domain.AuthSession
	onDisconnect []func()
}

// NewAuthManager creates a disconnected auth manager. Call Load to restore a
// stored session.
func NewAuthManager(tokens ports.TokenStore, cfg AuthConfig, log logrus.FieldLogger) *AuthManager {
	authURL, tokenURL := cfg.AuthURL, cfg.TokenURL
	if authURL == "" {
		authURL = spotifyauth.AuthURL
	}
	if tokenURL == "" {
		tokenURL = spotifyauth.TokenURL
	}

	return &AuthManager{
		tokens: tokens,
		oauth: &oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.RedirectURL,
			Scopes:      Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: cfg.HTTPClient,
		log:        log,
		now:        time.Now,
		state:      domain.AuthDisconnected,
	}
}

// State returns the current lifecycle state.
func (m *AuthManager) State() domain.AuthState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Session returns a copy of the current tokens.
func (m *AuthManager) Session() domain.AuthSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// Connected reports whether a usable session exists.
func (m *AuthManager) Connected() bool {
	return m.State() != domain.AuthDisconnected
}

// OnDisconnect registers fn to run after every disconnect.
func (m *AuthManager) OnDisconnect(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDisconnect = append(m.onDisconnect, fn)
}

func (m *AuthManager) oauthContext(ctx context.Context) context.Context {
	if m.httpClient != nil {
		return context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
	}
	return ctx
}

// AuthCodeURL builds the authorization URL for a PKCE login.
func (m *AuthManager) AuthCodeURL(state, verifier string) string {
	return m.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

// Load restores the stored session. A token that expires within
// domain.RefreshWindow is refreshed first; if that fails the stored tokens
// are purged and the manager stays disconnected.
func (m *AuthManager) Load(ctx context.Context) error {
	access, err := m.tokens.Get(ctx, domain.KeyAccessToken)
	if errors.Is(err, domain.ErrTokenNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read access token: %w", err)
	}

	session := domain.AuthSession{AccessToken: access}
	if refresh, err := m.tokens.Get(ctx, domain.KeyRefreshToken); err == nil {
		session.RefreshToken = refresh
	}
	if expiry, err := m.tokens.Get(ctx, domain.KeyTokenExpiry); err == nil {
		session.ExpiresAt = domain.ParseExpiry(expiry)
	}

	m.mu.Lock()
	m.session = session
	m.state = domain.AuthConnected
	m.mu.Unlock()

	if session.ExpiresIn(m.now()) >= domain.RefreshWindow {
		m.log.WithField("expires_at", session.ExpiresAt).Debug("restored spotify session")
		return nil
	}

	if err := m.Refresh(ctx); err != nil {
		m.log.WithError(err).Warn("stored spotify session could not be refreshed, disconnecting")
		if derr := m.Disconnect(ctx); derr != nil {
			return derr
		}
		return nil
	}
	return nil
}

// ExchangeCode trades an authorization code for tokens and connects.
func (m *AuthManager) ExchangeCode(ctx context.Context, code, verifier, redirectURI string) error {
	opts := []oauth2.AuthCodeOption{oauth2.VerifierOption(verifier)}
	if redirectURI != "" {
		opts = append(opts, oauth2.SetAuthURLParam("redirect_uri", redirectURI))
	}

	token, err := m.oauth.Exchange(m.oauthContext(ctx), code, opts...)
	if err != nil {
		return fmt.Errorf("failed to exchange code for token: %w", err)
	}

	session := domain.AuthSession{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    m.expiry(token),
	}
	if err := m.store(ctx, session); err != nil {
		return err
	}

	m.mu.Lock()
	m.session = session
	m.state = domain.AuthConnected
	m.mu.Unlock()

	m.log.Info("spotify connected")
	return nil
}

// Refresh requests a new access token with the stored refresh token.
// Concurrent callers share one request. On failure nothing is changed.
func (m *AuthManager) Refresh(ctx context.Context) error {
	_, err, _ := m.refreshes.Do("refresh", func() (interface{}, error) {
		return nil, m.refresh(ctx)
	})
	return err
}

func (m *AuthManager) refresh(ctx context.Context) error {
	m.mu.Lock()
	previous := m.state
	current := m.session
	if current.RefreshToken == "" {
		m.mu.Unlock()
		return domain.ErrNoRefreshToken
	}
	m.state = domain.AuthRefreshing
	m.mu.Unlock()

	restore := func() {
		m.mu.Lock()
		m.state = previous
		m.mu.Unlock()
	}

	src := m.oauth.TokenSource(m.oauthContext(ctx), &oauth2.Token{RefreshToken: current.RefreshToken})
	token, err := src.Token()
	if err != nil {
		restore()
		return fmt.Errorf("failed to refresh token: %w", err)
	}

	next := domain.AuthSession{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    m.expiry(token),
	}
	if next.RefreshToken == "" {
		next.RefreshToken = current.RefreshToken
	}
	if err := m.store(ctx, next); err != nil {
		restore()
		return err
	}

	m.mu.Lock()
	m.session = next
	m.state = domain.AuthConnected
	m.mu.Unlock()

	m.log.WithField("expires_at", next.ExpiresAt).Debug("spotify token refreshed")
	return nil
}

// AccessToken returns the current access token, refreshing it first when it
// has already expired.
func (m *AuthManager) AccessToken(ctx context.Context) (string, error) {
	session := m.Session()
	if !session.Connected() {
		return "", domain.ErrNotConnected
	}
	if !session.ExpiresAt.IsZero() && session.ExpiresIn(m.now()) <= 0 {
		if err := m.Refresh(ctx); err != nil {
			return "", err
		}
		session = m.Session()
	}
	return session.AccessToken, nil
}

// Disconnect purges the stored tokens and resets the session.
func (m *AuthManager) Disconnect(ctx context.Context) error {
	err := m.tokens.Delete(ctx, domain.TokenKeys...)

	m.mu.Lock()
	m.session = domain.AuthSession{}
	m.state = domain.AuthDisconnected
	hooks := append([]func(){}, m.onDisconnect...)
	m.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}

	if err != nil {
		return fmt.Errorf("failed to purge tokens: %w", err)
	}
	m.log.Info("spotify disconnected")
	return nil
}

func (m *AuthManager) store(ctx context.Context, s domain.AuthSession) error {
	values := map[string]string{
		domain.KeyAccessToken: s.AccessToken,
		domain.KeyTokenExpiry: domain.FormatExpiry(s.ExpiresAt),
	}
	if s.RefreshToken != "" {
		values[domain.KeyRefreshToken] = s.RefreshToken
	}
	for key, value := range values {
		if err := m.tokens.Set(ctx, key, value); err != nil {
			return fmt.Errorf("failed to store %s: %w", key, err)
		}
	}
	return nil
}

// expiry derives the absolute expiry from the token response.
func (m *AuthManager) expiry(t *oauth2.Token) time.Time {
	if t.ExpiresIn > 0 {
		return m.now().Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	return t.Expiry
}
