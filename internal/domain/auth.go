package domain

import (
	"strconv"
	"time"
)

// Keys used in the token store.
const (
	KeyAccessToken  = "spotify_access_token"
	KeyRefreshToken = "spotify_refresh_token"
	KeyTokenExpiry  = "spotify_token_expiry"
)

// TokenKeys lists every stored auth key.
var TokenKeys = []string{KeyAccessToken, KeyRefreshToken, KeyTokenExpiry}

// RefreshWindow is how close to expiry a stored token must be for Load to
// refresh it.
const RefreshWindow = 5 * time.Minute

// AuthState is the lifecycle state of the Spotify session.
type AuthState string

const (
	AuthDisconnected AuthState = "disconnected"
	AuthConnected    AuthState = "connected"
	AuthRefreshing   AuthState = "refreshing"
)

// AuthSession holds the OAuth tokens of the connected account.
type AuthSession struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Connected reports whether the session carries an access token.
func (s AuthSession) Connected() bool {
	return s.AccessToken != ""
}

// ExpiresIn returns the time left before the access token expires. A zero
// expiry counts as already expired.
func (s AuthSession) ExpiresIn(now time.Time) time.Duration {
	if s.ExpiresAt.IsZero() {
		return 0
	}
	return s.ExpiresAt.Sub(now)
}

// FormatExpiry encodes an expiry as epoch milliseconds.
func FormatExpiry(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// ParseExpiry decodes an epoch-milliseconds expiry. Invalid input yields the
// zero time.
func ParseExpiry(s string) time.Time {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
