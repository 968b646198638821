package ports

import (
	"context"
	"time"

	"github.com/xvierd/pulse-cli/internal/domain"
)

// PlaybackClient controls remote playback.
// This is a driven port (implemented by the spotify adapter).
//
// Errors are *domain.APIError where the remote API answered; callers use
// errors.Is with domain.ErrRestricted and domain.ErrUnauthorized.
type PlaybackClient interface {
	// PlaybackState returns the player state, or nil when nothing is playing.
	PlaybackState(ctx context.Context) (*domain.PlaybackState, error)

	// CurrentlyPlaying returns the current item, or nil when nothing is playing.
	CurrentlyPlaying(ctx context.Context) (*domain.PlaybackState, error)

	// Devices lists devices that accept remote control.
	Devices(ctx context.Context) ([]domain.Device, error)

	// SetVolume sets the active device volume (0-100).
	SetVolume(ctx context.Context, percent int) error

	// Play resumes playback, on deviceID when it is not empty.
	Play(ctx context.Context, deviceID string) error

	// Pause pauses playback.
	Pause(ctx context.Context) error

	// Next skips to the next track.
	Next(ctx context.Context) error

	// Previous skips to the previous track.
	Previous(ctx context.Context) error
}

// TokenProvider supplies bearer tokens to the playback client.
// This is a driven port (implemented by the auth manager).
type TokenProvider interface {
	// AccessToken returns a currently valid access token.
	AccessToken(ctx context.Context) (string, error)

	// Refresh attempts one token refresh.
	Refresh(ctx context.Context) error
}

// Fader turns abrupt play/pause into volume fades.
// This is a driven port (implemented by the fade controller).
type Fader interface {
	FadeOutAndPause(ctx context.Context, d time.Duration) error
	PlayAndFadeIn(ctx context.Context, d time.Duration, deviceID string) error
	Pause(ctx context.Context) error
}
