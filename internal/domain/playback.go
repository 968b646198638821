package domain

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultVolume is used as a fade-in target when the device reports none.
const DefaultVolume = 100

// Device is a Spotify Connect playback device.
type Device struct {
	ID         string
	Name       string
	Type       string
	Active     bool
	Restricted bool
	Volume     int
}

// Track is the item currently playing.
type Track struct {
	Name       string
	Artists    []string
	Album      string
	DurationMs int
}

// Artist returns the artists joined for display.
func (t *Track) Artist() string {
	return strings.Join(t.Artists, ", ")
}

// PlaybackState is the player state of the account. A nil *PlaybackState
// means nothing is playing on any device.
type PlaybackState struct {
	Device     *Device
	IsPlaying  bool
	Track      *Track
	ProgressMs int
}

// Empty reports whether there is no active device.
func (s *PlaybackState) Empty() bool {
	return s == nil || s.Device == nil
}

// HasTrack reports whether an item is loaded.
func (s *PlaybackState) HasTrack() bool {
	return s != nil && s.Track != nil
}

// Playlist is one of the user's playlists.
type Playlist struct {
	ID         string
	Name       string
	URI        string
	TrackCount int
}

// APIErrorKind distinguishes the failures callers branch on.
type APIErrorKind int

const (
	// APIErrorOther is any failure that is not auth or restriction related.
	APIErrorOther APIErrorKind = iota
	// APIErrorAuth is a 401 that survived one refresh attempt.
	APIErrorAuth
	// APIErrorRestricted means the device refuses remote control.
	APIErrorRestricted
)

// APIError is a classified failure from the playback API.
type APIError struct {
	Kind    APIErrorKind
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("spotify api error: %d - %s", e.Status, e.Message)
}

// Unwrap lets errors.Is match ErrRestricted and ErrUnauthorized.
func (e *APIError) Unwrap() error {
	switch e.Kind {
	case APIErrorRestricted:
		return ErrRestricted
	case APIErrorAuth:
		return ErrUnauthorized
	default:
		return nil
	}
}

// IsRestricted reports whether err is a restriction violation.
func IsRestricted(err error) bool {
	return errors.Is(err, ErrRestricted)
}
