// Package spotify implements the playback port on the Spotify Web API.
package spotify

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xvierd/pulse-cli/internal/domain"
	"github.com/xvierd/pulse-cli/internal/ports"
	spotifyapi "github.com/zmb3/spotify/v2"
)

const defaultPlaylistLimit = 20

// Client is a typed facade over the player endpoints. Every call carries the
// current bearer token and survives one token expiry.
type Client struct {
	api *spotifyapi.Client
	log logrus.FieldLogger
}

// Ensure Client implements ports.PlaybackClient.
var _ ports.PlaybackClient = (*Client)(nil)

type options struct {
	baseURL   string
	transport http.RoundTripper
	timeout   time.Duration
	log       logrus.FieldLogger
}

// Option configures a Client.
type Option func(*options)

// WithBaseURL points the client at another API root (tests).
func WithBaseURL(url string) Option {
	return func(o *options) {
		if !strings.HasSuffix(url, "/") {
			url += "/"
		}
		o.baseURL = url
	}
}

// WithTransport sets the underlying HTTP transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) { o.log = log }
}

// New creates a playback client that takes its tokens from tokens.
func New(tokens ports.TokenProvider, opts ...Option) *Client {
	o := options{timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logrus.StandardLogger()
	}
	log := o.log.WithField("component", "spotify")

	httpClient := &http.Client{
		Transport: newAuthTransport(tokens, o.transport, log),
		Timeout:   o.timeout,
	}

	var clientOpts []spotifyapi.ClientOption
	if o.baseURL != "" {
		clientOpts = append(clientOpts, spotifyapi.WithBaseURL(o.baseURL))
	}

	return &Client{
		api: spotifyapi.New(httpClient, clientOpts...),
		log: log,
	}
}

// PlaybackState returns the player state or nil when nothing is playing.
func (c *Client) PlaybackState(ctx context.Context) (*domain.PlaybackState, error) {
	ps, err := c.api.PlayerState(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return toPlaybackState(ps), nil
}

// CurrentlyPlaying returns the current track, or nil when nothing is playing.
// The returned state carries no device.
func (c *Client) CurrentlyPlaying(ctx context.Context) (*domain.PlaybackState, error) {
	cp, err := c.api.PlayerCurrentlyPlaying(ctx)
	if err != nil {
		return nil, classify(err)
	}
	if cp == nil || cp.Item == nil {
		return nil, nil
	}
	return &domain.PlaybackState{
		IsPlaying:  cp.Playing,
		Track:      toTrack(cp.Item),
		ProgressMs: int(cp.Progress),
	}, nil
}

// Devices lists devices that can be remotely controlled.
func (c *Client) Devices(ctx context.Context) ([]domain.Device, error) {
	devices, err := c.api.PlayerDevices(ctx)
	if err != nil {
		return nil, classify(err)
	}

	out := make([]domain.Device, 0, len(devices))
	for _, d := range devices {
		if d.Restricted {
			continue
		}
		out = append(out, toDevice(d))
	}
	return out, nil
}

// SetVolume sets the volume of the active device, clamped to 0-100.
func (c *Client) SetVolume(ctx context.Context, percent int) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return classify(c.api.Volume(ctx, percent))
}

// Play resumes playback, optionally on a specific device.
func (c *Client) Play(ctx context.Context, deviceID string) error {
	if deviceID == "" {
		return classify(c.api.Play(ctx))
	}
	return classify(c.api.PlayOpt(ctx, &spotifyapi.PlayOptions{DeviceID: deviceRef(deviceID)}))
}

// Pause pauses playback.
func (c *Client) Pause(ctx context.Context) error {
	return classify(c.api.Pause(ctx))
}

// Next skips to the next track.
func (c *Client) Next(ctx context.Context) error {
	return classify(c.api.Next(ctx))
}

// Previous skips to the previous track.
func (c *Client) Previous(ctx context.Context) error {
	return classify(c.api.Previous(ctx))
}

// TransferPlayback moves playback to another device.
func (c *Client) TransferPlayback(ctx context.Context, deviceID string, play bool) error {
	return classify(c.api.TransferPlayback(ctx, spotifyapi.ID(deviceID), play))
}

// Playlists returns the user's playlists. A non-positive limit uses 20.
func (c *Client) Playlists(ctx context.Context, limit int) ([]domain.Playlist, error) {
	if limit <= 0 {
		limit = defaultPlaylistLimit
	}
	page, err := c.api.CurrentUsersPlaylists(ctx, spotifyapi.Limit(limit))
	if err != nil {
		return nil, classify(err)
	}

	out := make([]domain.Playlist, 0, len(page.Playlists))
	for _, p := range page.Playlists {
		out = append(out, domain.Playlist{
			ID:         string(p.ID),
			Name:       p.Name,
			URI:        string(p.URI),
			TrackCount: int(p.Tracks.Total),
		})
	}
	return out, nil
}

// PlayPlaylist starts a playlist context, optionally on a device.
func (c *Client) PlayPlaylist(ctx context.Context, uri, deviceID string) error {
	contextURI := spotifyapi.URI(uri)
	opt := &spotifyapi.PlayOptions{PlaybackContext: &contextURI}
	if deviceID != "" {
		opt.DeviceID = deviceRef(deviceID)
	}
	return classify(c.api.PlayOpt(ctx, opt))
}

func deviceRef(id string) *spotifyapi.ID {
	ref := spotifyapi.ID(id)
	return &ref
}

func toPlaybackState(ps *spotifyapi.PlayerState) *domain.PlaybackState {
	if ps == nil || (ps.Device.ID == "" && ps.Device.Name == "") {
		return nil
	}
	device := toDevice(ps.Device)
	state := &domain.PlaybackState{
		Device:     &device,
		IsPlaying:  ps.Playing,
		ProgressMs: int(ps.Progress),
	}
	if ps.Item != nil {
		state.Track = toTrack(ps.Item)
	}
	return state
}

func toDevice(d spotifyapi.PlayerDevice) domain.Device {
	return domain.Device{
		ID:         string(d.ID),
		Name:       d.Name,
		Type:       d.Type,
		Active:     d.Active,
		Restricted: d.Restricted,
		Volume:     int(d.Volume),
	}
}

func toTrack(t *spotifyapi.FullTrack) *domain.Track {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}
	return &domain.Track{
		Name:       t.Name,
		Artists:    artists,
		Album:      t.Album.Name,
		DurationMs: int(t.Duration),
	}
}

// classify turns library errors into *domain.APIError so callers can branch
// on kind instead of message text.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var apiErr spotifyapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	kind := domain.APIErrorOther
	switch {
	case apiErr.Status == http.StatusUnauthorized:
		kind = domain.APIErrorAuth
	case apiErr.Status == http.StatusForbidden:
		kind = domain.APIErrorRestricted
	case strings.Contains(strings.ToLower(apiErr.Message), "restriction violated"):
		kind = domain.APIErrorRestricted
	}

	return &domain.APIError{Kind: kind, Status: apiErr.Status, Message: apiErr.Message}
}
