package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xvierd/pulse-cli/internal/domain"
)

// fakePlayer records every call made against it.
type fakePlayer struct {
	mu       sync.Mutex
	calls    []string
	volumes  []int
	state    *domain.PlaybackState
	stateErr error
	// volumeErr is consulted for every SetVolume call.
	volumeErr func(percent int) error
	playErr   error
	pauseErr  error
	nextErr   error
}

func newPlayingDevice(volume int) *fakePlayer {
	return &fakePlayer{state: &domain.PlaybackState{
		Device:    &domain.Device{ID: "dev1", Name: "Desk", Active: true, Volume: volume},
		IsPlaying: true,
		Track:     &domain.Track{Name: "Song", Artists: []string{"Band"}},
	}}
}

func (p *fakePlayer) record(call string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
}

func (p *fakePlayer) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *fakePlayer) Volumes() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.volumes...)
}

func (p *fakePlayer) PlaybackState(ctx context.Context) (*domain.PlaybackState, error) {
	p.record("state")
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state, p.stateErr
}

func (p *fakePlayer) CurrentlyPlaying(ctx context.Context) (*domain.PlaybackState, error) {
	p.record("current")
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state, p.stateErr
}

func (p *fakePlayer) Devices(ctx context.Context) ([]domain.Device, error) {
	p.record("devices")
	if p.state.Empty() {
		return nil, nil
	}
	return []domain.Device{*p.state.Device}, nil
}

func (p *fakePlayer) SetVolume(ctx context.Context, percent int) error {
	p.record(fmt.Sprintf("volume:%d", percent))
	if p.volumeErr != nil {
		if err := p.volumeErr(percent); err != nil {
			return err
		}
	}
	p.mu.Lock()
	p.volumes = append(p.volumes, percent)
	p.mu.Unlock()
	return nil
}

func (p *fakePlayer) Play(ctx context.Context, deviceID string) error {
	p.record("play:" + deviceID)
	return p.playErr
}

func (p *fakePlayer) Pause(ctx context.Context) error {
	p.record("pause")
	return p.pauseErr
}

func (p *fakePlayer) Next(ctx context.Context) error {
	p.record("next")
	return p.nextErr
}

func (p *fakePlayer) Previous(ctx context.Context) error {
	p.record("previous")
	return p.nextErr
}

var restrictedErr = &domain.APIError{
	Kind:    domain.APIErrorRestricted,
	Status:  403,
	Message: "Player command failed: Restriction violated",
}

// fakeSink collects notifications.
type fakeSink struct {
	mu    sync.Mutex
	kinds []domain.NotificationKind
}

func (s *fakeSink) Notify(kind domain.NotificationKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kinds = append(s.kinds, kind)
}

func (s *fakeSink) Kinds() []domain.NotificationKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.NotificationKind(nil), s.kinds...)
}

// fakeFader records fade intents executed by the session host.
type fakeFader struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeFader) add(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeFader) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeFader) FadeOutAndPause(ctx context.Context, d time.Duration) error {
	f.add("fade_out:" + d.String())
	return nil
}

func (f *fakeFader) PlayAndFadeIn(ctx context.Context, d time.Duration, deviceID string) error {
	f.add("fade_in:" + d.String() + ":" + deviceID)
	return nil
}

func (f *fakeFader) Pause(ctx context.Context) error {
	f.add("pause")
	return nil
}
