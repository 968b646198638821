// Package services implements the application layer (use cases)
// following hexagonal architecture principles.
package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xvierd/pulse-cli/internal/domain"
	"github.com/xvierd/pulse-cli/internal/ports"
)

// SessionConfig holds the playback settings used when executing intents.
type SessionConfig struct {
	FadeOut  time.Duration
	FadeIn   time.Duration
	DeviceID string
}

// DefaultSessionConfig returns the default fade timings.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{FadeOut: 2 * time.Second, FadeIn: time.Second}
}

// SessionService hosts the interval engine. Controls are serialized; the
// side effects they produce run in the background and never block or fail
// the countdown. It implements ports.TimerControls.
type SessionService struct {
	mu     sync.Mutex
	engine *domain.Engine

	cfg   SessionConfig
	fader ports.Fader
	sink  ports.NotificationSink
	log   logrus.FieldLogger

	ctx      context.Context
	inflight sync.WaitGroup
}

var _ ports.TimerControls = (*SessionService)(nil)

// NewSessionService creates a paused focus session. fader and sink may be
// nil, in which case the corresponding intents are dropped.
func NewSessionService(d domain.Durations, cfg SessionConfig, fader ports.Fader, sink ports.NotificationSink, log logrus.FieldLogger) *SessionService {
	return &SessionService{
		engine: domain.NewEngine(d),
		cfg:    cfg,
		fader:  fader,
		sink:   sink,
		log:    log,
		ctx:    context.Background(),
	}
}

// SetContext sets the context background effects run with. Cancelling it
// aborts in-flight fades.
func (s *SessionService) SetContext(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx = ctx
}

// SetFader swaps the playback fader, e.g. after connecting Spotify.
func (s *SessionService) SetFader(f ports.Fader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fader = f
}

func (s *SessionService) apply(control func(*domain.Engine) []domain.Intent) {
	s.mu.Lock()
	intents := control(s.engine)
	ctx, fader, sink := s.ctx, s.fader, s.sink
	s.mu.Unlock()

	for _, in := range intents {
		s.dispatch(ctx, fader, sink, in)
	}
}

func (s *SessionService) dispatch(ctx context.Context, fader ports.Fader, sink ports.NotificationSink, in domain.Intent) {
	log := s.log.WithFields(logrus.Fields{"intent": in.Kind.String(), "mode": string(in.Mode)})

	var run func() error
	switch in.Kind {
	case domain.IntentNotify:
		if sink == nil {
			return
		}
		run = func() error {
			sink.Notify(in.Notification)
			return nil
		}
	case domain.IntentFadeOut:
		if fader == nil {
			return
		}
		run = func() error { return fader.FadeOutAndPause(ctx, s.cfg.FadeOut) }
	case domain.IntentFadeIn:
		if fader == nil {
			return
		}
		run = func() error { return fader.PlayAndFadeIn(ctx, s.cfg.FadeIn, s.cfg.DeviceID) }
	case domain.IntentPause:
		if fader == nil {
			return
		}
		run = func() error { return fader.Pause(ctx) }
	default:
		return
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		if err := run(); err != nil {
			log.WithError(err).Debug("playback effect failed")
		}
	}()
}

// Wait blocks until all in-flight effects have finished.
func (s *SessionService) Wait() {
	s.inflight.Wait()
}

// Start implements ports.TimerControls.
func (s *SessionService) Start() { s.apply((*domain.Engine).Start) }

// Pause implements ports.TimerControls.
func (s *SessionService) Pause() { s.apply((*domain.Engine).Pause) }

// Reset implements ports.TimerControls.
func (s *SessionService) Reset() { s.apply((*domain.Engine).Reset) }

// Skip implements ports.TimerControls.
func (s *SessionService) Skip() { s.apply((*domain.Engine).Skip) }

// Tick implements ports.TimerControls.
func (s *SessionService) Tick() { s.apply((*domain.Engine).Tick) }

// Toggle starts a paused session and pauses a running one.
func (s *SessionService) Toggle() {
	s.apply(func(e *domain.Engine) []domain.Intent {
		if e.Session().Running {
			return e.Pause()
		}
		return e.Start()
	})
}

// ChangeDurations implements ports.TimerControls.
func (s *SessionService) ChangeDurations(focusMinutes, breakMinutes int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.ChangeDurations(focusMinutes, breakMinutes)
}

// Snapshot implements ports.TimerControls.
func (s *SessionService) Snapshot() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Session()
}

// Progress returns the completed fraction of the current interval.
func (s *SessionService) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Progress()
}

// Run ticks the session once a second until ctx is done. It is the only
// clock: the TUI and the MCP server read snapshots.
func (s *SessionService) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}
