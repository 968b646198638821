package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xvierd/pulse-cli/internal/domain"
	"github.com/xvierd/pulse-cli/internal/ports"
)

// NowPlayingPoller refreshes the currently playing item on a fixed interval
// until it is stopped.
type NowPlayingPoller struct {
	player   ports.PlaybackClient
	interval time.Duration
	log      logrus.FieldLogger

	mu      sync.Mutex
	latest  *domain.PlaybackState
	lastErr error
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewNowPlayingPoller creates a stopped poller.
func NewNowPlayingPoller(player ports.PlaybackClient, interval time.Duration, log logrus.FieldLogger) *NowPlayingPoller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &NowPlayingPoller{player: player, interval: interval, log: log}
}

// Start polls immediately and then every interval. Starting a running
// poller does nothing.
func (p *NowPlayingPoller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.cancel != nil {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	done := p.done
	p.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.poll(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.poll(ctx)
			}
		}
	}()
}

// Stop cancels polling, waits for the loop to exit and clears the latest
// value.
func (p *NowPlayingPoller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	p.mu.Lock()
	p.latest = nil
	p.lastErr = nil
	p.mu.Unlock()
}

// Running reports whether the poller is active.
func (p *NowPlayingPoller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// Latest returns the most recent result; nil means nothing is playing or no
// poll has completed yet.
func (p *NowPlayingPoller) Latest() (*domain.PlaybackState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest, p.lastErr
}

func (p *NowPlayingPoller) poll(ctx context.Context) {
	state, err := p.player.CurrentlyPlaying(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		p.log.WithError(err).Debug("failed to fetch currently playing")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastErr = err
	if err == nil {
		p.latest = state
	}
}
