package services

import (
	"context"
	"fmt"

	"github.com/xvierd/pulse-cli/internal/domain"
	"github.com/xvierd/pulse-cli/internal/ports"
)

// StateService implements the MCPStateProvider interface.
type StateService struct {
	tasks   *TaskService
	session *SessionService

	auth   *AuthManager
	player ports.PlaybackClient
	fader  *FadeController
	poller *NowPlayingPoller
}

var _ ports.MCPStateProvider = (*StateService)(nil)

// NewStateService creates a new state service.
func NewStateService(tasks *TaskService, session *SessionService) *StateService {
	return &StateService{tasks: tasks, session: session}
}

// SetPlayback wires the Spotify side. Any argument may be nil.
func (s *StateService) SetPlayback(auth *AuthManager, player ports.PlaybackClient, fader *FadeController, poller *NowPlayingPoller) {
	s.auth = auth
	s.player = player
	s.fader = fader
	s.poller = poller
}

func (s *StateService) connected() bool {
	return s.auth != nil && s.player != nil && s.auth.Connected()
}

// GetCurrentState implements ports.MCPStateProvider.
func (s *StateService) GetCurrentState(ctx context.Context) (*domain.CurrentState, error) {
	tasks, err := s.tasks.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	state := &domain.CurrentState{
		Session: s.session.Snapshot(),
		Tasks:   tasks,
		Auth:    domain.AuthDisconnected,
	}
	if s.auth != nil {
		state.Auth = s.auth.State()
	}
	if s.fader != nil {
		state.SupportsControl = s.fader.SupportsControl()
	}

	if s.connected() {
		if s.poller != nil && s.poller.Running() {
			state.NowPlaying, _ = s.poller.Latest()
		} else if playing, err := s.player.CurrentlyPlaying(ctx); err == nil {
			state.NowPlaying = playing
		}
	}

	return state, nil
}

// Timer implements ports.MCPStateProvider.
func (s *StateService) Timer() ports.TimerControls {
	return s.session
}

// AddTask implements ports.MCPStateProvider.
func (s *StateService) AddTask(ctx context.Context, text string) (*domain.Task, error) {
	return s.tasks.AddTask(ctx, text)
}

// ToggleTask implements ports.MCPStateProvider.
func (s *StateService) ToggleTask(ctx context.Context, id string) (*domain.Task, error) {
	return s.tasks.ToggleTask(ctx, id)
}

// DeleteTask implements ports.MCPStateProvider.
func (s *StateService) DeleteTask(ctx context.Context, id string) error {
	return s.tasks.DeleteTask(ctx, id)
}

// SkipTrack implements ports.MCPStateProvider.
func (s *StateService) SkipTrack(ctx context.Context, forward bool) error {
	if !s.connected() {
		return domain.ErrNotConnected
	}
	if forward {
		return s.player.Next(ctx)
	}
	return s.player.Previous(ctx)
}
