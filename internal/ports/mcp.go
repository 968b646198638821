package ports

import (
	"context"

	"github.com/xvierd/pulse-cli/internal/domain"
)

// MCPHandler defines the interface for MCP server operations.
// This is a driving port (called by the application layer).
type MCPHandler interface {
	// Start begins serving MCP requests.
	Start(ctx context.Context) error

	// IsRunning returns true if the server is active.
	IsRunning() bool
}

// MCPStateProvider provides state and actions to the MCP server.
// This is a driven port (implemented by services layer).
type MCPStateProvider interface {
	// GetCurrentState returns the timer, task and playback state.
	GetCurrentState(ctx context.Context) (*domain.CurrentState, error)

	// Timer returns the controls of the hosted session.
	Timer() TimerControls

	// AddTask creates a task.
	AddTask(ctx context.Context, text string) (*domain.Task, error)

	// ToggleTask flips a task's completed flag.
	ToggleTask(ctx context.Context, id string) (*domain.Task, error)

	// DeleteTask removes a task.
	DeleteTask(ctx context.Context, id string) error

	// SkipTrack moves playback forward (true) or back (false).
	SkipTrack(ctx context.Context, forward bool) error
}
