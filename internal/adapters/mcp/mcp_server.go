// Package mcp provides the MCP (Model Context Protocol) server implementation.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync/atomic"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/xvierd/pulse-cli/internal/domain"
	"github.com/xvierd/pulse-cli/internal/ports"
)

// Server implements the MCP server using mark3labs/mcp-go.
type Server struct {
	server        *server.MCPServer
	stateProvider ports.MCPStateProvider
	running       atomic.Bool
	stdin         io.Reader
	stdout        io.Writer
}

// NewServer creates a new MCP server instance.
func NewServer(stateProvider ports.MCPStateProvider, version string) *Server {
	s := &Server{
		stateProvider: stateProvider,
		stdin:         os.Stdin,
		stdout:        os.Stdout,
	}

	s.server = server.NewMCPServer(
		"pulse",
		version,
		server.WithToolCapabilities(false),
		server.WithLogging(),
	)

	s.registerTimerTools()
	s.registerTaskTools()
	s.registerMusicTools()

	return s
}

func (s *Server) registerTimerTools() {
	s.server.AddTool(
		mcp.NewTool(
			"get_current_state",
			mcp.WithDescription("Get the focus timer, task list and Spotify playback state"),
		),
		s.handleGetCurrentState,
	)

	s.server.AddTool(
		mcp.NewTool("start_timer", mcp.WithDescription("Start or resume the current interval")),
		s.timerAction(ports.TimerControls.Start),
	)
	s.server.AddTool(
		mcp.NewTool("pause_timer", mcp.WithDescription("Pause the current interval")),
		s.timerAction(ports.TimerControls.Pause),
	)
	s.server.AddTool(
		mcp.NewTool("reset_timer", mcp.WithDescription("Pause and refill the current interval")),
		s.timerAction(ports.TimerControls.Reset),
	)
	s.server.AddTool(
		mcp.NewTool("skip_interval", mcp.WithDescription("Switch to the other interval, paused")),
		s.timerAction(ports.TimerControls.Skip),
	)

	setDurationsTool := mcp.NewTool(
		"set_durations",
		mcp.WithDescription("Change the focus and break interval lengths"),
		mcp.WithNumber(
			"focus_minutes",
			mcp.Required(),
			mcp.Description("Focus interval length in minutes"),
			mcp.Min(1),
		),
		mcp.WithNumber(
			"break_minutes",
			mcp.Required(),
			mcp.Description("Break interval length in minutes"),
			mcp.Min(1),
		),
	)
	s.server.AddTool(setDurationsTool, s.handleSetDurations)
}

func (s *Server) registerTaskTools() {
	listTasksTool := mcp.NewTool(
		"list_tasks",
		mcp.WithDescription("List tasks, optionally filtered by status"),
		mcp.WithString(
			"status",
			mcp.Description("Filter tasks by status"),
			mcp.Enum("open", "completed"),
		),
	)
	s.server.AddTool(listTasksTool, s.handleListTasks)

	addTaskTool := mcp.NewTool(
		"add_task",
		mcp.WithDescription("Add a task to the list"),
		mcp.WithString("text", mcp.Required(), mcp.Description("The task text")),
	)
	s.server.AddTool(addTaskTool, s.handleAddTask)

	toggleTaskTool := mcp.NewTool(
		"toggle_task",
		mcp.WithDescription("Flip a task between open and completed"),
		mcp.WithString("task_id", mcp.Required(), mcp.Description("The task ID or a unique prefix of it")),
	)
	s.server.AddTool(toggleTaskTool, s.handleToggleTask)

	deleteTaskTool := mcp.NewTool(
		"delete_task",
		mcp.WithDescription("Remove a task"),
		mcp.WithString("task_id", mcp.Required(), mcp.Description("The task ID or a unique prefix of it")),
	)
	s.server.AddTool(deleteTaskTool, s.handleDeleteTask)
}

func (s *Server) registerMusicTools() {
	s.server.AddTool(
		mcp.NewTool("now_playing", mcp.WithDescription("Get the track playing on Spotify")),
		s.handleNowPlaying,
	)
	s.server.AddTool(
		mcp.NewTool("next_track", mcp.WithDescription("Skip to the next Spotify track")),
		s.skipAction(true),
	)
	s.server.AddTool(
		mcp.NewTool("previous_track", mcp.WithDescription("Go back to the previous Spotify track")),
		s.skipAction(false),
	)
}

// Start serves MCP requests over stdio until ctx is cancelled or stdin closes.
func (s *Server) Start(ctx context.Context) error {
	s.running.Store(true)
	defer s.running.Store(false)

	err := server.NewStdioServer(s.server).Listen(ctx, s.stdin, s.stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve mcp: %w", err)
	}
	return nil
}

// IsRunning returns true if the server is active.
func (s *Server) IsRunning() bool {
	return s.running.Load()
}

// Ensure Server implements ports.MCPHandler.
var _ ports.MCPHandler = (*Server)(nil)

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func sessionData(session domain.Session) map[string]any {
	return map[string]any{
		"mode":              string(session.Mode),
		"running":           session.Running,
		"remaining_seconds": session.RemainingSeconds,
		"remaining":         session.Remaining().String(),
		"progress":          session.Progress(),
		"focus_minutes":     session.FocusDurationSeconds / 60,
		"break_minutes":     session.BreakDurationSeconds / 60,
	}
}

func taskData(task *domain.Task) map[string]any {
	return map[string]any{
		"id":         task.ID,
		"text":       task.Text,
		"completed":  task.Completed,
		"created_at": task.CreatedAt.Format("2006-01-02T15:04:05"),
	}
}

func playbackData(state *domain.PlaybackState) map[string]any {
	if state.Empty() {
		return nil
	}
	data := map[string]any{
		"is_playing": state.IsPlaying,
		"device": map[string]any{
			"id":     state.Device.ID,
			"name":   state.Device.Name,
			"volume": state.Device.Volume,
		},
	}
	if state.HasTrack() {
		data["track"] = state.Track.Name
		data["artist"] = state.Track.Artist()
		data["album"] = state.Track.Album
	}
	return data
}

// handleGetCurrentState handles the get_current_state tool.
func (s *Server) handleGetCurrentState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := s.stateProvider.GetCurrentState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current state: %w", err)
	}

	tasks := make([]map[string]any, 0, len(state.Tasks))
	for _, t := range state.Tasks {
		tasks = append(tasks, taskData(t))
	}

	return jsonResult(map[string]any{
		"session":          sessionData(state.Session),
		"tasks":            tasks,
		"open_tasks":       state.OpenTasks(),
		"spotify":          string(state.Auth),
		"supports_control": state.SupportsControl,
		"now_playing":      playbackData(state.NowPlaying),
	})
}

// timerAction wraps a timer control as a tool handler that reports the new session.
func (s *Server) timerAction(action func(ports.TimerControls)) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		timer := s.stateProvider.Timer()
		action(timer)
		return jsonResult(sessionData(timer.Snapshot()))
	}
}

// handleSetDurations handles the set_durations tool.
func (s *Server) handleSetDurations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	focus, err := request.RequireFloat("focus_minutes")
	if err != nil {
		return mcp.NewToolResultError("focus_minutes is required: " + err.Error()), nil
	}
	brk, err := request.RequireFloat("break_minutes")
	if err != nil {
		return mcp.NewToolResultError("break_minutes is required: " + err.Error()), nil
	}

	for name, v := range map[string]float64{"focus_minutes": focus, "break_minutes": brk} {
		if !wholeMinutes(v) {
			return mcp.NewToolResultError(fmt.Sprintf("%s must be a whole number from 1 to %d, got %v",
				name, domain.MaxIntervalMinutes, v)), nil
		}
	}

	timer := s.stateProvider.Timer()
	if err := timer.ChangeDurations(int(focus), int(brk)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to set durations: %v", err)), nil
	}
	return jsonResult(sessionData(timer.Snapshot()))
}

// wholeMinutes reports whether v is an integral minute count in range.
func wholeMinutes(v float64) bool {
	return v == math.Trunc(v) && v >= 1 && v <= domain.MaxIntervalMinutes
}

// handleListTasks handles the list_tasks tool.
func (s *Server) handleListTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := request.GetString("status", "")

	state, err := s.stateProvider.GetCurrentState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	filtered := []map[string]any{}
	for _, task := range state.Tasks {
		if (status == "open" && task.Completed) || (status == "completed" && !task.Completed) {
			continue
		}
		filtered = append(filtered, taskData(task))
	}

	result := map[string]any{
		"tasks":       filtered,
		"total_count": len(filtered),
	}
	if status != "" {
		result["filter_status"] = status
	}
	return jsonResult(result)
}

// handleAddTask handles the add_task tool.
func (s *Server) handleAddTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text is required: " + err.Error()), nil
	}

	task, err := s.stateProvider.AddTask(ctx, text)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add task: %v", err)), nil
	}
	return jsonResult(taskData(task))
}

// handleToggleTask handles the toggle_task tool.
func (s *Server) handleToggleTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError("task_id is required: " + err.Error()), nil
	}

	task, err := s.stateProvider.ToggleTask(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to toggle task: %v", err)), nil
	}
	return jsonResult(taskData(task))
}

// handleDeleteTask handles the delete_task tool.
func (s *Server) handleDeleteTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError("task_id is required: " + err.Error()), nil
	}

	if err := s.stateProvider.DeleteTask(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete task: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Task %s deleted", id)), nil
}

// handleNowPlaying handles the now_playing tool.
func (s *Server) handleNowPlaying(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := s.stateProvider.GetCurrentState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get playback: %w", err)
	}
	if state.Auth == domain.AuthDisconnected {
		return mcp.NewToolResultError("spotify is not connected, run `pulse auth login`"), nil
	}
	if !state.NowPlaying.HasTrack() {
		return mcp.NewToolResultText("Nothing is playing"), nil
	}
	return jsonResult(playbackData(state.NowPlaying))
}

// skipAction returns a handler that moves playback forward or back.
func (s *Server) skipAction(forward bool) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := s.stateProvider.SkipTrack(ctx, forward); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to skip track: %v", err)), nil
		}
		if forward {
			return mcp.NewToolResultText("Skipped to the next track"), nil
		}
		return mcp.NewToolResultText("Went back to the previous track"), nil
	}
}
