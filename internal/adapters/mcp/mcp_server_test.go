package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/xvierd/pulse-cli/internal/domain"
	"github.com/xvierd/pulse-cli/internal/ports"
)

// mockTimer records the controls invoked on it.
type mockTimer struct {
	calls   []string
	session domain.Session
}

func (m *mockTimer) Start() {
	m.calls = append(m.calls, "start")
	m.session.Running = true
}
func (m *mockTimer) Pause() {
	m.calls = append(m.calls, "pause")
	m.session.Running = false
}
func (m *mockTimer) Toggle() { m.calls = append(m.calls, "toggle") }
func (m *mockTimer) Reset()  { m.calls = append(m.calls, "reset") }
func (m *mockTimer) Skip() {
	m.calls = append(m.calls, "skip")
	m.session.Mode = m.session.Mode.Other()
}
func (m *mockTimer) Tick() { m.calls = append(m.calls, "tick") }
func (m *mockTimer) ChangeDurations(focusMinutes, breakMinutes int) error {
	d, err := domain.DurationsFromMinutes(focusMinutes, breakMinutes)
	if err != nil {
		return err
	}
	m.session.FocusDurationSeconds = d.FocusSeconds
	m.session.BreakDurationSeconds = d.BreakSeconds
	return nil
}
func (m *mockTimer) Snapshot() domain.Session { return m.session }

// mockStateProvider is a mock implementation of ports.MCPStateProvider for testing.
type mockStateProvider struct {
	timer   *mockTimer
	tasks   []*domain.Task
	auth    domain.AuthState
	playing *domain.PlaybackState
	skipped []bool
	skipErr error
}

func newMockProvider() *mockStateProvider {
	return &mockStateProvider{
		timer: &mockTimer{session: domain.Session{
			Mode:                 domain.ModeFocus,
			RemainingSeconds:     1500,
			FocusDurationSeconds: 1500,
			BreakDurationSeconds: 300,
		}},
		auth: domain.AuthDisconnected,
	}
}

func (m *mockStateProvider) GetCurrentState(ctx context.Context) (*domain.CurrentState, error) {
	return &domain.CurrentState{
		Session:    m.timer.Snapshot(),
		Tasks:      m.tasks,
		Auth:       m.auth,
		NowPlaying: m.playing,
	}, nil
}

func (m *mockStateProvider) Timer() ports.TimerControls { return m.timer }

func (m *mockStateProvider) AddTask(ctx context.Context, text string) (*domain.Task, error) {
	task, err := domain.NewTask(text)
	if err != nil {
		return nil, err
	}
	m.tasks = append(m.tasks, task)
	return task, nil
}

func (m *mockStateProvider) ToggleTask(ctx context.Context, id string) (*domain.Task, error) {
	for _, t := range m.tasks {
		if t.ID == id {
			t.Toggle()
			return t, nil
		}
	}
	return nil, domain.ErrTaskNotFound
}

func (m *mockStateProvider) DeleteTask(ctx context.Context, id string) error {
	for i, t := range m.tasks {
		if t.ID == id {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return nil
		}
	}
	return domain.ErrTaskNotFound
}

func (m *mockStateProvider) SkipTrack(ctx context.Context, forward bool) error {
	m.skipped = append(m.skipped, forward)
	return m.skipErr
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	request := mcp.CallToolRequest{}
	request.Params.Arguments = args
	return request
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want mcp.TextContent", result.Content[0])
	}
	return text.Text
}

func decode(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal([]byte(resultText(t, result)), &out); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	return out
}

func TestNewServer(t *testing.T) {
	mock := newMockProvider()
	server := NewServer(mock, "test")

	if server.stateProvider != mock {
		t.Error("NewServer() did not set state provider correctly")
	}
	if server.server == nil {
		t.Error("NewServer() did not create MCP server")
	}
	if server.IsRunning() {
		t.Error("IsRunning() should return false before Start()")
	}
}

func TestServer_Start_StopsOnCancel(t *testing.T) {
	server := NewServer(newMockProvider(), "test")
	server.stdin = strings.NewReader("")
	server.stdout = &strings.Builder{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := server.Start(ctx); err != nil {
		t.Errorf("Start() after cancel error = %v", err)
	}
	if server.IsRunning() {
		t.Error("IsRunning() should be false after Start() returns")
	}
}

func TestServer_handleGetCurrentState(t *testing.T) {
	mock := newMockProvider()
	_, _ = mock.AddTask(context.Background(), "Write tests")
	server := NewServer(mock, "test")

	result, err := server.handleGetCurrentState(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handleGetCurrentState() error = %v", err)
	}

	out := decode(t, result)
	session := out["session"].(map[string]any)
	if session["mode"] != "focus" || session["focus_minutes"] != float64(25) {
		t.Errorf("session = %v", session)
	}
	if out["open_tasks"] != float64(1) || out["spotify"] != "disconnected" {
		t.Errorf("state = %v", out)
	}
	if out["now_playing"] != nil {
		t.Errorf("now_playing = %v, want nil", out["now_playing"])
	}
}

func TestServer_TimerTools(t *testing.T) {
	mock := newMockProvider()
	server := NewServer(mock, "test")
	ctx := context.Background()

	tests := []struct {
		name    string
		handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		want    string
	}{
		{"start", server.timerAction(ports.TimerControls.Start), "start"},
		{"pause", server.timerAction(ports.TimerControls.Pause), "pause"},
		{"reset", server.timerAction(ports.TimerControls.Reset), "reset"},
		{"skip", server.timerAction(ports.TimerControls.Skip), "skip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.handler(ctx, callRequest(nil))
			if err != nil {
				t.Fatalf("handler error = %v", err)
			}
			if result.IsError {
				t.Errorf("handler returned error result: %s", resultText(t, result))
			}
			if last := mock.timer.calls[len(mock.timer.calls)-1]; last != tt.want {
				t.Errorf("last call = %q, want %q", last, tt.want)
			}
		})
	}

	if mock.timer.session.Mode != domain.ModeBreak {
		t.Error("skip should switch the interval")
	}
}

func TestServer_handleSetDurations(t *testing.T) {
	mock := newMockProvider()
	server := NewServer(mock, "test")

	result, err := server.handleSetDurations(context.Background(), callRequest(map[string]any{
		"focus_minutes": 50.0,
		"break_minutes": 10.0,
	}))
	if err != nil {
		t.Fatalf("handleSetDurations() error = %v", err)
	}
	out := decode(t, result)
	if out["focus_minutes"] != float64(50) || out["break_minutes"] != float64(10) {
		t.Errorf("durations = %v, want 50/10", out)
	}

	result, _ = server.handleSetDurations(context.Background(), callRequest(map[string]any{
		"focus_minutes": 0.0,
		"break_minutes": 10.0,
	}))
	if !result.IsError {
		t.Error("zero focus minutes should be rejected")
	}
	if mock.timer.session.FocusDurationSeconds != 3000 {
		t.Error("rejected durations must leave the settings unchanged")
	}

	result, _ = server.handleSetDurations(context.Background(), callRequest(map[string]any{}))
	if !result.IsError {
		t.Error("missing arguments should return an error result")
	}
}

func TestServer_handleSetDurations_RejectsNonIntegral(t *testing.T) {
	tests := []struct {
		name       string
		focus, brk float64
	}{
		{"fractional focus", 2.5, 5},
		{"fractional break", 25, 0.5},
		{"longer than a day", float64(domain.MaxIntervalMinutes + 1), 5},
		{"huge", 1e30, 5},
		{"negative", -3, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockProvider()
			server := NewServer(mock, "test")
			before := mock.timer.session

			result, err := server.handleSetDurations(context.Background(), callRequest(map[string]any{
				"focus_minutes": tt.focus,
				"break_minutes": tt.brk,
			}))
			if err != nil {
				t.Fatalf("handleSetDurations() error = %v", err)
			}
			if !result.IsError {
				t.Errorf("%v/%v minutes should be rejected", tt.focus, tt.brk)
			}
			if mock.timer.session != before {
				t.Error("rejected durations must leave the settings unchanged")
			}
		})
	}
}

func TestServer_ToolDescriptions(t *testing.T) {
	server := NewServer(newMockProvider(), "test")

	response := server.server.HandleMessage(context.Background(),
		json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	raw, err := json.Marshal(response)
	if err != nil {
		t.Fatalf("failed to marshal tools/list response: %v", err)
	}
	var listed struct {
		Result struct {
			Tools []struct {
				Name        string `json:"name"`
				Description string `json:"description"`
			} `json:"tools"`
		} `json:"result"`
	}
	if err := json.Unmarshal(raw, &listed); err != nil {
		t.Fatalf("tools/list response is not JSON: %v", err)
	}

	descriptions := map[string]string{}
	for _, tool := range listed.Result.Tools {
		descriptions[tool.Name] = tool.Description
	}
	if got := descriptions["reset_timer"]; got != "Pause and refill the current interval" {
		t.Errorf("reset_timer description = %q", got)
	}
	if len(descriptions) != 13 {
		t.Errorf("listed %d tools, want 13", len(descriptions))
	}
}

func TestServer_TaskTools(t *testing.T) {
	mock := newMockProvider()
	server := NewServer(mock, "test")
	ctx := context.Background()

	result, err := server.handleAddTask(ctx, callRequest(map[string]any{"text": "Review PR"}))
	if err != nil {
		t.Fatalf("handleAddTask() error = %v", err)
	}
	added := decode(t, result)
	id := added["id"].(string)

	result, _ = server.handleAddTask(ctx, callRequest(map[string]any{"text": "   "}))
	if !result.IsError {
		t.Error("blank task text should be rejected")
	}

	result, _ = server.handleToggleTask(ctx, callRequest(map[string]any{"task_id": id}))
	if toggled := decode(t, result); toggled["completed"] != true {
		t.Errorf("toggle_task = %v, want completed", toggled)
	}

	result, _ = server.handleListTasks(ctx, callRequest(map[string]any{"status": "open"}))
	if list := decode(t, result); list["total_count"] != float64(0) {
		t.Errorf("open tasks = %v, want none", list)
	}
	result, _ = server.handleListTasks(ctx, callRequest(map[string]any{"status": "completed"}))
	if list := decode(t, result); list["total_count"] != float64(1) {
		t.Errorf("completed tasks = %v, want one", list)
	}

	result, _ = server.handleDeleteTask(ctx, callRequest(map[string]any{"task_id": id}))
	if result.IsError {
		t.Errorf("delete_task error: %s", resultText(t, result))
	}
	result, _ = server.handleDeleteTask(ctx, callRequest(map[string]any{"task_id": id}))
	if !result.IsError {
		t.Error("deleting a missing task should return an error result")
	}

	result, _ = server.handleToggleTask(ctx, callRequest(map[string]any{}))
	if !result.IsError {
		t.Error("toggle_task without task_id should return an error result")
	}
}

func TestServer_MusicTools(t *testing.T) {
	mock := newMockProvider()
	server := NewServer(mock, "test")
	ctx := context.Background()

	result, _ := server.handleNowPlaying(ctx, callRequest(nil))
	if !result.IsError {
		t.Error("now_playing without a connection should return an error result")
	}

	mock.auth = domain.AuthConnected
	mock.playing = &domain.PlaybackState{
		Device:    &domain.Device{ID: "dev1", Name: "Desk", Volume: 60},
		IsPlaying: true,
		Track:     &domain.Track{Name: "Song", Artists: []string{"Band"}},
	}
	result, _ = server.handleNowPlaying(ctx, callRequest(nil))
	if out := decode(t, result); out["track"] != "Song" || out["artist"] != "Band" {
		t.Errorf("now_playing = %v", out)
	}

	if result, _ = server.skipAction(true)(ctx, callRequest(nil)); result.IsError {
		t.Error("next_track should succeed")
	}
	mock.skipErr = errors.New("no active device")
	if result, _ = server.skipAction(false)(ctx, callRequest(nil)); !result.IsError {
		t.Error("previous_track failure should return an error result")
	}
	if len(mock.skipped) != 2 || !mock.skipped[0] || mock.skipped[1] {
		t.Errorf("skipped = %v, want [true false]", mock.skipped)
	}
}
