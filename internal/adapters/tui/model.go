// Package tui provides the terminal user interface implementation
// using the Bubbletea framework.
package tui

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/xvierd/pulse-cli/internal/config"
	"github.com/xvierd/pulse-cli/internal/domain"
	"github.com/xvierd/pulse-cli/internal/ports"
)

// Backend is what the TUI drives. services.StateService implements it.
type Backend interface {
	GetCurrentState(ctx context.Context) (*domain.CurrentState, error)
	Timer() ports.TimerControls
	AddTask(ctx context.Context, text string) (*domain.Task, error)
	ToggleTask(ctx context.Context, id string) (*domain.Task, error)
	DeleteTask(ctx context.Context, id string) error
	SkipTrack(ctx context.Context, forward bool) error
}

// resolveTheme fills any empty string fields in the given ThemeConfig with defaults.
// If theme is nil, returns the full default theme.
func resolveTheme(theme *config.ThemeConfig) config.ThemeConfig {
	defaults := config.DefaultThemeConfig()
	if theme == nil {
		return defaults
	}
	resolved := *theme
	rv := reflect.ValueOf(&resolved).Elem()
	dv := reflect.ValueOf(defaults)
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if f.Kind() == reflect.String && f.String() == "" {
			f.SetString(dv.Field(i).String())
		}
	}
	return resolved
}

// tickMsg is sent on every timer tick.
type tickMsg time.Time

// stateMsg wraps an updated state fetched asynchronously.
type stateMsg struct {
	state *domain.CurrentState
	err   error
}

// actionMsg reports the outcome of a playback action run off the UI loop.
type actionMsg struct {
	err error
}

// Model represents the TUI state.
type Model struct {
	ctx      context.Context
	backend  Backend
	state    *domain.CurrentState
	focusBar progress.Model
	breakBar progress.Model
	input    textinput.Model
	adding   bool
	cursor   int
	width    int
	height   int
	theme    config.ThemeConfig
	lastErr  error
}

// NewModel creates a new TUI model.
func NewModel(ctx context.Context, backend Backend, initial *domain.CurrentState, theme *config.ThemeConfig) Model {
	resolved := resolveTheme(theme)
	if initial == nil {
		initial = &domain.CurrentState{Session: backend.Timer().Snapshot()}
	}

	ti := textinput.New()
	ti.Placeholder = "What are you working on?"
	ti.CharLimit = 200
	ti.Width = 40

	m := Model{
		ctx:      ctx,
		backend:  backend,
		state:    initial,
		focusBar: progress.New(progress.WithGradient(resolved.FocusGradientStart, resolved.FocusGradientEnd)),
		breakBar: progress.New(progress.WithGradient(resolved.BreakGradientStart, resolved.BreakGradientEnd)),
		input:    ti,
		theme:    resolved,
	}
	m.resize(getTerminalWidth(), 0)
	return m
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.fetchStateCmd())
}

// fetchStateCmd returns a tea.Cmd that fetches state asynchronously.
func (m Model) fetchStateCmd() tea.Cmd {
	return func() tea.Msg {
		s, err := m.backend.GetCurrentState(m.ctx)
		return stateMsg{state: s, err: err}
	}
}

func (m Model) skipTrackCmd(forward bool) tea.Cmd {
	return func() tea.Msg {
		return actionMsg{err: m.backend.SkipTrack(m.ctx, forward)}
	}
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	barWidth := width - 4
	if barWidth > 60 {
		barWidth = 60
	}
	if barWidth < 10 {
		barWidth = 10
	}
	m.focusBar.Width = barWidth
	m.breakBar.Width = barWidth
}

// modeColor returns the color for the current interval type.
func (m Model) modeColor() lipgloss.Color {
	if m.state.Session.Mode == domain.ModeBreak {
		return lipgloss.Color(m.theme.ColorBreak)
	}
	return lipgloss.Color(m.theme.ColorFocus)
}

// timerColor returns the color for the clock, accounting for pause state.
func (m Model) timerColor() lipgloss.Color {
	if !m.state.Session.Running {
		return lipgloss.Color(m.theme.ColorPaused)
	}
	return m.modeColor()
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.state.Tasks) {
		m.cursor = len(m.state.Tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) selectedTask() *domain.Task {
	if m.cursor < 0 || m.cursor >= len(m.state.Tasks) {
		return nil
	}
	return m.state.Tasks[m.cursor]
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && m.adding {
		return m.updateTaskInput(key)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tickMsg:
		return m, tea.Batch(tickCmd(), m.fetchStateCmd())

	case stateMsg:
		if msg.err != nil {
			m.lastErr = msg.err
			return m, nil
		}
		if msg.state != nil {
			m.state = msg.state
			m.clampCursor()
		}
		return m, nil

	case actionMsg:
		m.lastErr = msg.err
		return m, m.fetchStateCmd()
	}

	var cmds []tea.Cmd
	if m.adding {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	focusBar, cmd := m.focusBar.Update(msg)
	if p, ok := focusBar.(progress.Model); ok {
		m.focusBar = p
	}
	cmds = append(cmds, cmd)
	breakBar, cmd := m.breakBar.Update(msg)
	if p, ok := breakBar.(progress.Model); ok {
		m.breakBar = p
	}
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	timer := m.backend.Timer()
	m.lastErr = nil

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case " ", "p":
		timer.Toggle()
	case "r":
		timer.Reset()
	case "s":
		timer.Skip()
	case "n":
		return m, m.skipTrackCmd(true)
	case "b":
		return m, m.skipTrackCmd(false)
	case "a":
		m.adding = true
		m.input.Reset()
		m.input.Focus()
		return m, textinput.Blink
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(m.state.Tasks)-1 {
			m.cursor++
		}
		return m, nil
	case "x", "enter":
		task := m.selectedTask()
		if task == nil {
			return m, nil
		}
		if _, err := m.backend.ToggleTask(m.ctx, task.ID); err != nil {
			m.lastErr = err
		}
	case "d":
		task := m.selectedTask()
		if task == nil {
			return m, nil
		}
		if err := m.backend.DeleteTask(m.ctx, task.ID); err != nil {
			m.lastErr = err
		}
	default:
		return m, nil
	}
	next := *m.state
	next.Session = timer.Snapshot()
	m.state = &next
	return m, m.fetchStateCmd()
}

// updateTaskInput processes keys while the add-task prompt is open.
func (m Model) updateTaskInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.adding = false
		m.input.Blur()
		return m, nil
	case "enter":
		text := m.input.Value()
		m.adding = false
		m.input.Blur()
		if strings.TrimSpace(text) == "" {
			return m, nil
		}
		if _, err := m.backend.AddTask(m.ctx, text); err != nil {
			m.lastErr = err
			return m, nil
		}
		m.cursor = len(m.state.Tasks)
		return m, m.fetchStateCmd()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the model.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	session := m.state.Session
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.ColorTitle)).MarginBottom(1)
	modeStyle := lipgloss.NewStyle().Bold(true).Foreground(m.modeColor())
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorHelp))

	var sections []string
	sections = append(sections, titleStyle.Render(fmt.Sprintf("%s pulse", m.theme.IconApp)))

	status := session.Mode.Label()
	if !session.Running {
		status = fmt.Sprintf("%s %s (paused)", m.theme.IconPaused, status)
	}
	sections = append(sections, modeStyle.Render(status), "")
	sections = append(sections, renderBigTime(formatDuration(session.Remaining()), m.timerColor(), m.width))
	sections = append(sections, "")

	bar := m.focusBar
	if session.Mode == domain.ModeBreak {
		bar = m.breakBar
	}
	sections = append(sections, bar.ViewAs(session.Progress()))
	sections = append(sections, helpStyle.Render(fmt.Sprintf("focus %dm · break %dm",
		session.FocusDurationSeconds/60, session.BreakDurationSeconds/60)))

	sections = append(sections, "", m.viewNowPlaying())
	sections = append(sections, "")
	sections = append(sections, m.viewTasks()...)

	if m.adding {
		sections = append(sections, "", m.input.View())
		sections = append(sections, helpStyle.Render("enter save · esc cancel"))
	}

	if m.lastErr != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorFocus))
		sections = append(sections, "", errStyle.Render(m.fit("Error: "+m.lastErr.Error())))
	}

	sections = append(sections, "")
	sections = append(sections, helpStyle.Render("[space] start/pause  [r]eset  [s]kip  [a]dd  [x] done  [d]elete"))
	sections = append(sections, helpStyle.Render("[n]ext track  [b]ack  [q]uit"))

	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	if m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) viewNowPlaying() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorTask))
	if m.state.Auth == domain.AuthDisconnected {
		return style.Faint(true).Render("Spotify not connected (pulse auth login)")
	}

	np := m.state.NowPlaying
	if !np.HasTrack() {
		return style.Faint(true).Render(m.theme.IconMusic + " nothing playing")
	}

	icon := m.theme.IconMusic
	if !np.IsPlaying {
		icon = m.theme.IconPaused
	}
	line := fmt.Sprintf("%s %s · %s", icon, np.Track.Name, np.Track.Artist())
	if !m.state.SupportsControl {
		line += " (volume control unavailable)"
	}
	return style.Render(m.fit(line))
}

func (m Model) viewTasks() []string {
	taskStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorTask))
	doneStyle := taskStyle.Faint(true).Strikethrough(true)

	if len(m.state.Tasks) == 0 {
		return []string{taskStyle.Faint(true).Render("No tasks yet. Press [a] to add one.")}
	}

	lines := make([]string, 0, len(m.state.Tasks))
	for i, task := range m.state.Tasks {
		marker := "  "
		if i == m.cursor {
			marker = "> "
		}
		style := taskStyle
		if task.Completed {
			style = doneStyle
		}
		lines = append(lines, style.Render(m.fit(fmt.Sprintf("%s%s %s", marker, task.CheckMark(), task.Text))))
	}
	return lines
}

// fit truncates s to the usable terminal width.
func (m Model) fit(s string) string {
	limit := m.width - 4
	if limit < 10 {
		return s
	}
	return truncate.StringWithTail(s, uint(limit), "…")
}

// tickCmd creates a command that sends a tick message.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// formatDuration formats a duration as MM:SS.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
