package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"
	"github.com/xvierd/pulse-cli/internal/config"
	"github.com/xvierd/pulse-cli/internal/domain"
)

// getTerminalWidth returns the current terminal width, defaulting to 80.
func getTerminalWidth() int {
	w, _, err := term.GetSize(os.Stdout.Fd())
	if err != nil || w < bigTimeMinWidth {
		return 80
	}
	return w
}

// Run starts the full-screen interface and blocks until the user quits or
// ctx is cancelled.
func Run(ctx context.Context, backend Backend, theme *config.ThemeConfig) error {
	initial, err := backend.GetCurrentState(ctx)
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	program := tea.NewProgram(
		NewModel(ctx, backend, initial, theme),
		tea.WithAltScreen(),
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-runCtx.Done()
		program.Quit()
	}()

	_, err = program.Run()
	cancel()
	wg.Wait()
	if err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// ShowStatus writes the current status without starting interactive mode.
func ShowStatus(w io.Writer, state *domain.CurrentState) {
	session := state.Session
	fmt.Fprintf(w, "⏱  %s session (%s)\n", session.Mode.Label(), session.StatusLabel())
	fmt.Fprintf(w, "   Remaining: %s\n", formatDuration(session.Remaining()))
	fmt.Fprintf(w, "   Progress: %.0f%%\n", session.Progress()*100)
	fmt.Fprintf(w, "   Durations: focus %dm, break %dm\n",
		session.FocusDurationSeconds/60, session.BreakDurationSeconds/60)

	fmt.Fprintf(w, "\n🎵 Spotify: %s\n", state.Auth)
	if np := state.NowPlaying; np.HasTrack() {
		verb := "Playing"
		if !np.IsPlaying {
			verb = "Paused"
		}
		fmt.Fprintf(w, "   %s: %s - %s\n", verb, np.Track.Name, np.Track.Artist())
		if np.Device != nil {
			fmt.Fprintf(w, "   Device: %s (volume %d%%)\n", np.Device.Name, np.Device.Volume)
		}
	}

	fmt.Fprintf(w, "\n📋 Tasks: %d open, %d total\n", state.OpenTasks(), len(state.Tasks))
	for _, t := range state.Tasks {
		fmt.Fprintf(w, "   %s %s  %s\n", t.CheckMark(), shortID(t.ID), t.Text)
	}
}

// shortID returns the prefix of a task id that CLI commands accept.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
