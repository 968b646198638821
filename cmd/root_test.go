package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/xvierd/pulse-cli/internal/config"
	"github.com/xvierd/pulse-cli/internal/domain"
)

// executeCmd is a helper to execute a cobra command in tests
func executeCmd(cmd *cobra.Command, args ...string) (stdout string, stderr string, err error) {
	bufOut := new(bytes.Buffer)
	bufErr := new(bytes.Buffer)

	cmd.SetOut(bufOut)
	cmd.SetErr(bufErr)
	cmd.SetArgs(args)

	err = cmd.Execute()
	_ = cleanupServices()
	return bufOut.String(), bufErr.String(), err
}

// setupTestEnv points the config, data dir and database at a temp dir and
// returns the config path.
func setupTestEnv(t *testing.T, mutate func(*config.Config)) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	configPath := filepath.Join(dir, "config.toml")
	t.Setenv(config.EnvConfigPath, configPath)

	cfg := config.DefaultConfig()
	cfg.Storage.DataDir = dir
	cfg.Notifications.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}
	if err := config.SaveTo(configPath, cfg); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	dbPath = filepath.Join(dir, "pulse.db")
	jsonOutput, listAll, addFromBranch = false, false, false
	t.Cleanup(func() {
		dbPath = ""
		jsonOutput, listAll, addFromBranch = false, false, false
	})
	return configPath
}

func TestRootCmd_Use(t *testing.T) {
	if rootCmd.Use != "pulse" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "pulse")
	}
}

func TestRootCmd_Help(t *testing.T) {
	stdout, _, err := executeCmd(rootCmd, "--help")
	if err != nil {
		t.Fatalf("help command failed: %v", err)
	}
	for _, sub := range []string{"auth", "tasks", "music", "config", "mcp", "status"} {
		if !strings.Contains(stdout, sub) {
			t.Errorf("help output should list %q", sub)
		}
	}
}

func TestRootCmd_Flags(t *testing.T) {
	for _, name := range []string{"db", "json", "verbose"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("--%s flag should be registered", name)
		}
	}
}

func TestTasksCommands(t *testing.T) {
	setupTestEnv(t, nil)

	stdout, _, err := executeCmd(rootCmd, "tasks", "add", "Write", "the", "report")
	if err != nil {
		t.Fatalf("tasks add error = %v", err)
	}
	if !strings.Contains(stdout, "Write the report") {
		t.Errorf("tasks add output = %q", stdout)
	}
	if _, _, err := executeCmd(rootCmd, "tasks", "add", "Review PR"); err != nil {
		t.Fatalf("tasks add error = %v", err)
	}

	stdout, _, err = executeCmd(rootCmd, "tasks", "list", "--json")
	if err != nil {
		t.Fatalf("tasks list error = %v", err)
	}
	var listed struct {
		Tasks []struct {
			ID        string `json:"id"`
			Text      string `json:"text"`
			Completed bool   `json:"completed"`
		} `json:"tasks"`
		Count int `json:"count"`
	}
	if err := json.Unmarshal([]byte(stdout), &listed); err != nil {
		t.Fatalf("tasks list --json output is not JSON: %v\n%s", err, stdout)
	}
	if listed.Count != 2 || listed.Tasks[0].Text != "Write the report" {
		t.Fatalf("tasks list = %+v, want 2 tasks in insertion order", listed)
	}
	jsonOutput = false

	prefix := listed.Tasks[0].ID[:8]
	stdout, _, err = executeCmd(rootCmd, "tasks", "done", prefix)
	if err != nil {
		t.Fatalf("tasks done error = %v", err)
	}
	if !strings.Contains(stdout, "[x] Write the report") {
		t.Errorf("tasks done output = %q", stdout)
	}

	stdout, _, _ = executeCmd(rootCmd, "tasks", "list")
	if strings.Contains(stdout, "Write the report") || !strings.Contains(stdout, "Review PR") {
		t.Errorf("tasks list should hide completed tasks:\n%s", stdout)
	}

	stdout, _, _ = executeCmd(rootCmd, "tasks", "find", "rvw")
	if !strings.Contains(stdout, "Review PR") {
		t.Errorf("tasks find output = %q", stdout)
	}

	stdout, _, err = executeCmd(rootCmd, "tasks", "clear")
	if err != nil || !strings.Contains(stdout, "Removed 1") {
		t.Errorf("tasks clear = %q, %v", stdout, err)
	}

	if _, _, err := executeCmd(rootCmd, "tasks", "rm", listed.Tasks[1].ID); err != nil {
		t.Fatalf("tasks rm error = %v", err)
	}
	stdout, _, _ = executeCmd(rootCmd, "tasks", "list", "--all")
	if !strings.Contains(stdout, "No tasks found.") {
		t.Errorf("tasks list after rm = %q", stdout)
	}
}

func TestTasksCommands_Errors(t *testing.T) {
	setupTestEnv(t, nil)

	if _, _, err := executeCmd(rootCmd, "tasks", "add"); err == nil {
		t.Error("tasks add without text should fail")
	}
	if _, _, err := executeCmd(rootCmd, "tasks", "add", "   "); !errors.Is(err, domain.ErrEmptyTaskText) {
		t.Errorf("tasks add blank error = %v, want ErrEmptyTaskText", err)
	}
	if _, _, err := executeCmd(rootCmd, "tasks", "done", "nope"); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("tasks done unknown error = %v, want ErrTaskNotFound", err)
	}
}

func TestConfigDurations(t *testing.T) {
	configPath := setupTestEnv(t, nil)

	if _, _, err := executeCmd(rootCmd, "config", "durations", "40", "8"); err != nil {
		t.Fatalf("config durations error = %v", err)
	}
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Timer.FocusMinutes != 40 || cfg.Timer.BreakMinutes != 8 {
		t.Errorf("saved durations = %d/%d, want 40/8", cfg.Timer.FocusMinutes, cfg.Timer.BreakMinutes)
	}
	if cfg.Notifications.Enabled {
		t.Error("saving durations should keep the other settings")
	}

	_, _, err = executeCmd(rootCmd, "config", "durations", "0", "5")
	if !errors.Is(err, domain.ErrInvalidDuration) {
		t.Errorf("zero focus error = %v, want ErrInvalidDuration", err)
	}
	_, _, err = executeCmd(rootCmd, "config", "durations", "ten", "5")
	if !errors.Is(err, domain.ErrInvalidDuration) {
		t.Errorf("non-numeric error = %v, want ErrInvalidDuration", err)
	}

	cfg, _ = config.LoadFrom(configPath)
	if cfg.Timer.FocusMinutes != 40 {
		t.Errorf("rejected durations changed the file: focus = %d", cfg.Timer.FocusMinutes)
	}
}

func TestConfigPreset(t *testing.T) {
	configPath := setupTestEnv(t, nil)

	stdout, _, err := executeCmd(rootCmd, "config", "preset")
	if err != nil {
		t.Fatalf("config preset error = %v", err)
	}
	for _, name := range []string{"classic (25/5)", "long (50/10)", "short (15/3)"} {
		if !strings.Contains(stdout, name) {
			t.Errorf("preset list missing %q", name)
		}
	}

	if _, _, err := executeCmd(rootCmd, "config", "preset", "long"); err != nil {
		t.Fatalf("config preset long error = %v", err)
	}
	cfg, _ := config.LoadFrom(configPath)
	if cfg.Timer.FocusMinutes != 50 || cfg.Timer.BreakMinutes != 10 {
		t.Errorf("preset long saved %d/%d, want 50/10", cfg.Timer.FocusMinutes, cfg.Timer.BreakMinutes)
	}

	if _, _, err := executeCmd(rootCmd, "config", "preset", "marathon"); err == nil {
		t.Error("unknown preset should fail")
	}
}

func TestConfigShow(t *testing.T) {
	setupTestEnv(t, nil)

	stdout, _, err := executeCmd(rootCmd, "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	for _, want := range []string{"Focus:          25m", "Break:          5m", "Fade out/in:    2s / 1s"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("config show missing %q in:\n%s", want, stdout)
		}
	}
}

func TestMusicCmd_RequiresSpotify(t *testing.T) {
	setupTestEnv(t, nil)

	_, _, err := executeCmd(rootCmd, "music", "status")
	if !errors.Is(err, errSpotifyNotConfigured) {
		t.Errorf("music status error = %v, want errSpotifyNotConfigured", err)
	}

	setupTestEnv(t, func(cfg *config.Config) {
		cfg.Spotify.Enabled = true
		cfg.Spotify.ClientID = "client-id"
	})
	_, _, err = executeCmd(rootCmd, "music", "next")
	if !errors.Is(err, domain.ErrNotConnected) {
		t.Errorf("music next error = %v, want ErrNotConnected", err)
	}
}

func TestAuthStatus(t *testing.T) {
	setupTestEnv(t, nil)

	stdout, _, err := executeCmd(rootCmd, "auth", "status")
	if err != nil {
		t.Fatalf("auth status error = %v", err)
	}
	if !strings.Contains(stdout, "not configured") {
		t.Errorf("auth status output = %q", stdout)
	}

	setupTestEnv(t, func(cfg *config.Config) {
		cfg.Spotify.Enabled = true
		cfg.Spotify.ClientID = "client-id"
	})
	stdout, _, _ = executeCmd(rootCmd, "auth", "status")
	if !strings.Contains(stdout, "Spotify: disconnected") {
		t.Errorf("auth status output = %q", stdout)
	}
}

func TestStatusCmd_JSON(t *testing.T) {
	setupTestEnv(t, nil)
	if _, _, err := executeCmd(rootCmd, "tasks", "add", "Plan sprint"); err != nil {
		t.Fatalf("tasks add error = %v", err)
	}

	stdout, _, err := executeCmd(rootCmd, "status", "--json")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	var status map[string]any
	if err := json.Unmarshal([]byte(stdout), &status); err != nil {
		t.Fatalf("status --json output is not JSON: %v", err)
	}
	session := status["session"].(map[string]any)
	if session["mode"] != "focus" || session["status"] != "Paused" || session["remaining_seconds"] != float64(1500) {
		t.Errorf("session = %v", session)
	}
	if status["open_tasks"] != float64(1) || status["spotify"] != "disconnected" {
		t.Errorf("status = %v", status)
	}
}
