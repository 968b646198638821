// Package cmd provides the CLI commands for the pulse application.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/xvierd/pulse-cli/internal/adapters/tui"
	"github.com/xvierd/pulse-cli/internal/telemetry"
)

var (
	// Version info (set at build time via ldflags)
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"

	// Global flags
	dbPath     string
	jsonOutput bool
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pulse",
	Short: "pulse - a Pomodoro focus timer that keeps Spotify in sync",
	Long: `pulse is a terminal Pomodoro timer with a task list. When a Spotify
account is connected, music fades out as a focus interval ends and fades
back in when the next one starts.

Run "pulse" with no arguments to open the timer.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.SetCommand(cmd.CommandPath())
		return initializeServices(cmd.Context())
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return cleanupServices()
	},
	RunE: runTimer,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		_ = cleanupServices()
		telemetry.Flush()
		os.Exit(1)
	}
	telemetry.Flush()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the database file (default: ~/.pulse/pulse.db)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output results in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Write debug output to the log file")

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("pulse\nVersion: {{.Version}}\n")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(musicCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(mcpCmd)
}

// setupSignalHandler returns a context that is cancelled on interrupt signals.
func setupSignalHandler(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// runTimer opens the full-screen timer.
func runTimer(cmd *cobra.Command, args []string) error {
	ctx, cancel := setupSignalHandler(cmd.Context())
	defer cancel()

	app.startSession(ctx)
	defer app.stopSession()

	if err := tui.Run(ctx, app.state, &app.config.Theme); err != nil {
		return fmt.Errorf("timer error: %w", err)
	}
	return nil
}

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current status",
	Long:  `Display the timer settings, the Spotify connection and the task list.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := app.state.GetCurrentState(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get current state: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), statusJSON(state))
		}
		tui.ShowStatus(cmd.OutOrStdout(), state)
		return nil
	},
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
