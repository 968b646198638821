package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/xvierd/pulse-cli/internal/config"
	"github.com/xvierd/pulse-cli/internal/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and change timer settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := app.config
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"path":          path,
				"focus_minutes": cfg.Timer.FocusMinutes,
				"break_minutes": cfg.Timer.BreakMinutes,
				"spotify": map[string]any{
					"enabled":       cfg.Spotify.Enabled,
					"client_id":     cfg.Spotify.ClientID,
					"redirect_url":  cfg.Spotify.RedirectURL,
					"fade_out":      cfg.Spotify.FadeOut.String(),
					"fade_in":       cfg.Spotify.FadeIn.String(),
					"poll_interval": cfg.Spotify.PollInterval.String(),
					"device_id":     cfg.Spotify.DeviceID,
				},
				"notifications": cfg.Notifications.Enabled,
				"sound":         cfg.Notifications.Sound,
				"data_dir":      cfg.Storage.DataDir,
			})
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "  Config file:    %s\n\n", path)
		fmt.Fprintf(out, "  Focus:          %dm\n", cfg.Timer.FocusMinutes)
		fmt.Fprintf(out, "  Break:          %dm\n", cfg.Timer.BreakMinutes)
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  Spotify:        %s\n", onOff(cfg.Spotify.Enabled))
		fmt.Fprintf(out, "  Redirect URL:   %s\n", cfg.Spotify.RedirectURL)
		fmt.Fprintf(out, "  Fade out/in:    %s / %s\n", cfg.Spotify.FadeOut, cfg.Spotify.FadeIn)
		fmt.Fprintf(out, "  Poll interval:  %s\n", cfg.Spotify.PollInterval)
		if cfg.Spotify.DeviceID != "" {
			fmt.Fprintf(out, "  Device:         %s\n", cfg.Spotify.DeviceID)
		}
		fmt.Fprintln(out)
		notif := onOff(cfg.Notifications.Enabled)
		if cfg.Notifications.Enabled && cfg.Notifications.Sound {
			notif = "on (with sound)"
		}
		fmt.Fprintf(out, "  Notifications:  %s\n", notif)
		fmt.Fprintf(out, "  Data dir:       %s\n", cfg.Storage.DataDir)
		return nil
	},
}

var configDurationsCmd = &cobra.Command{
	Use:   "durations [focus-minutes] [break-minutes]",
	Short: "Set the focus and break lengths",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		focus, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("%w: focus minutes must be a whole number", domain.ErrInvalidDuration)
		}
		brk, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("%w: break minutes must be a whole number", domain.ErrInvalidDuration)
		}

		if err := app.config.SetDurations(focus, brk); err != nil {
			return err
		}
		if err := config.Save(app.config); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Focus %dm, break %dm\n", focus, brk)
		return nil
	},
}

var configPresetCmd = &cobra.Command{
	Use:   "preset [name]",
	Short: "Apply a built-in preset, or list them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) == 0 {
			for _, p := range domain.Presets {
				fmt.Fprintf(out, "  %s\n", p.Label())
			}
			return nil
		}

		p, err := app.config.ApplyPreset(args[0])
		if err != nil {
			return err
		}
		if err := config.Save(app.config); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Fprintf(out, "✓ Using %s\n", p.Label())
		return nil
	},
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configDurationsCmd)
	configCmd.AddCommand(configPresetCmd)
}
