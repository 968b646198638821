package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xvierd/pulse-cli/internal/domain"
)

var (
	musicDevice   string
	musicPlaylist string
	transferPlay  bool
	playlistLimit int
)

// musicCmd groups the Spotify playback commands.
var musicCmd = &cobra.Command{
	Use:   "music",
	Short: "Control Spotify playback",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		return requireSpotify()
	},
}

var musicStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what is playing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := app.player.PlaybackState(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get playback state: %w", err)
		}

		if jsonOutput {
			if state == nil {
				return printJSON(cmd.OutOrStdout(), map[string]any{"is_playing": false})
			}
			return printJSON(cmd.OutOrStdout(), playbackJSON(state))
		}

		out := cmd.OutOrStdout()
		if state.Empty() {
			fmt.Fprintln(out, "No active device.")
			return nil
		}
		if state.HasTrack() {
			verb := "▶ Playing"
			if !state.IsPlaying {
				verb = "⏸ Paused"
			}
			fmt.Fprintf(out, "%s: %s - %s\n", verb, state.Track.Name, state.Track.Artist())
		} else {
			fmt.Fprintln(out, "Nothing loaded.")
		}
		fmt.Fprintf(out, "Device: %s (volume %d%%)\n", state.Device.Name, state.Device.Volume)
		if state.Device.Restricted {
			fmt.Fprintln(out, "This device does not accept remote control.")
		}
		return nil
	},
}

var musicDevicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List controllable Spotify Connect devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := app.player.Devices(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list devices: %w", err)
		}

		if jsonOutput {
			list := make([]map[string]any, 0, len(devices))
			for _, d := range devices {
				list = append(list, deviceJSON(d))
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"devices": list, "count": len(list)})
		}

		out := cmd.OutOrStdout()
		if len(devices) == 0 {
			fmt.Fprintln(out, "No devices found. Open Spotify on a device first.")
			return nil
		}
		for _, d := range devices {
			marker := " "
			if d.Active {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %-24s %-12s %3d%%  %s\n", marker, d.Name, d.Type, d.Volume, d.ID)
		}
		return nil
	},
}

var musicPlayCmd = &cobra.Command{
	Use:   "play",
	Short: "Resume playback, or start a playlist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		device := musicDevice
		if device == "" {
			device = app.config.Spotify.DeviceID
		}

		var err error
		if musicPlaylist != "" {
			err = app.player.PlayPlaylist(cmd.Context(), musicPlaylist, device)
		} else {
			err = app.player.Play(cmd.Context(), device)
		}
		if err != nil {
			return playbackError("play", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "▶ Playing")
		return nil
	},
}

var musicPauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause playback",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.player.Pause(cmd.Context()); err != nil {
			return playbackError("pause", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "⏸ Paused")
		return nil
	},
}

var musicNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Skip to the next track",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.player.Next(cmd.Context()); err != nil {
			return playbackError("skip", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "⏭ Next track")
		return nil
	},
}

var musicPrevCmd = &cobra.Command{
	Use:     "prev",
	Aliases: []string{"previous"},
	Short:   "Go back to the previous track",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.player.Previous(cmd.Context()); err != nil {
			return playbackError("go back", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "⏮ Previous track")
		return nil
	},
}

var musicTransferCmd = &cobra.Command{
	Use:   "transfer [device-id]",
	Short: "Move playback to another device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.player.TransferPlayback(cmd.Context(), args[0], transferPlay); err != nil {
			return playbackError("transfer playback", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Playback moved to %s\n", args[0])
		return nil
	},
}

var musicPlaylistsCmd = &cobra.Command{
	Use:   "playlists",
	Short: "List your playlists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		playlists, err := app.player.Playlists(cmd.Context(), playlistLimit)
		if err != nil {
			return fmt.Errorf("failed to list playlists: %w", err)
		}

		if jsonOutput {
			list := make([]map[string]any, 0, len(playlists))
			for _, p := range playlists {
				list = append(list, map[string]any{
					"id":     p.ID,
					"name":   p.Name,
					"uri":    p.URI,
					"tracks": p.TrackCount,
				})
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"playlists": list, "count": len(list)})
		}

		out := cmd.OutOrStdout()
		if len(playlists) == 0 {
			fmt.Fprintln(out, "No playlists found.")
			return nil
		}
		for _, p := range playlists {
			fmt.Fprintf(out, "%-32s %4d tracks  %s\n", p.Name, p.TrackCount, p.URI)
		}
		return nil
	},
}

// playbackError adds a hint to restriction failures.
func playbackError(action string, err error) error {
	if domain.IsRestricted(err) {
		return fmt.Errorf("failed to %s: the active device does not accept remote control: %w", action, err)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

func init() {
	musicPlayCmd.Flags().StringVarP(&musicDevice, "device", "d", "", "Device id (default: spotify.device_id or the active device)")
	musicPlayCmd.Flags().StringVarP(&musicPlaylist, "playlist", "l", "", "Playlist URI to start")
	musicTransferCmd.Flags().BoolVar(&transferPlay, "play", true, "Start playing on the new device")
	musicPlaylistsCmd.Flags().IntVarP(&playlistLimit, "limit", "n", 0, "Maximum number of playlists (default 20)")

	musicCmd.AddCommand(musicStatusCmd)
	musicCmd.AddCommand(musicDevicesCmd)
	musicCmd.AddCommand(musicPlayCmd)
	musicCmd.AddCommand(musicPauseCmd)
	musicCmd.AddCommand(musicNextCmd)
	musicCmd.AddCommand(musicPrevCmd)
	musicCmd.AddCommand(musicTransferCmd)
	musicCmd.AddCommand(musicPlaylistsCmd)
}
