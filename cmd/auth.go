package cmd

import (
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"github.com/xvierd/pulse-cli/internal/adapters/spotify"
)

var loginNoBrowser bool

// Swapped in tests.
var (
	copyToClipboard = clipboard.WriteAll
	openURL         = browser.OpenURL
)

// openAuthURL copies the authorization URL and, unless --no-browser is set,
// opens it in the default browser.
func openAuthURL(url string) error {
	if err := copyToClipboard(url); err != nil {
		app.log.WithError(err).Debug("clipboard unavailable")
	}
	if loginNoBrowser {
		return nil
	}
	return openURL(url)
}

// authCmd groups the Spotify account commands.
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Connect or disconnect your Spotify account",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Connect a Spotify account",
	Long: `Open the Spotify authorization page and wait for the redirect on the
configured loopback address. The authorization URL is also copied to the
clipboard.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !spotifyConfigured() {
			return errSpotifyNotConfigured
		}

		ctx, cancel := setupSignalHandler(cmd.Context())
		defer cancel()

		login := &spotify.Login{
			RedirectURL: app.config.Spotify.RedirectURL,
			Out:         cmd.OutOrStdout(),
			Log:         app.log,
			OpenBrowser: openAuthURL,
		}
		if err := login.Run(ctx, app.auth); err != nil {
			return fmt.Errorf("failed to connect spotify: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "✓ Spotify connected")
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Disconnect Spotify and forget the stored tokens",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.auth.Disconnect(cmd.Context()); err != nil {
			return fmt.Errorf("failed to disconnect: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Spotify disconnected")
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the Spotify connection state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state := app.auth.State()
		session := app.auth.Session()
		expiresIn := session.ExpiresIn(time.Now()).Round(time.Second)

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"configured":         spotifyConfigured(),
				"state":              string(state),
				"expires_in_seconds": int(expiresIn.Seconds()),
			})
		}

		out := cmd.OutOrStdout()
		if !spotifyConfigured() {
			fmt.Fprintln(out, "Spotify is not configured (set spotify.client_id and spotify.enabled).")
			return nil
		}
		fmt.Fprintf(out, "Spotify: %s\n", state)
		if app.auth.Connected() {
			fmt.Fprintf(out, "Access token expires in %s\n", expiresIn)
		}
		return nil
	},
}

func init() {
	authLoginCmd.Flags().BoolVar(&loginNoBrowser, "no-browser", false, "Only print the authorization URL")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
}
