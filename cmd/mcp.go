package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xvierd/pulse-cli/internal/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol (MCP) server for integration with AI assistants.
The server hosts its own timer and exposes tools to control it, manage tasks
and skip Spotify tracks. It communicates over stdio.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := setupSignalHandler(cmd.Context())
		defer cancel()

		app.startSession(ctx)
		defer app.stopSession()

		app.log.Info("mcp server starting on stdio")
		server := mcp.NewServer(app.state, Version)
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}
		return nil
	},
}
