package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/bookwise/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

Use --port to start an HTTP server instead. The MCP endpoint is served at
/mcp and a liveness probe at /healthz.

Examples:
  # Stdio mode (default, for Claude Desktop)
  bookwise mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  bookwise mcp serve --port 8576

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "bookwise": {
        "command": "/path/to/bookwise",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	Annotations: needsLibrary,
	RunE:        runMCPServe,
}

// serveCmd is the top-level shortcut for 'mcp serve'.
var serveCmd = &cobra.Command{
	Use:         "serve",
	Short:       "Start the MCP server (same as 'mcp serve')",
	Annotations: needsLibrary,
	RunE:        runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	serveCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd, serveCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	ports := &mcp.Ports{
		Library: libraryService,
		Search:  searchService,
		Advice:  adviceService,
		Explore: exploreService,
		Summary: summaryService,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		// stderr keeps stdout free for clients that pipe it.
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s/mcp\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
