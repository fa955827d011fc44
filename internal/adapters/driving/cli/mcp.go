package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/groundwork/internal/adapters/driving/mcp"
	"github.com/custodia-labs/groundwork/internal/core/services"
)

// portSearchRange is how many ports above --port are tried when it is taken.
const portSearchRange = 10

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can ask
grounded questions against the library.

Tools:
  ask         answer a question from the library with page-cited sources
  list_items  list ingested items and their IDs

By default the server speaks JSON-RPC over stdio. Use --port to serve the
streamable HTTP transport instead; if the port is taken the next free one
is used.

Examples:
  groundwork mcp serve
  groundwork mcp serve --port 8080

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "groundwork": {
        "command": "/path/to/groundwork",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	if err := requireProviders(true); err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Ask:     askService,
		Library: libraryService,
	})
	if err != nil {
		return err
	}

	if port > 0 {
		addr, err := services.ListenAddress("127.0.0.1", port, port+portSearchRange)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
