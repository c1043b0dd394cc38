package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/synapse-labs/synapse/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can gather
business intelligence.

By default, the server communicates over stdio using JSON-RPC.
Use --port to start an HTTP server instead.

Tools:
  gather_intelligence  query every source for a business
  invalidate_cache     drop cached payloads for a business

Resources:
  synapse://sources          configured sources
  synapse://sources/{id}     one source

Examples:
  # Stdio mode (for desktop assistants)
  synapse mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  synapse mcp serve --port 8081`,
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
	if gatherer == nil {
		return notConfigured("intelligence service")
	}

	ports := &mcp.Ports{
		Gatherer:  gatherer,
		Catalogue: catalogue,
		Cache:     cacheAdmin,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
