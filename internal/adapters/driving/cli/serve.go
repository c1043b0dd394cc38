package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/synapse-labs/synapse/internal/adapters/driving/mcp"
	"github.com/synapse-labs/synapse/internal/adapters/driving/rest"
	"github.com/synapse-labs/synapse/internal/logger"
)

var (
	serveAddr   string
	serveNoWarm bool
	serveNoMCP  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API.

Endpoints:
  POST   /v1/intelligence      gather intelligence for a business
  GET    /v1/sources           list configured sources
  GET    /v1/sources/:id       show one source
  DELETE /v1/cache[/:source]   purge, or invalidate one ?business=
  GET    /v1/warm              list tracked businesses
  POST   /v1/warm              track a business
  GET    /metrics              Prometheus metrics
  GET    /healthz              liveness
  *      /mcp                  MCP streamable HTTP transport

The cache warmer runs alongside the server when enabled in settings.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (default from settings)")
	serveCmd.Flags().BoolVar(&serveNoWarm, "no-warm", false, "do not start the cache warmer")
	serveCmd.Flags().BoolVar(&serveNoMCP, "no-mcp", false, "do not mount the MCP endpoint")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if gatherer == nil {
		return notConfigured("intelligence service")
	}

	ports := &rest.Ports{
		Gatherer:  gatherer,
		Catalogue: catalogue,
		Cache:     cacheAdmin,
		Warmer:    warmer,
		Metrics:   metrics,
	}

	if !serveNoMCP {
		mcpServer, err := mcp.NewServer(&mcp.Ports{Gatherer: gatherer, Catalogue: catalogue, Cache: cacheAdmin})
		if err != nil {
			return err
		}
		ports.MCP = mcpServer.Handler()
	}

	server, err := rest.NewServer(ports)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if warmer != nil && warmerEnabled && !serveNoWarm {
		go func() {
			if err := warmer.Start(ctx); err != nil && ctx.Err() == nil {
				logger.Error("warmer stopped: %v", err)
			}
		}()
		defer warmer.Stop() //nolint:errcheck // best effort on shutdown
	}

	addr := serveAddr
	if addr == "" {
		addr = serverAddr
	}
	cmd.Printf("Synapse listening on %s\n", addr)
	if err := server.Run(ctx, addr); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
