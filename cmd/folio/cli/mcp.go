package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	fmcp "github.com/foliodev/folio/internal/mcp"
	"github.com/foliodev/folio/internal/store"
)

func newMCPCmd() *cobra.Command {
	var (
		transport string
		port      int
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server for AI agents",
		Long: `Start a Model Context Protocol (MCP) server that exposes read-only
portfolio content (profile, projects, skills, contact) as tools and resources.

In stdio mode, the MCP server communicates over stdin/stdout using JSON-RPC,
suitable for direct integration with desktop MCP clients.

In HTTP mode, the server listens on the specified port without authentication.
Use the /api/admin/mcp endpoint of 'folio serve' for session-protected access.`,
		Example: `  folio mcp                              # stdio mode
  folio mcp --transport http --port 3001 # Streamable HTTP mode`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(transport, port)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport mode: stdio or http")
	cmd.Flags().IntVar(&port, "port", 3001, "HTTP port (only used with --transport http)")

	return cmd
}

func runMCP(transport string, port int) error {
	// The MCP server never issues tokens, so no JWT secret is required.
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	// stdout carries the protocol; logs go to stderr.
	logger := newLogger(os.Stderr, cfg, false)

	ctx := context.Background()
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	mcpSrv := fmcp.NewMCPServer(st, versionString(), logger)

	switch transport {
	case "stdio":
		return mcpSrv.ServeStdio()
	case "http":
		return mcpSrv.ServeHTTP(fmt.Sprintf(":%d", port))
	default:
		return fmt.Errorf("unknown transport %q (use stdio or http)", transport)
	}
}
