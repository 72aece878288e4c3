package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aretw0/triage"
	"github.com/aretw0/triage/internal/cli"
	"github.com/aretw0/triage/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts an MCP server so an assistant can list questionnaires, start a triage
and submit answers as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		// Logs go to stderr, so they never corrupt JSON-RPC on stdout.
		app, err := openApp(sigCtx, cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		srv := mcp.NewServer(app.Manager, strings.TrimSpace(triage.Version), app.Logger)
		switch transport {
		case "stdio":
			app.Logger.Info("Starting MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			app.Logger.Info("Starting MCP server (SSE)", "addr", addr)
			if err := srv.ServeSSE(sigCtx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			app.Logger.Info("MCP server stopped")
			return nil
		default:
			return fmt.Errorf("unknown transport %q: supported are stdio and sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", ":8081", "Address to listen on (only for SSE)")
}
