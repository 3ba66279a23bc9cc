package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/rpggio/stocksync/internal/mcp"
)

func newMCPCommand(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the engine as MCP tools",
		Long: `Serve the inventory tools over the Model Context Protocol.

By default the server speaks stdio; logs go to stderr so stdout stays
clean for JSON-RPC. With --http (or transport.mode: http) it serves the
streamable HTTP transport at /mcp.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			server := mcp.NewServer(app.newMCPServerConfig())
			if cmd.Flags().Changed("http") || app.cfg.Transport.Mode == "http" {
				return runHTTPMode(cmd.Context(), app, server, addr)
			}
			app.logger.Info("starting stdio transport", "tenant_id", app.engine().Tenant().TenantID)
			return server.Run(cmd.Context(), &sdkmcp.StdioTransport{})
		},
	}
	cmd.Flags().StringVar(&addr, "http", "127.0.0.1:8090", "serve streamable HTTP on this address")
	return cmd
}

func runHTTPMode(ctx context.Context, app *App, server *sdkmcp.Server, addr string) error {
	handler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return server },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: 30 * time.Minute},
	)

	mux := http.NewServeMux()
	mux.Handle("/mcp", handler)
	mux.Handle("/mcp/", handler)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	httpServer := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		app.logger.Info("mcp listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	app.logger.Info("shutting down")
	return httpServer.Shutdown(shutdownCtx)
}
