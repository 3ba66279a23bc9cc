// Package mcp exposes the sync engine as Model Context Protocol tools.
package mcp

import (
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/stocksync/internal/engine"
)

// Config contains server configuration.
type Config struct {
	Engine  *engine.Engine
	Version string
	Logger  *slog.Logger
	// ReportDir enables weekly_report to save into this directory.
	ReportDir string
}

// NewServer creates an MCP server with the inventory tools and docs.
func NewServer(cfg Config) *sdkmcp.Server {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "stocksync",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(tenantMiddleware(cfg.Engine.Tenant))
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Engine, cfg.ReportDir)

	return server
}
