package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/dooosp/ghostcode-auditor/internal/mcpserver"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run as an MCP server over stdio",
		Description: `Exposes scan_repository, audit_hotspots, and find_duplicate_logic
as MCP tools, so agents can audit a codebase without invoking the CLI.`,
		Action: runMCP,
	}
}

func runMCP(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return mcpserver.NewServer(version).Run(ctx)
}
