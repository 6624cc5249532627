// Package mcpserver exposes the analysis pipeline as MCP tools over
// stdio, so agents can request scans without shelling out to the CLI.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server and registers the audit tools.
type Server struct {
	server *mcp.Server
}

// NewServer creates a new MCP server with all tools registered.
func NewServer(version string) *Server {
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "ghostcode",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server}
	s.registerTools()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "scan_repository",
		Description: describeScanRepository(),
	}, handleScanRepository)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "audit_hotspots",
		Description: describeAuditHotspots(),
	}, handleAuditHotspots)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "find_duplicate_logic",
		Description: describeFindDuplicateLogic(),
	}, handleFindDuplicateLogic)
}
