// Package mcp serves read-only triage tools over MCP stdio: querying
// findings, import runs, and the classified artifact view of a package.
package mcp

import (
	"database/sql"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/triagekit/triagekit/internal/toolshed"
)

var findingListToolDef = mcp.NewTool("finding_list",
	mcp.WithDescription("List imported findings, most recently updated first."),
	mcp.WithString("package", mcp.Description("Filter by package coordinate (type/[namespace/]name/version)")),
	mcp.WithString("tool", mcp.Description("Filter by tool name")),
	mcp.WithNumber("limit", mcp.Description("Maximum items to return")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
)

var findingGetToolDef = mcp.NewTool("finding_get",
	mcp.WithDescription("Fetch a single finding by its ID."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Finding ID")),
)

var artifactListToolDef = mcp.NewTool("artifact_list",
	mcp.WithDescription("List a package's Toolshed artifacts classified by role (tools/, package/, intermediate)."),
	mcp.WithString("package", mcp.Required(), mcp.Description("Package coordinate (type/[namespace/]name/version)")),
)

var runListToolDef = mcp.NewTool("run_list",
	mcp.WithDescription("List recent import batch summaries, newest first."),
	mcp.WithNumber("limit", mcp.Description("Maximum items to return")),
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"finding_list": {
		def:     findingListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFindingList },
	},
	"finding_get": {
		def:     findingGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFindingGet },
	},
	"artifact_list": {
		def:     artifactListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleArtifactList },
	},
	"run_list": {
		def:     runListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRunList },
	},
}

// AllToolNames returns the names of every registered tool.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// NewServer creates a new MCP server with triagekit tools registered.
func NewServer(database *sql.DB, catalog *toolshed.Catalog, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"triagekit",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(database, catalog)
	for _, entry := range toolRegistry {
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(database *sql.DB, catalog *toolshed.Catalog, version string) error {
	s := NewServer(database, catalog, version)
	return server.ServeStdio(s)
}
