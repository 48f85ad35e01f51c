package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/cellwatch/internal/service"
)

// Config holds MCP server configuration.
type Config struct {
	Service *service.Service
	Version string
}

// Server exposes the cell controller to agents as MCP tools.
type Server struct {
	mcpServer *mcpsdk.Server
	svc       *service.Service
}

// New creates an MCP server with the cell tools registered.
func New(cfg Config) (*Server, error) {
	if cfg.Service == nil {
		return nil, fmt.Errorf("mcp: service is required")
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{svc: cfg.Service}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "cellwatch",
			Version: version,
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// registerTools adds all cell tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "cell_apply_order",
		Description: "Apply a production order (comma or newline separated KEY=VALUE directives: RUN, ESTOP_OK, QUALITY) to the cell controller. Oversized orders compromise the controller and return an error result.",
	}, s.handleApplyOrder)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "cell_state",
		Description: "Read the cell controller state: conveyor run permission, e-stop acknowledgement, quality score and compromised flag.",
	}, s.handleState)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "cell_reset",
		Description: "Reset the cell controller to its power-on state. Clears the compromised flag.",
	}, s.handleReset)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "cell_check",
		Description: "Check a production order without applying it (dry-run): length against the bound, parsed directives and syntax problems.",
	}, s.handleCheck)
}
