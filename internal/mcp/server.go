package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"datafill/internal/binding"
	"datafill/internal/service"
)

// Server is the MCP server for datafill.
// It exposes tools, resources, and prompts so AI agents can import records,
// tune the field schema and fill documents.
type Server struct {
	mcp  *server.MCPServer
	fill *service.FillService
	sess *service.Session
	mode binding.Mode
	log  *slog.Logger
}

// Deps holds all dependencies passed from the app layer to the MCP server.
type Deps struct {
	Fill *service.FillService
	// Mode is used by commit when the caller gives none.
	Mode    binding.Mode
	Version string
	Log     *slog.Logger
}

// New creates and configures a new MCP server with all tools and resources.
// The server keeps one session for its lifetime.
func New(ctx context.Context, deps Deps) (*Server, error) {
	sess, err := deps.Fill.NewSession(ctx)
	if err != nil {
		return nil, err
	}
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{
		fill: deps.Fill,
		sess: sess,
		mode: deps.Mode,
		log:  log.With("component", "mcp"),
	}

	s.mcp = server.NewMCPServer(
		"datafill-mcp",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerImportTools()
	s.registerSchemaTools()
	s.registerCommitTools()
	s.registerResources()
	s.registerPrompts()

	return s, nil
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.log.Info("starting stdio server")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func boolPtr(v bool) *bool { return &v }
