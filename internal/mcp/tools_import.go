package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"datafill/internal/etl"
)

func (s *Server) registerImportTools() {
	s.mcp.AddTool(mcp.NewTool("import_records",
		mcp.WithDescription(`Import a collection of records into the session. Give either "payload" (a JSON array of flat objects; a single object is accepted and wrapped) or "sourceType" + "sourceConfigJSON" (see list_sources). Re-importing records with the same ordered keys keeps the current field settings; any other key sequence resets them.`),
		mcp.WithString("payload", mcp.Description("JSON array of records")),
		mcp.WithString("sourceType", mcp.Description("Import source type (use list_sources)")),
		mcp.WithString("sourceConfigJSON", mcp.Description("Source configuration as JSON")),
		mcp.WithNumber("tab", mcp.Description("Dataset tab to import into and make active (default: current tab)")),
	), s.handleImportRecords)

	s.mcp.AddTool(mcp.NewTool("list_sources",
		mcp.WithDescription("List available import sources with their configuration fields"),
	), s.handleListSources)
}

func (s *Server) handleImportRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	tab := req.GetInt("tab", s.sess.ActiveTab())

	payload := req.GetString("payload", "")
	sourceType := req.GetString("sourceType", "")

	switch {
	case payload != "":
		out, err := s.fill.ImportInto(ctx, s.sess, tab, []byte(payload))
		if err != nil {
			return nil, err
		}
		return jsonResult(out)

	case sourceType != "":
		var cfg etl.SourceConfig
		// sourceConfigJSON may come as a string or as a raw JSON object
		switch v := args["sourceConfigJSON"].(type) {
		case string:
			if err := json.Unmarshal([]byte(v), &cfg); err != nil {
				return nil, fmt.Errorf("parse sourceConfig: %w", err)
			}
		case map[string]any:
			cfg = v
		}
		out, err := s.fill.ImportSourceInto(ctx, s.sess, tab, sourceType, cfg)
		if err != nil {
			return nil, err
		}
		return jsonResult(out)

	default:
		return nil, fmt.Errorf("payload or sourceType is required")
	}
}

func (s *Server) handleListSources(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.fill.ListSources())
}
