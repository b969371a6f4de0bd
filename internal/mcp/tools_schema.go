package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"datafill/internal/etl"
	"datafill/internal/service"
)

func (s *Server) registerSchemaTools() {
	s.mcp.AddTool(mcp.NewTool("get_schema",
		mcp.WithDescription("Get the field schema: one entry per record key with its suffix and mark"),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleGetSchema)

	s.mcp.AddTool(mcp.NewTool("update_field",
		mcp.WithDescription(`Change how one field is rendered. "suffix" is appended after a space; "mark" masks the value (use list_masks). Omitted arguments are left unchanged.`),
		mcp.WithString("key", mcp.Description("Field key"), mcp.Required()),
		mcp.WithString("suffix", mcp.Description("Text appended to the value")),
		mcp.WithString("mark", mcp.Description("Mask kind, e.g. HIDE_PHONE_MARK or UNSET")),
	), s.handleUpdateField)

	s.mcp.AddTool(mcp.NewTool("list_masks",
		mcp.WithDescription("List the mask kinds a field can use"),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleListMasks)
}

func (s *Server) handleGetSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	schema := s.sess.Schema()
	if schema == nil {
		return textResult("No schema yet. Import records first (import_records)."), nil
	}
	return jsonResult(schema)
}

func (s *Server) handleUpdateField(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return nil, err
	}
	args := req.GetArguments()

	var upd service.FieldUpdate
	if v, ok := args["suffix"].(string); ok {
		upd.Suffix = &v
	}
	if v, ok := args["mark"].(string); ok {
		mark := etl.MarkKind(v)
		upd.Mark = &mark
	}
	if upd.Suffix == nil && upd.Mark == nil {
		return nil, fmt.Errorf("suffix or mark is required")
	}

	schema, err := s.fill.UpdateField(ctx, s.sess, key, upd)
	if err != nil {
		return nil, err
	}
	return jsonResult(schema)
}

func (s *Server) handleListMasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.fill.ListMasks())
}
