package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	schemaURI  = "datafill://schema"
	recordsURI = "datafill://records"
)

func (s *Server) registerResources() {
	s.mcp.AddResource(mcp.NewResource(
		schemaURI,
		"Field Schema",
		mcp.WithResourceDescription("Current field schema with suffix and mark per key"),
		mcp.WithMIMEType("application/json"),
	), s.handleSchemaResource)

	s.mcp.AddResource(mcp.NewResource(
		recordsURI,
		"Active Dataset",
		mcp.WithResourceDescription("Records of the active tab, as imported"),
		mcp.WithMIMEType("application/json"),
	), s.handleRecordsResource)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleSchemaResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(schemaURI, s.sess.Schema())
}

func (s *Server) handleRecordsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(recordsURI, s.sess.Records())
}
