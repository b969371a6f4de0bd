package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("fill_document",
		mcp.WithPromptDescription("Walk through importing records and filling a document's text placeholders"),
		mcp.WithArgument("document",
			mcp.ArgumentDescription("Path of the document JSON file"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("data",
			mcp.ArgumentDescription("Path of a JSON data file, or a short description of where the records come from"),
			mcp.RequiredArgument(),
		),
	), s.handleFillDocumentPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("fill_from_database",
		mcp.WithPromptDescription("Fill a document from a database query through a configured connection"),
		mcp.WithArgument("connection",
			mcp.ArgumentDescription("Connection name from the config file"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("document",
			mcp.ArgumentDescription("Path of the document JSON file"),
			mcp.RequiredArgument(),
		),
	), s.handleFillFromDatabasePrompt)
}

func (s *Server) handleFillDocumentPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	doc := req.Params.Arguments["document"]
	data := req.Params.Arguments["data"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Fill %s", doc),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Fill the document "%s" with records from: %s. Follow these steps:

1. Import the records with import_records. For a local JSON file use sourceType "json_file" with {"filePath": "..."}; for CSV use "csv_file"
2. Read any warnings in the result. NON_ARRAY and EMPTY_OBJECT are informational; the import still succeeded
3. Call get_schema and check the field keys match the text node names in the document
4. Use update_field for suffixes and masks (list_masks shows the choices, e.g. HIDE_PHONE_MARK for phone numbers)
5. Run commit with mode "iterate" so repeated placeholders receive successive records. Use "output" to keep the original file

Report the bound/failed counts and any failures from the commit result.`, doc, data),
				},
			},
		},
	}, nil
}

func (s *Server) handleFillFromDatabasePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	conn := req.Params.Arguments["connection"]
	doc := req.Params.Arguments["document"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Fill %s from %s", doc, conn),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Fill the document "%s" from the database connection "%s". Follow these steps:

1. Write a read-only query whose column names match the text node names in the document (use aliases). For MongoDB write {"collection": "...", "filter": {...}}
2. Import with import_records, sourceType "database" and sourceConfigJSON {"connection": "%s", "query": "...", "limit": 100}
3. Check get_schema, adjust fields with update_field if needed
4. Run commit and report the result`, doc, conn, conn),
				},
			},
		},
	}, nil
}
