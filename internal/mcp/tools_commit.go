package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"datafill/internal/binding"
	"datafill/internal/document"
	"datafill/internal/service"
)

func (s *Server) registerCommitTools() {
	s.mcp.AddTool(mcp.NewTool("commit",
		mcp.WithDescription(`🛑 DESTRUCTIVE: Fill a document with the active dataset. Text nodes named like a field key receive that field's value. In "iterate" mode repeated occurrences of a key take successive records, wrapping around; in "direct" mode all take the first record. The document file is rewritten (or written to "output").`),
		mcp.WithString("document", mcp.Description("Path of the document JSON file"), mcp.Required()),
		mcp.WithArray("selection", mcp.Description("Node ids or names to fill (default: every top-level node of the first page)"), mcp.WithStringItems()),
		mcp.WithString("mode", mcp.Description("iterate (default) or direct"), mcp.Enum("iterate", "direct")),
		mcp.WithString("output", mcp.Description("Write the filled document here instead of overwriting it")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleCommit)

	s.mcp.AddTool(mcp.NewTool("list_commits",
		mcp.WithDescription("List recent commits, newest first"),
		mcp.WithNumber("limit", mcp.Description("Max entries (default 20)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleListCommits)
}

// commitSummary is what the commit tool reports back.
type commitSummary struct {
	Document string            `json:"document"`
	Output   string            `json:"output"`
	Mode     string            `json:"mode"`
	Bound    int               `json:"bound"`
	Failed   int               `json:"failed"`
	PerKey   map[string]int    `json:"perKey"`
	Failures []binding.Failure `json:"failures,omitempty"`
	Error    string            `json:"error,omitempty"`
}

func (s *Server) handleCommit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("document")
	if err != nil {
		return nil, err
	}
	output := req.GetString("output", path)
	mode := s.mode
	if m := req.GetString("mode", ""); m != "" {
		if mode, err = binding.LookupMode(m); err != nil {
			return nil, err
		}
	}

	doc, err := document.Load(path)
	if err != nil {
		return nil, err
	}
	roots, err := doc.Select(req.GetStringSlice("selection", nil))
	if err != nil {
		return nil, err
	}
	s.fill.WarmUp(ctx, doc.TextElements())

	result, commitErr := s.fill.Commit(ctx, s.sess, service.CommitRequest{Document: path, Roots: roots, Mode: mode})
	if errors.Is(commitErr, service.ErrCommitRunning) {
		return nil, commitErr
	}

	summary := commitSummary{Document: path, Output: output, Mode: mode.String()}
	if result != nil {
		summary.Bound = result.Bound
		summary.Failed = result.Failed
		summary.PerKey = result.PerKey
		summary.Failures = result.Failures
		if result.Bound > 0 {
			if err := doc.Save(output); err != nil {
				return nil, fmt.Errorf("save document: %w", err)
			}
		}
	}
	if commitErr != nil {
		summary.Error = commitErr.Error()
		res, err := jsonResult(summary)
		if err != nil {
			return nil, err
		}
		res.IsError = true
		return res, nil
	}
	return jsonResult(summary)
}

func (s *Server) handleListCommits(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runs, err := s.fill.ListCommits(req.GetInt("limit", 20))
	if err != nil {
		return nil, err
	}
	return jsonResult(runs)
}
