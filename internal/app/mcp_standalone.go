package app

import (
	"context"
	"fmt"

	mcpserver "datafill/internal/mcp"
)

// ServeMCP runs an MCP server on stdin/stdout until ctx is done or the
// client disconnects. Logs must not go to stdout in this mode.
func (a *App) ServeMCP(ctx context.Context, version string) error {
	srv, err := mcpserver.New(ctx, mcpserver.Deps{
		Fill:    a.Fill,
		Mode:    a.DefaultMode(),
		Version: version,
		Log:     a.log,
	})
	if err != nil {
		return fmt.Errorf("start mcp: %w", err)
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ServeStdio() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return nil
	}
}
