package cli

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newMCPCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the MCP tools on stdin/stdout",
		Long: `Runs an MCP server over stdio so AI agents can import records, edit the
field schema and fill documents. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.openApp()
			if err != nil {
				return err
			}
			defer a.Close()
			defer a.Shutdown(cmd.Context())
			return a.ServeMCP(cmd.Context(), c.version)
		},
	}
}
