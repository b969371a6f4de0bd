package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func (c *CLI) newHistoryCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent commits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			runs, err := a.Fill.ListCommits(limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no commits yet")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "WHEN\tDOCUMENT\tMODE\tRECORDS\tFILLED\tFAILED\tSTATUS")
			for _, r := range runs {
				status := string(r.Status)
				if r.Error != "" {
					status += ": " + r.Error
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
					humanize.Time(r.StartedAt), r.Document, r.Mode,
					humanize.Comma(int64(r.Records)), humanize.Comma(int64(r.Bound)), r.Failed, status)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries")
	return cmd
}
