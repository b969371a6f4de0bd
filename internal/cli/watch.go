package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
)

func (c *CLI) newWatchCommand() *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the jobs from the config file on their schedules and data file changes",
		Args:  cobra.NoArgs,
		Example: `  # Run until interrupted
  datafill watch -c datafill.yaml

  # Run every job once and exit
  datafill watch --once`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			jobs := a.Config.WatchJobs()
			if len(jobs) == 0 {
				return fmt.Errorf("no jobs configured")
			}

			if once {
				var failed int
				for _, job := range jobs {
					res, err := a.Watch.RunJob(ctx, job)
					if err != nil {
						slog.Error("job failed", "job", job.Name, "err", err)
						failed++
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %d filled, %d failed\n", job.Name, res.Bound, res.Failed)
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d job(s) failed", failed, len(jobs))
				}
				return nil
			}

			if err := a.Watch.Start(ctx, jobs); err != nil {
				return err
			}
			slog.Info("watching", "jobs", len(jobs))
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			a.Shutdown(shutdownCtx)
			return nil
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "Run every job once and exit")
	return cmd
}
