package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"datafill/internal/binding"
	"datafill/internal/document"
	"datafill/internal/etl"
	"datafill/internal/service"
)

func (c *CLI) newFillCommand() *cobra.Command {
	var (
		dataPath   string
		sourceType string
		sourceCfg  string
		selection  []string
		mode       string
		output     string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "fill <document>",
		Short: "Import records and write them into a document's text nodes",
		Args:  cobra.ExactArgs(1),
		Example: `  # Fill every top-level node of the first page from a JSON file
  datafill fill badges.json --data people.json

  # Read records from stdin, fill only the "Card" frames, keep the original
  cat people.json | datafill fill badges.json --data - --select Card -o out.json

  # Every repeated placeholder gets the first record
  datafill fill badges.json --data people.json --mode direct

  # Pull records from a configured database connection
  datafill fill roster.json --source database \
    --source-config '{"connection":"crm","query":"SELECT name, phone FROM people"}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			docPath := args[0]

			var m binding.Mode
			if mode != "" {
				parsed, err := binding.LookupMode(mode)
				if err != nil {
					return err
				}
				m = parsed
			}

			a, err := c.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			sess, err := a.Fill.NewSession(ctx)
			if err != nil {
				return err
			}

			var out *service.ImportOutcome
			switch {
			case sourceType != "":
				var cfg etl.SourceConfig
				if sourceCfg != "" {
					if err := json.Unmarshal([]byte(sourceCfg), &cfg); err != nil {
						return fmt.Errorf("parse --source-config: %w", err)
					}
				}
				out, err = a.Fill.ImportSource(ctx, sess, sourceType, cfg)
			case dataPath != "":
				payload, rerr := readData(cmd, dataPath)
				if rerr != nil {
					return rerr
				}
				out, err = a.Fill.Import(ctx, sess, payload)
			default:
				return fmt.Errorf("--data or --source is required")
			}
			if err != nil {
				return err
			}

			doc, err := document.Load(docPath)
			if err != nil {
				return err
			}
			roots, err := doc.Select(selection)
			if err != nil {
				return err
			}
			a.Fill.WarmUp(ctx, doc.TextElements())

			if mode == "" {
				m = a.DefaultMode()
			}
			result, commitErr := a.Fill.Commit(ctx, sess, service.CommitRequest{Document: docPath, Roots: roots, Mode: m})
			if result != nil {
				printResult(cmd.OutOrStdout(), out.Records, result)
				if result.Bound > 0 && !dryRun {
					if output == "" {
						output = docPath
					}
					if err := doc.Save(output); err != nil {
						return err
					}
				}
			}
			return commitErr
		},
	}

	cmd.Flags().StringVarP(&dataPath, "data", "d", "", `JSON records file ("-" for stdin)`)
	cmd.Flags().StringVar(&sourceType, "source", "", "Import source type (see: datafill sources)")
	cmd.Flags().StringVar(&sourceCfg, "source-config", "", "Source configuration as JSON")
	cmd.Flags().StringSliceVar(&selection, "select", nil, "Node ids or names to fill (default: top-level nodes of the first page)")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "iterate or direct (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the filled document here instead of in place")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be written without saving")
	return cmd
}

func readData(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func printResult(w io.Writer, records int, res *binding.Result) {
	fmt.Fprintf(w, "%s record(s), %s element(s) filled, %s failed\n",
		humanize.Comma(int64(records)), humanize.Comma(int64(res.Bound)), humanize.Comma(int64(res.Failed)))

	keys := make([]string, 0, len(res.PerKey))
	for k := range res.PerKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-20s %d\n", k, res.PerKey[k])
	}
	for _, f := range res.Failures {
		fmt.Fprintf(w, "  ! %s (%s): %s\n", f.ElementID, f.Key, f.Reason)
	}
}
