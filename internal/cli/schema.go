package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"datafill/internal/etl"
	"datafill/internal/service"
)

func (c *CLI) newSchemaCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Show the saved field schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			sess, err := a.Fill.NewSession(cmd.Context())
			if err != nil {
				return err
			}
			schema := sess.Schema()
			if schema == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no schema saved yet; run fill first")
				return nil
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(schema)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tSUFFIX\tMARK")
			for _, f := range schema.Fields {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Key, f.Suffix, f.Mark)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func (c *CLI) newSetFieldCommand() *cobra.Command {
	var (
		suffix string
		mark   string
	)
	cmd := &cobra.Command{
		Use:   "set-field <key>",
		Short: "Change the suffix or mark of a saved field",
		Args:  cobra.ExactArgs(1),
		Example: `  datafill set-field phone --mark HIDE_PHONE_MARK
  datafill set-field name --suffix "(guest)"
  datafill set-field name --suffix ""`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var upd service.FieldUpdate
			if cmd.Flags().Changed("suffix") {
				upd.Suffix = &suffix
			}
			if cmd.Flags().Changed("mark") {
				m := etl.MarkKind(mark)
				upd.Mark = &m
			}
			if upd.Suffix == nil && upd.Mark == nil {
				return fmt.Errorf("--suffix or --mark is required")
			}

			a, err := c.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			sess, err := a.Fill.NewSession(ctx)
			if err != nil {
				return err
			}
			if _, err := a.Fill.UpdateField(ctx, sess, args[0], upd); err != nil {
				return err
			}
			return a.Fill.SaveSchema(ctx, sess)
		},
	}
	cmd.Flags().StringVar(&suffix, "suffix", "", "Text appended after the value")
	cmd.Flags().StringVar(&mark, "mark", "", "Mask kind (see: datafill masks)")
	return cmd
}

func (c *CLI) newMasksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "masks",
		Short: "List mask kinds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, m := range etl.ListMasks() {
				fmt.Fprintln(cmd.OutOrStdout(), m)
			}
			return nil
		},
	}
}

func (c *CLI) newSourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List import sources and their settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, spec := range etl.ListSources() {
				fmt.Fprintf(w, "%s  %s\n", spec.Type, spec.Label)
				for _, f := range spec.ConfigFields {
					req := ""
					if f.Required {
						req = " (required)"
					}
					fmt.Fprintf(w, "    %-12s %s%s\n", f.Key, f.Label, req)
				}
			}
			return nil
		},
	}
}
