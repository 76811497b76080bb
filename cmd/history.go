// File: cmd/history.go
package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/dorkbuilder/internal/service"
)

func newHistoryCmd(factory service.ComponentFactory) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent searches, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withComponents(cmd, factory, func(c *service.Components) error {
				records, err := c.Session.History(cmd.Context(), limit)
				if err != nil {
					return fmt.Errorf("failed to read history: %w", err)
				}
				out := cmd.OutOrStdout()
				if asJSON {
					return writeJSON(out, records)
				}
				if len(records) == 0 {
					_, err := fmt.Fprintln(out, "No searches recorded.")
					return err
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "WHEN\tENGINE\tBLOCKS\tQUERY\t")
				for _, r := range records {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t\n", r.CreatedAt.Local().Format(time.DateTime), r.Engine, r.BlockCount, r.Query)
				}
				return tw.Flush()
			})
		},
	}

	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum records to show (0 for all)")
	historyCmd.Flags().BoolVar(&asJSON, "json", false, "print records as JSON, including URLs")
	return historyCmd
}
