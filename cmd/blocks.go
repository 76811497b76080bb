// File: cmd/blocks.go
package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/dorkbuilder/api/schemas"
	"github.com/xkilldash9x/dorkbuilder/internal/search"
	"github.com/xkilldash9x/dorkbuilder/internal/service"
)

func newBlocksCmd(factory service.ComponentFactory) *cobra.Command {
	var asJSON, customOnly bool

	blocksCmd := &cobra.Command{
		Use:     "blocks",
		Aliases: []string{"templates"},
		Short:   "List the block templates available to build",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withComponents(cmd, factory, func(c *service.Components) error {
				templates := c.Session.Templates()
				if customOnly {
					templates = c.Session.CustomTemplates()
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), templates)
				}
				return writeTemplateTable(cmd.OutOrStdout(), templates)
			})
		},
	}

	blocksCmd.Flags().BoolVar(&asJSON, "json", false, "print templates as JSON")
	blocksCmd.Flags().BoolVar(&customOnly, "custom", false, "list custom templates only")
	return blocksCmd
}

func newEnginesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List the supported search engines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			defaultEngine, err := search.ParseEngine(cfg.Search().DefaultEngine)
			if err != nil {
				return fmt.Errorf("invalid search.default_engine: %w", err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ENGINE\tSEARCH URL\tPARAM\t")
			for _, ep := range search.Engines() {
				name := string(ep.Engine)
				if ep.Engine == defaultEngine {
					name += " (default)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t\n", name, ep.Base, ep.Param)
			}
			return tw.Flush()
		},
	}
}

func writeTemplateTable(out io.Writer, templates []schemas.BlockTemplate) error {
	if len(templates) == 0 {
		_, err := fmt.Fprintln(out, "No templates.")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tOPERATOR\tPLACEHOLDER\tDESCRIPTION\t")
	for _, t := range templates {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", t.ID, t.Operator, t.Placeholder, t.Description)
	}
	return tw.Flush()
}

func writeJSON(out io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
