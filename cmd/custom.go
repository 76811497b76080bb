// File: cmd/custom.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/dorkbuilder/internal/catalog"
	"github.com/xkilldash9x/dorkbuilder/internal/service"
)

func newCustomCmd(factory service.ComponentFactory) *cobra.Command {
	customCmd := &cobra.Command{
		Use:   "custom",
		Short: "Manage custom block templates",
		Args:  cobra.NoArgs,
	}
	customCmd.AddCommand(newCustomAddCmd(factory), newCustomListCmd(factory))
	return customCmd
}

func newCustomAddCmd(factory service.ComponentFactory) *cobra.Command {
	var (
		operator, placeholder, description string
		allowBare                          bool
	)

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Register a custom operator as a reusable block",
		Example: `  dorkbuilder custom add --operator before: --placeholder 2020-01-01 --description "Published before date"
  dorkbuilder custom add --operator "-" --placeholder term --description "Exclude term" --allow-bare`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withComponents(cmd, factory, func(c *service.Components) error {
				var opts []catalog.RegisterOption
				if allowBare {
					opts = append(opts, catalog.AllowBareOperator())
				}
				tpl, err := c.Session.RegisterCustom(cmd.Context(), operator, placeholder, description, opts...)
				if err != nil && tpl.ID == "" {
					return err
				}
				if _, perr := fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%s)\n", tpl.ID, tpl.Operator); perr != nil {
					return perr
				}
				return err
			})
		},
	}

	addCmd.Flags().StringVarP(&operator, "operator", "o", "", "operator, ending with ':' (required)")
	addCmd.Flags().StringVarP(&placeholder, "placeholder", "p", "", "example value shown when editing (required)")
	addCmd.Flags().StringVarP(&description, "description", "d", "", "what the operator does (required)")
	addCmd.Flags().BoolVar(&allowBare, "allow-bare", false, "accept an operator that does not end with ':'")
	return addCmd
}

func newCustomListCmd(factory service.ComponentFactory) *cobra.Command {
	var asJSON bool

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List custom templates in registration order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withComponents(cmd, factory, func(c *service.Components) error {
				templates := c.Session.CustomTemplates()
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), templates)
				}
				return writeTemplateTable(cmd.OutOrStdout(), templates)
			})
		},
	}

	listCmd.Flags().BoolVar(&asJSON, "json", false, "print templates as JSON")
	return listCmd
}
