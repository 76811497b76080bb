// File: cmd/ghdb.go
package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/dorkbuilder/api/schemas"
	"github.com/xkilldash9x/dorkbuilder/internal/service"
)

func newGHDBCmd(factory service.ComponentFactory) *cobra.Command {
	ghdbCmd := &cobra.Command{
		Use:   "ghdb",
		Short: "Browse and import Google Hacking Database dorks",
		Args:  cobra.NoArgs,
	}
	ghdbCmd.AddCommand(newGHDBSearchCmd(factory), newGHDBImportCmd(factory))
	return ghdbCmd
}

func newGHDBSearchCmd(factory service.ComponentFactory) *cobra.Command {
	var (
		start, length, pages int
		asJSON               bool
	)

	searchCmd := &cobra.Command{
		Use:   "search [term]",
		Short: "Search the GHDB",
		Example: `  dorkbuilder ghdb search "index of"
  dorkbuilder ghdb search --pages 3 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			term := strings.Join(args, " ")
			return withComponents(cmd, factory, func(c *service.Components) error {
				var (
					page *schemas.GHDBPage
					err  error
				)
				if pages > 1 {
					page, err = c.GHDB.FetchPages(cmd.Context(), term, pages)
				} else {
					page, err = c.GHDB.Fetch(cmd.Context(), term, start, length)
				}
				if err != nil {
					return fmt.Errorf("ghdb search failed: %w", err)
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), page)
				}
				return writeGHDBTable(cmd.OutOrStdout(), page)
			})
		},
	}

	searchCmd.Flags().IntVar(&start, "start", 0, "offset of the first entry")
	searchCmd.Flags().IntVar(&length, "length", 0, "entries per page (default ghdb.page_size)")
	searchCmd.Flags().IntVar(&pages, "pages", 1, "number of pages to fetch concurrently from the start")
	searchCmd.Flags().BoolVar(&asJSON, "json", false, "print the page as JSON")
	searchCmd.MarkFlagsMutuallyExclusive("start", "pages")
	return searchCmd
}

func newGHDBImportCmd(factory service.ComponentFactory) *cobra.Command {
	var (
		engine string
		pages  int
	)

	importCmd := &cobra.Command{
		Use:   "import <id|term>",
		Short: "Build a query from a GHDB entry",
		Long: `Looks the argument up in the GHDB and imports the matching entry as a raw
block. An entry whose id equals the argument wins, otherwise the first result is used.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			term := strings.Join(args, " ")
			return withComponents(cmd, factory, func(c *service.Components) error {
				page, err := c.GHDB.FetchPages(cmd.Context(), term, pages)
				if err != nil {
					return fmt.Errorf("ghdb lookup failed: %w", err)
				}
				entry, ok := pickEntry(page.Entries, term)
				if !ok {
					return fmt.Errorf("no GHDB entry matches %q", term)
				}

				c.Session.ImportEntry(entry)
				u, err := c.Session.SearchURL(engine)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "# %s [%s] %s\n%s\n%s\n", entry.ID, entry.Category, entry.Title, c.Session.Query(), u)
				return err
			})
		},
	}

	importCmd.Flags().StringVarP(&engine, "engine", "e", "", "search engine (default from search.default_engine)")
	importCmd.Flags().IntVar(&pages, "pages", 1, "number of result pages to look through")
	return importCmd
}

// pickEntry prefers the entry whose id equals term, then the first entry.
func pickEntry(entries []schemas.GHDBEntry, term string) (schemas.GHDBEntry, bool) {
	term = strings.TrimSpace(term)
	for _, e := range entries {
		if e.ID == term {
			return e, true
		}
	}
	if len(entries) == 0 {
		return schemas.GHDBEntry{}, false
	}
	return entries[0], true
}

func writeGHDBTable(out io.Writer, page *schemas.GHDBPage) error {
	fmt.Fprintf(out, "%d of %d entries (%d total)\n", len(page.Entries), page.RecordsFiltered, page.RecordsTotal)
	if len(page.Entries) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tCATEGORY\tDORK\t")
	for _, e := range page.Entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", e.ID, e.Date, e.Category, e.Dork)
	}
	return tw.Flush()
}
