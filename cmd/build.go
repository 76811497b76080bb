// File: cmd/build.go
package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/dorkbuilder/api/schemas"
	"github.com/xkilldash9x/dorkbuilder/internal/query"
	"github.com/xkilldash9x/dorkbuilder/internal/service"
	"github.com/xkilldash9x/dorkbuilder/internal/session"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// buildOptions holds the flags of the build command.
type buildOptions struct {
	blocks    []string
	raw       []string
	engine    string
	urlOnly   bool
	asJSON    bool
	noHistory bool
}

// buildResult is the --json shape of a build.
type buildResult struct {
	Query      string               `json:"query"`
	Engine     schemas.SearchEngine `json:"engine"`
	URL        string               `json:"url"`
	BlockCount int                  `json:"block_count"`
	RecordID   string               `json:"record_id,omitempty"`
}

func newBuildCmd(factory service.ComponentFactory) *cobra.Command {
	opts := &buildOptions{}

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Build a query and search URL from blocks",
		Long: `Builds a dork from blocks given in order and prints the query and the search URL.

A block is written REF=VALUE where REF is a template id ("site", "custom_tpl_1")
or its operator ("site:", "filetype"). Raw query text can be appended with --raw.`,
		Example: `  dorkbuilder build -b site=example.com -b filetype=pdf
  dorkbuilder build -b intitle='"index of"' --raw '-inurl:https' --engine brave --url-only`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(opts.blocks) == 0 && len(opts.raw) == 0 {
				return errors.New("at least one --block or --raw is required")
			}
			return withComponents(cmd, factory, func(c *service.Components) error {
				return runBuild(cmd, c.Session, opts)
			})
		},
	}

	buildCmd.Flags().StringArrayVarP(&opts.blocks, "block", "b", nil, "block as REF=VALUE, repeatable, kept in order")
	buildCmd.Flags().StringArrayVar(&opts.raw, "raw", nil, "raw query text appended after the blocks, repeatable")
	buildCmd.Flags().StringVarP(&opts.engine, "engine", "e", "", "search engine (default from search.default_engine)")
	buildCmd.Flags().BoolVar(&opts.urlOnly, "url-only", false, "print only the search URL")
	buildCmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the result as JSON")
	buildCmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "do not record the search in the history")
	buildCmd.MarkFlagsMutuallyExclusive("url-only", "json")
	return buildCmd
}

func runBuild(cmd *cobra.Command, sess *session.Session, opts *buildOptions) error {
	for _, spec := range opts.blocks {
		ref, value, err := parseBlockSpec(spec)
		if err != nil {
			return err
		}
		if _, err := sess.Add(ref, value, -1); err != nil {
			return fmt.Errorf("block %q: %w", spec, err)
		}
	}
	for _, raw := range opts.raw {
		sess.Import(raw, "Raw query text")
	}

	engine, err := sess.ResolveEngine(opts.engine)
	if err != nil {
		return err
	}

	res := buildResult{Engine: engine}
	if opts.noHistory {
		u, err := sess.SearchURL(string(engine))
		if err != nil {
			return err
		}
		if u == "" {
			return session.ErrEmptyQuery
		}
		res.URL = u
		res.Query = query.Adapt(sess.Query(), engine)
		res.BlockCount = query.Filled(sess.Blocks())
	} else {
		rec, err := sess.Search(cmd.Context(), string(engine))
		if err != nil && rec.URL == "" {
			return err
		}
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "Warning:", err)
		}
		res.URL = rec.URL
		res.Query = rec.Query
		res.RecordID = rec.ID
		res.BlockCount = rec.BlockCount
	}
	return printBuildResult(cmd.OutOrStdout(), res, opts)
}

func printBuildResult(out io.Writer, res buildResult, opts *buildOptions) error {
	switch {
	case opts.asJSON:
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	case opts.urlOnly:
		_, err := fmt.Fprintln(out, res.URL)
		return err
	default:
		_, err := fmt.Fprintf(out, "%s\n%s\n", res.Query, res.URL)
		return err
	}
}

// parseBlockSpec splits "REF=VALUE" at the first '='.
func parseBlockSpec(spec string) (ref, value string, err error) {
	ref, value, ok := strings.Cut(spec, "=")
	ref = strings.TrimSpace(ref)
	if !ok || ref == "" {
		return "", "", fmt.Errorf("invalid block %q (expected REF=VALUE)", spec)
	}
	return ref, value, nil
}
