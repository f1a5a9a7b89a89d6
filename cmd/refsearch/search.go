// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/refsearch/internal/cite"
	"github.com/pdiddy/refsearch/internal/tool"
	"github.com/pdiddy/refsearch/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search academic providers for references",
	Long: `Search queries the academic providers (arXiv, DBLP, OpenAlex, Semantic
Scholar) concurrently for publications matching a free-text query. Records
describing the same publication are merged across providers, ranked, and
returned with ready-to-paste BibTeX entries.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := tool.Input{Query: strings.Join(args, " ")}
		in.MaxResults, _ = cmd.Flags().GetInt("max-results")
		in.Year, _ = cmd.Flags().GetInt("year")
		in.Author, _ = cmd.Flags().GetString("author")

		if providers, _ := cmd.Flags().GetString("providers"); providers != "" {
			for _, p := range strings.Split(providers, ",") {
				in.Providers = append(in.Providers, types.ProviderName(strings.TrimSpace(p)))
			}
		}

		cfg := loadConfig()
		searcher, cleanup, err := newSearcher(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		out, err := searcher.Search(cmd.Context(), in)
		if err != nil && !errors.Is(err, tool.ErrAllProvidersFailed) {
			return err
		}
		if errors.Is(err, tool.ErrAllProvidersFailed) {
			for _, name := range types.ProviderOrder {
				if kind, ok := out.Failures[name]; ok {
					fmt.Fprintf(os.Stderr, "warning: provider %s failed: %s\n", name, kind)
				}
			}
			return fmt.Errorf("all providers failed")
		}

		if save, _ := cmd.Flags().GetString("save"); save != "" {
			if err := tool.WriteQueryFile(save, in, out); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Saved search to %s\n", save)
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		asBibTeX, _ := cmd.Flags().GetBool("bibtex")
		asCSL, _ := cmd.Flags().GetBool("csl")
		switch {
		case asJSON:
			return tool.FormatJSON(out, os.Stdout)
		case asBibTeX:
			tool.FormatBibTeX(out, os.Stdout)
		case asCSL:
			return cite.FormatCSL(out.References, os.Stdout)
		default:
			tool.FormatTable(out, os.Stdout)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().Int("max-results", 0, "maximum number of merged references (default from config)")
	searchCmd.Flags().String("providers", "", "comma-separated provider subset (default: all)")
	searchCmd.Flags().Int("year", 0, "only papers published in or after this year")
	searchCmd.Flags().String("author", "", "only papers by authors matching this name")
	searchCmd.Flags().String("save", "", "save the search and its results to a YAML file")
	searchCmd.Flags().Bool("json", false, "output the full response as JSON")
	searchCmd.Flags().Bool("bibtex", false, "output BibTeX entries only")
	searchCmd.Flags().Bool("csl", false, "output CSL-YAML items")

	rootCmd.AddCommand(searchCmd)
}
