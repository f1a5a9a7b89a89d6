// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/refsearch/internal/tool"
)

var showCmd = &cobra.Command{
	Use:   "show <query-file>",
	Short: "Display a previously saved search",
	Long: `Show reads a query file written by "search --save" and formats its stored
results without contacting any provider. With --rerun the stored query is
executed again instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		qf, err := tool.ReadQueryFile(args[0])
		if err != nil {
			return err
		}

		out := tool.Output{
			References:    qf.Results,
			TotalFound:    qf.Summary.Total,
			Query:         qf.Query.Query,
			ProvidersUsed: qf.Summary.Providers,
			Failures:      qf.Summary.Failures,
		}

		if rerun, _ := cmd.Flags().GetBool("rerun"); rerun {
			cfg := loadConfig()
			searcher, cleanup, err := newSearcher(cfg)
			if err != nil {
				return err
			}
			defer cleanup()
			out, err = searcher.Search(cmd.Context(), qf.Query.ToInput())
			if err != nil {
				return err
			}
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return tool.FormatJSON(out, os.Stdout)
		}
		if asBibTeX, _ := cmd.Flags().GetBool("bibtex"); asBibTeX {
			tool.FormatBibTeX(out, os.Stdout)
			return nil
		}
		tool.FormatTable(out, os.Stdout)
		return nil
	},
}

func init() {
	showCmd.Flags().Bool("rerun", false, "re-execute the stored query instead of showing saved results")
	showCmd.Flags().Bool("json", false, "output the full response as JSON")
	showCmd.Flags().Bool("bibtex", false, "output BibTeX entries only")

	rootCmd.AddCommand(showCmd)
}
