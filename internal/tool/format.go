// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tool

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/refsearch/pkg/types"
)

// FormatTable writes references as a human-readable table to w.
func FormatTable(out Output, w io.Writer) {
	if len(out.References) == 0 {
		fmt.Fprintln(w, "No references found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-22s  %-56s  %-20s  %-4s  %s\n",
		"Rank", "Key", "Title", "Authors", "Year", "Sources")
	fmt.Fprintln(w, strings.Repeat("-", 120))

	for i, ref := range out.References {
		title := ref.Title
		if len(title) > 56 {
			title = title[:53] + "..."
		}
		year := ""
		if ref.Year > 0 {
			year = fmt.Sprintf("%d", ref.Year)
		}
		fmt.Fprintf(w, "%-4d  %-22s  %-56s  %-20s  %-4s  %s\n",
			i+1, ref.CitationKey, title, formatAuthors(ref.Authors), year, formatSources(ref.Sources))
	}

	fmt.Fprintf(w, "\n%d references\n", out.TotalFound)
	for _, name := range types.ProviderOrder {
		if kind, ok := out.Failures[name]; ok {
			fmt.Fprintf(w, "warning: provider %s failed: %s\n", name, kind)
		}
	}
}

// FormatJSON writes the full response as indented JSON to w.
func FormatJSON(out Output, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// FormatBibTeX writes one BibTeX entry per reference, blank-line separated.
func FormatBibTeX(out Output, w io.Writer) {
	for i, ref := range out.References {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, ref.BibTeX)
	}
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func formatSources(sources []types.SourceRef) string {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = string(s.Provider)
	}
	return strings.Join(names, ",")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
