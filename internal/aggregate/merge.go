// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"sort"

	"github.com/pdiddy/refsearch/pkg/types"
)

// Merge collapses a cluster into one canonical Reference. priority is the
// source trust order; earlier providers win disputed fields. An empty or nil
// priority falls back to the default order. Merge is pure: it never fails
// for a non-empty cluster and mutates nothing.
//
// Field policy: title comes from the highest-trust source (longest wins
// within one source); year, venue, volume, pages, doi, arxiv id, primary
// class, and url take the first non-empty value in trust order; the abstract
// is the longest available anywhere in the cluster; authors are the union
// across members in trust order, keeping each name's first-contributed
// position. Variant spellings of one person are not unified.
func Merge(c Cluster, priority []types.ProviderName) types.Reference {
	if len(priority) == 0 {
		priority = types.DefaultSourcePriority
	}
	rank := make(map[types.ProviderName]int, len(priority))
	for i, p := range priority {
		rank[p] = i
	}
	trustRank := func(p types.ProviderName) int {
		if r, ok := rank[p]; ok {
			return r
		}
		return len(priority) // unknown sources sort last
	}

	// Stable sort by trust keeps within-provider encounter order.
	ordered := make([]types.RawRecord, len(c.Records))
	copy(ordered, c.Records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return trustRank(ordered[i].Source) < trustRank(ordered[j].Source)
	})

	var ref types.Reference

	// Title: highest-trust source; among equally trusted records the
	// longest non-empty title wins.
	bestRank := -1
	for _, r := range ordered {
		if r.Title == "" {
			continue
		}
		tr := trustRank(r.Source)
		if bestRank == -1 || tr < bestRank {
			ref.Title = r.Title
			bestRank = tr
		} else if tr == bestRank && len(r.Title) > len(ref.Title) {
			ref.Title = r.Title
		}
	}

	seenAuthors := make(map[string]bool)
	for _, r := range ordered {
		for _, a := range r.Authors {
			if a == "" || seenAuthors[a] {
				continue
			}
			seenAuthors[a] = true
			ref.Authors = append(ref.Authors, a)
		}

		if ref.Year == 0 {
			ref.Year = r.Year
		}
		if ref.Venue == "" {
			ref.Venue = r.Venue
		}
		if ref.Volume == "" {
			ref.Volume = r.Volume
		}
		if ref.Pages == "" {
			ref.Pages = r.Pages
		}
		if ref.DOI == "" {
			ref.DOI = types.NormalizeDOI(r.DOI)
		}
		if ref.ArxivID == "" {
			ref.ArxivID = types.NormalizeArxivID(r.ArxivID)
		}
		if ref.PrimaryClass == "" {
			ref.PrimaryClass = r.PrimaryClass
		}
		if ref.URL == "" {
			ref.URL = r.URL
		}
		if len(r.Abstract) > len(ref.Abstract) {
			ref.Abstract = r.Abstract
		}
	}

	// One source entry per distinct provider, in cluster encounter order,
	// carrying that provider's native URL.
	seenSources := make(map[types.ProviderName]bool)
	for _, r := range c.Records {
		if seenSources[r.Source] {
			continue
		}
		seenSources[r.Source] = true
		ref.Sources = append(ref.Sources, types.SourceRef{Provider: r.Source, URL: r.URL})
	}

	return ref
}

// MergeClusters merges every cluster, preserving cluster-formation order.
func MergeClusters(clusters []Cluster, priority []types.ProviderName) []types.Reference {
	refs := make([]types.Reference, 0, len(clusters))
	for _, c := range clusters {
		refs = append(refs, Merge(c, priority))
	}
	return refs
}
