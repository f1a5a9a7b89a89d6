// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"sort"

	"github.com/pdiddy/refsearch/pkg/types"
)

// Rank orders references by quality signals and truncates to max. The sort
// is stable, so references with identical scores keep their
// cluster-formation order. Precedence: number of corroborating sources,
// then recency (missing year sorts lowest), then presence of a hard
// identifier. Only RankScore is mutated.
func Rank(refs []types.Reference, max int) []types.Reference {
	for i := range refs {
		refs[i].RankScore = rankScore(refs[i])
	}
	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].RankScore > refs[j].RankScore
	})
	if max > 0 && len(refs) > max {
		refs = refs[:max]
	}
	return refs
}

// rankScore composes the ranking signals into one monotonic value. Source
// count dominates year, which dominates the hard-identifier bonus, so the
// scalar ordering equals the lexicographic precedence.
func rankScore(r types.Reference) float64 {
	score := float64(len(r.Sources)) * 1_000_000
	if r.Year > 0 {
		score += float64(r.Year) * 10
	}
	if r.HasHardID() {
		score += 1
	}
	return score
}
