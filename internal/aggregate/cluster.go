// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"strings"
	"unicode"

	"github.com/pdiddy/refsearch/pkg/types"
)

// fuzzyTitleThreshold is the minimum normalized-title token similarity for
// two records to be considered the same publication without a shared hard
// identifier.
const fuzzyTitleThreshold = 0.94

// MatchMethod records how a cluster was formed.
type MatchMethod string

const (
	MatchHardID    MatchMethod = "hard-id"
	MatchFuzzy     MatchMethod = "fuzzy"
	MatchSingleton MatchMethod = "singleton"
)

// Cluster is a set of raw records judged to denote one publication. Records
// keep their canonical input order; clusters are ordered by their earliest
// member.
type Cluster struct {
	Records []types.RawRecord
	Method  MatchMethod
}

// ClusterRecords partitions records into clusters of records that describe
// the same underlying publication. The input must already be in canonical
// order; the output is then deterministic.
//
// Identity is resolved as connected components of a union-find structure.
// Hard-identifier edges (shared DOI, shared arXiv id, or shared native id
// from the same source) are added first and merge regardless of title text.
// Fuzzy edges are evaluated pairwise and are transitive through the
// components: if A matches B and B matches C, all three cluster even when
// A-C alone would fail the threshold.
func ClusterRecords(records []types.RawRecord) []Cluster {
	n := len(records)
	if n == 0 {
		return nil
	}

	uf := newUnionFind(n)
	methods := make([]MatchMethod, n) // per-root formation method

	// Hard-identifier pass. Identifier equality is transitive through the
	// union-find: A↔B via DOI and B↔C via arXiv id puts all three together.
	index := make(map[string]int)
	join := func(key string, i int) {
		if j, ok := index[key]; ok {
			unionWithMethod(uf, methods, i, j, MatchHardID)
			return
		}
		index[key] = i
	}
	for i, r := range records {
		if doi := types.NormalizeDOI(r.DOI); doi != "" {
			join("doi:"+doi, i)
		}
		if aid := types.NormalizeArxivID(r.ArxivID); aid != "" {
			join("arxiv:"+aid, i)
		}
		if r.NativeID != "" {
			// Native ids only identify records within one originating index.
			join("native:"+string(r.Source)+":"+r.NativeID, i)
		}
	}

	// Fuzzy pass. Pairs are evaluated in encounter order (i before j) so
	// ties resolve to the earliest satisfying cluster and decisions are
	// never revisited.
	norm := make([]fuzzyKey, n)
	for i, r := range records {
		norm[i] = fuzzyKey{
			tokens:   titleTokens(r.Title),
			surnames: surnameSet(r.Authors),
			year:     r.Year,
		}
	}
	for i := 0; i < n; i++ {
		if len(norm[i].tokens) == 0 {
			continue // empty titles never fuzzy-match
		}
		for j := i + 1; j < n; j++ {
			if len(norm[j].tokens) == 0 || uf.find(i) == uf.find(j) {
				continue
			}
			if fuzzyMatch(norm[i], norm[j]) {
				unionWithMethod(uf, methods, i, j, MatchFuzzy)
			}
		}
	}

	// Emit connected components ordered by earliest member.
	byRoot := make(map[int]*Cluster)
	var ordered []*Cluster
	for i, r := range records {
		root := uf.find(i)
		c, ok := byRoot[root]
		if !ok {
			method := methods[root]
			if method == "" {
				method = MatchSingleton
			}
			c = &Cluster{Method: method}
			byRoot[root] = c
			ordered = append(ordered, c)
		}
		c.Records = append(c.Records, r)
	}

	clusters := make([]Cluster, len(ordered))
	for i, c := range ordered {
		clusters[i] = *c
	}
	return clusters
}

// unionWithMethod merges the components of i and j, keeping the earliest
// index as root. A hard-id edge dominates an earlier fuzzy one.
func unionWithMethod(uf *unionFind, methods []MatchMethod, i, j int, m MatchMethod) {
	ri, rj := uf.find(i), uf.find(j)
	if ri == rj {
		return
	}
	root := ri
	other := rj
	if other < root {
		root, other = other, root
	}
	uf.parent[other] = root
	if methods[root] != MatchHardID {
		if methods[other] == MatchHardID || m == MatchHardID {
			methods[root] = MatchHardID
		} else {
			methods[root] = m
		}
	}
}

// fuzzyKey caches the normalized comparison material for one record.
type fuzzyKey struct {
	tokens   []string
	surnames map[string]bool
	year     int
}

// fuzzyMatch applies the fuzzy identity rule: high normalized-title
// similarity, at least one shared surname (or both author lists empty), and
// consistent years (equal, or at least one side unknown).
func fuzzyMatch(a, b fuzzyKey) bool {
	if titleSimilarity(a.tokens, b.tokens) < fuzzyTitleThreshold {
		return false
	}
	if a.year != 0 && b.year != 0 && a.year != b.year {
		return false
	}
	if len(a.surnames) == 0 && len(b.surnames) == 0 {
		return true
	}
	for s := range a.surnames {
		if b.surnames[s] {
			return true
		}
	}
	return false
}

// titleSimilarity computes the Sørensen-Dice coefficient over normalized
// title token sets. Two titles differing only in case, punctuation, or
// whitespace score 1.0.
func titleSimilarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	seen := make(map[string]bool, len(a))
	for _, t := range a {
		seen[t] = true
	}
	shared := 0
	counted := make(map[string]bool, len(b))
	for _, t := range b {
		if seen[t] && !counted[t] {
			shared++
			counted[t] = true
		}
	}
	return 2 * float64(shared) / float64(len(uniq(a))+len(uniq(b)))
}

func uniq(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := tokens[:0:0]
	for _, t := range tokens {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// titleTokens returns the case-folded, punctuation-stripped,
// whitespace-collapsed tokens of a title.
func titleTokens(title string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Fields(b.String())
}

// surnameSet extracts lowercased surnames (last whitespace token of each
// display name) from an author list.
func surnameSet(authors []string) map[string]bool {
	if len(authors) == 0 {
		return nil
	}
	set := make(map[string]bool, len(authors))
	for _, a := range authors {
		parts := strings.Fields(a)
		if len(parts) == 0 {
			continue
		}
		set[strings.ToLower(parts[len(parts)-1])] = true
	}
	if len(set) == 0 {
		return nil
	}
	return set
}

// unionFind is a plain disjoint-set forest with path compression. Roots are
// kept at the smallest member index so component identity is deterministic.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}
