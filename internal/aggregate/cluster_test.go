// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"testing"

	"github.com/pdiddy/refsearch/pkg/types"
)

func TestClusterRecordsByDOI(t *testing.T) {
	records := []types.RawRecord{
		{Source: types.ProviderArxiv, Title: "Completely Different Title", DOI: "10.1000/xyz", Year: 2020},
		{Source: types.ProviderDBLP, Title: "Another Unrelated Name", DOI: "https://doi.org/10.1000/XYZ", Year: 2021},
	}

	clusters := ClusterRecords(records)
	if len(clusters) != 1 {
		t.Fatalf("len(clusters) = %d, want 1 (shared DOI merges despite titles)", len(clusters))
	}
	if clusters[0].Method != MatchHardID {
		t.Errorf("Method = %q, want %q", clusters[0].Method, MatchHardID)
	}
	if len(clusters[0].Records) != 2 {
		t.Errorf("cluster size = %d, want 2", len(clusters[0].Records))
	}
}

func TestClusterRecordsByArxivIDVersionInsensitive(t *testing.T) {
	records := []types.RawRecord{
		{Source: types.ProviderArxiv, Title: "Paper", ArxivID: "1706.03762"},
		{Source: types.ProviderSemanticScholar, Title: "Paper", ArxivID: "1706.03762v5"},
	}

	clusters := ClusterRecords(records)
	if len(clusters) != 1 {
		t.Fatalf("len(clusters) = %d, want 1", len(clusters))
	}
	if clusters[0].Method != MatchHardID {
		t.Errorf("Method = %q, want %q", clusters[0].Method, MatchHardID)
	}
}

func TestClusterRecordsNativeIDScopedToSource(t *testing.T) {
	// The same native id string from different sources is no evidence.
	records := []types.RawRecord{
		{Source: types.ProviderOpenAlex, Title: "First Thing Entirely", NativeID: "12345"},
		{Source: types.ProviderSemanticScholar, Title: "Second Thing Altogether", NativeID: "12345"},
	}

	clusters := ClusterRecords(records)
	if len(clusters) != 2 {
		t.Fatalf("len(clusters) = %d, want 2", len(clusters))
	}
	for _, c := range clusters {
		if c.Method != MatchSingleton {
			t.Errorf("Method = %q, want %q", c.Method, MatchSingleton)
		}
	}
}

func TestClusterRecordsFuzzyTitleMatch(t *testing.T) {
	records := []types.RawRecord{
		{Source: types.ProviderArxiv, Title: "Attention Is All You Need", Authors: []string{"Ashish Vaswani"}, Year: 2017},
		{Source: types.ProviderDBLP, Title: "Attention is All you Need.", Authors: []string{"A. Vaswani"}, Year: 2017},
	}

	clusters := ClusterRecords(records)
	if len(clusters) != 1 {
		t.Fatalf("len(clusters) = %d, want 1 (case/punctuation variants fuzzy-match)", len(clusters))
	}
	if clusters[0].Method != MatchFuzzy {
		t.Errorf("Method = %q, want %q", clusters[0].Method, MatchFuzzy)
	}
}

func TestClusterRecordsFuzzyRejectsYearMismatch(t *testing.T) {
	records := []types.RawRecord{
		{Source: types.ProviderArxiv, Title: "A Survey of Deep Learning", Authors: []string{"Kim"}, Year: 2019},
		{Source: types.ProviderDBLP, Title: "A Survey of Deep Learning", Authors: []string{"Kim"}, Year: 2023},
	}

	clusters := ClusterRecords(records)
	if len(clusters) != 2 {
		t.Fatalf("len(clusters) = %d, want 2 (same title, different years)", len(clusters))
	}
}

func TestClusterRecordsFuzzyAllowsMissingYear(t *testing.T) {
	records := []types.RawRecord{
		{Source: types.ProviderArxiv, Title: "A Survey of Deep Learning", Authors: []string{"Kim"}, Year: 2019},
		{Source: types.ProviderOpenAlex, Title: "A Survey of Deep Learning", Authors: []string{"Kim"}},
	}

	clusters := ClusterRecords(records)
	if len(clusters) != 1 {
		t.Fatalf("len(clusters) = %d, want 1 (unknown year is consistent)", len(clusters))
	}
}

func TestClusterRecordsFuzzyRequiresSharedSurname(t *testing.T) {
	records := []types.RawRecord{
		{Source: types.ProviderArxiv, Title: "On Generalization", Authors: []string{"Alice Smith"}, Year: 2020},
		{Source: types.ProviderDBLP, Title: "On Generalization", Authors: []string{"Bob Jones"}, Year: 2020},
	}

	clusters := ClusterRecords(records)
	if len(clusters) != 2 {
		t.Fatalf("len(clusters) = %d, want 2 (disjoint author sets)", len(clusters))
	}
}

func TestClusterRecordsFuzzyBothAuthorlessMatch(t *testing.T) {
	records := []types.RawRecord{
		{Source: types.ProviderArxiv, Title: "An Anonymous Report", Year: 2020},
		{Source: types.ProviderOpenAlex, Title: "An Anonymous Report", Year: 2020},
	}

	clusters := ClusterRecords(records)
	if len(clusters) != 1 {
		t.Fatalf("len(clusters) = %d, want 1 (both author lists empty)", len(clusters))
	}
}

func TestClusterRecordsEmptyTitlesNeverFuzzyMatch(t *testing.T) {
	records := []types.RawRecord{
		{Source: types.ProviderArxiv, Title: ""},
		{Source: types.ProviderDBLP, Title: ""},
	}

	clusters := ClusterRecords(records)
	if len(clusters) != 2 {
		t.Fatalf("len(clusters) = %d, want 2 (empty titles stay singletons)", len(clusters))
	}
}

func TestClusterRecordsTransitiveHardAndFuzzy(t *testing.T) {
	// A and B share a DOI; C fuzzy-matches B. All three must end up in one
	// cluster, and the hard-id method dominates.
	records := []types.RawRecord{
		{Source: types.ProviderArxiv, Title: "Neural Machine Translation by Jointly Learning", Authors: []string{"Dzmitry Bahdanau"}, Year: 2015, DOI: "10.1/a"},
		{Source: types.ProviderDBLP, Title: "A Totally Renamed Entry", DOI: "10.1/a"},
		{Source: types.ProviderOpenAlex, Title: "Neural Machine Translation by Jointly Learning", Authors: []string{"D. Bahdanau"}, Year: 2015},
	}

	clusters := ClusterRecords(records)
	if len(clusters) != 1 {
		t.Fatalf("len(clusters) = %d, want 1 (transitive closure)", len(clusters))
	}
	if clusters[0].Method != MatchHardID {
		t.Errorf("Method = %q, want %q (hard edge dominates)", clusters[0].Method, MatchHardID)
	}
}

func TestClusterRecordsDeterministicOrder(t *testing.T) {
	records := []types.RawRecord{
		{Source: types.ProviderArxiv, Title: "Zeta Functions", Authors: []string{"Euler"}, Year: 1740},
		{Source: types.ProviderArxiv, Title: "Alpha Particles", Authors: []string{"Rutherford"}, Year: 1911},
		{Source: types.ProviderDBLP, Title: "Zeta Functions", Authors: []string{"L. Euler"}, Year: 1740},
	}

	for run := 0; run < 20; run++ {
		clusters := ClusterRecords(records)
		if len(clusters) != 2 {
			t.Fatalf("len(clusters) = %d, want 2", len(clusters))
		}
		// Clusters ordered by earliest member: Zeta (index 0) before Alpha.
		if clusters[0].Records[0].Title != "Zeta Functions" {
			t.Fatalf("run %d: first cluster = %q, want Zeta Functions", run, clusters[0].Records[0].Title)
		}
		if clusters[1].Records[0].Title != "Alpha Particles" {
			t.Fatalf("run %d: second cluster = %q", run, clusters[1].Records[0].Title)
		}
	}
}

func TestClusterRecordsEmptyInput(t *testing.T) {
	if got := ClusterRecords(nil); got != nil {
		t.Errorf("ClusterRecords(nil) = %v, want nil", got)
	}
}

func TestTitleSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "Attention Is All You Need", "attention is all you need.", 1.0},
		{"disjoint", "alpha beta", "gamma delta", 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := titleSimilarity(titleTokens(tt.a), titleTokens(tt.b))
			if got != tt.want {
				t.Errorf("titleSimilarity = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestTitleSimilarityNearMiss(t *testing.T) {
	// One word out of a short title is well below the threshold.
	a := titleTokens("Deep Learning for Go")
	b := titleTokens("Deep Learning for Chess")
	if got := titleSimilarity(a, b); got >= fuzzyTitleThreshold {
		t.Errorf("titleSimilarity = %f, want < %f", got, fuzzyTitleThreshold)
	}
}
