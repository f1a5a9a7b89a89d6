// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the refsearch pipeline.
// See docs/ARCHITECTURE.md § Data Structures.
package types

// ProviderName identifies one external academic search source.
type ProviderName string

const (
	ProviderArxiv           ProviderName = "arxiv"
	ProviderDBLP            ProviderName = "dblp"
	ProviderOpenAlex        ProviderName = "openalex"
	ProviderSemanticScholar ProviderName = "semantic_scholar"
)

// ProviderOrder is the canonical enumeration order for providers. Collected
// raw records are sorted into this order (then within-provider return order)
// before clustering, so the pipeline output does not depend on which provider
// happened to respond first.
var ProviderOrder = []ProviderName{
	ProviderArxiv,
	ProviderDBLP,
	ProviderOpenAlex,
	ProviderSemanticScholar,
}

// KnownProvider reports whether name is one of the registered provider names.
func KnownProvider(name ProviderName) bool {
	for _, p := range ProviderOrder {
		if p == name {
			return true
		}
	}
	return false
}

// SearchQuery is one provider request: the free-text query plus optional
// filters. Every adapter receives the same SearchQuery; adapters whose API
// lacks a structured filter fold the filters into the free text.
type SearchQuery struct {
	// Text is the free-text search string.
	Text string `json:"text" yaml:"text"`

	// Year restricts results to papers published in or after Year.
	// 0 means no year filter.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// Author restricts results to papers by authors matching this name.
	Author string `json:"author,omitempty" yaml:"author,omitempty"`
}

// RawRecord is one publication as seen by exactly one provider, before
// identity resolution and merging. Instances are immutable once a provider
// returns them.
type RawRecord struct {
	// Source identifies the provider that returned this record.
	Source ProviderName `json:"source" yaml:"source"`

	// Title is the publication title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Authors lists author display names in source order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Year is the publication year; 0 means unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// Venue is the journal or conference name, when the source reports one.
	Venue  string `json:"venue,omitempty" yaml:"venue,omitempty"`
	Volume string `json:"volume,omitempty" yaml:"volume,omitempty"`
	Pages  string `json:"pages,omitempty" yaml:"pages,omitempty"`

	// DOI is the bare DOI (no https://doi.org/ prefix).
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// ArxivID is the arXiv identifier without version suffix.
	ArxivID string `json:"arxiv_id,omitempty" yaml:"arxiv_id,omitempty"`

	// NativeID is the provider's own identifier (DBLP key, Semantic Scholar
	// paper id, OpenAlex work id). Only comparable between records from the
	// same source.
	NativeID string `json:"native_id,omitempty" yaml:"native_id,omitempty"`

	// PrimaryClass is the arXiv primary category (e.g. "cs.CL").
	PrimaryClass string `json:"primary_class,omitempty" yaml:"primary_class,omitempty"`

	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// URL points at this record on the provider's site.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Score is the provider-local relevance score. Scales differ between
	// providers; never compare across sources.
	Score float64 `json:"score,omitempty" yaml:"score,omitempty"`
}

// FailureKind classifies a provider failure within one aggregation request.
type FailureKind string

const (
	FailTimeout     FailureKind = "timeout"
	FailTransport   FailureKind = "transport_error"
	FailRateLimited FailureKind = "rate_limited"
	FailUnexpected  FailureKind = "unexpected"
)

// SourceRef records one provider that contributed to a merged Reference.
type SourceRef struct {
	Provider ProviderName `json:"provider" yaml:"provider"`
	URL      string       `json:"url,omitempty" yaml:"url,omitempty"`
}

// Reference is the canonical merged record exposed to callers. It is created
// by the merger, scored by the ranker, and given its BibTeX rendering and
// citation key by the formatter; after the response is returned it is
// discarded.
type Reference struct {
	Title   string   `json:"title" yaml:"title"`
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Year    int      `json:"year,omitempty" yaml:"year,omitempty"`
	Venue   string   `json:"venue,omitempty" yaml:"venue,omitempty"`
	Volume  string   `json:"volume,omitempty" yaml:"volume,omitempty"`
	Pages   string   `json:"pages,omitempty" yaml:"pages,omitempty"`

	DOI          string `json:"doi,omitempty" yaml:"doi,omitempty"`
	ArxivID      string `json:"arxiv_id,omitempty" yaml:"arxiv_id,omitempty"`
	PrimaryClass string `json:"primary_class,omitempty" yaml:"primary_class,omitempty"`

	// Abstract is the longest abstract found across contributing sources.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	URL      string `json:"url,omitempty" yaml:"url,omitempty"`

	// EntryType is the BibTeX entry type: article, inproceedings, or misc.
	EntryType string `json:"entry_type,omitempty" yaml:"entry_type,omitempty"`

	// CitationKey is unique within one response.
	CitationKey string `json:"citation_key,omitempty" yaml:"citation_key,omitempty"`

	// BibTeX is the rendered citation entry.
	BibTeX string `json:"bibtex,omitempty" yaml:"bibtex,omitempty"`

	// Sources lists the distinct providers that contributed to the merge.
	// Never empty, never repeats a provider.
	Sources []SourceRef `json:"sources" yaml:"sources"`

	// RankScore orders the response. It is not an authoritative relevance
	// value; only the relative ordering is meaningful.
	RankScore float64 `json:"rank_score,omitempty" yaml:"rank_score,omitempty"`
}

// HasHardID reports whether the reference carries a DOI or arXiv id.
func (r Reference) HasHardID() bool {
	return r.DOI != "" || r.ArxivID != ""
}
