// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tool exposes the reference search operation shared by the CLI and
// the HTTP server: validate the request, fan out to providers, resolve
// identities, merge, rank, and attach citations.
//
// See docs/ARCHITECTURE.md § Tool surface.
package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/refsearch/internal/aggregate"
	"github.com/pdiddy/refsearch/internal/cache"
	"github.com/pdiddy/refsearch/internal/cite"
	"github.com/pdiddy/refsearch/internal/provider"
	"github.com/pdiddy/refsearch/pkg/types"
)

// ErrInvalidQuery is returned before any provider is contacted.
var ErrInvalidQuery = errors.New("query must not be empty")

// ErrAllProvidersFailed is returned when every contacted provider failed.
// The accompanying Output still carries the per-provider failure detail.
var ErrAllProvidersFailed = errors.New("all providers failed")

const (
	defaultMaxResults = 20
	maxMaxResults     = 100

	// Each provider is asked for twice the requested bound so that
	// cross-provider merging does not starve the final list.
	overFetchFactor = 2
)

// Input is a single reference search request.
type Input struct {
	Query      string               `json:"query"`
	MaxResults int                  `json:"max_results,omitempty"`
	Providers  []types.ProviderName `json:"providers,omitempty"`

	// Year restricts results to papers published in or after Year.
	Year int `json:"year,omitempty"`

	// Author restricts results to papers by authors matching this name.
	Author string `json:"author,omitempty"`
}

// Output is the aggregated result of a reference search. ProvidersUsed lists
// only the providers that returned a usable result; a requested provider
// that failed appears in Failures instead.
type Output struct {
	References    []types.Reference                        `json:"references"`
	TotalFound    int                                      `json:"total_found"`
	Query         string                                   `json:"query"`
	ProvidersUsed []types.ProviderName                     `json:"providers_used"`
	Failures      map[types.ProviderName]types.FailureKind `json:"failures,omitempty"`
	YearFilter    int                                      `json:"year_filter,omitempty"`
	AuthorFilter  string                                   `json:"author_filter,omitempty"`
}

// aggregateFailure carries the per-provider failure detail alongside
// ErrAllProvidersFailed so the cached path can surface it too.
type aggregateFailure struct {
	failures map[types.ProviderName]types.FailureKind
}

func (e *aggregateFailure) Error() string { return ErrAllProvidersFailed.Error() }

func (e *aggregateFailure) Unwrap() error { return ErrAllProvidersFailed }

// Searcher runs reference searches against a fixed provider registry,
// optionally through a response cache.
type Searcher struct {
	providers map[types.ProviderName]provider.Provider
	cfg       types.Config
	cache     *cache.Cache
}

// NewSearcher builds a Searcher. cache may be nil to disable caching.
func NewSearcher(providers map[types.ProviderName]provider.Provider, cfg types.Config, c *cache.Cache) *Searcher {
	if cfg.Aggregation.PerProviderTimeout <= 0 {
		cfg.Aggregation.PerProviderTimeout = 4 * time.Second
	}
	return &Searcher{providers: providers, cfg: cfg, cache: c}
}

// Search runs the full pipeline for one request. When every contacted
// provider fails it returns a well-formed empty Output together with
// ErrAllProvidersFailed; partial failures are reported in Output.Failures
// without an error.
func (s *Searcher) Search(ctx context.Context, in Input) (Output, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return Output{}, ErrInvalidQuery
	}

	maxResults := in.MaxResults
	if maxResults <= 0 {
		maxResults = s.cfg.Aggregation.MaxResults
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	if maxResults > maxMaxResults {
		maxResults = maxMaxResults
	}

	selected, err := s.selectProviders(in.Providers)
	if err != nil {
		return Output{}, err
	}

	names := make([]types.ProviderName, len(selected))
	for i, p := range selected {
		names[i] = p.Name()
	}

	q := types.SearchQuery{Text: query, Year: in.Year, Author: in.Author}

	if s.cache == nil {
		return s.search(ctx, q, maxResults, selected)
	}

	key := cache.Key(q, names, maxResults)
	payload, _, err := s.cache.GetOrFill(ctx, key, func(ctx context.Context) ([]byte, error) {
		out, err := s.search(ctx, q, maxResults, selected)
		if err != nil {
			return nil, err
		}
		return json.Marshal(out)
	})
	if err != nil {
		var af *aggregateFailure
		if errors.As(err, &af) {
			out := emptyOutput(query)
			out.Failures = af.failures
			return out, err
		}
		return Output{}, err
	}

	var out Output
	if err := json.Unmarshal(payload, &out); err != nil {
		return Output{}, fmt.Errorf("decoding cached response: %w", err)
	}
	return out, nil
}

func (s *Searcher) search(ctx context.Context, q types.SearchQuery, maxResults int, selected []provider.Provider) (Output, error) {
	res := aggregate.FanOut(ctx, q, selected, maxResults*overFetchFactor, s.cfg.Aggregation.PerProviderTimeout, s.cfg.Provider)
	if res.AllFailed() {
		out := emptyOutput(q.Text)
		out.Failures = res.Failures()
		return out, &aggregateFailure{failures: out.Failures}
	}

	clusters := aggregate.ClusterRecords(res.Records())
	refs := aggregate.MergeClusters(clusters, s.cfg.Aggregation.SourcePriority)
	refs = aggregate.Rank(refs, maxResults)
	refs = cite.NewFormatter().FormatAll(refs)
	if refs == nil {
		refs = []types.Reference{}
	}

	return Output{
		References:    refs,
		TotalFound:    len(refs),
		Query:         q.Text,
		ProvidersUsed: res.Succeeded(),
		Failures:      res.Failures(),
		YearFilter:    q.Year,
		AuthorFilter:  q.Author,
	}, nil
}

// selectProviders resolves the requested provider subset, defaulting to the
// configured set, which itself defaults to every registered provider.
func (s *Searcher) selectProviders(requested []types.ProviderName) ([]provider.Provider, error) {
	names := requested
	if len(names) == 0 {
		names = s.cfg.Aggregation.Providers
	}
	if len(names) == 0 {
		names = types.ProviderOrder
	}

	var selected []provider.Provider
	seen := make(map[types.ProviderName]bool)
	for _, canonical := range types.ProviderOrder {
		for _, n := range names {
			if n == canonical && !seen[n] {
				p, ok := s.providers[n]
				if !ok {
					return nil, fmt.Errorf("unknown provider %q", n)
				}
				selected = append(selected, p)
				seen[n] = true
			}
		}
	}
	for _, n := range names {
		if !types.KnownProvider(n) {
			return nil, fmt.Errorf("unknown provider %q", n)
		}
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no providers selected")
	}
	return selected, nil
}

// emptyOutput is the well-formed response for a search that produced no
// usable provider result. No provider succeeded, so ProvidersUsed is empty.
func emptyOutput(query string) Output {
	return Output{
		References:    []types.Reference{},
		TotalFound:    0,
		Query:         query,
		ProvidersUsed: []types.ProviderName{},
	}
}
