// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate implements the aggregation engine: concurrent provider
// fan-out, identity resolution across sources, field-level merging, and
// ranking. Everything below the coordinator is single-threaded and operates
// on an immutable snapshot of the collected records.
// See docs/ARCHITECTURE.md § Aggregation.
package aggregate

import (
	"context"
	"sync"
	"time"

	"github.com/pdiddy/refsearch/internal/provider"
	"github.com/pdiddy/refsearch/pkg/types"
)

// ProviderOutcome is one provider's result within an aggregation request:
// either a list of raw records (possibly empty) or a classified failure.
type ProviderOutcome struct {
	Records []types.RawRecord
	Failure types.FailureKind // empty string on success
	Detail  string            // underlying error text, for observability
}

// Failed reports whether the provider produced no usable result.
func (o ProviderOutcome) Failed() bool { return o.Failure != "" }

// AggregationResult holds the per-provider outcomes of one fan-out. It is
// always well-formed: a fan-out where every provider fails still yields a
// result with one failure outcome per provider.
type AggregationResult struct {
	Outcomes map[types.ProviderName]ProviderOutcome
}

// Records returns all collected raw records in canonical order: provider
// enumeration order, then within-provider return order. Sorting here makes
// the downstream pipeline deterministic regardless of which provider
// finished first.
func (r AggregationResult) Records() []types.RawRecord {
	var all []types.RawRecord
	for _, name := range types.ProviderOrder {
		o, ok := r.Outcomes[name]
		if !ok || o.Failed() {
			continue
		}
		all = append(all, o.Records...)
	}
	return all
}

// Succeeded returns the providers that returned a non-failure result, in
// canonical order. An empty record list is a success.
func (r AggregationResult) Succeeded() []types.ProviderName {
	var names []types.ProviderName
	for _, name := range types.ProviderOrder {
		if o, ok := r.Outcomes[name]; ok && !o.Failed() {
			names = append(names, name)
		}
	}
	return names
}

// AllFailed reports whether no provider produced a usable result.
func (r AggregationResult) AllFailed() bool {
	return len(r.Succeeded()) == 0
}

// Failures returns the classified failure per failed provider, or nil when
// every provider succeeded.
func (r AggregationResult) Failures() map[types.ProviderName]types.FailureKind {
	var failures map[types.ProviderName]types.FailureKind
	for name, o := range r.Outcomes {
		if !o.Failed() {
			continue
		}
		if failures == nil {
			failures = make(map[types.ProviderName]types.FailureKind)
		}
		failures[name] = o.Failure
	}
	return failures
}

// FanOut issues one concurrent search per provider, each under its own
// timeout clock, and collects whatever returns before its deadline. A
// provider that misses its deadline is abandoned and recorded as a timeout
// failure; it never delays or cancels its siblings. FanOut returns only
// after every unit has either returned or timed out — downstream ranking
// needs the full multi-provider picture, so there is no early return.
func FanOut(ctx context.Context, q types.SearchQuery, providers []provider.Provider, limit int, perProviderTimeout time.Duration, cfg types.ProviderConfig) AggregationResult {
	type unit struct {
		name    types.ProviderName
		records []types.RawRecord
		err     error
	}

	ch := make(chan unit, len(providers))
	var wg sync.WaitGroup

	for _, p := range providers {
		wg.Add(1)
		go func(p provider.Provider) {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, perProviderTimeout)
			defer cancel()
			records, err := p.Search(pctx, q, limit, cfg)
			ch <- unit{name: p.Name(), records: records, err: err}
		}(p)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	result := AggregationResult{Outcomes: make(map[types.ProviderName]ProviderOutcome, len(providers))}
	for u := range ch {
		if u.err != nil {
			result.Outcomes[u.name] = ProviderOutcome{
				Failure: provider.Classify(u.err),
				Detail:  u.err.Error(),
			}
			continue
		}
		result.Outcomes[u.name] = ProviderOutcome{Records: u.records}
	}
	return result
}
