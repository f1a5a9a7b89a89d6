// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package provider implements adapters for the academic search APIs. Each
// adapter converts a free-text query into a bounded list of raw records
// within the deadline carried by its context, or fails with a classifiable
// error. Adapters share no state; the aggregation engine treats them
// uniformly through the Provider interface.
// See docs/ARCHITECTURE.md § Providers.
package provider

import (
	"context"
	"errors"
	"net/http"

	"github.com/pdiddy/refsearch/pkg/types"
)

// Provider searches a single academic API. Each adapter handles its own
// pagination and rate-limit backoff inside the deadline on ctx; the caller
// never retries a provider.
type Provider interface {
	Name() types.ProviderName
	Search(ctx context.Context, q types.SearchQuery, limit int, cfg types.ProviderConfig) ([]types.RawRecord, error)
}

// SearchError classifies an adapter failure. Adapters wrap transport and
// rate-limit failures in a SearchError; anything unwrapped is treated as
// unexpected.
type SearchError struct {
	Kind types.FailureKind
	Err  error
}

func (e *SearchError) Error() string { return e.Err.Error() }

func (e *SearchError) Unwrap() error { return e.Err }

// Classify maps an adapter error to its failure kind. A deadline expiry is
// always a timeout, even when it surfaces wrapped inside a transport error.
func Classify(err error) types.FailureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return types.FailTimeout
	}
	var se *SearchError
	if errors.As(err, &se) {
		return se.Kind
	}
	return types.FailUnexpected
}

// Registry returns the default provider lookup table keyed by provider name.
// All adapters share one HTTP client; each call's response buffer is owned by
// the adapter until it is handed to the coordinator.
func Registry(client *http.Client) map[types.ProviderName]Provider {
	return map[types.ProviderName]Provider{
		types.ProviderArxiv:           &ArxivProvider{Client: client},
		types.ProviderDBLP:            &DBLPProvider{Client: client},
		types.ProviderOpenAlex:        &OpenAlexProvider{Client: client},
		types.ProviderSemanticScholar: &SemanticScholarProvider{Client: client},
	}
}
