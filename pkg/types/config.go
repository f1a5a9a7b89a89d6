// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings for components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP client timeout. The per-provider deadline enforced
	// by the coordinator is separate and usually shorter.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "refsearch/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ProviderConfig holds settings passed to provider adapters.
type ProviderConfig struct {
	HTTPConfig `yaml:",inline"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// OpenAlexEmail is sent as the mailto parameter for polite pool access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`
}

// AggregationConfig holds settings for the aggregation engine.
type AggregationConfig struct {
	// MaxResults is the default maximum number of merged references to
	// return (1-100, default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// PerProviderTimeout bounds each provider call independently. A provider
	// that misses its deadline is recorded as a timeout failure without
	// delaying the others (default 4s).
	PerProviderTimeout time.Duration `json:"per_provider_timeout" yaml:"per_provider_timeout"`

	// SourcePriority is the trust order used by the merger when several
	// sources disagree on a field. Earlier entries win.
	SourcePriority []ProviderName `json:"source_priority,omitempty" yaml:"source_priority,omitempty"`

	// Providers limits which adapters are queried. Empty means all.
	Providers []ProviderName `json:"providers,omitempty" yaml:"providers,omitempty"`
}

// DefaultSourcePriority is the default merge trust order: the native CS
// bibliography first, then the academic graph, the open index, and the
// preprint repository last.
var DefaultSourcePriority = []ProviderName{
	ProviderDBLP,
	ProviderSemanticScholar,
	ProviderOpenAlex,
	ProviderArxiv,
}

// CacheConfig holds settings for the in-memory response cache.
type CacheConfig struct {
	// Enabled turns the cache on. The cache is an optimization; responses
	// are identical with it off.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// TTL is how long a cached response stays valid (default 10m).
	TTL time.Duration `json:"ttl" yaml:"ttl"`

	// MaxEntries bounds the cache size (default 100). The entries closest
	// to expiry are evicted first.
	MaxEntries int `json:"max_entries" yaml:"max_entries"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`
}

// Config groups all component configurations.
type Config struct {
	Provider    ProviderConfig    `json:"provider" yaml:"provider"`
	Aggregation AggregationConfig `json:"aggregation" yaml:"aggregation"`
	Cache       CacheConfig       `json:"cache" yaml:"cache"`
	Server      ServerConfig      `json:"server" yaml:"server"`
}
