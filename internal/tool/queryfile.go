// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tool

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/refsearch/pkg/types"
)

// QueryFile is the on-disk representation of a search and its results. A
// search saved to a file can be reloaded and re-formatted later without
// re-querying the providers.
type QueryFile struct {
	Query   QueryParams       `yaml:"query"`
	Results []types.Reference `yaml:"results"`
	Summary QuerySummary      `yaml:"summary"`
}

// QueryParams stores the request parameters in a serializable form.
type QueryParams struct {
	Query      string               `yaml:"query"`
	MaxResults int                  `yaml:"max_results,omitempty"`
	Providers  []types.ProviderName `yaml:"providers,omitempty"`
	Year       int                  `yaml:"year,omitempty"`
	Author     string               `yaml:"author,omitempty"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	Total     int                                      `yaml:"total"`
	Providers []types.ProviderName                     `yaml:"providers"`
	Failures  map[types.ProviderName]types.FailureKind `yaml:"failures,omitempty"`
	Timestamp time.Time                                `yaml:"timestamp"`
}

// WriteQueryFile saves a request and its results to a YAML file.
func WriteQueryFile(path string, in Input, out Output) error {
	qf := QueryFile{
		Query: QueryParams{
			Query:      in.Query,
			MaxResults: in.MaxResults,
			Providers:  in.Providers,
			Year:       in.Year,
			Author:     in.Author,
		},
		Results: out.References,
		Summary: QuerySummary{
			Total:     out.TotalFound,
			Providers: out.ProvidersUsed,
			Failures:  out.Failures,
			Timestamp: time.Now(),
		},
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}

// ToInput converts stored QueryParams back into a request.
func (p QueryParams) ToInput() Input {
	return Input{
		Query:      p.Query,
		MaxResults: p.MaxResults,
		Providers:  p.Providers,
		Year:       p.Year,
		Author:     p.Author,
	}
}
