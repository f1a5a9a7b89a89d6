// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package api registers the HTTP routes for the reference search service.
package api

import (
	"context"
	"errors"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pdiddy/refsearch/internal/tool"
	"github.com/pdiddy/refsearch/pkg/types"
)

type PlainOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

type SearchInput struct {
	Query      string `query:"q" required:"true" doc:"Free-text bibliographic query"`
	MaxResults int    `query:"max_results" default:"20" minimum:"1" maximum:"100" doc:"Maximum number of merged references"`
	Providers  string `query:"providers" doc:"Comma-separated provider subset (default: all)"`
	Year       int    `query:"year" minimum:"0" doc:"Only papers published in or after this year"`
	Author     string `query:"author" doc:"Only papers by authors matching this name"`
}

type SearchOutput struct {
	Body tool.Output
}

type ProvidersOutput struct {
	Body struct {
		Providers []types.ProviderName `json:"providers"`
	}
}

// Setup registers the routes on api, backed by s.
func Setup(api huma.API, s *tool.Searcher) {
	huma.Register(api, huma.Operation{
		OperationID: "HealthCheck",
		Method:      "GET",
		Path:        "/healthz",
		Summary:     "Health check",
		Description: "Check if the API is running",
		Tags:        []string{"Health"},
	}, func(ctx context.Context, input *struct{}) (*PlainOutput, error) {
		return &PlainOutput{
			ContentType: "text/plain",
			Body:        []byte("OK"),
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "SearchReferences",
		Method:      "GET",
		Path:        "/v1/search",
		Summary:     "Search references",
		Description: "Search academic providers and return merged, ranked references with BibTeX entries",
		Tags:        []string{"Search"},
	}, func(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
		in := tool.Input{
			Query:      input.Query,
			MaxResults: input.MaxResults,
			Providers:  parseProviders(input.Providers),
			Year:       input.Year,
			Author:     input.Author,
		}
		out, err := s.Search(ctx, in)
		if err != nil {
			switch {
			case errors.Is(err, tool.ErrInvalidQuery):
				return nil, huma.Error422UnprocessableEntity("query must not be empty")
			case errors.Is(err, tool.ErrAllProvidersFailed):
				return nil, huma.Error502BadGateway("all providers failed", err)
			default:
				return nil, huma.Error400BadRequest("invalid search request", err)
			}
		}
		return &SearchOutput{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "ListProviders",
		Method:      "GET",
		Path:        "/v1/providers",
		Summary:     "List providers",
		Description: "List the academic search providers this service can query",
		Tags:        []string{"Search"},
	}, func(ctx context.Context, input *struct{}) (*ProvidersOutput, error) {
		resp := &ProvidersOutput{}
		resp.Body.Providers = types.ProviderOrder
		return resp, nil
	})
}

func parseProviders(s string) []types.ProviderName {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var names []types.ProviderName
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, types.ProviderName(part))
		}
	}
	return names
}
