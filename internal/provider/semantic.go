// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/refsearch/internal/httputil"
	"github.com/pdiddy/refsearch/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "paperId,title,abstract,authors,externalIds,year,publicationDate,venue,url"

// semanticMaxPerQuery caps a single Semantic Scholar request.
const semanticMaxPerQuery = 100

// SemanticScholarProvider queries the Semantic Scholar academic graph.
type SemanticScholarProvider struct {
	Client *http.Client
}

// Name returns the provider identifier.
func (p *SemanticScholarProvider) Name() types.ProviderName { return types.ProviderSemanticScholar }

// Search queries the Semantic Scholar API and returns raw records. Rate
// limiting is retried with backoff inside this call's own deadline budget.
// A year filter uses the API's open-ended year range parameter; an author
// filter is folded into the query text since paper search has no structured
// author parameter.
func (p *SemanticScholarProvider) Search(ctx context.Context, q types.SearchQuery, limit int, cfg types.ProviderConfig) ([]types.RawRecord, error) {
	if limit <= 0 || limit > semanticMaxPerQuery {
		limit = semanticMaxPerQuery
	}

	text := q.Text
	if q.Author != "" {
		text += " " + q.Author
	}
	params := url.Values{
		"query":  {text},
		"limit":  {strconv.Itoa(limit)},
		"fields": {semanticFields},
	}
	if q.Year > 0 {
		params.Set("year", fmt.Sprintf("%d-", q.Year))
	}
	reqURL := semanticAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	if cfg.SemanticScholarAPIKey != "" {
		req.Header.Set("x-api-key", cfg.SemanticScholarAPIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, 0)
	if err != nil {
		return nil, &SearchError{Kind: types.FailTransport, Err: fmt.Errorf("Semantic Scholar API request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &SearchError{Kind: types.FailRateLimited, Err: fmt.Errorf("Semantic Scholar rate limit exceeded (HTTP 429)")}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &SearchError{Kind: types.FailTransport, Err: fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)}
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	total := len(sr.Data)
	var records []types.RawRecord
	for i, paper := range sr.Data {
		if paper.Title == "" {
			continue
		}

		r := types.RawRecord{
			Source:   types.ProviderSemanticScholar,
			Title:    paper.Title,
			Abstract: paper.Abstract,
			Venue:    paper.Venue,
			DOI:      types.NormalizeDOI(paper.ExternalIDs.DOI),
			ArxivID:  types.NormalizeArxivID(paper.ExternalIDs.ArXiv),
			NativeID: paper.PaperID,
			URL:      paper.URL,
		}

		for _, a := range paper.Authors {
			if a.Name != "" {
				r.Authors = append(r.Authors, a.Name)
			}
		}

		if paper.Year > 0 {
			r.Year = paper.Year
		} else if len(paper.PublicationDate) >= 4 {
			if y, convErr := strconv.Atoi(paper.PublicationDate[:4]); convErr == nil {
				r.Year = y
			}
		}

		// Position-based score; the API returns results sorted by relevance.
		if total > 1 {
			r.Score = 1.0 - float64(i)/float64(total-1)*0.9
		} else {
			r.Score = 1.0
		}

		records = append(records, r)
	}
	return records, nil
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Data   []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID         string              `json:"paperId"`
	Title           string              `json:"title"`
	Abstract        string              `json:"abstract"`
	Year            int                 `json:"year"`
	PublicationDate string              `json:"publicationDate"`
	Venue           string              `json:"venue"`
	URL             string              `json:"url"`
	Authors         []semanticAuthor    `json:"authors"`
	ExternalIDs     semanticExternalIDs `json:"externalIds"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}
