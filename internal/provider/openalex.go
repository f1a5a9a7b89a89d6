// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/refsearch/pkg/types"
)

// openAlexAPIBase is the OpenAlex Works search endpoint. Declared as a var
// so tests can substitute an httptest server.
var openAlexAPIBase = "https://api.openalex.org/works"

// openAlexMaxPerQuery caps a single OpenAlex request.
const openAlexMaxPerQuery = 100

// OpenAlexProvider queries the OpenAlex open scholarly index.
type OpenAlexProvider struct {
	Client *http.Client
}

// Name returns the provider identifier.
func (p *OpenAlexProvider) Name() types.ProviderName { return types.ProviderOpenAlex }

// Search queries the OpenAlex API and returns raw records. Year and author
// filters map onto the works filter parameter.
func (p *OpenAlexProvider) Search(ctx context.Context, q types.SearchQuery, limit int, cfg types.ProviderConfig) ([]types.RawRecord, error) {
	if limit <= 0 || limit > openAlexMaxPerQuery {
		limit = openAlexMaxPerQuery
	}

	params := url.Values{
		"search":   {q.Text},
		"per_page": {strconv.Itoa(limit)},
		"page":     {"1"},
	}
	var filters []string
	if q.Year > 0 {
		filters = append(filters, fmt.Sprintf("publication_year:>%d", q.Year-1))
	}
	if q.Author != "" {
		filters = append(filters, fmt.Sprintf("authorships.author.display_name.search:%q", q.Author))
	}
	if len(filters) > 0 {
		params.Set("filter", strings.Join(filters, ","))
	}
	if cfg.OpenAlexEmail != "" {
		params.Set("mailto", cfg.OpenAlexEmail)
	}
	reqURL := openAlexAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, &SearchError{Kind: types.FailTransport, Err: fmt.Errorf("OpenAlex API request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &SearchError{Kind: types.FailRateLimited, Err: fmt.Errorf("OpenAlex API returned HTTP 429")}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &SearchError{Kind: types.FailTransport, Err: fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)}
	}

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
	}

	total := len(oar.Results)
	var records []types.RawRecord
	for i, work := range oar.Results {
		if work.Title == "" {
			continue
		}

		r := types.RawRecord{
			Source:   types.ProviderOpenAlex,
			Title:    work.Title,
			Year:     work.PublicationYear,
			DOI:      types.NormalizeDOI(work.DOI),
			NativeID: work.ID,
			Abstract: reconstructAbstract(work.AbstractInvertedIndex),
			URL:      work.ID,
			Volume:   work.Biblio.Volume,
		}

		if work.PrimaryLocation.Source.DisplayName != "" {
			r.Venue = work.PrimaryLocation.Source.DisplayName
		}

		if work.Biblio.FirstPage != "" && work.Biblio.LastPage != "" {
			r.Pages = work.Biblio.FirstPage + "-" + work.Biblio.LastPage
		} else if work.Biblio.FirstPage != "" {
			r.Pages = work.Biblio.FirstPage
		}

		for _, authorship := range work.Authorships {
			if authorship.Author.DisplayName != "" {
				r.Authors = append(r.Authors, authorship.Author.DisplayName)
			}
		}

		// Position-based score; OpenAlex sorts by relevance by default.
		if total > 1 {
			r.Score = 1.0 - float64(i)/float64(total-1)*0.9
		} else {
			r.Score = 1.0
		}

		records = append(records, r)
	}
	return records, nil
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to the positions where that
// word appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Meta    openAlexMeta   `json:"meta"`
	Results []openAlexWork `json:"results"`
}

type openAlexMeta struct {
	Count   int `json:"count"`
	PerPage int `json:"per_page"`
	Page    int `json:"page"`
}

type openAlexWork struct {
	ID                    string           `json:"id"`
	Title                 string           `json:"title"`
	DOI                   string           `json:"doi"`
	PublicationYear       int              `json:"publication_year"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
	PrimaryLocation       openAlexLocation `json:"primary_location"`
	Biblio                openAlexBiblio   `json:"biblio"`
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type openAlexLocation struct {
	Source openAlexSource `json:"source"`
}

type openAlexSource struct {
	DisplayName string `json:"display_name"`
}

type openAlexBiblio struct {
	Volume    string `json:"volume"`
	Issue     string `json:"issue"`
	FirstPage string `json:"first_page"`
	LastPage  string `json:"last_page"`
}
