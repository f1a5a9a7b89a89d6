// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/refsearch/pkg/types"
)

// dblpAPIBase is the DBLP publication search endpoint. Declared as a var so
// tests can substitute an httptest server.
var dblpAPIBase = "https://dblp.org/search/publ/api"

// dblpMaxPerQuery caps a single DBLP request.
const dblpMaxPerQuery = 100

// DBLPProvider queries the DBLP computer science bibliography.
type DBLPProvider struct {
	Client *http.Client
}

// Name returns the provider identifier.
func (p *DBLPProvider) Name() types.ProviderName { return types.ProviderDBLP }

// Search queries the DBLP API and returns raw records. DBLP has no
// structured filter parameters, so author and year filters are folded into
// the free-text query.
func (p *DBLPProvider) Search(ctx context.Context, q types.SearchQuery, limit int, cfg types.ProviderConfig) ([]types.RawRecord, error) {
	if limit <= 0 || limit > dblpMaxPerQuery {
		limit = dblpMaxPerQuery
	}

	text := q.Text
	if q.Author != "" {
		text += " " + q.Author
	}
	if q.Year > 0 {
		text += " " + strconv.Itoa(q.Year)
	}
	params := url.Values{
		"q":      {text},
		"h":      {strconv.Itoa(limit)},
		"format": {"json"},
	}
	reqURL := dblpAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, &SearchError{Kind: types.FailTransport, Err: fmt.Errorf("DBLP API request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &SearchError{Kind: types.FailRateLimited, Err: fmt.Errorf("DBLP API returned HTTP 429")}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &SearchError{Kind: types.FailTransport, Err: fmt.Errorf("DBLP API returned HTTP %d", resp.StatusCode)}
	}

	var dr dblpResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("parsing DBLP response: %w", err)
	}

	var records []types.RawRecord
	for _, hit := range dr.Result.Hits.Hit {
		info := hit.Info
		if info.Title == "" {
			continue
		}

		r := types.RawRecord{
			Source:   types.ProviderDBLP,
			Title:    collapseWhitespace(info.Title),
			Venue:    info.Venue.First(),
			Volume:   info.Volume,
			Pages:    info.Pages,
			DOI:      types.NormalizeDOI(info.DOI),
			NativeID: info.Key,
			URL:      info.URL,
		}

		for _, a := range info.Authors.Author {
			if a.Text != "" {
				r.Authors = append(r.Authors, a.Text)
			}
		}

		if y, convErr := strconv.Atoi(info.Year); convErr == nil {
			r.Year = y
		}

		if s, convErr := strconv.ParseFloat(hit.Score, 64); convErr == nil {
			r.Score = s
		}

		records = append(records, r)
	}
	return records, nil
}

// DBLP API JSON structures. The API collapses single-element lists into bare
// objects, so authors and venue need tolerant decoding.
type dblpResponse struct {
	Result struct {
		Hits struct {
			Hit []dblpHit `json:"hit"`
		} `json:"hits"`
	} `json:"result"`
}

type dblpHit struct {
	Score string   `json:"@score"`
	Info  dblpInfo `json:"info"`
}

type dblpInfo struct {
	Title   string         `json:"title"`
	Authors dblpAuthorList `json:"authors"`
	Year    string         `json:"year"`
	Type    string         `json:"type"`
	Key     string         `json:"key"`
	DOI     string         `json:"doi"`
	Venue   dblpStrings    `json:"venue"`
	Volume  string         `json:"volume"`
	Pages   string         `json:"pages"`
	URL     string         `json:"url"`
}

type dblpAuthorList struct {
	Author []dblpAuthor `json:"author"`
}

type dblpAuthor struct {
	Text string `json:"text"`
}

// UnmarshalJSON accepts both a single author object and an author array.
func (l *dblpAuthorList) UnmarshalJSON(data []byte) error {
	var multi struct {
		Author []dblpAuthor `json:"author"`
	}
	if err := json.Unmarshal(data, &multi); err == nil {
		l.Author = multi.Author
		return nil
	}
	var single struct {
		Author dblpAuthor `json:"author"`
	}
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	l.Author = []dblpAuthor{single.Author}
	return nil
}

// dblpStrings decodes a JSON value that is either a string or a string array.
type dblpStrings []string

func (s *dblpStrings) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = dblpStrings{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = dblpStrings(many)
	return nil
}

// First returns the first element or "".
func (s dblpStrings) First() string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
