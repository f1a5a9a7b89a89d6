// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/refsearch/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// arxivMaxPerQuery caps a single arXiv request.
const arxivMaxPerQuery = 50

// ArxivProvider queries the arXiv preprint repository.
type ArxivProvider struct {
	Client *http.Client
}

// Name returns the provider identifier.
func (p *ArxivProvider) Name() types.ProviderName { return types.ProviderArxiv }

// Search queries the arXiv Atom API and returns raw records. An author
// filter uses the au: field prefix; a year filter becomes an open-ended
// submittedDate range.
func (p *ArxivProvider) Search(ctx context.Context, q types.SearchQuery, limit int, cfg types.ProviderConfig) ([]types.RawRecord, error) {
	if limit <= 0 || limit > arxivMaxPerQuery {
		limit = arxivMaxPerQuery
	}

	parts := []string{"all:" + url.QueryEscape(strings.Join(strings.Fields(q.Text), " "))}
	if q.Author != "" {
		parts = append(parts, "au:"+url.QueryEscape(q.Author))
	}
	searchQuery := strings.Join(parts, "+AND+")
	if q.Year > 0 {
		searchQuery += fmt.Sprintf("+AND+submittedDate:[%d0101+TO+*]", q.Year)
	}
	reqURL := fmt.Sprintf("%s?search_query=%s&start=0&max_results=%d&sortBy=relevance&sortOrder=descending",
		arxivAPIBase, searchQuery, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, &SearchError{Kind: types.FailTransport, Err: fmt.Errorf("arXiv API request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &SearchError{Kind: types.FailRateLimited, Err: fmt.Errorf("arXiv API returned HTTP 429")}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &SearchError{Kind: types.FailTransport, Err: fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)}
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	total := len(feed.Entries)
	var records []types.RawRecord
	for i, entry := range feed.Entries {
		arxivID := extractArxivID(entry.ID)
		if arxivID == "" {
			continue
		}

		r := types.RawRecord{
			Source:   types.ProviderArxiv,
			Title:    collapseWhitespace(entry.Title),
			Abstract: strings.TrimSpace(entry.Summary),
			ArxivID:  arxivID,
			URL:      "https://arxiv.org/abs/" + arxivID,
		}

		for _, a := range entry.Authors {
			r.Authors = append(r.Authors, strings.TrimSpace(a.Name))
		}

		if len(entry.Published) >= 4 {
			if y, convErr := strconv.Atoi(entry.Published[:4]); convErr == nil {
				r.Year = y
			}
		}

		if entry.PrimaryCategory.Term != "" {
			r.PrimaryClass = entry.PrimaryCategory.Term
		} else if len(entry.Categories) > 0 {
			r.PrimaryClass = entry.Categories[0].Term
		}

		// Position-based score; the feed is sorted by relevance.
		if total > 1 {
			r.Score = 1.0 - float64(i)/float64(total-1)*0.9
		} else {
			r.Score = 1.0
		}

		records = append(records, r)
	}
	return records, nil
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID              string          `xml:"id"`
	Title           string          `xml:"title"`
	Summary         string          `xml:"summary"`
	Published       string          `xml:"published"`
	Authors         []arxivAuthor   `xml:"author"`
	PrimaryCategory arxivCategory   `xml:"primary_category"`
	Categories      []arxivCategory `xml:"category"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/1706.03762v5" → "1706.03762").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}

// collapseWhitespace trims a string and folds internal whitespace runs
// (arXiv titles wrap across feed lines).
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
