// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// NormalizeDOI lowercases a DOI and strips resolver prefixes so DOIs from
// different providers compare equal.
func NormalizeDOI(doi string) string {
	doi = strings.ToLower(strings.TrimSpace(doi))
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "doi:"} {
		if strings.HasPrefix(doi, prefix) {
			doi = doi[len(prefix):]
			break
		}
	}
	return doi
}

// NormalizeArxivID strips the version suffix from an arXiv id
// ("1706.03762v5" → "1706.03762").
func NormalizeArxivID(id string) string {
	id = strings.TrimSpace(id)
	if idx := strings.LastIndex(id, "v"); idx > 0 {
		if isDigits(id[idx+1:]) {
			id = id[:idx]
		}
	}
	return id
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
