// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cite renders canonical references as citation entries.
// See docs/ARCHITECTURE.md § Citation Formatting.
package cite

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/refsearch/pkg/types"
)

// journalKeywords mark a venue as a journal. Any other non-empty venue is
// treated as a conference or proceedings.
var journalKeywords = []string{"journal", "transactions", "magazine"}

// keyStopwords are skipped when picking the first significant title word for
// the citation key. A title made only of stopwords falls back to its first
// word.
var keyStopwords = map[string]bool{
	"a": true, "an": true, "the": true,
	"on": true, "of": true, "in": true, "for": true, "with": true,
	"to": true, "and": true, "or": true, "from": true, "at": true, "by": true,
	"is": true, "are": true, "do": true, "does": true, "can": true,
	"towards": true, "toward": true, "about": true,
}

// Formatter renders references into BibTeX. Citation keys are unique within
// one Formatter, which scopes them to one response: a collision gets a
// letter suffix ("b", "c", ...) in assignment order.
type Formatter struct {
	used map[string]int
}

// NewFormatter returns a Formatter with an empty key space.
func NewFormatter() *Formatter {
	return &Formatter{used: make(map[string]int)}
}

// Format populates EntryType, CitationKey, and BibTeX, returning the updated
// reference. It cannot fail for a well-formed reference: absent fields are
// simply omitted from the rendering.
func (f *Formatter) Format(ref types.Reference) types.Reference {
	ref.EntryType = entryType(ref.Venue)
	ref.CitationKey = f.assignKey(citationKeyStem(ref))
	ref.BibTeX = renderBibTeX(ref)
	return ref
}

// FormatAll formats references in place, in order, so key collisions resolve
// deterministically by rank position.
func (f *Formatter) FormatAll(refs []types.Reference) []types.Reference {
	for i := range refs {
		refs[i] = f.Format(refs[i])
	}
	return refs
}

// entryType derives the BibTeX entry type from the venue: journal-flavored
// venues are articles, any other venue is a conference entry, and a missing
// venue means the record is only identifiable as misc (typically a preprint).
func entryType(venue string) string {
	if venue == "" {
		return "misc"
	}
	lower := strings.ToLower(venue)
	for _, kw := range journalKeywords {
		if strings.Contains(lower, kw) {
			return "article"
		}
	}
	return "inproceedings"
}

// citationKeyStem builds lowercase(first author surname) + year + first
// significant title word, ASCII-folded.
func citationKeyStem(ref types.Reference) string {
	var b strings.Builder

	if len(ref.Authors) > 0 {
		parts := strings.Fields(ref.Authors[0])
		if len(parts) > 0 {
			b.WriteString(asciiFold(strings.ToLower(parts[len(parts)-1])))
		}
	}
	if ref.Year > 0 {
		b.WriteString(strconv.Itoa(ref.Year))
	}
	b.WriteString(asciiFold(firstSignificantWord(ref.Title)))

	if b.Len() == 0 {
		return "ref"
	}
	return b.String()
}

// firstSignificantWord returns the first normalized title token that is not
// a stopword, or the first token when every token is one.
func firstSignificantWord(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	tokens := strings.Fields(b.String())
	if len(tokens) == 0 {
		return ""
	}
	for _, t := range tokens {
		if !keyStopwords[t] {
			return t
		}
	}
	return tokens[0]
}

// assignKey makes stem unique within the formatter. The first holder keeps
// the bare stem; later collisions get "b", "c", ... suffixes.
func (f *Formatter) assignKey(stem string) string {
	n := f.used[stem]
	f.used[stem] = n + 1
	if n == 0 {
		return stem
	}
	return stem + string(rune('a'+n))
}

// asciiFold strips diacritics and drops non-ASCII-alphanumeric runes
// ("Müller" → "muller").
func asciiFold(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue // combining marks left over from decomposition
		}
		if r < 128 && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// bibtexEscaper escapes characters that are special in BibTeX/LaTeX values.
var bibtexEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
)

// renderBibTeX emits the entry with only the non-empty fields, in fixed
// order: title, author, year, journal|booktitle, volume, pages, doi, eprint,
// archivePrefix, primaryClass.
func renderBibTeX(ref types.Reference) string {
	var b strings.Builder
	fmt.Fprintf(&b, "@%s{%s", ref.EntryType, ref.CitationKey)

	field := func(name, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, ",\n  %s = {%s}", name, bibtexEscaper.Replace(value))
	}

	field("title", ref.Title)
	field("author", strings.Join(ref.Authors, " and "))
	if ref.Year > 0 {
		field("year", strconv.Itoa(ref.Year))
	}
	switch ref.EntryType {
	case "article":
		field("journal", ref.Venue)
	case "inproceedings":
		field("booktitle", ref.Venue)
	}
	field("volume", ref.Volume)
	field("pages", ref.Pages)
	field("doi", ref.DOI)
	if ref.ArxivID != "" {
		field("eprint", ref.ArxivID)
		field("archivePrefix", "arXiv")
		field("primaryClass", ref.PrimaryClass)
	}

	b.WriteString("\n}")
	return b.String()
}
