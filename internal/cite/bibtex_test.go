// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cite

import (
	"strings"
	"testing"

	"github.com/pdiddy/refsearch/pkg/types"
)

func TestEntryType(t *testing.T) {
	tests := []struct {
		venue string
		want  string
	}{
		{"", "misc"},
		{"Journal of Machine Learning Research", "article"},
		{"IEEE Transactions on Neural Networks", "article"},
		{"Communications Magazine", "article"},
		{"NIPS", "inproceedings"},
		{"International Conference on Learning Representations", "inproceedings"},
	}
	for _, tt := range tests {
		t.Run(tt.venue, func(t *testing.T) {
			if got := entryType(tt.venue); got != tt.want {
				t.Errorf("entryType(%q) = %q, want %q", tt.venue, got, tt.want)
			}
		})
	}
}

func TestCitationKeyStem(t *testing.T) {
	tests := []struct {
		name string
		ref  types.Reference
		want string
	}{
		{
			name: "surname year word",
			ref:  types.Reference{Authors: []string{"Ashish Vaswani"}, Year: 2017, Title: "Attention Is All You Need"},
			want: "vaswani2017attention",
		},
		{
			name: "leading stopword skipped",
			ref:  types.Reference{Authors: []string{"Jane Doe"}, Year: 2020, Title: "A Survey of Things"},
			want: "doe2020survey",
		},
		{
			name: "all stopwords falls back to first token",
			ref:  types.Reference{Authors: []string{"Jane Doe"}, Year: 2020, Title: "On and On"},
			want: "doe2020on",
		},
		{
			name: "diacritics folded",
			ref:  types.Reference{Authors: []string{"Hans Müller"}, Year: 2019, Title: "Größe Matters"},
			want: "muller2019groe",
		},
		{
			name: "no author",
			ref:  types.Reference{Year: 2021, Title: "Anonymous Findings"},
			want: "2021anonymous",
		},
		{
			name: "nothing at all",
			ref:  types.Reference{},
			want: "ref",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := citationKeyStem(tt.ref); got != tt.want {
				t.Errorf("citationKeyStem() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatterKeyCollisions(t *testing.T) {
	f := NewFormatter()
	ref := types.Reference{Authors: []string{"Kim Lee"}, Year: 2020, Title: "Survey Methods"}

	first := f.Format(ref)
	second := f.Format(ref)
	third := f.Format(ref)

	if first.CitationKey != "lee2020survey" {
		t.Errorf("first key = %q", first.CitationKey)
	}
	if second.CitationKey != "lee2020surveyb" {
		t.Errorf("second key = %q, want b suffix", second.CitationKey)
	}
	if third.CitationKey != "lee2020surveyc" {
		t.Errorf("third key = %q, want c suffix", third.CitationKey)
	}
}

func TestRenderBibTeXConference(t *testing.T) {
	f := NewFormatter()
	ref := f.Format(types.Reference{
		Title:   "Attention is All you Need.",
		Authors: []string{"Ashish Vaswani", "Noam Shazeer"},
		Year:    2017,
		Venue:   "NIPS",
		Volume:  "30",
		Pages:   "5998-6008",
		DOI:     "10.5555/3295222.3295349",
		ArxivID: "1706.03762",
		PrimaryClass: "cs.CL",
	})

	if ref.EntryType != "inproceedings" {
		t.Fatalf("EntryType = %q, want inproceedings", ref.EntryType)
	}

	want := "@inproceedings{vaswani2017attention,\n" +
		"  title = {Attention is All you Need.},\n" +
		"  author = {Ashish Vaswani and Noam Shazeer},\n" +
		"  year = {2017},\n" +
		"  booktitle = {NIPS},\n" +
		"  volume = {30},\n" +
		"  pages = {5998-6008},\n" +
		"  doi = {10.5555/3295222.3295349},\n" +
		"  eprint = {1706.03762},\n" +
		"  archivePrefix = {arXiv},\n" +
		"  primaryClass = {cs.CL}\n" +
		"}"
	if ref.BibTeX != want {
		t.Errorf("BibTeX =\n%s\nwant\n%s", ref.BibTeX, want)
	}
}

func TestRenderBibTeXJournalUsesJournalField(t *testing.T) {
	f := NewFormatter()
	ref := f.Format(types.Reference{
		Title:   "Some Results",
		Authors: []string{"Ada Solo"},
		Year:    2019,
		Venue:   "IEEE Transactions on Neural Networks",
	})

	if !strings.Contains(ref.BibTeX, "journal = {IEEE Transactions on Neural Networks}") {
		t.Errorf("BibTeX missing journal field:\n%s", ref.BibTeX)
	}
	if strings.Contains(ref.BibTeX, "booktitle") {
		t.Errorf("article entry must not have booktitle:\n%s", ref.BibTeX)
	}
}

func TestRenderBibTeXMiscOmitsEmptyFields(t *testing.T) {
	f := NewFormatter()
	ref := f.Format(types.Reference{
		Title:   "A Preprint",
		Authors: []string{"Jane Doe"},
		Year:    2023,
		ArxivID: "2301.00001",
	})

	if ref.EntryType != "misc" {
		t.Fatalf("EntryType = %q, want misc", ref.EntryType)
	}
	for _, absent := range []string{"journal", "booktitle", "volume", "pages", "doi"} {
		if strings.Contains(ref.BibTeX, absent+" = ") {
			t.Errorf("misc entry should omit %s:\n%s", absent, ref.BibTeX)
		}
	}
	if !strings.Contains(ref.BibTeX, "eprint = {2301.00001}") {
		t.Errorf("missing eprint:\n%s", ref.BibTeX)
	}
	// No primary class known; the arXiv block still carries the prefix.
	if !strings.Contains(ref.BibTeX, "archivePrefix = {arXiv}") {
		t.Errorf("missing archivePrefix:\n%s", ref.BibTeX)
	}
}

func TestRenderBibTeXEscapesSpecials(t *testing.T) {
	f := NewFormatter()
	ref := f.Format(types.Reference{
		Title: "Profit & Loss: 100% of $5 #1 a_b {braces} ~x ^y",
		Year:  2020,
	})

	for _, want := range []string{`\&`, `\%`, `\$`, `\#`, `\_`, `\{braces\}`, `\textasciitilde{}`, `\textasciicircum{}`} {
		if !strings.Contains(ref.BibTeX, want) {
			t.Errorf("BibTeX missing escape %q:\n%s", want, ref.BibTeX)
		}
	}
}

func TestFormatAllAssignsUniqueKeys(t *testing.T) {
	refs := []types.Reference{
		{Authors: []string{"Kim Lee"}, Year: 2020, Title: "Survey One"},
		{Authors: []string{"Pat Lee"}, Year: 2020, Title: "Survey Two"},
	}

	out := NewFormatter().FormatAll(refs)
	if out[0].CitationKey == out[1].CitationKey {
		t.Errorf("keys must be unique, both = %q", out[0].CitationKey)
	}
	if out[0].CitationKey != "lee2020survey" || out[1].CitationKey != "lee2020surveyb" {
		t.Errorf("keys = %q, %q", out[0].CitationKey, out[1].CitationKey)
	}
}
