package pipeline

import (
	"regexp"
	"sort"
	"strings"
)

// CitationExtractFunc returns the distinct citations of a text in order of appearance
type CitationExtractFunc func(text string) []string

// Citation patterns, most specific first. A match overlapping an earlier
// match is dropped, so "35 U.S.C. § 101" is not also reported as "§ 101".
var citationPatterns = []*regexp.Regexp{
	// 35 U.S.C. § 101, 42 U.S.C. §§ 1983(a)
	regexp.MustCompile(`\b\d{1,2}\s+U\.\s?S\.\s?C\.(?:\s?A\.)?\s*§{1,2}\s*\d+[a-z]?(?:\([a-zA-Z0-9]+\))*`),
	// 37 C.F.R. § 1.56, 17 C.F.R. 240.10b-5
	regexp.MustCompile(`\b\d{1,2}\s+C\.\s?F\.\s?R\.\s*(?:§{1,2}\s*)?\d+(?:\.[0-9a-z\-]+)?(?:\([a-zA-Z0-9]+\))*`),
	// 573 U.S. 208, 134 S. Ct. 2347, 717 F.3d 1269, 55 F. Supp. 3d 1012, 189 L. Ed. 2d 296
	regexp.MustCompile(`\b\d{1,4}\s+(?:U\.\s?S\.|S\.\s?Ct\.|L\.\s?Ed\.(?:\s?2d)?|F\.\s?Supp\.(?:\s?(?:2d|3d))?|F\.(?:\s?(?:2d|3d|4th))?|Fed\.\s?Cl\.|B\.R\.)\s+\d{1,5}\b`),
	// § 2-207, §§ 5-701(a)
	regexp.MustCompile(`§{1,2}\s*\d+(?:[.\-]\d+)*[a-z]?(?:\([a-zA-Z0-9]+\))*`),
}

var spaces = regexp.MustCompile(`\s+`)

// ExtractCitations finds U.S. reporter citations, U.S.C. and C.F.R. sections
// and bare section references.
func ExtractCitations(text string) []string {
	type span struct {
		start, end int
		value      string
	}

	var spans []span
	overlaps := func(start, end int) bool {
		for _, s := range spans {
			if start < s.end && s.start < end {
				return true
			}
		}
		return false
	}

	for _, pattern := range citationPatterns {
		for _, loc := range pattern.FindAllStringIndex(text, -1) {
			if overlaps(loc[0], loc[1]) {
				continue
			}
			value := spaces.ReplaceAllString(strings.TrimSpace(text[loc[0]:loc[1]]), " ")
			spans = append(spans, span{start: loc[0], end: loc[1], value: value})
		}
	}

	sort.Slice(spans, func(i, j int) bool {
		return spans[i].start < spans[j].start
	})

	seen := map[string]bool{}
	citations := []string{}
	for _, s := range spans {
		if !seen[s.value] {
			seen[s.value] = true
			citations = append(citations, s.value)
		}
	}

	return citations
}
