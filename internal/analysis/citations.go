package analysis

import (
	"regexp"
	"sort"
	"strings"
)

// CitationExtractor matches APA, MLA, IEEE, URL and DOI references.
type CitationExtractor struct {
	apaRegex  *regexp.Regexp
	mlaRegex  *regexp.Regexp
	ieeeRegex *regexp.Regexp
	urlRegex  *regexp.Regexp
	doiRegex  *regexp.Regexp
}

// NewCitationExtractor compiles the citation patterns.
func NewCitationExtractor() *CitationExtractor {
	return &CitationExtractor{
		// Smith (2021), Smith et al. (2021), Smith and Jones (2021)
		apaRegex: regexp.MustCompile(
			`([A-Z][a-z]+(?:\s+et\s+al\.)?(?:\s+and\s+[A-Z][a-z]+)?)\s*\((\d{4})\)`,
		),
		// Smith 2021, Smith et al. 2021
		mlaRegex: regexp.MustCompile(
			`([A-Z][a-z]+(?:\s+et\s+al\.)?)\s+(\d{4})\b`,
		),
		// [1], [23]
		ieeeRegex: regexp.MustCompile(`\[(\d+)\]`),
		urlRegex:  regexp.MustCompile(`https?://[^\s)]+`),
		doiRegex:  regexp.MustCompile(`(?i)doi:\s*([^\s)]+)`),
	}
}

// Extract returns all citations found in text, ordered by position.
// When an MLA-style match falls inside an APA span, the APA match wins.
func (e *CitationExtractor) Extract(text string) []Citation {
	var citations []Citation

	for _, m := range e.apaRegex.FindAllStringSubmatchIndex(text, -1) {
		citations = append(citations, Citation{
			Text:    text[m[0]:m[1]],
			Type:    CitationAPA,
			Authors: []string{strings.TrimSpace(text[m[2]:m[3]])},
			Year:    text[m[4]:m[5]],
			Start:   m[0],
			End:     m[1],
		})
	}

	for _, m := range e.mlaRegex.FindAllStringSubmatchIndex(text, -1) {
		if overlapsAny(citations, m[0], m[1]) {
			continue
		}
		citations = append(citations, Citation{
			Text:    text[m[0]:m[1]],
			Type:    CitationMLA,
			Authors: []string{strings.TrimSpace(text[m[2]:m[3]])},
			Year:    text[m[4]:m[5]],
			Start:   m[0],
			End:     m[1],
		})
	}

	for _, m := range e.ieeeRegex.FindAllStringSubmatchIndex(text, -1) {
		citations = append(citations, Citation{
			Text:      text[m[0]:m[1]],
			Type:      CitationIEEE,
			RefNumber: text[m[2]:m[3]],
			Start:     m[0],
			End:       m[1],
		})
	}

	for _, m := range e.urlRegex.FindAllStringIndex(text, -1) {
		raw := strings.TrimRight(text[m[0]:m[1]], ".,;")
		citations = append(citations, Citation{
			Text:  raw,
			Type:  CitationURL,
			URL:   raw,
			Start: m[0],
			End:   m[0] + len(raw),
		})
	}

	for _, m := range e.doiRegex.FindAllStringSubmatchIndex(text, -1) {
		citations = append(citations, Citation{
			Text:  text[m[0]:m[1]],
			Type:  CitationDOI,
			DOI:   strings.TrimRight(text[m[2]:m[3]], ".,;"),
			Start: m[0],
			End:   m[1],
		})
	}

	sort.SliceStable(citations, func(i, j int) bool {
		return citations[i].Start < citations[j].Start
	})

	return citations
}

// maxPairDistance is the furthest (in bytes) a citation can sit from a claim
// and still be attributed to it.
const maxPairDistance = 200

// PairClaims attributes each claim to its nearest citation within range.
func PairClaims(claims []Claim, citations []Citation) []Pair {
	pairs := make([]Pair, 0, len(claims))

	for _, claim := range claims {
		var (
			closest *Citation
			minDist = maxPairDistance
		)

		for i := range citations {
			c := &citations[i]
			dist := absInt(c.Start - claim.End)
			if inner := absInt(claim.Start - c.End); inner < dist {
				dist = inner
			}
			if c.Start >= claim.Start && c.End <= claim.End {
				dist = 0
			}
			if dist < minDist {
				minDist = dist
				closest = c
			}
		}

		if closest != nil {
			pairs = append(pairs, Pair{
				Claim:     claim,
				Citation:  closest,
				Proximity: 1.0 / (1.0 + float64(minDist)/100.0),
			})
		} else {
			pairs = append(pairs, Pair{Claim: claim})
		}
	}

	return pairs
}

func overlapsAny(citations []Citation, start, end int) bool {
	for _, c := range citations {
		if start < c.End && end > c.Start {
			return true
		}
	}
	return false
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
