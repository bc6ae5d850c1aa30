package citecheck

import (
	"regexp"
	"strings"
)

var wordRE = regexp.MustCompile(`[A-Za-z0-9]+`)

// relevance scores how much a paper's title and abstract overlap with the
// claim text. Scores are in [0,1]; 0.5 means "nothing to compare against".
func relevance(claimText, paperText string) float64 {
	claimWords := keywords(claimText)
	if len(claimWords) == 0 {
		return 0.5
	}
	if strings.TrimSpace(paperText) == "" {
		return 0.3
	}

	paperWords := keywords(paperText)
	overlap := 0
	for w := range claimWords {
		if _, ok := paperWords[w]; ok {
			overlap++
		}
	}

	score := float64(overlap) / float64(len(claimWords))
	if score > 1 {
		score = 1
	}
	return score
}

// keywords lowercases and keeps words of four or more characters, dropping
// the short function words that would otherwise inflate overlap.
func keywords(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range wordRE.FindAllString(strings.ToLower(text), -1) {
		if len(w) >= 4 {
			out[w] = struct{}{}
		}
	}
	return out
}
