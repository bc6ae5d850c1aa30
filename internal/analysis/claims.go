package analysis

import (
	"regexp"
	"strings"
	"unicode"
)

// ClaimExtractor finds sentences that assert something checkable.
type ClaimExtractor struct {
	indicators []*regexp.Regexp
}

// NewClaimExtractor builds the extractor with its factual-indicator patterns.
func NewClaimExtractor() *ClaimExtractor {
	patterns := []string{
		`\d+%`,                 // percentages
		`\d+\.\d+`,             // decimals
		`\b\d{4}\b`,            // years
		`(?i)according to`,     // reporting phrases
		`(?i)research shows`,
		`(?i)studies indicate`,
		`(?i)data suggests`,
		`(?i)evidence shows`,
	}

	indicators := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		indicators = append(indicators, regexp.MustCompile(p))
	}
	return &ClaimExtractor{indicators: indicators}
}

// Extract returns one claim per sentence that carries a factual indicator
// or a named-entity-looking token. Confidence is 0.7 when both fire, else 0.5.
func (e *ClaimExtractor) Extract(text string) []Claim {
	var claims []Claim

	for idx, s := range splitSentences(text) {
		factual := false
		for _, re := range e.indicators {
			if re.MatchString(s.text) {
				factual = true
				break
			}
		}

		entities := hasNamedEntity(s.text)
		if !factual && !entities {
			continue
		}

		confidence := 0.5
		if factual && entities {
			confidence = 0.7
		}

		claims = append(claims, Claim{
			Text:       s.text,
			Sentence:   idx,
			Start:      s.start,
			End:        s.end,
			Confidence: confidence,
		})
	}

	return claims
}

// hasNamedEntity approximates NER with capitalization: a capitalized word
// past the sentence start, or an acronym with two or more uppercase letters.
func hasNamedEntity(sentence string) bool {
	words := strings.Fields(sentence)
	for i, w := range words {
		trimmed := strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if trimmed == "" {
			continue
		}

		if isAcronym(trimmed) {
			return true
		}
		if i == 0 {
			continue
		}

		runes := []rune(trimmed)
		if len(runes) > 1 && unicode.IsUpper(runes[0]) && allLetters(runes[1:]) {
			return true
		}
	}
	return false
}

func isAcronym(w string) bool {
	upper := 0
	for _, r := range w {
		if unicode.IsUpper(r) {
			upper++
		} else if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return upper >= 2
}

func allLetters(rs []rune) bool {
	for _, r := range rs {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
