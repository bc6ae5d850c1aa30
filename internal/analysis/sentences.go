package analysis

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// sentence is a segment of the input with its byte offsets.
type sentence struct {
	text  string
	start int
	end   int
}

// Common abbreviations that end with a period but do not end a sentence.
var abbreviations = map[string]struct{}{
	"al":   {},
	"dr":   {},
	"mr":   {},
	"mrs":  {},
	"ms":   {},
	"prof": {},
	"fig":  {},
	"no":   {},
	"vol":  {},
	"vs":   {},
	"etc":  {},
	"e.g":  {},
	"i.e":  {},
	"cf":   {},
	"eds":  {},
	"ed":   {},
	"pp":   {},
	"p":    {},
}

// splitSentences segments text on ., ! and ? while skipping decimals,
// abbreviations and terminators inside parentheses or brackets.
func splitSentences(text string) []sentence {
	var out []sentence
	start := -1
	depth := 0

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])

		if start < 0 && !unicode.IsSpace(r) {
			start = i
		}

		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case '.', '!', '?':
			if start >= 0 && depth == 0 && isSentenceBoundary(text, i, r) {
				end := i + size
				out = append(out, sentence{text: text[start:end], start: start, end: end})
				start = -1
			}
		}

		i += size
	}

	if start >= 0 {
		trimmed := strings.TrimRightFunc(text[start:], unicode.IsSpace)
		if trimmed != "" {
			out = append(out, sentence{text: trimmed, start: start, end: start + len(trimmed)})
		}
	}

	return out
}

func isSentenceBoundary(text string, i int, r rune) bool {
	if r != '.' {
		return true
	}

	// Decimal number: 73.5
	if i+1 < len(text) && isDigit(text[i+1]) && i > 0 && isDigit(text[i-1]) {
		return false
	}

	// Abbreviation: look back at the word before the period.
	word := trailingWord(text[:i])
	if _, ok := abbreviations[strings.ToLower(word)]; ok {
		return false
	}
	// Single initials like "J." in author names.
	if len(word) == 1 && word[0] >= 'A' && word[0] <= 'Z' {
		return false
	}

	// A period followed immediately by a non-space rune (URLs, DOIs) is not a boundary.
	if i+1 < len(text) && !isSpaceByte(text[i+1]) {
		return false
	}

	return true
}

func trailingWord(s string) string {
	end := len(s)
	i := end
	for i > 0 {
		r, size := utf8.DecodeLastRuneInString(s[:i])
		if !unicode.IsLetter(r) && r != '.' {
			break
		}
		i -= size
	}
	return strings.TrimSuffix(s[i:end], ".")
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
