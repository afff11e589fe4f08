// Package textproc holds the pure text transforms used by ingestion and analysis.
package textproc

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var bracketExpr = regexp.MustCompile(`\[.*?\]`)

// DefaultBoilerplate lists the storefront's one-tap rating texts.
var DefaultBoilerplate = []string{
	"최고예요",
	"마음에 들어요",
	"보통이에요",
	"별로예요",
	"매우 아쉬워요",
}

// CleanProductName removes every bracketed span such as "[Limited]".
// Surrounding whitespace is left as is.
func CleanProductName(name string) string {
	return bracketExpr.ReplaceAllString(name, "")
}

// SplitSentences cuts text after '.', '!' or '?' when the mark is followed
// by whitespace. Sentences are trimmed and empty ones dropped.
func SplitSentences(text string) []string {
	var (
		sentences []string
		start     int
	)

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size
		if !isTerminal(r) || i >= len(text) {
			continue
		}

		next, _ := utf8.DecodeRuneInString(text[i:])
		if !unicode.IsSpace(next) {
			continue
		}

		sentences = appendTrimmed(sentences, text[start:i])
		for i < len(text) {
			ws, wsSize := utf8.DecodeRuneInString(text[i:])
			if !unicode.IsSpace(ws) {
				break
			}
			i += wsSize
		}
		start = i
	}

	return appendTrimmed(sentences, text[start:])
}

// NormalizeKeywords trims keywords and drops empty and repeated entries.
func NormalizeKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func appendTrimmed(dst []string, s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return dst
	}
	return append(dst, s)
}
