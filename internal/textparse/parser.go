// Package textparse implements component C1: tokenizing raw text into
// paragraphs, sentences, and words, with long/very-long word counts, all
// computed in a single pass and memoized on the text's fingerprint.
//
// Grounded on the original service's app/services/text_parser.py (compiled
// regex patterns, an LRU-bounded memo table) generalized to the exact
// tokenization rules spec.md §4.1 specifies.
package textparse

import (
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/crlsmrls/lixservice/internal/domain"
)

const (
	longWordThreshold     = 6
	veryLongWordThreshold = 9
	memoCacheSize          = 256
)

// sentencePattern splits on runs of .!? (one or more), optionally followed
// by a closing quote, or on a blank line.
var sentencePattern = regexp.MustCompile(`[.!?]+["»]?|\n\s*\n`)

// wordPattern extracts maximal runs of alphanumerics including æøå (both
// cases — matching is case-insensitive for counting, case is preserved for
// display since the slice holds raw substrings).
var wordPattern = regexp.MustCompile(`(?i)[a-z0-9æøå]+`)

// paragraphPattern splits on blank-line runs.
var paragraphPattern = regexp.MustCompile(`\n\s*\n`)

// Parser tokenizes text and memoizes results on fingerprint.
type Parser struct {
	memo *lru.Cache[string, domain.ParsedText]
}

// New builds a Parser with a bounded memoization table.
func New() *Parser {
	cache, _ := lru.New[string, domain.ParsedText](memoCacheSize)
	return &Parser{memo: cache}
}

// Parse tokenizes text into a ParsedText, reusing a memoized result when
// fingerprint has already been seen. Parsing is total: empty input yields
// an empty, zero-count ParsedText, never an error.
func (p *Parser) Parse(fingerprint, text string) domain.ParsedText {
	if cached, ok := p.memo.Get(fingerprint); ok {
		return cached
	}

	result := parse(text)
	p.memo.Add(fingerprint, result)
	return result
}

// parse performs the actual tokenization; it has no dependency on the
// fingerprint and is safe to call directly in tests.
func parse(text string) domain.ParsedText {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.ParsedText{}
	}

	paragraphs := splitNonEmpty(paragraphPattern, trimmed)
	sentenceTexts := splitNonEmpty(sentencePattern, trimmed)
	if len(sentenceTexts) == 0 {
		sentenceTexts = []string{trimmed}
	}

	var (
		words             []string
		sentences         []domain.Sentence
		longWordCount     int
		veryLongWordCount int
	)

	for _, sentenceText := range sentenceTexts {
		sentenceWords := wordPattern.FindAllString(sentenceText, -1)
		start := len(words)

		longInSentence := 0
		for _, w := range sentenceWords {
			n := len([]rune(w))
			if n > longWordThreshold {
				longWordCount++
				longInSentence++
			}
			if n > veryLongWordThreshold {
				veryLongWordCount++
			}
		}
		words = append(words, sentenceWords...)

		sentences = append(sentences, domain.Sentence{
			Text:          sentenceText,
			WordStart:     start,
			WordEnd:       len(words),
			WordCount:     len(sentenceWords),
			LongWordCount: longInSentence,
		})
	}

	return domain.ParsedText{
		Paragraphs:        paragraphs,
		Sentences:         sentences,
		Words:             words,
		LongWordCount:     longWordCount,
		VeryLongWordCount: veryLongWordCount,
	}
}

func splitNonEmpty(pattern *regexp.Regexp, text string) []string {
	parts := pattern.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, strings.TrimSpace(p))
		}
	}
	return out
}

// Fingerprint-independent helpers used by callers that already have a
// ParsedText and just need the raw counts (e.g. the streaming path's quick
// length/word-count checks).

// CountWords returns the number of maximal alphanumeric runs in text,
// without building a full ParsedText.
func CountWords(text string) int {
	return len(wordPattern.FindAllString(text, -1))
}
