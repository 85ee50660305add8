// Package analyze implements component C3: the per-sentence and per-word
// analyzers, grounded on the original service's
// app/services/sentence_analyzer.py and app/services/word_analyzer.py.
package analyze

import (
	"fmt"
	"math"

	"github.com/crlsmrls/lixservice/internal/domain"
)

const (
	sentenceMediumWords = 20
	sentenceLongWords   = 30

	longWordThreshold     = 6
	veryLongWordThreshold = 9

	longWordRatioMedium = 35.0
	longWordRatioHigh   = 50.0

	sentenceLIXSimple  = 30.0
	sentenceLIXMedium  = 45.0
	sentenceLIXComplex = 55.0
)

// Sentences builds a SentenceAnalysis for every sentence in p.
func Sentences(p domain.ParsedText) []domain.SentenceAnalysis {
	out := make([]domain.SentenceAnalysis, 0, len(p.Sentences))
	for i, s := range p.Sentences {
		out = append(out, analyzeSentence(i, s, p))
	}
	return out
}

func analyzeSentence(index int, s domain.Sentence, p domain.ParsedText) domain.SentenceAnalysis {
	if s.WordCount == 0 {
		return domain.SentenceAnalysis{SentenceIndex: index, Sentence: s.Text, ComplexityLevel: "N/A"}
	}

	words := p.Words[s.WordStart:s.WordEnd]

	longRatio := float64(s.LongWordCount) / float64(s.WordCount) * 100

	veryLongCount := 0
	var veryLongWords []string
	totalLen := 0
	for _, w := range words {
		n := len([]rune(w))
		totalLen += n
		if n > veryLongWordThreshold {
			veryLongCount++
			veryLongWords = append(veryLongWords, w)
		}
	}
	avgWordLen := float64(totalLen) / float64(s.WordCount)

	// Single-sentence LIX variant: not the canonical LIX (S=1 special case),
	// kept distinct on the wire as SentenceLIX.
	sentenceLIX := round2(float64(s.WordCount) + longRatio)

	complexity := "enkel"
	switch {
	case sentenceLIX > sentenceLIXComplex:
		complexity = "svært kompleks"
	case sentenceLIX > sentenceLIXMedium:
		complexity = "kompleks"
	case sentenceLIX > sentenceLIXSimple:
		complexity = "moderat"
	}

	var issues []domain.Issue
	switch {
	case s.WordCount > sentenceLongWords:
		issues = append(issues, domain.Issue{
			Type:        "long_sentence",
			Description: fmt.Sprintf("Setningen er svært lang (%d ord)", s.WordCount),
			Severity:    "high",
		})
	case s.WordCount > sentenceMediumWords:
		issues = append(issues, domain.Issue{
			Type:        "medium_sentence",
			Description: fmt.Sprintf("Setningen er lang (%d ord)", s.WordCount),
			Severity:    "medium",
		})
	}

	switch {
	case longRatio > longWordRatioHigh:
		issues = append(issues, domain.Issue{
			Type:        "long_words",
			Description: fmt.Sprintf("Setningen har svært mange lange ord (%.0f%%)", longRatio),
			Severity:    "high",
		})
	case longRatio > longWordRatioMedium:
		issues = append(issues, domain.Issue{
			Type:        "long_words",
			Description: fmt.Sprintf("Setningen har mange lange ord (%.0f%%)", longRatio),
			Severity:    "medium",
		})
	}

	var tips []string
	if s.WordCount > sentenceMediumWords {
		tips = append(tips, "Del setningen i to eller flere kortere setninger")
	}
	if longRatio > longWordRatioMedium {
		tips = append(tips, "Erstatt lange ord med kortere synonymer")
		if len(veryLongWords) > 0 {
			max := len(veryLongWords)
			if max > 3 {
				max = 3
			}
			tips = append(tips, "Vurder å erstatte: "+joinComma(veryLongWords[:max]))
		}
	}

	return domain.SentenceAnalysis{
		SentenceIndex:     index,
		Sentence:          s.Text,
		WordCount:         s.WordCount,
		LongWordCount:     s.LongWordCount,
		VeryLongWordCount: veryLongCount,
		AvgWordLength:     round2(avgWordLen),
		SentenceLIX:       sentenceLIX,
		ComplexityLevel:   complexity,
		Issues:            issues,
		ImprovementTips:   tips,
	}
}

func joinComma(words []string) string {
	out := ""
	for i, w := range words {
		if i > 0 {
			out += ", "
		}
		out += w
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
