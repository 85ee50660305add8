package analyze

import (
	"sort"
	"strings"

	"github.com/crlsmrls/lixservice/internal/domain"
)

// maxWordAnalyses caps wire output per spec.md §4.3: only the first 200
// word analyses are returned per request.
const maxWordAnalyses = 200

type frequencyEntry struct {
	word  string
	count int
}

// Words builds a WordAnalysis for up to maxWordAnalyses words of p, with
// frequency, rank, position, style, and complexity, grounded on
// word_analyzer.py's analyze_word.
func Words(p domain.ParsedText) []domain.WordAnalysis {
	freq := make(map[string]int, len(p.Words))
	for _, w := range p.Words {
		freq[strings.ToLower(w)]++
	}

	ranked := make([]frequencyEntry, 0, len(freq))
	for w, c := range freq {
		ranked = append(ranked, frequencyEntry{word: w, count: c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].word < ranked[j].word
	})
	rank := make(map[string]int, len(ranked))
	for i, e := range ranked {
		rank[e.word] = i + 1
	}
	totalUnique := len(ranked)
	totalWords := len(p.Words)

	sentenceOf := make([]int, len(p.Words))
	positionInSentence := make([]int, len(p.Words))
	sentenceLength := make([]int, len(p.Words))
	for si, s := range p.Sentences {
		for gi := s.WordStart; gi < s.WordEnd; gi++ {
			sentenceOf[gi] = si
			positionInSentence[gi] = gi - s.WordStart
			sentenceLength[gi] = s.WordCount
		}
	}

	limit := totalWords
	if limit > maxWordAnalyses {
		limit = maxWordAnalyses
	}

	out := make([]domain.WordAnalysis, 0, limit)
	for i := 0; i < limit; i++ {
		w := p.Words[i]
		lower := strings.ToLower(w)
		length := len([]rune(w))
		isLong := length > longWordThreshold
		isVeryLong := length > veryLongWordThreshold

		frequency := freq[lower]
		relativeFrequency := 0.0
		if totalWords > 0 {
			relativeFrequency = float64(frequency) / float64(totalWords)
		}

		relativePosition := 0.0
		if sentenceLength[i] > 0 {
			relativePosition = float64(positionInSentence[i]) / float64(sentenceLength[i])
		}

		frequencyRank := rank[lower]
		significance := significanceScore(frequencyRank, totalUnique, length, isLong)

		style := "vanlig"
		switch {
		case length <= 3:
			style = "kort"
		case isVeryLong:
			style = "svært lang"
		case isLong:
			style = "lang"
		}

		complexity := "enkel"
		switch {
		case isVeryLong && frequency <= 1:
			complexity = "kompleks"
		case isLong && frequency <= 2:
			complexity = "moderat"
		}

		out = append(out, domain.WordAnalysis{
			Word:              w,
			Length:            length,
			IsLong:            isLong,
			IsVeryLong:        isVeryLong,
			Frequency:         frequency,
			RelativeFrequency: round4(relativeFrequency),
			FrequencyRank:     frequencyRank,
			SignificanceScore: round2(significance),
			Position: domain.WordPosition{
				GlobalIndex:        i,
				SentenceIndex:      sentenceOf[i],
				PositionInSentence: positionInSentence[i],
				RelativePosition:   round2(relativePosition),
			},
			Style:      style,
			Complexity: complexity,
		})
	}
	return out
}

// significanceScore blends rarity, capped length, and long-word weight, per
// spec.md §4.3: 0.4*(1 - rank/unique) + 0.3*min(len,12)/12 + 0.3*(long?1:0.5).
func significanceScore(rank, totalUnique, length int, isLong bool) float64 {
	if totalUnique == 0 {
		return 0
	}
	rarity := 0.4 * (1 - float64(rank)/float64(totalUnique))
	cappedLen := length
	if cappedLen > 12 {
		cappedLen = 12
	}
	lengthScore := 0.3 * float64(cappedLen) / 12
	longWeight := 0.5
	if isLong {
		longWeight = 1
	}
	return rarity + lengthScore + 0.3*longWeight
}

func round4(v float64) float64 {
	return float64(int64(v*10000+0.5)) / 10000
}
