// Package readability implements component C5: the single analyze(text,
// options) entry point that orchestrates C1 (parsing), C2 (metric
// kernels), C3 (sentence/word analyzers), and C4 (recommendations) into
// one Analysis Record, grounded on the original service's
// app/services/readability.py.
package readability

import (
	"math"

	"github.com/crlsmrls/lixservice/internal/analyze"
	"github.com/crlsmrls/lixservice/internal/domain"
	"github.com/crlsmrls/lixservice/internal/kernels"
	"github.com/crlsmrls/lixservice/internal/recommend"
	"github.com/crlsmrls/lixservice/internal/textparse"
)

// Service composes the pipeline. It holds only the memoizing parser —
// every other step is a pure function of a ParsedText.
type Service struct {
	parser *textparse.Parser
}

// New builds a Service with its own parser memo table.
func New() *Service {
	return &Service{parser: textparse.New()}
}

// Analyze runs the full pipeline for one Text under the given Options.
func (s *Service) Analyze(text domain.Text, opts domain.Options) domain.AnalysisRecord {
	parsed := s.parser.Parse(text.Fingerprint, text.Raw)
	metrics := kernels.Compute(parsed)
	stats := statistics(parsed)

	var sentenceAnalyses []domain.SentenceAnalysis
	if opts.IncludeSentenceAnalysis {
		sentenceAnalyses = analyze.Sentences(parsed)
	}
	var wordAnalyses []domain.WordAnalysis
	if opts.IncludeWordAnalysis {
		wordAnalyses = analyze.Words(parsed)
	}

	var recommendations []domain.Recommendation
	if parsed.WordCount() == 0 {
		recommendations = []domain.Recommendation{{
			Type:        "positive_feedback",
			Title:       "Ingen tekst å analysere",
			Description: "Teksten er tom eller inneholder ikke setninger.",
			Suggestion:  "Legg til tekst for å få en lesbarhetsanalyse.",
			Impact:      "low",
		}}
	} else {
		recommendations = recommend.Generate(recommend.Input{
			LIX:                 metrics.LIX.Score,
			RIX:                 metrics.RIX.Score,
			AvgSentenceLength:   stats.AvgSentenceLength,
			LongWordsPercentage: stats.LongWordsPercentage,
			UserContext:         opts.UserContext,
		})
	}

	return domain.AnalysisRecord{
		Metrics:             metrics,
		CombinedDescription: combinedDescription(metrics.LIX, metrics.RIX, parsed.WordCount() == 0),
		SentenceAnalyses:    sentenceAnalyses,
		WordAnalyses:        wordAnalyses,
		Statistics:          stats,
		Recommendations:     recommendations,
	}
}

// Statistics exposes the same text-statistics computation Analyze uses
// internally, for callers (chunk streaming) that only need that slice.
func Statistics(p domain.ParsedText) domain.TextStatistics {
	return statistics(p)
}

func statistics(p domain.ParsedText) domain.TextStatistics {
	wordCount := p.WordCount()
	sentenceCount := p.SentenceCount()
	if sentenceCount == 0 {
		sentenceCount = 1
	}
	avgSentenceLength := round1(float64(wordCount) / float64(sentenceCount))

	longPct := 0.0
	if wordCount > 0 {
		longPct = round1(float64(p.LongWordCount) / float64(wordCount) * 100)
	}

	return domain.TextStatistics{
		WordCount:           wordCount,
		SentenceCount:       p.SentenceCount(),
		AvgSentenceLength:   avgSentenceLength,
		LongWordsCount:      p.LongWordCount,
		LongWordsPercentage: longPct,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// categoryOrder mirrors readability.py's _CATEGORIES list used to compute
// the level gap between LIX and RIX categories.
var categoryOrder = map[string]int{
	"svært lett":      0,
	"lett":            1,
	"middels":         2,
	"vanskelig":       3,
	"svært vanskelig": 4,
}

// combinedDescription reproduces _generate_combined_description's exact
// branching: identical-category fast paths, a "balanced" phrasing when the
// level gap is <= 1, and one of two directional contrasts (or a generic
// mixed-results sentence) for bigger gaps.
func combinedDescription(lix, rix domain.MetricResult, empty bool) string {
	if empty {
		return "Teksten er for kort for analyse."
	}

	lixCat := lix.Classification.Category
	rixCat := rix.Classification.Category

	if lixCat == rixCat {
		switch lixCat {
		case "svært lett":
			return "Teksten er konsistent svært lettlest og tilgjengelig for alle lesere."
		case "lett":
			return "Teksten er konsistent lettlest med god balanse mellom korte og lange ord."
		case "middels":
			return "Teksten har middels vanskelighetsgrad, med en del lange ord og setninger."
		case "vanskelig":
			return "Teksten er konsistent krevende med mange lange ord og komplekse setninger."
		default: // svært vanskelig
			return "Teksten er konsistent svært krevende med høy andel lange ord og komplekse setninger."
		}
	}

	lixLevel, lixOK := categoryOrder[lixCat]
	rixLevel, rixOK := categoryOrder[rixCat]
	if !lixOK || !rixOK {
		return "Teksten har varierende lesbarhet: LIX-nivå " + lixCat + ", RIX-nivå " + rixCat + "."
	}

	diff := lixLevel - rixLevel
	if diff < 0 {
		diff = -diff
	}
	if diff <= 1 {
		return "Teksten er i hovedsak " + lixCat + " til " + rixCat + ", med en balansert vanskelighetsgrad."
	}

	switch {
	case lix.Score > 40 && rix.Score < 2.5:
		return "Teksten har mange korte setninger, men med en del lange ord. Setningsoppbyggingen er enkel, men ordvalget kan gjøre teksten utfordrende."
	case lix.Score < 30 && rix.Score > 3.5:
		return "Teksten har relativt korte ord, men setningene er lange. Vurder å dele opp setninger for bedre lesbarhet."
	default:
		return "Teksten har blandede resultater: LIX-analysen viser " + lixCat + ", mens RIX-analysen viser " + rixCat + "."
	}
}
