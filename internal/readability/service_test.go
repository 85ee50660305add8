package readability

import (
	"testing"

	"github.com/crlsmrls/lixservice/internal/domain"
)

func TestAnalyze_S1Fixture(t *testing.T) {
	s := New()
	text := domain.NewText("Hei. Dette er en test.", false, true, 1000, 10000, 20000)
	rec := s.Analyze(text, domain.Options{IncludeSentenceAnalysis: true})

	if rec.Metrics.LIX.Score != 2.5 {
		t.Fatalf("expected LIX 2.5, got %v", rec.Metrics.LIX.Score)
	}
	if rec.Metrics.LIX.Classification.Band != domain.BandVeryEasy {
		t.Fatalf("expected svært lett band, got %v", rec.Metrics.LIX.Classification.Band)
	}
}

func TestAnalyze_S2Fixture_WordComplexityRecommendation(t *testing.T) {
	s := New()
	text := domain.NewText("Implementeringen introduserte funksjonaliteten gjennom omfattende dokumentasjon.", false, true, 1000, 10000, 20000)
	rec := s.Analyze(text, domain.Options{IncludeSentenceAnalysis: true})

	if rec.Metrics.LIX.Score != 106.0 {
		t.Fatalf("expected LIX 106.0, got %v", rec.Metrics.LIX.Score)
	}

	found := false
	for _, r := range rec.Recommendations {
		if r.Type == "word_complexity" && r.Impact == "high" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a high-impact word_complexity recommendation, got %+v", rec.Recommendations)
	}
}

func TestAnalyze_EmptyTextInvariant(t *testing.T) {
	s := New()
	text := domain.NewText("   ", false, true, 1000, 10000, 20000)
	rec := s.Analyze(text, domain.Options{IncludeSentenceAnalysis: true})

	if rec.Metrics.LIX.Score != 0 || rec.Metrics.LIX.Classification.Band != domain.BandUnavailable {
		t.Fatalf("expected zero score and unavailable band on empty text, got %+v", rec.Metrics.LIX)
	}
	if len(rec.Recommendations) != 1 || rec.Recommendations[0].Type != "positive_feedback" {
		t.Fatalf("expected exactly one positive_feedback stub, got %+v", rec.Recommendations)
	}
}

func TestAnalyze_OptionsGateAnalyses(t *testing.T) {
	s := New()
	text := domain.NewText("Hei. Dette er en test.", false, true, 1000, 10000, 20000)

	rec := s.Analyze(text, domain.Options{})
	if len(rec.SentenceAnalyses) != 0 {
		t.Errorf("expected no sentence analyses when option unset, got %d", len(rec.SentenceAnalyses))
	}
	if len(rec.WordAnalyses) != 0 {
		t.Errorf("expected no word analyses by default, got %d", len(rec.WordAnalyses))
	}

	rec = s.Analyze(text, domain.Options{IncludeSentenceAnalysis: true, IncludeWordAnalysis: true})
	if len(rec.SentenceAnalyses) == 0 {
		t.Errorf("expected sentence analyses when option set")
	}
	if len(rec.WordAnalyses) == 0 {
		t.Errorf("expected word analyses when option set")
	}
}

func TestCombinedDescription_IdenticalBand(t *testing.T) {
	lix := domain.MetricResult{Score: 10, Classification: domain.Classification{Category: "svært lett"}}
	rix := domain.MetricResult{Score: 1, Classification: domain.Classification{Category: "svært lett"}}
	got := combinedDescription(lix, rix, false)
	want := "Teksten er konsistent svært lettlest og tilgjengelig for alle lesere."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCombinedDescription_BalancedWithinOneLevel(t *testing.T) {
	lix := domain.MetricResult{Score: 25, Classification: domain.Classification{Category: "lett"}}
	rix := domain.MetricResult{Score: 4, Classification: domain.Classification{Category: "middels"}}
	got := combinedDescription(lix, rix, false)
	if got != "Teksten er i hovedsak lett til middels, med en balansert vanskelighetsgrad." {
		t.Fatalf("unexpected balanced description: %q", got)
	}
}

func TestCombinedDescription_DirectionalContrast(t *testing.T) {
	lix := domain.MetricResult{Score: 45, Classification: domain.Classification{Category: "vanskelig"}}
	rix := domain.MetricResult{Score: 1, Classification: domain.Classification{Category: "svært lett"}}
	got := combinedDescription(lix, rix, false)
	want := "Teksten har mange korte setninger, men med en del lange ord. Setningsoppbyggingen er enkel, men ordvalget kan gjøre teksten utfordrende."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCombinedDescription_Empty(t *testing.T) {
	got := combinedDescription(domain.MetricResult{}, domain.MetricResult{}, true)
	if got != "Teksten er for kort for analyse." {
		t.Fatalf("unexpected empty description: %q", got)
	}
}
