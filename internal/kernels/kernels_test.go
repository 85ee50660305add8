package kernels

import (
	"math"
	"testing"

	"github.com/crlsmrls/lixservice/internal/domain"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.005
}

func TestLIX_S1Fixture(t *testing.T) {
	c := Counts{W: 5, S: 2, L: 0}
	got := round(LIX(c), 1)
	if !almostEqual(got, 2.5) {
		t.Fatalf("expected LIX 2.5, got %v", got)
	}
}

func TestLIX_S2Fixture(t *testing.T) {
	c := Counts{W: 6, S: 1, L: 6}
	got := round(LIX(c), 1)
	if !almostEqual(got, 106.0) {
		t.Fatalf("expected LIX 106.0, got %v", got)
	}
	class := classifyAscending("lix", got, lixBands)
	if class.Band != domain.BandVeryDifficult {
		t.Fatalf("expected very-difficult band, got %v", class.Band)
	}
}

func TestLIX_ZeroDenominator(t *testing.T) {
	if LIX(Counts{W: 0, S: 0}) != 0 {
		t.Fatalf("expected 0 for empty counts")
	}
	if LIX(Counts{W: 5, S: 0}) != 0 {
		t.Fatalf("expected 0 when sentence count is 0")
	}
}

func TestRIX_Formula(t *testing.T) {
	got := round(RIX(Counts{W: 10, S: 4, L: 6}), 2)
	if !almostEqual(got, 1.5) {
		t.Fatalf("expected RIX 1.5, got %v", got)
	}
}

func TestCompute_EmptyTextInvariant(t *testing.T) {
	bundle := Compute(domain.ParsedText{})

	results := []domain.MetricResult{
		bundle.LIX, bundle.RIX, bundle.SMOG, bundle.ColemanLiau,
		bundle.Flesch, bundle.FleschKincaid, bundle.Fog, bundle.ARI,
	}
	for _, r := range results {
		if r.Score != 0 {
			t.Errorf("expected 0 score on empty text, got %v", r.Score)
		}
		if r.Classification.Band != domain.BandUnavailable {
			t.Errorf("expected unavailable band on empty text, got %v", r.Classification.Band)
		}
	}
}

func TestCompute_S1Fixture(t *testing.T) {
	parsed := domain.ParsedText{
		Words: []string{"Hei", "Dette", "er", "en", "test"},
		Sentences: []domain.Sentence{
			{WordCount: 2}, {WordCount: 3},
		},
	}
	bundle := Compute(parsed)
	if !almostEqual(bundle.LIX.Score, 2.5) {
		t.Fatalf("expected LIX 2.5, got %v", bundle.LIX.Score)
	}
	if bundle.LIX.Classification.Band != domain.BandVeryEasy {
		t.Fatalf("expected very-easy band, got %v", bundle.LIX.Classification.Band)
	}
}

func TestBandMonotonicity(t *testing.T) {
	lower := classifyAscending("lix", 15, lixBands)
	higher := classifyAscending("lix", 55, lixBands)
	if higher.Band.Ordinal() < lower.Band.Ordinal() {
		t.Fatalf("expected higher LIX score to have >= band ordinal, got lower=%d higher=%d",
			lower.Band.Ordinal(), higher.Band.Ordinal())
	}
}

func TestCountSyllables_Minimum1(t *testing.T) {
	if CountSyllables("") != 1 {
		t.Errorf("expected minimum 1 syllable even for empty input")
	}
	if CountSyllables("bcdfg") != 1 {
		t.Errorf("expected minimum 1 syllable for a word with no vowels")
	}
}

func TestCountSyllables_VowelGroups(t *testing.T) {
	cases := map[string]int{
		"test":           1,
		"dette":          2,
		"implementering": 5,
	}
	for word, want := range cases {
		if got := CountSyllables(word); got != want {
			t.Errorf("CountSyllables(%q) = %d, want %d", word, got, want)
		}
	}
}

func TestIsComplex(t *testing.T) {
	if IsComplex("test") {
		t.Errorf("expected 'test' not complex (1 syllable)")
	}
	if !IsComplex("implementering") {
		t.Errorf("expected 'implementering' complex (>=3 syllables)")
	}
}

func TestClassifyFlesch_HigherIsEasier(t *testing.T) {
	easy := classifyFlesch(95)
	hard := classifyFlesch(10)
	if easy.Band != domain.BandVeryEasy {
		t.Errorf("expected very-easy for score 95, got %v", easy.Band)
	}
	if hard.Band != domain.BandVeryDifficult {
		t.Errorf("expected very-difficult for score 10, got %v", hard.Band)
	}
}
