package analyze

import (
	"testing"

	"github.com/crlsmrls/lixservice/internal/domain"
	"github.com/crlsmrls/lixservice/internal/textparse"
)

func parseFor(t *testing.T, text string) domain.ParsedText {
	t.Helper()
	p := textparse.New()
	return p.Parse("test-fp-"+text, text)
}

func TestSentences_S2Fixture(t *testing.T) {
	parsed := parseFor(t, "Implementeringen introduserte funksjonaliteten gjennom omfattende dokumentasjon.")
	got := Sentences(parsed)
	if len(got) != 1 {
		t.Fatalf("expected 1 sentence analysis, got %d", len(got))
	}
	s := got[0]
	if s.WordCount != 6 {
		t.Errorf("expected word count 6, got %d", s.WordCount)
	}
	if s.LongWordCount != 6 {
		t.Errorf("expected all 6 words long, got %d", s.LongWordCount)
	}
	if s.ComplexityLevel != "svært kompleks" {
		t.Errorf("expected svært kompleks complexity, got %q", s.ComplexityLevel)
	}
}

func TestSentences_IssuesOnLongSentence(t *testing.T) {
	longText := ""
	for i := 0; i < 35; i++ {
		longText += "ord "
	}
	longText += "."
	parsed := parseFor(t, longText)
	got := Sentences(parsed)
	if len(got) != 1 {
		t.Fatalf("expected 1 sentence, got %d", len(got))
	}
	if len(got[0].Issues) == 0 {
		t.Fatalf("expected at least one issue for a 35-word sentence")
	}
	found := false
	for _, issue := range got[0].Issues {
		if issue.Type == "long_sentence" && issue.Severity == "high" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a high-severity long_sentence issue, got %+v", got[0].Issues)
	}
}

func TestSentences_EmptySentenceHandledGracefully(t *testing.T) {
	parsed := domain.ParsedText{Sentences: []domain.Sentence{{WordCount: 0}}}
	got := Sentences(parsed)
	if len(got) != 1 || got[0].ComplexityLevel != "N/A" {
		t.Fatalf("expected N/A complexity for empty sentence, got %+v", got)
	}
}

func TestWords_CapsAt200(t *testing.T) {
	text := ""
	for i := 0; i < 250; i++ {
		text += "ord "
	}
	parsed := parseFor(t, text)
	got := Words(parsed)
	if len(got) != maxWordAnalyses {
		t.Fatalf("expected %d word analyses, got %d", maxWordAnalyses, len(got))
	}
}

func TestWords_StyleAndComplexityLabels(t *testing.T) {
	parsed := parseFor(t, "Ja implementeringen er kommunikasjonsteknologiutvikling her nå.")
	got := Words(parsed)
	styles := map[string]bool{}
	for _, w := range got {
		styles[w.Style] = true
	}
	if !styles["kort"] {
		t.Errorf("expected at least one 'kort' word, got styles %v", styles)
	}
}

func TestWords_RelativePositionInRange(t *testing.T) {
	parsed := parseFor(t, "Kort setning her. En litt lengre setning med flere ord i den.")
	for _, w := range Words(parsed) {
		if w.Position.RelativePosition < 0 || w.Position.RelativePosition > 1 {
			t.Errorf("relative position %v out of [0,1] for word %q", w.Position.RelativePosition, w.Word)
		}
	}
}

func TestSignificanceScore_Bounds(t *testing.T) {
	s := significanceScore(1, 10, 20, true)
	if s < 0 || s > 1.01 {
		t.Errorf("expected significance in roughly [0,1], got %v", s)
	}
}

func TestAlternativesFor_KnownWord(t *testing.T) {
	alts := AlternativesFor("implementere")
	if len(alts) == 0 {
		t.Errorf("expected known alternatives for 'implementere'")
	}
}

func TestAlternativesFor_UnknownWord(t *testing.T) {
	if AlternativesFor("xyzzy") != nil {
		t.Errorf("expected nil for unknown word")
	}
}
