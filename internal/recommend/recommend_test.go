package recommend

import (
	"testing"

	"github.com/crlsmrls/lixservice/internal/domain"
)

func hasType(recs []domain.Recommendation, t string) bool {
	for _, r := range recs {
		if r.Type == t {
			return true
		}
	}
	return false
}

func TestGenerate_PositiveFeedbackWhenNoRuleFires(t *testing.T) {
	recs := Generate(Input{LIX: 10, RIX: 1, AvgSentenceLength: 8, LongWordsPercentage: 5})
	if len(recs) != 1 || recs[0].Type != "positive_feedback" {
		t.Fatalf("expected single positive_feedback, got %+v", recs)
	}
	if recs[0].Title != "Utmerket lesbarhet" {
		t.Errorf("expected excellent-readability title for LIX<30, got %q", recs[0].Title)
	}
}

func TestGenerate_PositiveFeedback_GoodNotExcellent(t *testing.T) {
	recs := Generate(Input{LIX: 35, RIX: 1, AvgSentenceLength: 8, LongWordsPercentage: 5})
	if recs[0].Title != "God lesbarhet" {
		t.Errorf("expected good-readability title for LIX in [30,40) with no other rule firing, got %q", recs[0].Title)
	}
}

func TestGenerate_SentenceStructureImpact(t *testing.T) {
	recs := Generate(Input{AvgSentenceLength: 20})
	if !hasType(recs, "sentence_structure") {
		t.Fatalf("expected sentence_structure recommendation")
	}
	for _, r := range recs {
		if r.Type == "sentence_structure" && r.Impact != "medium" {
			t.Errorf("expected medium impact for sentence length 20, got %q", r.Impact)
		}
	}

	recs = Generate(Input{AvgSentenceLength: 30})
	for _, r := range recs {
		if r.Type == "sentence_structure" && r.Impact != "high" {
			t.Errorf("expected high impact for sentence length 30, got %q", r.Impact)
		}
	}
}

func TestGenerate_S2Fixture_WordComplexityHighImpact(t *testing.T) {
	recs := Generate(Input{LIX: 106, RIX: 6, AvgSentenceLength: 6, LongWordsPercentage: 100})
	if !hasType(recs, "word_complexity") {
		t.Fatalf("expected word_complexity recommendation for S2 fixture")
	}
	for _, r := range recs {
		if r.Type == "word_complexity" && r.Impact != "high" {
			t.Errorf("expected high impact, got %q", r.Impact)
		}
	}
}

func TestGenerate_LIXTierRules(t *testing.T) {
	recs := Generate(Input{LIX: 41, AvgSentenceLength: 0, LongWordsPercentage: 0})
	if !hasType(recs, "writing_style") || !hasType(recs, "flow_improvement") {
		t.Errorf("expected writing_style and flow_improvement at LIX>40")
	}

	recs = Generate(Input{LIX: 51})
	if !hasType(recs, "technical_language") || !hasType(recs, "structure_improvement") {
		t.Errorf("expected technical_language and structure_improvement at LIX>50")
	}

	recs = Generate(Input{LIX: 46})
	if !hasType(recs, "visual_aids") {
		t.Errorf("expected visual_aids at LIX>45")
	}
}

func TestGenerate_UserContextEducation(t *testing.T) {
	recs := Generate(Input{LIX: 36, UserContext: domain.UserContext{"purpose": "education"}})
	if !hasType(recs, "educational_content") {
		t.Fatalf("expected educational_content for education purpose with LIX>35")
	}
}

func TestGenerate_UserContextBusiness(t *testing.T) {
	recs := Generate(Input{LIX: 46, UserContext: domain.UserContext{"purpose": "business"}})
	if !hasType(recs, "business_communication") {
		t.Fatalf("expected business_communication for business purpose with LIX>45")
	}
}

func TestGenerate_RixRecommendation(t *testing.T) {
	recs := Generate(Input{RIX: 4.5})
	if !hasType(recs, "rix_recommendation") {
		t.Fatalf("expected rix_recommendation for RIX>4.0")
	}
}

func TestGenerate_SimplifiedSuppressesExamples(t *testing.T) {
	recs := Generate(Input{AvgSentenceLength: 20, Simplified: true})
	for _, r := range recs {
		if len(r.Examples) != 0 {
			t.Errorf("expected no examples in simplified mode, got %v on %s", r.Examples, r.Type)
		}
	}
}

func TestGenerate_RuleOrderIsDocumented(t *testing.T) {
	recs := Generate(Input{
		AvgSentenceLength:   20,
		LongWordsPercentage: 30,
		LIX:                 51,
		RIX:                 5,
	})
	order := []string{"sentence_structure", "word_complexity", "writing_style", "flow_improvement",
		"technical_language", "structure_improvement", "visual_aids", "rix_recommendation"}
	idx := 0
	for _, r := range recs {
		if idx < len(order) && r.Type == order[idx] {
			idx++
		}
	}
	if idx != len(order) {
		t.Fatalf("expected documented rule order, got %v", recs)
	}
}
