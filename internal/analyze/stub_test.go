package analyze

import (
	"context"
	"testing"
)

func TestStubAnalyzer_AlwaysReturnsLowConfidencePlaceholder(t *testing.T) {
	a := NewStubAnalyzer("grammar")
	result, err := a.Analyze(context.Background(), "noen ord her", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Kind != "grammar" {
		t.Errorf("expected kind to match the analyzer's tag, got %q", result.Kind)
	}
	if result.Confidence <= 0 || result.Confidence >= 0.5 {
		t.Errorf("expected a low, non-zero confidence, got %v", result.Confidence)
	}
}
