package analyze

import "context"

// AnalyzerResult is the tagged result shape every Analyzer implementation
// returns: a confidence-scored verdict plus a free-form detail payload,
// replacing the duck-typed model callables the original service dispatched
// to by convention.
type AnalyzerResult struct {
	Kind       string
	Confidence float64
	Detail     map[string]any
}

// Analyzer is the narrow capability interface the nlp/grammar/spellcheck
// pub/sub channels dispatch to. A real model and the rule-based fallback
// are both just implementations of this interface.
type Analyzer interface {
	Analyze(ctx context.Context, text string, params map[string]any) (AnalyzerResult, error)
}

// StubAnalyzer is the rule-based placeholder backing the nlp, grammar, and
// spellcheck channels: it always returns a fixed, low-confidence result so
// those channels have a registered handler, never exercised for quality.
type StubAnalyzer struct {
	Kind string
}

// NewStubAnalyzer builds a StubAnalyzer tagged with the capability it
// stands in for (e.g. "grammar", "spellcheck", "nlp").
func NewStubAnalyzer(kind string) *StubAnalyzer {
	return &StubAnalyzer{Kind: kind}
}

// Analyze always returns the same low-confidence placeholder verdict.
func (s *StubAnalyzer) Analyze(ctx context.Context, text string, params map[string]any) (AnalyzerResult, error) {
	return AnalyzerResult{
		Kind:       s.Kind,
		Confidence: 0.1,
		Detail: map[string]any{
			"note": "stub analyzer, no model configured",
		},
	}, nil
}
