// Package domain holds the stable, typed shapes shared across the
// readability pipeline, the scheduler, and the delivery surface. Keeping
// them here avoids every component hand-rolling its own map[string]any for
// what is really the same record.
package domain

import "time"

// SizeClass buckets a Text by character length; it drives cache TTL and
// which execution path (synchronous, backgrounded) serves the request.
type SizeClass string

const (
	SizeSmall  SizeClass = "small"
	SizeMedium SizeClass = "medium"
	SizeLarge  SizeClass = "large"
	SizeHuge   SizeClass = "huge"
)

// Text is an immutable input blob plus its derived identity.
type Text struct {
	Raw         string
	Fingerprint string
	Length      int
	Class       SizeClass
}

// Options are the two boolean analysis toggles plus the optional user
// context, normalized before they ever reach the fingerprint.
type Options struct {
	IncludeWordAnalysis     bool
	IncludeSentenceAnalysis bool
	UserContext             UserContext
}

// UserContext is the one deliberately open, untyped record: a small map
// kept at the edges for caller-supplied hints like {"purpose": "education"}.
type UserContext map[string]any

// Purpose reads the "purpose" key if present, else "".
func (u UserContext) Purpose() string {
	if u == nil {
		return ""
	}
	if v, ok := u["purpose"].(string); ok {
		return v
	}
	return ""
}

// Sentence is one sentence of a ParsedText, referencing its word range.
type Sentence struct {
	Text          string
	WordStart     int
	WordEnd       int // exclusive
	WordCount     int
	LongWordCount int
}

// ParsedText is the memoized breakdown of a Text.
type ParsedText struct {
	Paragraphs        []string
	Sentences         []Sentence
	Words             []string // original case preserved for display
	LongWordCount     int      // length > 6
	VeryLongWordCount int      // length > 9
}

// WordCount is the total number of word tokens.
func (p ParsedText) WordCount() int { return len(p.Words) }

// SentenceCount is the total number of sentences.
func (p ParsedText) SentenceCount() int { return len(p.Sentences) }

// Band is one of the five ordered difficulty labels a metric score maps to.
type Band string

const (
	BandVeryEasy      Band = "svært lett"
	BandEasy          Band = "lett"
	BandMedium        Band = "middels"
	BandDifficult     Band = "vanskelig"
	BandVeryDifficult Band = "svært vanskelig"
	BandUnavailable   Band = "ikke tilgjengelig"
)

// bandOrder gives each band an ordinal for monotonicity checks (testable
// property 6: band index is non-decreasing with strictly higher score).
var bandOrder = map[Band]int{
	BandVeryEasy:      0,
	BandEasy:          1,
	BandMedium:        2,
	BandDifficult:     3,
	BandVeryDifficult: 4,
	BandUnavailable:   -1,
}

// Ordinal returns the band's position in the ordered set, or -1 for the
// unavailable sentinel.
func (b Band) Ordinal() int { return bandOrder[b] }

// Classification is the full descriptive payload attached to a metric band.
type Classification struct {
	Band            Band     `json:"band"`
	Category        string   `json:"category"`
	Description     string   `json:"description"`
	Audience        string   `json:"audience"`
	ImprovementTips []string `json:"improvement_tips,omitempty"`
}

// MetricResult is one metric's score plus its classification.
type MetricResult struct {
	Score          float64        `json:"score"`
	Classification Classification `json:"classification"`
}

// MetricBundle is the full set of readability metrics for one ParsedText.
type MetricBundle struct {
	LIX           MetricResult `json:"lix"`
	RIX           MetricResult `json:"rix"`
	SMOG          MetricResult `json:"smog"`
	ColemanLiau   MetricResult `json:"coleman_liau"`
	Flesch        MetricResult `json:"flesch"`
	FleschKincaid MetricResult `json:"flesch_kincaid"`
	Fog           MetricResult `json:"fog"`
	ARI           MetricResult `json:"ari"`
}

// Issue is a detected readability problem in a sentence, with severity.
type Issue struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Severity    string `json:"severity"` // low | medium | high
}

// SentenceAnalysis is the C3 per-sentence breakdown.
type SentenceAnalysis struct {
	SentenceIndex     int      `json:"sentence_index"`
	Sentence          string   `json:"sentence"`
	WordCount         int      `json:"word_count"`
	LongWordCount     int      `json:"long_word_count"`
	VeryLongWordCount int      `json:"very_long_word_count"`
	AvgWordLength     float64  `json:"avg_word_length"`
	SentenceLIX       float64  `json:"sentence_lix"` // NOT the canonical LIX — see Design Notes
	ComplexityLevel   string   `json:"complexity_level"`
	Issues            []Issue  `json:"issues"`
	ImprovementTips   []string `json:"improvement_tips"`
}

// WordPosition locates a word both globally and within its sentence.
type WordPosition struct {
	GlobalIndex        int     `json:"global_index"`
	SentenceIndex      int     `json:"sentence_index"`
	PositionInSentence int     `json:"position_in_sentence"`
	RelativePosition   float64 `json:"relative_position"`
}

// WordAnalysis is the C3 per-word breakdown.
type WordAnalysis struct {
	Word              string       `json:"word"`
	Length            int          `json:"length"`
	IsLong            bool         `json:"is_long"`
	IsVeryLong        bool         `json:"is_very_long"`
	Frequency         int          `json:"frequency"`
	RelativeFrequency float64      `json:"relative_frequency"`
	FrequencyRank     int          `json:"frequency_rank"`
	SignificanceScore float64      `json:"significance_score"`
	Position          WordPosition `json:"position"`
	Style             string       `json:"style"`
	Complexity        string       `json:"complexity"`
}

// Recommendation is one typed, prioritized improvement suggestion.
type Recommendation struct {
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Suggestion  string   `json:"suggestion"`
	Impact      string   `json:"impact"` // low | medium | high
	Examples    []string `json:"examples,omitempty"`
}

// TextStatistics summarizes a ParsedText for the wire and for recommenders.
type TextStatistics struct {
	WordCount           int     `json:"word_count"`
	SentenceCount       int     `json:"sentence_count"`
	AvgSentenceLength   float64 `json:"avg_sentence_length"`
	LongWordsCount      int     `json:"long_words_count"`
	LongWordsPercentage float64 `json:"long_words_percentage"`
}

// Provenance records how an AnalysisRecord came to be.
type Provenance struct {
	ProcessingTimeMS float64 `json:"processing_time_ms"`
	Cached           bool    `json:"cached"`
	Partial          bool    `json:"partial"`
}

// AnalysisRecord is the composite, immutable output of the readability
// service: one full analysis of one Text under one set of Options.
type AnalysisRecord struct {
	Metrics             MetricBundle       `json:"metrics"`
	CombinedDescription string             `json:"combined_description"`
	SentenceAnalyses    []SentenceAnalysis `json:"sentence_analyses,omitempty"`
	WordAnalyses        []WordAnalysis     `json:"word_analyses,omitempty"`
	Statistics          TextStatistics     `json:"statistics"`
	Recommendations     []Recommendation   `json:"recommendations,omitempty"`
	Provenance          Provenance         `json:"provenance"`
}

// JobStatus is a Job Handle's lifecycle state; transitions are strictly
// forward: queued -> processing -> completed|failed.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// BatchProgress tracks a batch job's item-level progress counters, which
// only ever move forward.
type BatchProgress struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// JobHandle identifies a piece of deferred work: a single backgrounded
// analysis, or a batch of many.
type JobHandle struct {
	ID           string                     `json:"id"`
	Status       JobStatus                  `json:"status"`
	CreatedAt    time.Time                  `json:"created_at"`
	StartedAt    time.Time                  `json:"started_at,omitempty"`
	CompletedAt  time.Time                  `json:"completed_at,omitempty"`
	Priority     int                        `json:"priority,omitempty"` // clamped to [1, 10]
	Progress     BatchProgress              `json:"progress"`
	Result       *AnalysisRecord            `json:"result,omitempty"`
	BatchResults map[string]BatchItemResult `json:"batch_results,omitempty"`
	Error        string                     `json:"error,omitempty"`
}

// BatchItemResult is one item's outcome within a batch job.
type BatchItemResult struct {
	Result *AnalysisRecord `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Session is per-connection state for the streaming typing path.
type Session struct {
	ID               string
	LastText         string
	LastTextLength   int
	LastWordCount    int
	LastProcessTime  time.Time
	DebounceWindow   time.Duration
}

// CircuitState is a snapshot of one dependency's breaker.
type CircuitState struct {
	Name            string
	State           string
	FailureCount    int
	RequestCount    int
	SuccessCount    int
	LastFailureTime time.Time
}

// PendingRequest is a transient record during pub/sub processing.
type PendingRequest struct {
	ClientID    string
	RequestID   string
	Timestamp   time.Time
	TextPreview string
}
