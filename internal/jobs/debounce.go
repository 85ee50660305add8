package jobs

import (
	"sync"
	"time"

	"github.com/crlsmrls/lixservice/internal/domain"
)

const (
	debounceMin = 100 * time.Millisecond
	debounceMax = 800 * time.Millisecond

	lengthDeltaDropPct = 0.15
	largeTextMultiplier = 1.2
	largeTextThreshold   = 5000

	partialThresholdChars  = 1000
	recentRunThreshold     = 500 * time.Millisecond
	syncOnlyThresholdChars = 10000

	recommendWordThreshold = 15
	recommendQuietPeriod   = 700 * time.Millisecond

	perConnectionCacheCap = 20
)

// SystemLoad is the (cpu%, mem%) pair the debounce formula reduces to a
// single load factor sigma = (cpu+mem)/2, each in [0,1].
type SystemLoad struct {
	CPU float64
	Mem float64
}

// Sigma is the blended load factor.
func (l SystemLoad) Sigma() float64 { return (l.CPU + l.Mem) / 2 }

// DebounceDecision is the outcome of feeding one message through a
// session's debounce state machine.
type DebounceDecision struct {
	Drop             bool
	EmitPartial      bool
	ScheduleDetailed bool
	SyncOnlyPartial  bool
	AllowRecommend   bool
}

// SessionState is per-connection streaming state, grounded on spec.md
// §4.7's five-field session record.
type SessionState struct {
	mu sync.Mutex

	LastText        string
	LastTextLength  int
	LastWordCount   int
	LastProcessTime time.Time
	DebounceWindow  time.Duration

	localCache map[string]domain.AnalysisRecord
}

// NewSession builds a session with the minimum debounce window.
func NewSession() *SessionState {
	return &SessionState{DebounceWindow: debounceMin, localCache: make(map[string]domain.AnalysisRecord)}
}

// Evaluate runs steps 1-3 and 5-6 of the streaming decision procedure for
// an incoming text payload, updating session state as a side effect of
// steps that are not a drop.
func (s *SessionState) Evaluate(text string, wordCount int, load SystemLoad, now time.Time) DebounceDecision {
	s.mu.Lock()
	defer s.mu.Unlock()

	if text == s.LastText {
		return DebounceDecision{Drop: true}
	}

	elapsed := now.Sub(s.LastProcessTime)
	if s.LastProcessTime.IsZero() {
		elapsed = s.DebounceWindow
	}

	lengthDelta := 0.0
	if s.LastTextLength > 0 {
		delta := len([]rune(text)) - s.LastTextLength
		if delta < 0 {
			delta = -delta
		}
		lengthDelta = float64(delta) / float64(s.LastTextLength)
	}

	if elapsed < s.DebounceWindow && lengthDelta < lengthDeltaDropPct {
		return DebounceDecision{Drop: true}
	}

	s.DebounceWindow = computeDebounceWindow(load, len([]rune(text)))

	textLen := len([]rune(text))
	decision := DebounceDecision{}
	switch {
	case textLen > syncOnlyThresholdChars:
		decision.SyncOnlyPartial = true
		decision.EmitPartial = true
	case textLen > partialThresholdChars || elapsed < recentRunThreshold:
		decision.EmitPartial = true
		decision.ScheduleDetailed = true
	default:
		decision.ScheduleDetailed = true
	}

	decision.AllowRecommend = wordCount > recommendWordThreshold && elapsed > recommendQuietPeriod

	s.LastText = text
	s.LastTextLength = textLen
	s.LastWordCount = wordCount
	s.LastProcessTime = now

	return decision
}

// computeDebounceWindow implements step 3: interpolate within
// [debounceMin, debounceMax] by system load, then widen for long texts.
func computeDebounceWindow(load SystemLoad, textLen int) time.Duration {
	sigma := load.Sigma()

	var window time.Duration
	switch {
	case sigma > 0.8:
		window = debounceMax
	case sigma > 0.5:
		// Linear interpolation between min and max across (0.5, 0.8].
		frac := (sigma - 0.5) / 0.3
		window = debounceMin + time.Duration(frac*float64(debounceMax-debounceMin))
	default:
		window = debounceMin
	}

	if textLen > largeTextThreshold {
		window = time.Duration(float64(window) * largeTextMultiplier)
	}
	if window > debounceMax {
		window = debounceMax // cap runaway widening from the large-text multiplier
	}
	return window
}

// CacheGet consults the per-connection bounded cache.
func (s *SessionState) CacheGet(fingerprint string) (domain.AnalysisRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.localCache[fingerprint]
	return v, ok
}

// CachePut stores a result in the per-connection cache, clearing it
// wholesale once it exceeds the size cap rather than evicting piecemeal.
func (s *SessionState) CachePut(fingerprint string, record domain.AnalysisRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.localCache) >= perConnectionCacheCap {
		s.localCache = make(map[string]domain.AnalysisRecord)
	}
	s.localCache[fingerprint] = record
}
