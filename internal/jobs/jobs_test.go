package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/crlsmrls/lixservice/internal/domain"
)

func TestSubmitAnalysis_CompletesSuccessfully(t *testing.T) {
	m := NewManager()
	done := make(chan struct{})

	h := m.SubmitAnalysis(context.Background(), func(ctx context.Context) (domain.AnalysisRecord, error) {
		defer close(done)
		return domain.AnalysisRecord{Statistics: domain.TextStatistics{WordCount: 3}}, nil
	})

	if h.Status != domain.JobQueued {
		t.Fatalf("expected initial status queued, got %s", h.Status)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for job to run")
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		got, ok := m.Get(h.ID)
		if !ok {
			t.Fatal("expected handle to be retrievable")
		}
		if got.Status == domain.JobCompleted {
			if got.Result == nil || got.Result.Statistics.WordCount != 3 {
				t.Fatalf("expected result to be attached, got %+v", got.Result)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job never reached completed status")
}

func TestSubmitAnalysis_RecordsFailure(t *testing.T) {
	m := NewManager()
	h := m.SubmitAnalysis(context.Background(), func(ctx context.Context) (domain.AnalysisRecord, error) {
		return domain.AnalysisRecord{}, errors.New("boom")
	})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		got, _ := m.Get(h.ID)
		if got.Status == domain.JobFailed {
			if got.Error != "boom" {
				t.Fatalf("expected error message preserved, got %q", got.Error)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job never reached failed status")
}

func TestSubmitAnalysis_StatusHookSeesEveryTransition(t *testing.T) {
	m := NewManager()
	var mu sync.Mutex
	var seen []domain.JobStatus
	m.OnStatusChange(func(id string, status domain.JobStatus) {
		mu.Lock()
		seen = append(seen, status)
		mu.Unlock()
	})

	h := m.SubmitAnalysis(context.Background(), func(ctx context.Context) (domain.AnalysisRecord, error) {
		return domain.AnalysisRecord{}, nil
	})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(seen)
		mu.Unlock()
		if n >= 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) < 2 {
		t.Fatalf("expected at least processing and completed notifications, got %v", seen)
	}
	if seen[len(seen)-1] != domain.JobCompleted {
		t.Fatalf("expected final notification to be completed, got %v", seen[len(seen)-1])
	}
	_ = h
}

func TestBatchManager_FinishNotifiesStatusHook(t *testing.T) {
	m := NewManager()
	bm := NewBatchManager(m)
	var mu sync.Mutex
	var last domain.JobStatus
	m.OnStatusChange(func(id string, status domain.JobStatus) {
		mu.Lock()
		last = status
		mu.Unlock()
	})

	items := []BatchItem{{ID: "a", Content: "x"}}
	h, err := bm.Submit(context.Background(), items, 5, func(ctx context.Context, item BatchItem) (domain.AnalysisRecord, error) {
		return domain.AnalysisRecord{}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		got, _ := m.Get(h.ID)
		if got.Status == domain.JobCompleted {
			mu.Lock()
			defer mu.Unlock()
			if last != domain.JobCompleted {
				t.Fatalf("expected status hook notified of completion, got %v", last)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("batch never reached completed status")
}

func TestBatchManager_RejectsEmptyAndOversized(t *testing.T) {
	m := NewManager()
	bm := NewBatchManager(m)

	_, err := bm.Submit(context.Background(), nil, 5, nil)
	if !errors.Is(err, ErrBatchEmpty) {
		t.Fatalf("expected ErrBatchEmpty, got %v", err)
	}

	items := make([]BatchItem, 101)
	for i := range items {
		items[i] = BatchItem{ID: "x", Content: "y"}
	}
	_, err = bm.Submit(context.Background(), items, 5, nil)
	if !errors.Is(err, ErrBatchTooLarge) {
		t.Fatalf("expected ErrBatchTooLarge, got %v", err)
	}
}

func TestBatchManager_ClampsPriority(t *testing.T) {
	if clampPriority(0) != 1 {
		t.Errorf("expected priority 0 clamped to 1")
	}
	if clampPriority(99) != 10 {
		t.Errorf("expected priority 99 clamped to 10")
	}
	if clampPriority(5) != 5 {
		t.Errorf("expected priority 5 unchanged")
	}
}

func TestBatchManager_ProcessesAllItems(t *testing.T) {
	m := NewManager()
	bm := NewBatchManager(m)

	items := []BatchItem{{ID: "a", Content: "x"}, {ID: "b", Content: "y"}, {ID: "c", Content: "z"}}
	h, err := bm.Submit(context.Background(), items, 5, func(ctx context.Context, item BatchItem) (domain.AnalysisRecord, error) {
		return domain.AnalysisRecord{Statistics: domain.TextStatistics{WordCount: 1}}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		got, _ := m.Get(h.ID)
		if got.Status == domain.JobCompleted {
			if got.Progress.Completed != 3 {
				t.Fatalf("expected 3 completed items, got %d", got.Progress.Completed)
			}
			if len(got.BatchResults) != 3 {
				t.Fatalf("expected 3 batch results, got %d", len(got.BatchResults))
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("batch never reached completed status")
}

func TestSessionState_DropsIdenticalText(t *testing.T) {
	s := NewSession()
	now := time.Now()
	first := s.Evaluate("hello", 1, SystemLoad{}, now)
	if first.Drop {
		t.Fatalf("expected first message not dropped")
	}
	second := s.Evaluate("hello", 1, SystemLoad{}, now.Add(time.Second))
	if !second.Drop {
		t.Fatalf("expected identical text to be dropped")
	}
}

func TestSessionState_DropsWithinDebounceWindowForSmallDelta(t *testing.T) {
	s := NewSession()
	now := time.Now()
	s.Evaluate("hello world this is a test", 5, SystemLoad{}, now)

	// Tiny delta, well within the debounce window.
	second := s.Evaluate("hello world this is a test!", 5, SystemLoad{}, now.Add(10*time.Millisecond))
	if !second.Drop {
		t.Fatalf("expected small delta within debounce window to be dropped")
	}
}

func TestComputeDebounceWindow_Bounds(t *testing.T) {
	low := computeDebounceWindow(SystemLoad{CPU: 0.1, Mem: 0.1}, 100)
	if low != debounceMin {
		t.Errorf("expected minimum window at low load, got %v", low)
	}

	high := computeDebounceWindow(SystemLoad{CPU: 0.9, Mem: 0.9}, 100)
	if high < debounceMax {
		t.Errorf("expected at least max window at high load, got %v", high)
	}
}

func TestSessionState_LocalCacheClearsWhenFull(t *testing.T) {
	s := NewSession()
	for i := 0; i < perConnectionCacheCap+5; i++ {
		s.CachePut(string(rune('a'+i%26))+string(rune(i)), domain.AnalysisRecord{})
	}
	if len(s.localCache) > perConnectionCacheCap {
		t.Errorf("expected local cache bounded to %d, got %d", perConnectionCacheCap, len(s.localCache))
	}
}

func TestChunkPlan_SizeFormula(t *testing.T) {
	paragraphs := make([]string, 23)
	for i := range paragraphs {
		paragraphs[i] = "p"
	}
	chunks := ChunkPlan(paragraphs)
	// size = max(1, 23/10) = 2, so ceil(23/2) = 12 chunks
	if len(chunks) != 12 {
		t.Fatalf("expected 12 chunks, got %d", len(chunks))
	}
}

func TestChunkPlan_CapsAtMaxChunkSize(t *testing.T) {
	paragraphs := make([]string, 100)
	for i := range paragraphs {
		paragraphs[i] = "p"
	}
	chunks := ChunkPlan(paragraphs)
	for _, c := range chunks {
		if len(c) > maxChunkSize {
			t.Fatalf("expected chunk size capped at %d, got %d", maxChunkSize, len(c))
		}
	}
}

func TestIsMilestone(t *testing.T) {
	if !IsMilestone(50, false) {
		t.Errorf("expected progress 50%% to be a milestone")
	}
	if IsMilestone(33, false) {
		t.Errorf("expected progress 33%% not to be a milestone")
	}
	if !IsMilestone(10, true) {
		t.Errorf("expected final chunk to always be a milestone")
	}
}

func TestIncludesStatistics(t *testing.T) {
	if !IncludesStatistics(3, false) {
		t.Errorf("expected every third chunk to include statistics")
	}
	if IncludesStatistics(2, false) {
		t.Errorf("expected non-third, non-final chunk to omit statistics")
	}
	if !IncludesStatistics(2, true) {
		t.Errorf("expected final chunk to always include statistics")
	}
}
