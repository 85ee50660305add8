// Package jobs implements component C7's background task and batch
// scheduling patterns: a pollable job handle store for large-text
// backgrounding, and a priority-ordered batch processor, both grounded on
// the worker-pool parallelism batched_text_processor.py uses (there, a
// ProcessPoolExecutor; here, a size-bounded goroutine pool via
// golang.org/x/sync/semaphore).
package jobs

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/crlsmrls/lixservice/internal/domain"
)

// StatusHook is called whenever a handle (single-job or batch) transitions
// status, so a caller can mirror it somewhere handle lookups on another
// replica can see.
type StatusHook func(id string, status domain.JobStatus)

// Manager owns the job-handle store and the worker pool background
// analyses and batch items run on.
type Manager struct {
	mu      sync.RWMutex
	handles map[string]*domain.JobHandle

	sem        *semaphore.Weighted
	statusHook StatusHook
}

// OnStatusChange installs the hook invoked on every status transition.
// Registered once at startup, before any job is submitted.
func (m *Manager) OnStatusChange(fn StatusHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusHook = fn
}

// NewManager builds a Manager whose worker pool defaults to the machine's
// CPU count, per spec.md §5's concurrency model.
func NewManager() *Manager {
	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	return &Manager{
		handles: make(map[string]*domain.JobHandle),
		sem:     semaphore.NewWeighted(int64(workers)),
	}
}

// estimatedBackgroundDuration is the completion estimate handed back to a
// synchronous caller alongside a fresh job handle; it is intentionally
// coarse, not a prediction.
const estimatedBackgroundDuration = 2 * time.Second

// SubmitAnalysis creates a queued job handle and runs fn asynchronously on
// the worker pool, transitioning the handle queued -> processing ->
// completed|failed as it does.
func (m *Manager) SubmitAnalysis(ctx context.Context, fn func(context.Context) (domain.AnalysisRecord, error)) *domain.JobHandle {
	h := &domain.JobHandle{
		ID:        uuid.NewString(),
		Status:    domain.JobQueued,
		CreatedAt: timeNow(),
	}
	m.store(h)

	go m.runAnalysis(ctx, h.ID, fn)
	return h
}

func (m *Manager) runAnalysis(ctx context.Context, id string, fn func(context.Context) (domain.AnalysisRecord, error)) {
	if err := m.sem.Acquire(ctx, 1); err != nil {
		m.fail(id, err)
		return
	}
	defer m.sem.Release(1)

	m.transitionTo(id, domain.JobProcessing)

	result, err := fn(ctx)
	if err != nil {
		m.fail(id, err)
		return
	}
	m.complete(id, result)
}

// Get returns a snapshot of a job handle by id.
func (m *Manager) Get(id string) (domain.JobHandle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.handles[id]
	if !ok {
		return domain.JobHandle{}, false
	}
	return *h, true
}

// EstimatedCompletion returns the coarse completion estimate for a freshly
// submitted job.
func EstimatedCompletion() time.Duration { return estimatedBackgroundDuration }

// QueueDepth counts handles still queued or processing, for the
// job_queue_depth gauge.
func (m *Manager) QueueDepth() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, h := range m.handles {
		if h.Status == domain.JobQueued || h.Status == domain.JobProcessing {
			n++
		}
	}
	return n
}

// IDs returns a snapshot of every handle id this Manager currently holds,
// single-job and batch alike, for cleaning up this replica's own
// cache-backed status markers on shutdown.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.handles))
	for id := range m.handles {
		ids = append(ids, id)
	}
	return ids
}

func (m *Manager) store(h *domain.JobHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handles[h.ID] = h
}

func (m *Manager) transitionTo(id string, status domain.JobStatus) {
	m.mu.Lock()
	h, ok := m.handles[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	h.Status = status
	if status == domain.JobProcessing {
		h.StartedAt = timeNow()
	}
	hook := m.statusHook
	m.mu.Unlock()
	m.notify(hook, id, status)
}

func (m *Manager) complete(id string, result domain.AnalysisRecord) {
	m.mu.Lock()
	h, ok := m.handles[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	h.Status = domain.JobCompleted
	h.CompletedAt = timeNow()
	h.Result = &result
	hook := m.statusHook
	m.mu.Unlock()
	m.notify(hook, id, domain.JobCompleted)
}

func (m *Manager) fail(id string, err error) {
	m.mu.Lock()
	h, ok := m.handles[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	h.Status = domain.JobFailed
	h.CompletedAt = timeNow()
	h.Error = err.Error()
	hook := m.statusHook
	m.mu.Unlock()
	m.notify(hook, id, domain.JobFailed)
}

func (m *Manager) notify(hook StatusHook, id string, status domain.JobStatus) {
	if hook != nil {
		hook(id, status)
	}
}

// timeNow is a thin indirection so tests can observe ordering without
// depending on wall-clock precision.
var timeNow = func() time.Time { return time.Now() }

// ErrBatchTooLarge and ErrBatchEmpty are the two batch-admission failures
// spec.md §4.7 names explicitly.
var (
	ErrBatchEmpty    = fmt.Errorf("batch must contain at least one item")
	ErrBatchTooLarge = fmt.Errorf("batch exceeds the maximum of %d items", maxBatchItems)
)

const maxBatchItems = 100
