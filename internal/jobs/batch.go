package jobs

import (
	"container/heap"
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/crlsmrls/lixservice/internal/domain"
)

// BatchItem is one {id, content} entry of an inbound batch request.
type BatchItem struct {
	ID      string
	Content string
}

// clampPriority bounds a requested priority to [1, 10].
func clampPriority(p int) int {
	if p < 1 {
		return 1
	}
	if p > 10 {
		return 10
	}
	return p
}

type batchJob struct {
	priority int
	seq      int // admission order, for stable ordering within a priority
	handleID string
	items    []BatchItem
}

type batchQueue []*batchJob

func (q batchQueue) Len() int { return len(q) }
func (q batchQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority > q[j].priority // higher priority first
	}
	return q[i].seq < q[j].seq
}
func (q batchQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *batchQueue) Push(x interface{}) { *q = append(*q, x.(*batchJob)) }
func (q *batchQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// BatchManager admits and processes batches through a priority-ordered
// queue, advancing each job's progress counters after every item and
// refreshing its per-item result snapshot every 5 items, per spec.md §4.7.
type BatchManager struct {
	jobs *Manager

	mu       sync.Mutex
	queue    batchQueue
	admitted int
}

// NewBatchManager builds a BatchManager sharing its parent Manager's
// worker pool and handle store.
func NewBatchManager(jobs *Manager) *BatchManager {
	bm := &BatchManager{jobs: jobs}
	heap.Init(&bm.queue)
	return bm
}

// Submit admits a batch and returns its job handle immediately; processing
// runs asynchronously and updates the handle's BatchProgress.
func (bm *BatchManager) Submit(ctx context.Context, items []BatchItem, priority int, process func(context.Context, BatchItem) (domain.AnalysisRecord, error)) (*domain.JobHandle, error) {
	if len(items) == 0 {
		return nil, ErrBatchEmpty
	}
	if len(items) > maxBatchItems {
		return nil, ErrBatchTooLarge
	}

	h := &domain.JobHandle{
		ID:        uuid.NewString(),
		Status:    domain.JobQueued,
		CreatedAt: timeNow(),
		Priority:  clampPriority(priority),
		Progress:  domain.BatchProgress{Total: len(items)},
	}
	bm.jobs.store(h)

	bm.mu.Lock()
	bm.admitted++
	job := &batchJob{priority: h.Priority, seq: bm.admitted, handleID: h.ID, items: items}
	heap.Push(&bm.queue, job)
	bm.mu.Unlock()

	go bm.run(ctx, job, process)
	return h, nil
}

func (bm *BatchManager) run(ctx context.Context, job *batchJob, process func(context.Context, BatchItem) (domain.AnalysisRecord, error)) {
	bm.jobs.transitionTo(job.handleID, domain.JobProcessing)

	results := make(map[string]domain.BatchItemResult, len(job.items))
	for i, item := range job.items {
		if err := bm.jobs.sem.Acquire(ctx, 1); err != nil {
			bm.jobs.fail(job.handleID, err)
			return
		}
		record, err := process(ctx, item)
		bm.jobs.sem.Release(1)

		if err != nil {
			results[item.ID] = domain.BatchItemResult{Error: err.Error()}
			bm.advanceProgress(job.handleID, false)
		} else {
			results[item.ID] = domain.BatchItemResult{Result: &record}
			bm.advanceProgress(job.handleID, true)
		}

		if (i+1)%5 == 0 || i == len(job.items)-1 {
			bm.syncResults(job.handleID, results)
		}
	}

	bm.finish(job.handleID, results)
}

func (bm *BatchManager) advanceProgress(id string, succeeded bool) {
	bm.jobs.mu.Lock()
	defer bm.jobs.mu.Unlock()
	h, ok := bm.jobs.handles[id]
	if !ok {
		return
	}
	if succeeded {
		h.Progress.Completed++
	} else {
		h.Progress.Failed++
	}
}

func (bm *BatchManager) syncResults(id string, results map[string]domain.BatchItemResult) {
	bm.jobs.mu.Lock()
	defer bm.jobs.mu.Unlock()
	h, ok := bm.jobs.handles[id]
	if !ok {
		return
	}
	h.BatchResults = copyResults(results)
}

func (bm *BatchManager) finish(id string, results map[string]domain.BatchItemResult) {
	bm.jobs.mu.Lock()
	h, ok := bm.jobs.handles[id]
	if !ok {
		bm.jobs.mu.Unlock()
		return
	}
	h.BatchResults = copyResults(results)
	h.CompletedAt = timeNow()
	h.Status = domain.JobCompleted
	if h.Progress.Failed == h.Progress.Total {
		h.Status = domain.JobFailed
	}
	status := h.Status
	hook := bm.jobs.statusHook
	bm.jobs.mu.Unlock()
	bm.jobs.notify(hook, id, status)
}

func copyResults(src map[string]domain.BatchItemResult) map[string]domain.BatchItemResult {
	dst := make(map[string]domain.BatchItemResult, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
