// Package registry implements the process-level service registry Design
// Notes #2 calls for in place of the original service's module-level
// singletons: a single struct holding every long-lived dependency,
// constructed once in main and passed explicitly into the HTTP server and
// the pub/sub handlers, with an explicit init -> ready -> draining ->
// closed lifecycle guarded by one lock.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/crlsmrls/lixservice/internal/analyze"
	"github.com/crlsmrls/lixservice/internal/cache"
	"github.com/crlsmrls/lixservice/internal/domain"
	"github.com/crlsmrls/lixservice/internal/jobs"
	"github.com/crlsmrls/lixservice/internal/pubsub"
	"github.com/crlsmrls/lixservice/internal/queue"
	"github.com/crlsmrls/lixservice/internal/readability"
)

// State is a registry's lifecycle phase.
type State string

const (
	Init     State = "init"
	Ready    State = "ready"
	Draining State = "draining"
	Closed   State = "closed"
)

// Registry holds every service this process shares across the HTTP
// server, the streaming path, and the pub/sub handlers. main constructs
// the long-lived services and builds one Registry from them at startup.
type Registry struct {
	mu    sync.Mutex
	state State

	Readability *readability.Service
	Cache       *cache.Cache
	Jobs        *jobs.Manager
	Batches     *jobs.BatchManager
	PubSub      *pubsub.Router
	Queue       *queue.Queue
	Grammar     analyze.Analyzer
	Spellcheck  analyze.Analyzer
	NLP         analyze.Analyzer
}

// New constructs a Registry in the init state. Services are expected to
// already be built (their own constructors are lazy about dialing); New
// only wires them together and sets the lifecycle state.
func New(svc *readability.Service, c *cache.Cache, jobMgr *jobs.Manager, batchMgr *jobs.BatchManager, router *pubsub.Router, q *queue.Queue) *Registry {
	if jobMgr != nil && c != nil {
		jobMgr.OnStatusChange(func(id string, status domain.JobStatus) {
			c.SetTaskStatus(id, string(status))
			c.SetBatchJob(id, string(status))
		})
	}
	return &Registry{
		state:       Init,
		Readability: svc,
		Cache:       c,
		Jobs:        jobMgr,
		Batches:     batchMgr,
		PubSub:      router,
		Queue:       q,
		Grammar:     analyze.NewStubAnalyzer("grammar"),
		Spellcheck:  analyze.NewStubAnalyzer("spellcheck"),
		NLP:         analyze.NewStubAnalyzer("nlp"),
	}
}

// State returns the current lifecycle phase.
func (r *Registry) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// MarkReady transitions init -> ready. It is an error to call this from
// any other state.
func (r *Registry) MarkReady() error {
	return r.transition(Init, Ready)
}

// BeginDraining transitions ready -> draining, signaling that no new work
// should be admitted while in-flight work finishes.
func (r *Registry) BeginDraining() error {
	return r.transition(Ready, Draining)
}

// Close transitions draining -> closed and releases every owned resource.
// It tolerates being called from ready directly (skipping an explicit
// drain) for abrupt shutdowns.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.state != Draining && r.state != Ready {
		r.mu.Unlock()
		return fmt.Errorf("registry: cannot close from state %s", r.state)
	}
	r.state = Closed
	r.mu.Unlock()

	if r.PubSub != nil {
		r.PubSub.Stop(context.Background())
	}
	if r.Queue != nil {
		r.Queue.Stop()
	}
	if r.Cache != nil {
		var ids []string
		if r.Jobs != nil {
			ids = r.Jobs.IDs()
		}
		r.Cache.PurgeTransient(ids)
		_ = r.Cache.Close()
	}
	return nil
}

func (r *Registry) transition(from, to State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != from {
		return fmt.Errorf("registry: cannot transition %s -> %s from state %s", from, to, r.state)
	}
	r.state = to
	return nil
}
