package registry

import (
	"testing"

	"github.com/crlsmrls/lixservice/internal/jobs"
	"github.com/crlsmrls/lixservice/internal/readability"
)

func newTestRegistry() *Registry {
	jobMgr := jobs.NewManager()
	return New(readability.New(), nil, jobMgr, jobs.NewBatchManager(jobMgr), nil, nil)
}

func TestNew_StartsInInitState(t *testing.T) {
	r := newTestRegistry()
	if r.State() != Init {
		t.Errorf("expected initial state %s, got %s", Init, r.State())
	}
}

func TestLifecycle_HappyPath(t *testing.T) {
	r := newTestRegistry()
	if err := r.MarkReady(); err != nil {
		t.Fatalf("unexpected error marking ready: %v", err)
	}
	if r.State() != Ready {
		t.Errorf("expected ready, got %s", r.State())
	}
	if err := r.BeginDraining(); err != nil {
		t.Fatalf("unexpected error draining: %v", err)
	}
	if r.State() != Draining {
		t.Errorf("expected draining, got %s", r.State())
	}
	if err := r.Close(); err != nil {
		t.Fatalf("unexpected error closing: %v", err)
	}
	if r.State() != Closed {
		t.Errorf("expected closed, got %s", r.State())
	}
}

func TestLifecycle_RejectsOutOfOrderTransitions(t *testing.T) {
	r := newTestRegistry()
	if err := r.BeginDraining(); err == nil {
		t.Fatal("expected error draining before ready")
	}
	if err := r.Close(); err == nil {
		t.Fatal("expected error closing before ready/draining")
	}
}

func TestLifecycle_CloseAllowsSkippingExplicitDrain(t *testing.T) {
	r := newTestRegistry()
	if err := r.MarkReady(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("expected close from ready to succeed, got %v", err)
	}
}

func TestNew_RegistersStubAnalyzers(t *testing.T) {
	r := newTestRegistry()
	if r.Grammar == nil || r.Spellcheck == nil || r.NLP == nil {
		t.Fatal("expected stub analyzers registered for grammar/spellcheck/nlp")
	}
}
