// Package breaker implements the circuit breaker pattern guarding the
// cache, pub/sub, and persistent-queue adapters (component C10).
//
// Grounded on the original service's app/services/circuit_breaker.py: the
// same three states, the same trip conditions (consecutive failures, or a
// failure ratio past a minimum sample size), and the same half-open
// single-trial recovery.
package breaker

import (
	"sync"
	"time"

	"github.com/crlsmrls/lixservice/internal/domain"
	"github.com/rs/zerolog/log"
)

// State is one of the three circuit states.
type State string

const (
	Closed   State = "CLOSED"
	Open     State = "OPEN"
	HalfOpen State = "HALF_OPEN"
)

// Config tunes a Breaker's trip and recovery behavior.
type Config struct {
	Name               string
	MaxFailures        int           // consecutive failures before opening
	ResetTimeout       time.Duration // time in OPEN before a half-open trial
	FailureThresholdPct float64      // percent failure ratio past MinSamples
	MinSamples         int           // requests observed before ratio trips
}

// DefaultConfig mirrors the Python service's defaults (max_failures=5,
// reset_timeout=60s, failure_threshold_percentage=50, 10 observed requests).
func DefaultConfig(name string) Config {
	return Config{
		Name:                name,
		MaxFailures:         5,
		ResetTimeout:        60 * time.Second,
		FailureThresholdPct: 50,
		MinSamples:          10,
	}
}

// Breaker guards a single external dependency. Its counters are mutated
// only under its own lock (spec §5 shared-resource policy).
type Breaker struct {
	cfg Config

	mu              sync.Mutex
	state           State
	failureCount    int
	requestCount    int
	successCount    int
	lastFailureTime time.Time
}

// New constructs a Breaker in the Closed state.
func New(cfg Config) *Breaker {
	return &Breaker{cfg: cfg, state: Closed}
}

// State returns the current state, promoting OPEN to HALF_OPEN once the
// reset timeout has elapsed (lazily, on read, exactly like the Python
// `state` property).
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked()
}

func (b *Breaker) stateLocked() State {
	if b.state == Open && time.Since(b.lastFailureTime) > b.cfg.ResetTimeout {
		b.state = HalfOpen
		log.Info().Str("circuit", b.cfg.Name).Msg("circuit switched to half-open")
	}
	return b.state
}

// CanExecute reports whether a call should be allowed through.
func (b *Breaker) CanExecute() bool {
	return b.State() != Open
}

// Success reports a successful operation, closing the circuit if it was
// half-open.
func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == HalfOpen {
		b.failureCount = 0
		b.requestCount = 0
		b.successCount = 0
		b.state = Closed
		log.Info().Str("circuit", b.cfg.Name).Msg("circuit closed after successful trial")
		return
	}

	if b.state == Closed {
		b.failureCount = 0
		b.successCount++
		b.requestCount++
	}
}

// Failure reports a failed operation, potentially opening the circuit.
func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailureTime = time.Now()
	b.failureCount++
	b.requestCount++

	switch b.state {
	case Closed:
		if b.failureCount >= b.cfg.MaxFailures {
			b.state = Open
			log.Warn().Str("circuit", b.cfg.Name).Int("failures", b.failureCount).Msg("circuit opened: consecutive failures")
			return
		}
		if b.requestCount > b.cfg.MinSamples {
			failurePct := 100 * float64(b.requestCount-b.successCount) / float64(b.requestCount)
			if failurePct > b.cfg.FailureThresholdPct {
				b.state = Open
				log.Warn().Str("circuit", b.cfg.Name).Float64("failure_pct", failurePct).Msg("circuit opened: failure ratio")
			}
		}
	case HalfOpen:
		b.state = Open
		log.Warn().Str("circuit", b.cfg.Name).Msg("circuit reopened: trial failed")
	}
}

// Reset forces the circuit back to Closed with cleared counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Closed
	b.failureCount = 0
	b.requestCount = 0
	b.successCount = 0
}

// Snapshot returns the current circuit state as a domain.CircuitState.
func (b *Breaker) Snapshot() domain.CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return domain.CircuitState{
		Name:            b.cfg.Name,
		State:           string(b.stateLocked()),
		FailureCount:    b.failureCount,
		RequestCount:    b.requestCount,
		SuccessCount:    b.successCount,
		LastFailureTime: b.lastFailureTime,
	}
}

// Do executes fn under the breaker's protection. If the circuit is open it
// returns a domain.ErrCircuitOpen error without invoking fn (fast-fail,
// spec §7). Any error fn returns counts as a failure; a nil error counts as
// success.
func Do[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	if !b.CanExecute() {
		return zero, domain.NewError(domain.ErrCircuitOpen, "circuit "+b.cfg.Name+" is open")
	}

	result, err := fn()
	if err != nil {
		b.Failure()
		return zero, err
	}
	b.Success()
	return result, nil
}
