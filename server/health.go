package server

import (
	"net/http"

	"github.com/crlsmrls/lixservice/internal/breaker"
	"github.com/crlsmrls/lixservice/metrics"
)

// serviceStatus is one dependency's up/down/unknown reading for /health.
type serviceStatus string

const (
	statusUp      serviceStatus = "up"
	statusDown    serviceStatus = "down"
	statusUnknown serviceStatus = "unknown"
)

func statusFromCircuit(state breaker.State) serviceStatus {
	switch state {
	case breaker.Open:
		return statusDown
	case breaker.Closed, breaker.HalfOpen:
		return statusUp
	default:
		return statusUnknown
	}
}

func toMetricsCircuitState(state string) metrics.CircuitState {
	switch breaker.State(state) {
	case breaker.Open:
		return metrics.CircuitOpen
	case breaker.HalfOpen:
		return metrics.CircuitHalfOpen
	default:
		return metrics.CircuitClosed
	}
}

type healthServices struct {
	Cache           serviceStatus `json:"cache"`
	Messaging       serviceStatus `json:"messaging"`
	PersistentQueue serviceStatus `json:"persistent_queue"`
	PubSub          serviceStatus `json:"pubsub"`
}

type healthSystem struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	DiskPercent   float64 `json:"disk_percent"`
}

type healthMetrics struct {
	CacheHitRatio float64 `json:"cache_hit_ratio"`
}

type healthResponse struct {
	Status   string         `json:"status"`
	Services healthServices `json:"services"`
	System   healthSystem   `json:"system"`
	Metrics  healthMetrics  `json:"metrics"`
}

// handleHealth reports one aggregate status plus each dependency's own
// reading; a single degraded service degrades the whole, per spec.md §6.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	services := healthServices{
		Cache:           statusUnknown,
		Messaging:       statusUnknown,
		PersistentQueue: statusUnknown,
		PubSub:          statusUnknown,
	}

	var hitRatio float64
	if s.registry != nil {
		if c := s.registry.Cache; c != nil {
			state := c.CircuitState()
			services.Cache = statusFromCircuit(breaker.State(state.State))
			hitRatio = c.HitRatio()
			metrics.SetCircuitBreakerState("cache", toMetricsCircuitState(state.State))
		}
		if q := s.registry.Queue; q != nil {
			state := q.CircuitState()
			st := statusFromCircuit(breaker.State(state.State))
			services.Messaging = st
			services.PersistentQueue = st
			metrics.SetCircuitBreakerState("persistent_queue", toMetricsCircuitState(state.State))
		}
		if p := s.registry.PubSub; p != nil {
			state := p.CircuitState()
			services.PubSub = statusFromCircuit(breaker.State(state.State))
			metrics.SetCircuitBreakerState("pubsub", toMetricsCircuitState(state.State))
		}
		if j := s.registry.Jobs; j != nil {
			metrics.SetJobQueueDepth(j.QueueDepth())
		}
	}

	metrics.SetCacheHitRatio(hitRatio)

	overall := "healthy"
	for _, st := range []serviceStatus{services.Cache, services.Messaging, services.PersistentQueue, services.PubSub} {
		if st == statusDown {
			overall = "degraded"
			break
		}
	}

	snap := s.sampler.Sample()

	writeJSON(w, http.StatusOK, healthResponse{
		Status: overall,
		Services: services,
		System: healthSystem{
			CPUPercent:    snap.CPUPercent,
			MemoryPercent: snap.MemoryPercent,
			DiskPercent:   snap.DiskPercent,
		},
		Metrics: healthMetrics{CacheHitRatio: hitRatio},
	})
}
