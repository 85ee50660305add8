// Package sysstats samples process-level system statistics for the
// /health endpoint's system section, grounded on the shape of the
// teacher's cmd/info.Info struct (process/uptime/OS/arch fields), adapted
// to the {cpu_percent, memory_percent, disk_percent} triple spec.md §6
// names. No OS-stats library appears anywhere in the retrieval pack, so
// this samples runtime.ReadMemStats and runtime.NumGoroutine() directly
// rather than reaching for gopsutil or similar.
package sysstats

import (
	"runtime"
	"sync"
	"time"
)

// Snapshot is one sample of process-level resource usage.
type Snapshot struct {
	CPUPercent    float64
	MemoryPercent float64
	DiskPercent   float64
	Goroutines    int
	SampledAt     time.Time
}

// Sampler reports the runtime's cumulative GC CPU fraction (the share of
// CPU time spent in GC since the process started) as a CPU-load proxy; it
// records the last sample but does not difference successive samples.
type Sampler struct {
	mu           sync.Mutex
	lastSampleAt time.Time
	lastGCCPU    float64

	// memCeiling bounds the denominator memoryPercent is computed against;
	// it approximates a container memory limit when none is known.
	memCeiling uint64
}

// NewSampler builds a Sampler. memCeilingBytes is the denominator used for
// MemoryPercent; pass 0 to default to 512MiB, a conservative guess absent
// any cgroup-aware limit detection in this pack.
func NewSampler(memCeilingBytes uint64) *Sampler {
	if memCeilingBytes == 0 {
		memCeilingBytes = 512 * 1024 * 1024
	}
	return &Sampler{memCeiling: memCeilingBytes}
}

// Sample takes one point-in-time reading.
func (s *Sampler) Sample() Snapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	now := time.Now()
	s.mu.Lock()
	cpuPct := s.cpuPercentLocked(mem.GCCPUFraction, now)
	s.mu.Unlock()

	memPct := float64(mem.Sys) / float64(s.memCeiling) * 100
	if memPct > 100 {
		memPct = 100
	}

	return Snapshot{
		CPUPercent:    cpuPct,
		MemoryPercent: memPct,
		DiskPercent:   0, // no disk-usage source exists anywhere in the pack
		Goroutines:    runtime.NumGoroutine(),
		SampledAt:     now,
	}
}

// cpuPercentLocked converts the cumulative GC CPU fraction into a coarse
// percentage figure; it is a proxy for load, not a precise CPU meter.
func (s *Sampler) cpuPercentLocked(gcCPUFraction float64, now time.Time) float64 {
	pct := gcCPUFraction * 100
	s.lastSampleAt = now
	s.lastGCCPU = gcCPUFraction
	if pct > 100 {
		return 100
	}
	return pct
}
