package observability

import (
	"sync"
)

// Metrics provides basic in-memory counters for sweeps and session
// verdicts.
type Metrics struct {
	mu           sync.Mutex
	sweepRuns    map[string]int64
	sweepItems   map[string]int64
	sweepErrors  map[string]int64
	verdictCount map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		sweepRuns:    make(map[string]int64),
		sweepItems:   make(map[string]int64),
		sweepErrors:  make(map[string]int64),
		verdictCount: make(map[string]int64),
	}
}

// RecordSweep increments counters for one sweeper run.
func (m *Metrics) RecordSweep(job string, processed int, failed int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepRuns[job]++
	m.sweepItems[job] += int64(processed)
	m.sweepErrors[job] += int64(failed)
}

// RecordVerdict counts a session pipeline outcome by reason code.
func (m *Metrics) RecordVerdict(reason string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verdictCount[reason]++
}

// SweepRuns returns the run count for a job.
func (m *Metrics) SweepRuns(job string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepRuns[job]
}

// Verdicts returns the count for a verdict reason.
func (m *Metrics) Verdicts(reason string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.verdictCount[reason]
}
