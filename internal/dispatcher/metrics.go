// Package dispatcher - metrics.go provides lightweight per-method counters.
//
// DESIGN: Counters only; export to Prometheus or similar for production.
package dispatcher

import (
	"sync"
	"time"
)

// MethodStats aggregates dispatch outcomes for one service method.
type MethodStats struct {
	Calls     int64
	Failures  int64
	TotalTime time.Duration
	MaxTime   time.Duration
}

// Metrics collects per-method dispatch statistics.
type Metrics struct {
	mu    sync.Mutex
	stats map[string]*MethodStats
}

// NewMetrics creates an empty metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{stats: make(map[string]*MethodStats)}
}

// RecordCall records one resolved call. A call counts as a failure when its
// context carried an unhandled error.
func (m *Metrics) RecordCall(path, method string, ok bool, latency time.Duration) {
	key := path + "." + method

	m.mu.Lock()
	defer m.mu.Unlock()

	s, exists := m.stats[key]
	if !exists {
		s = &MethodStats{}
		m.stats[key] = s
	}
	s.Calls++
	if !ok {
		s.Failures++
	}
	s.TotalTime += latency
	if latency > s.MaxTime {
		s.MaxTime = latency
	}
}

// Stats returns a copy of the current per-method statistics keyed by
// "path.method".
func (m *Metrics) Stats() map[string]MethodStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]MethodStats, len(m.stats))
	for k, v := range m.stats {
		out[k] = *v
	}
	return out
}
