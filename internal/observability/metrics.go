package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu                 sync.Mutex
	requestCount       map[string]int64
	requestDuration    map[string]time.Duration
	errorCount         map[string]int64
	sideEffectFailures map[string]int64
	droppedEvents      int64
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Requests           map[string]int64 `json:"requests"`
	AvgLatencyMillis   map[string]int64 `json:"avg_latency_ms"`
	Errors             map[string]int64 `json:"errors"`
	SideEffectFailures map[string]int64 `json:"side_effect_failures"`
	DroppedEvents      int64            `json:"dropped_events"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:       make(map[string]int64),
		requestDuration:    make(map[string]time.Duration),
		errorCount:         make(map[string]int64),
		sideEffectFailures: make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.requestDuration[key] += duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordSideEffectFailure counts a failed audit write, notification or other secondary effect.
func (m *Metrics) RecordSideEffectFailure(kind string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sideEffectFailures[kind]++
}

// RecordDroppedEvent counts events rejected by a full dispatcher queue.
func (m *Metrics) RecordDroppedEvent() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.droppedEvents++
}

// SideEffectFailures returns the failure count for kind.
func (m *Metrics) SideEffectFailures(kind string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sideEffectFailures[kind]
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		Requests:           map[string]int64{},
		AvgLatencyMillis:   map[string]int64{},
		Errors:             map[string]int64{},
		SideEffectFailures: map[string]int64{},
	}
	if m == nil {
		return snap
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.requestCount {
		snap.Requests[k] = v
		if v > 0 {
			snap.AvgLatencyMillis[k] = (m.requestDuration[k] / time.Duration(v)).Milliseconds()
		}
	}
	for k, v := range m.errorCount {
		snap.Errors[k] = v
	}
	for k, v := range m.sideEffectFailures {
		snap.SideEffectFailures[k] = v
	}
	snap.DroppedEvents = m.droppedEvents
	return snap
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
