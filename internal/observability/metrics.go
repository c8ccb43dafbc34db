package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
	validations  map[string]int64
	decisions    map[string]int64
	authEvents   map[string]int64
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Requests    map[string]int64 `json:"requests"`
	Errors      map[string]int64 `json:"errors"`
	Validations map[string]int64 `json:"validations"`
	Decisions   map[string]int64 `json:"decisions"`
	AuthEvents  map[string]int64 `json:"auth_events"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		validations:  make(map[string]int64),
		decisions:    make(map[string]int64),
		authEvents:   make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, _ time.Duration) {
	if m == nil {
		return
	}
	m.inc(m.requestCount, pathKey(path, method, status))
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.inc(m.errorCount, path+"|"+method+"|"+code)
}

// RecordValidation counts token validation outcomes (cache_hit, valid, invalid, degraded, malformed).
func (m *Metrics) RecordValidation(outcome string) {
	if m == nil {
		return
	}
	m.inc(m.validations, outcome)
}

// RecordDecision counts portal guard decisions.
func (m *Metrics) RecordDecision(decision string) {
	if m == nil {
		return
	}
	m.inc(m.decisions, decision)
}

// RecordAuthEvent counts audited auth events.
func (m *Metrics) RecordAuthEvent(eventType string) {
	if m == nil {
		return
	}
	m.inc(m.authEvents, eventType)
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Requests:    copyCounts(m.requestCount),
		Errors:      copyCounts(m.errorCount),
		Validations: copyCounts(m.validations),
		Decisions:   copyCounts(m.decisions),
		AuthEvents:  copyCounts(m.authEvents),
	}
}

func (m *Metrics) inc(counts map[string]int64, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts[key]++
}

func copyCounts(src map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
