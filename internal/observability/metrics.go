package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters for the HTTP surface and the
// notification/report pipelines.
type Metrics struct {
	mu            sync.Mutex
	requestCount  map[string]int64
	errorCount    map[string]int64
	notifications map[string]int64
	reports       map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:  make(map[string]int64),
		errorCount:    make(map[string]int64),
		notifications: make(map[string]int64),
		reports:       make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
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

// RecordNotification counts a notification attempt per template kind/outcome.
func (m *Metrics) RecordNotification(kind string, success bool) {
	if m == nil {
		return
	}
	key := kind + "|" + outcome(success)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications[key]++
}

// RecordReport counts a report generation per kind/outcome.
func (m *Metrics) RecordReport(kind string, success bool) {
	if m == nil {
		return
	}
	key := kind + "|" + outcome(success)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[key]++
}

// Snapshot returns copies of all counters for the stats endpoint.
func (m *Metrics) Snapshot() (requests, errors, notifications, reports map[string]int64) {
	if m == nil {
		return nil, nil, nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyMap(m.requestCount), copyMap(m.errorCount), copyMap(m.notifications), copyMap(m.reports)
}

func copyMap(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
