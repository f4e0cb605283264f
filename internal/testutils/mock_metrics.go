package testutils

import (
	"sync"
	"time"

	"github.com/ahrav/go-jury/internal/ports"
)

var _ ports.MetricsCollector = (*MockMetricsCollector)(nil)

// MockMetricsCollector records every measurement for later assertions.
type MockMetricsCollector struct {
	mu         sync.Mutex
	Counters   map[string]float64
	Gauges     map[string]float64
	Histograms map[string][]float64
	Latencies  map[string][]time.Duration
}

// NewMockMetricsCollector creates an empty collector.
func NewMockMetricsCollector() *MockMetricsCollector {
	return &MockMetricsCollector{
		Counters:   make(map[string]float64),
		Gauges:     make(map[string]float64),
		Histograms: make(map[string][]float64),
		Latencies:  make(map[string][]time.Duration),
	}
}

func (m *MockMetricsCollector) RecordLatency(operation string, d time.Duration, _ map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Latencies[operation] = append(m.Latencies[operation], d)
}

func (m *MockMetricsCollector) RecordCounter(metric string, value float64, _ map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Counters[metric] += value
}

func (m *MockMetricsCollector) RecordGauge(metric string, value float64, _ map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gauges[metric] = value
}

func (m *MockMetricsCollector) RecordHistogram(metric string, value float64, _ map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Histograms[metric] = append(m.Histograms[metric], value)
}

// Counter returns the accumulated value of a counter.
func (m *MockMetricsCollector) Counter(metric string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Counters[metric]
}
