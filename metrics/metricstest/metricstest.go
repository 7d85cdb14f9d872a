// Package metricstest provides a metrics engine that records calls in plain
// maps so tests can assert on them.
package metricstest

import (
	"time"

	"github.com/stashd/stashd/config"
	"github.com/stashd/stashd/metrics"
)

func CreateMockMetrics() (*metrics.Metrics, *MockMetrics) {
	mock := &MockMetrics{
		Counts:    make(map[string]int64),
		Durations: make(map[string]time.Duration),
	}
	return &metrics.Metrics{MetricEngines: []metrics.CacheMetrics{mock}}, mock
}

type MockMetrics struct {
	Counts       map[string]int64
	Durations    map[string]time.Duration
	PayloadSizes []float64
}

func (m *MockMetrics) RecordRequestTotal(op string) {
	m.Counts[op+".total"]++
}

func (m *MockMetrics) RecordRequestDuration(op string, duration time.Duration) {
	m.Counts[op+".duration"]++
	m.Durations[op] = duration
}

func (m *MockMetrics) RecordRequestBadRequest(op string) {
	m.Counts[op+".bad_request"]++
}

func (m *MockMetrics) RecordRequestError(op string) {
	m.Counts[op+".error"]++
}

func (m *MockMetrics) RecordRateLimited(op string) {
	m.Counts[op+".rate_limited"]++
}

func (m *MockMetrics) RecordPayloadSize(sizeInBytes float64) {
	m.PayloadSizes = append(m.PayloadSizes, sizeInBytes)
}

func (m *MockMetrics) RecordBackendDuration(op string, duration time.Duration) {
	m.Counts[op+".backend.duration"]++
	m.Durations[op+".backend"] = duration
}

func (m *MockMetrics) RecordBackendError(op string) {
	m.Counts[op+".backend.error"]++
}

func (m *MockMetrics) RecordConnectionOpen() {
	m.Counts["connections.opened"]++
}

func (m *MockMetrics) RecordConnectionClosed() {
	m.Counts["connections.closed"]++
}

func (m *MockMetrics) RecordCloseConnectionErrors() {
	m.Counts["connections.close_errors"]++
}

func (m *MockMetrics) RecordAcceptConnectionErrors() {
	m.Counts["connections.accept_errors"]++
}

func (m *MockMetrics) Export(cfg config.Metrics) {
}

func (m *MockMetrics) GetMetricsEngineName() string {
	return "Mock"
}

func (m *MockMetrics) GetEngineRegistry() interface{} {
	return nil
}
