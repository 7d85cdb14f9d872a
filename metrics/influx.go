package metrics

import (
	"fmt"
	"time"

	"github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"
	"github.com/vrischmann/go-metrics-influxdb"

	"github.com/stashd/stashd/config"
)

const MetricsInfluxDB = "InfluxDB"

type InfluxMetrics struct {
	Registry    metrics.Registry
	Requests    map[string]*InfluxMetricsEntry
	Backend     map[string]*InfluxBackendEntry
	PayloadSize metrics.Histogram
	Connections *InfluxConnectionMetrics
	MetricsName string
}

type InfluxMetricsEntry struct {
	Request     metrics.Meter
	Duration    metrics.Timer
	Errors      metrics.Meter
	BadRequest  metrics.Meter
	RateLimited metrics.Meter
}

type InfluxBackendEntry struct {
	Duration metrics.Timer
	Errors   metrics.Meter
}

type InfluxConnectionMetrics struct {
	ActiveConnections      metrics.Counter
	ConnectionCloseErrors  metrics.Meter
	ConnectionAcceptErrors metrics.Meter
}

func newInfluxMetricsEntry(name string, r metrics.Registry) *InfluxMetricsEntry {
	return &InfluxMetricsEntry{
		Request:     metrics.GetOrRegisterMeter(fmt.Sprintf("%s.request_count", name), r),
		Duration:    metrics.GetOrRegisterTimer(fmt.Sprintf("%s.request_duration", name), r),
		Errors:      metrics.GetOrRegisterMeter(fmt.Sprintf("%s.error_count", name), r),
		BadRequest:  metrics.GetOrRegisterMeter(fmt.Sprintf("%s.bad_request_count", name), r),
		RateLimited: metrics.GetOrRegisterMeter(fmt.Sprintf("%s.rate_limited_count", name), r),
	}
}

func newInfluxBackendEntry(name string, r metrics.Registry) *InfluxBackendEntry {
	return &InfluxBackendEntry{
		Duration: metrics.GetOrRegisterTimer(fmt.Sprintf("%s.request_duration", name), r),
		Errors:   metrics.GetOrRegisterMeter(fmt.Sprintf("%s.error_count", name), r),
	}
}

func newInfluxConnectionMetrics(r metrics.Registry) *InfluxConnectionMetrics {
	return &InfluxConnectionMetrics{
		ActiveConnections:      metrics.GetOrRegisterCounter("connections.active_incoming", r),
		ConnectionAcceptErrors: metrics.GetOrRegisterMeter("connections.accept_errors", r),
		ConnectionCloseErrors:  metrics.GetOrRegisterMeter("connections.close_errors", r),
	}
}

func CreateInfluxMetrics() *InfluxMetrics {
	flushTime := time.Second * 10
	r := metrics.NewPrefixedRegistry("stashd.")
	m := &InfluxMetrics{
		Registry:    r,
		Requests:    make(map[string]*InfluxMetricsEntry, len(Ops)),
		Backend:     make(map[string]*InfluxBackendEntry, len(Ops)),
		PayloadSize: metrics.GetOrRegisterHistogram("payload_size_bytes", r, metrics.NewExpDecaySample(1028, 0.015)),
		Connections: newInfluxConnectionMetrics(r),
		MetricsName: MetricsInfluxDB,
	}
	for _, op := range Ops {
		m.Requests[op] = newInfluxMetricsEntry(op, r)
		m.Backend[op] = newInfluxBackendEntry(fmt.Sprintf("%s.backend", op), r)
	}

	metrics.RegisterDebugGCStats(m.Registry)
	metrics.RegisterRuntimeMemStats(m.Registry)

	go metrics.CaptureRuntimeMemStats(m.Registry, flushTime)
	go metrics.CaptureDebugGCStats(m.Registry, flushTime)

	return m
}

// Export begins sending metrics to the configured database.
// This method blocks indefinitely, so it should probably be run in a goroutine.
func (m *InfluxMetrics) Export(cfg config.Metrics) {
	if cfg.Influx.Host == "" {
		return
	}
	log.Infof("Metrics will be exported to Influx with host=%s, db=%s, username=%s", cfg.Influx.Host, cfg.Influx.Database, cfg.Influx.Username)
	influxdb.InfluxDB(
		m.Registry,
		time.Duration(cfg.Influx.IntervalSeconds)*time.Second,
		cfg.Influx.Host,
		cfg.Influx.Database,
		"",
		cfg.Influx.Username,
		cfg.Influx.Password,
		false,
	)
}

func (m *InfluxMetrics) GetMetricsEngineName() string {
	return m.MetricsName
}

func (m *InfluxMetrics) GetEngineRegistry() interface{} {
	return &m.Registry
}

func (m *InfluxMetrics) RecordRequestTotal(op string) {
	if entry, ok := m.Requests[op]; ok {
		entry.Request.Mark(1)
	}
}

func (m *InfluxMetrics) RecordRequestDuration(op string, duration time.Duration) {
	if entry, ok := m.Requests[op]; ok {
		entry.Duration.Update(duration)
	}
}

func (m *InfluxMetrics) RecordRequestBadRequest(op string) {
	if entry, ok := m.Requests[op]; ok {
		entry.BadRequest.Mark(1)
	}
}

func (m *InfluxMetrics) RecordRequestError(op string) {
	if entry, ok := m.Requests[op]; ok {
		entry.Errors.Mark(1)
	}
}

func (m *InfluxMetrics) RecordRateLimited(op string) {
	if entry, ok := m.Requests[op]; ok {
		entry.RateLimited.Mark(1)
	}
}

func (m *InfluxMetrics) RecordPayloadSize(sizeInBytes float64) {
	m.PayloadSize.Update(int64(sizeInBytes))
}

func (m *InfluxMetrics) RecordBackendDuration(op string, duration time.Duration) {
	if entry, ok := m.Backend[op]; ok {
		entry.Duration.Update(duration)
	}
}

func (m *InfluxMetrics) RecordBackendError(op string) {
	if entry, ok := m.Backend[op]; ok {
		entry.Errors.Mark(1)
	}
}

func (m *InfluxMetrics) RecordConnectionOpen() {
	m.Connections.ActiveConnections.Inc(1)
}

func (m *InfluxMetrics) RecordConnectionClosed() {
	m.Connections.ActiveConnections.Dec(1)
}

func (m *InfluxMetrics) RecordCloseConnectionErrors() {
	m.Connections.ConnectionCloseErrors.Mark(1)
}

func (m *InfluxMetrics) RecordAcceptConnectionErrors() {
	m.Connections.ConnectionAcceptErrors.Mark(1)
}
