package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/stashd/stashd/config"
)

const (
	StatusKey    string = "status"
	OpKey        string = "operation"
	ConnErrorKey string = "connection_error"

	ConnOpenedKey string = "connection_opened"
	ConnClosedKey string = "connection_closed"

	TotalsVal      string = "total"
	ErrorVal       string = "error"
	BadRequestVal  string = "bad_request"
	RateLimitedVal string = "rate_limited"
	CloseVal       string = "close"
	AcceptVal      string = "accept"

	MetricsPrometheus = "Prometheus"
)

type PrometheusMetrics struct {
	Registry    *prometheus.Registry
	Requests    *PrometheusRequestMetrics
	Backend     *PrometheusBackendMetrics
	PayloadSize prometheus.Histogram
	Connections *PrometheusConnectionMetrics
	MetricsName string
}

type PrometheusRequestMetrics struct {
	Duration      *prometheus.HistogramVec
	RequestStatus *prometheus.CounterVec
}

type PrometheusBackendMetrics struct {
	Duration *prometheus.HistogramVec
	Errors   *prometheus.CounterVec
}

type PrometheusConnectionMetrics struct {
	ConnectionsErrors *prometheus.CounterVec
	ConnectionsClosed prometheus.Counter
	ConnectionsOpened prometheus.Counter
}

func CreatePrometheusMetrics(cfg config.PrometheusMetrics) *PrometheusMetrics {
	timeBuckets := []float64{0.001, 0.002, 0.005, 0.01, 0.025, 0.05, 0.1, 0.2, 0.3, 0.4, 0.5, 1}
	payloadSizeBuckets := []float64{1024, 4096, 16384, 65536, 262144, 1048576, 4194304, 16777216}
	registry := prometheus.NewRegistry()
	promMetrics := &PrometheusMetrics{
		Registry: registry,
		Requests: &PrometheusRequestMetrics{
			Duration: newHistogramVec(cfg, registry,
				"request_duration",
				"Duration in seconds Stashd takes to process requests, labeled by operation.",
				timeBuckets,
				[]string{OpKey},
			),
			RequestStatus: newCounterVecWithLabels(cfg, registry,
				"requests",
				"Count of total requests to Stashd labeled by operation and status.",
				[]string{OpKey, StatusKey},
			),
		},
		Backend: &PrometheusBackendMetrics{
			Duration: newHistogramVec(cfg, registry,
				"backend_duration",
				"Duration in seconds Stashd takes to process backend requests, labeled by operation.",
				timeBuckets,
				[]string{OpKey},
			),
			Errors: newCounterVecWithLabels(cfg, registry,
				"backend_errors",
				"Count of backend errors labeled by operation.",
				[]string{OpKey},
			),
		},
		PayloadSize: newHistogram(cfg, registry,
			"payload_size_bytes",
			"Size in bytes of a stored payload.",
			payloadSizeBuckets,
		),
		Connections: &PrometheusConnectionMetrics{
			ConnectionsClosed: newSingleCounter(cfg, registry, ConnClosedKey, "Count the number of closed connections"),
			ConnectionsOpened: newSingleCounter(cfg, registry, ConnOpenedKey, "Count the number of open connections"),
			ConnectionsErrors: newCounterVecWithLabels(cfg, registry,
				ConnErrorKey,
				"Count the number of connection accept errors or connection close errors",
				[]string{ConnErrorKey},
			),
		},
		MetricsName: MetricsPrometheus,
	}

	collectorNamespace := fmt.Sprintf("%s_%s", cfg.Namespace, cfg.Subsystem)
	promMetrics.Registry.MustRegister(
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{Namespace: collectorNamespace}),
	)

	preloadLabelValues(promMetrics)
	return promMetrics
}

func newCounterVecWithLabels(cfg config.PrometheusMetrics, registry *prometheus.Registry, name string, help string, labels []string) *prometheus.CounterVec {
	opts := prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
	}
	counterVec := prometheus.NewCounterVec(opts, labels)
	registry.MustRegister(counterVec)
	return counterVec
}

func newSingleCounter(cfg config.PrometheusMetrics, registry *prometheus.Registry, name string, help string) prometheus.Counter {
	opts := prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
	}
	counter := prometheus.NewCounter(opts)
	registry.MustRegister(counter)
	return counter
}

func newHistogram(cfg config.PrometheusMetrics, registry *prometheus.Registry, name, help string, buckets []float64) prometheus.Histogram {
	opts := prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}
	histogram := prometheus.NewHistogram(opts)
	registry.MustRegister(histogram)
	return histogram
}

func newHistogramVec(cfg config.PrometheusMetrics, registry *prometheus.Registry, name, help string, buckets []float64, labels []string) *prometheus.HistogramVec {
	opts := prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}
	histogramVec := prometheus.NewHistogramVec(opts, labels)
	registry.MustRegister(histogramVec)
	return histogramVec
}

// Export is a no-op: the Prometheus registry is pulled by the scrape server
// rather than pushed anywhere.
func (m *PrometheusMetrics) Export(cfg config.Metrics) {
}

func (m *PrometheusMetrics) GetMetricsEngineName() string {
	return m.MetricsName
}

func (m *PrometheusMetrics) GetEngineRegistry() interface{} {
	return m.Registry
}

func (m *PrometheusMetrics) RecordRequestTotal(op string) {
	m.Requests.RequestStatus.With(prometheus.Labels{OpKey: op, StatusKey: TotalsVal}).Inc()
}

func (m *PrometheusMetrics) RecordRequestDuration(op string, duration time.Duration) {
	m.Requests.Duration.With(prometheus.Labels{OpKey: op}).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordRequestBadRequest(op string) {
	m.Requests.RequestStatus.With(prometheus.Labels{OpKey: op, StatusKey: BadRequestVal}).Inc()
}

func (m *PrometheusMetrics) RecordRequestError(op string) {
	m.Requests.RequestStatus.With(prometheus.Labels{OpKey: op, StatusKey: ErrorVal}).Inc()
}

func (m *PrometheusMetrics) RecordRateLimited(op string) {
	m.Requests.RequestStatus.With(prometheus.Labels{OpKey: op, StatusKey: RateLimitedVal}).Inc()
}

func (m *PrometheusMetrics) RecordPayloadSize(sizeInBytes float64) {
	m.PayloadSize.Observe(sizeInBytes)
}

func (m *PrometheusMetrics) RecordBackendDuration(op string, duration time.Duration) {
	m.Backend.Duration.With(prometheus.Labels{OpKey: op}).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordBackendError(op string) {
	m.Backend.Errors.With(prometheus.Labels{OpKey: op}).Inc()
}

func (m *PrometheusMetrics) RecordConnectionOpen() {
	m.Connections.ConnectionsOpened.Inc()
}

func (m *PrometheusMetrics) RecordConnectionClosed() {
	m.Connections.ConnectionsClosed.Inc()
}

func (m *PrometheusMetrics) RecordCloseConnectionErrors() {
	m.Connections.ConnectionsErrors.With(prometheus.Labels{ConnErrorKey: CloseVal}).Inc()
}

func (m *PrometheusMetrics) RecordAcceptConnectionErrors() {
	m.Connections.ConnectionsErrors.With(prometheus.Labels{ConnErrorKey: AcceptVal}).Inc()
}
