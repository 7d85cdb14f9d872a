package metrics

import (
	"time"

	"github.com/stashd/stashd/config"
)

// Operation labels shared by every metrics engine.
const (
	CreateOp = "create"
	RecallOp = "recall"
	UpdateOp = "update"
	ForgetOp = "forget"
)

// Ops lists every operation label so engines can pre-register their series.
var Ops = []string{CreateOp, RecallOp, UpdateOp, ForgetOp}

// CacheMetrics is implemented by each configured metrics engine. The request
// family of methods is recorded by the HTTP layer, the backend family by the
// storage decorator, and the connection family by the monitorable listener.
type CacheMetrics interface {
	RecordRequestTotal(op string)
	RecordRequestDuration(op string, duration time.Duration)
	RecordRequestBadRequest(op string)
	RecordRequestError(op string)
	RecordRateLimited(op string)
	RecordPayloadSize(sizeInBytes float64)
	RecordBackendDuration(op string, duration time.Duration)
	RecordBackendError(op string)
	RecordConnectionOpen()
	RecordConnectionClosed()
	RecordCloseConnectionErrors()
	RecordAcceptConnectionErrors()
	Export(cfg config.Metrics)
	GetMetricsEngineName() string
	GetEngineRegistry() interface{}
}

// Metrics fans every record call out to the configured engines. An empty
// engine list makes every method a no-op, which is what tests rely on.
type Metrics struct {
	MetricEngines []CacheMetrics
}

func CreateMetrics(cfg config.Metrics) *Metrics {
	engineList := make([]CacheMetrics, 0, 2)

	if cfg.Influx.Enabled {
		engineList = append(engineList, CreateInfluxMetrics())
	}
	if cfg.Prometheus.Enabled {
		engineList = append(engineList, CreatePrometheusMetrics(cfg.Prometheus))
	}

	return &Metrics{MetricEngines: engineList}
}

// Export begins shipping metrics out of process. Engines that push (Influx)
// block indefinitely, so each one gets its own goroutine.
func (m *Metrics) Export(cfg config.Metrics) {
	for _, me := range m.MetricEngines {
		go me.Export(cfg)
	}
}

func (m *Metrics) RecordRequestTotal(op string) {
	for _, me := range m.MetricEngines {
		me.RecordRequestTotal(op)
	}
}

func (m *Metrics) RecordRequestDuration(op string, duration time.Duration) {
	for _, me := range m.MetricEngines {
		me.RecordRequestDuration(op, duration)
	}
}

func (m *Metrics) RecordRequestBadRequest(op string) {
	for _, me := range m.MetricEngines {
		me.RecordRequestBadRequest(op)
	}
}

func (m *Metrics) RecordRequestError(op string) {
	for _, me := range m.MetricEngines {
		me.RecordRequestError(op)
	}
}

func (m *Metrics) RecordRateLimited(op string) {
	for _, me := range m.MetricEngines {
		me.RecordRateLimited(op)
	}
}

func (m *Metrics) RecordPayloadSize(sizeInBytes float64) {
	for _, me := range m.MetricEngines {
		me.RecordPayloadSize(sizeInBytes)
	}
}

func (m *Metrics) RecordBackendDuration(op string, duration time.Duration) {
	for _, me := range m.MetricEngines {
		me.RecordBackendDuration(op, duration)
	}
}

func (m *Metrics) RecordBackendError(op string) {
	for _, me := range m.MetricEngines {
		me.RecordBackendError(op)
	}
}

func (m *Metrics) RecordConnectionOpen() {
	for _, me := range m.MetricEngines {
		me.RecordConnectionOpen()
	}
}

func (m *Metrics) RecordConnectionClosed() {
	for _, me := range m.MetricEngines {
		me.RecordConnectionClosed()
	}
}

func (m *Metrics) RecordCloseConnectionErrors() {
	for _, me := range m.MetricEngines {
		me.RecordCloseConnectionErrors()
	}
}

func (m *Metrics) RecordAcceptConnectionErrors() {
	for _, me := range m.MetricEngines {
		me.RecordAcceptConnectionErrors()
	}
}
