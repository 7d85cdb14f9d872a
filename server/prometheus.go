package server

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/stashd/stashd/config"
	"github.com/stashd/stashd/metrics"
)

func newPrometheusServer(cfg *config.Configuration, appMetrics *metrics.Metrics) *http.Server {
	promRegistry := findPrometheusRegistry(appMetrics)
	if promRegistry == nil {
		log.Errorf("Prometheus metrics configured, but a Prometheus metrics engine was not found. Cannot set up a Prometheus listener.")
	}
	return &http.Server{
		Addr: ":" + strconv.Itoa(cfg.Metrics.Prometheus.Port),
		Handler: promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{
			ErrorLog:            loggerForPrometheus{},
			MaxRequestsInFlight: 5,
			Timeout:             cfg.Metrics.Prometheus.Timeout(),
		}),
	}
}

func findPrometheusRegistry(appMetrics *metrics.Metrics) *prometheus.Registry {
	for _, engine := range appMetrics.MetricEngines {
		if engine.GetMetricsEngineName() == metrics.MetricsPrometheus {
			if registry, ok := engine.GetEngineRegistry().(*prometheus.Registry); ok {
				return registry
			}
		}
	}
	return nil
}

type loggerForPrometheus struct{}

func (loggerForPrometheus) Println(v ...interface{}) {
	log.Warning(v...)
}
