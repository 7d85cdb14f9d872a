package main

import (
	_ "net/http/pprof"
	"os"

	log "github.com/sirupsen/logrus"

	backendConfig "github.com/stashd/stashd/backends/config"
	"github.com/stashd/stashd/config"
	"github.com/stashd/stashd/endpoints/routing"
	"github.com/stashd/stashd/engine"
	"github.com/stashd/stashd/metrics"
	"github.com/stashd/stashd/ratelimit"
	"github.com/stashd/stashd/server"
	"github.com/stashd/stashd/tenants"
)

func main() {
	log.SetOutput(os.Stdout)

	cfg := config.NewConfig()
	setLogLevel(cfg.Log.Level)
	cfg.ValidateAndLog()

	appMetrics := metrics.CreateMetrics(cfg.Metrics)

	backend := backendConfig.NewBackend(cfg, appMetrics)
	limiter := ratelimit.NewTenantLimiter(cfg.Tiers)
	eng := engine.New(backend, limiter)
	resolver := tenants.NewStaticResolver(cfg.Auth, cfg.Tiers)

	handler := routing.NewPublicHandler(cfg, eng, resolver, appMetrics)

	appMetrics.Export(cfg.Metrics)

	server.Listen(cfg, handler, appMetrics)
}

func setLogLevel(cfgLogLevel config.LogLevel) {
	level, err := log.ParseLevel(string(cfgLogLevel))
	if err != nil {
		log.Fatalf("Invalid logrus level: %v", err)
	}
	log.SetLevel(level)
}
