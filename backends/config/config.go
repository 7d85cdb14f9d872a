package config

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/stashd/stashd/backends"
	"github.com/stashd/stashd/backends/decorators"
	"github.com/stashd/stashd/compression"
	"github.com/stashd/stashd/config"
	"github.com/stashd/stashd/metrics"
)

// NewBackend builds the configured storage substrate and wraps it with the
// compression and metrics decorators. Metrics sit outside compression, so the
// recorded payload sizes reflect the caller-facing bytes, not the compressed
// form written to the store.
func NewBackend(cfg config.Configuration, appMetrics *metrics.Metrics) backends.Backend {
	backend := newBaseBackend(cfg.Backend)
	backend = applyCompression(cfg.Compression, backend)
	backend = decorators.LogMetrics(backend, appMetrics)
	return backend
}

func applyCompression(cfg config.Compression, backend backends.Backend) backends.Backend {
	switch cfg.Type {
	case config.CompressionNone:
		return backend
	case config.CompressionSnappy:
		return compression.SnappyCompress(backend)
	default:
		log.Fatalf("Unknown compression type: %s", cfg.Type)
	}

	panic("Error applying compression. This shouldn't happen.")
}

func newBaseBackend(cfg config.Backend) backends.Backend {
	switch cfg.Type {
	case config.BackendMemory:
		backend := backends.NewMemoryBackend()
		interval := time.Duration(cfg.Memory.SweepIntervalSeconds) * time.Second
		if interval > 0 {
			backend.StartSweeper(interval)
		}
		return backend
	case config.BackendBadger:
		return backends.NewBadgerBackend(cfg.Badger)
	case config.BackendRedis:
		return backends.NewRedisBackend(cfg.Redis, context.Background())
	case config.BackendMemcache:
		return backends.NewMemcacheBackend(cfg.Memcache)
	case config.BackendCassandra:
		return backends.NewCassandraBackend(cfg.Cassandra)
	case config.BackendAerospike:
		return backends.NewAerospikeBackend(cfg.Aerospike)
	default:
		log.Fatalf("Unknown backend type: %s", cfg.Type)
	}

	panic("Error creating backend. This shouldn't happen.")
}
