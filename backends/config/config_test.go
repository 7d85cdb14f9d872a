package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stashd/stashd/backends"
	"github.com/stashd/stashd/config"
	"github.com/stashd/stashd/metrics"
	"github.com/stashd/stashd/metrics/metricstest"
	"github.com/stashd/stashd/utils"
)

func TestApplyCompression(t *testing.T) {
	testCases := []struct {
		desc            string
		compressionType config.CompressionType
	}{
		{
			desc:            "none leaves the backend alone",
			compressionType: config.CompressionNone,
		},
		{
			desc:            "snappy wraps the backend",
			compressionType: config.CompressionSnappy,
		},
	}

	for _, tc := range testCases {
		delegate := backends.NewMemoryBackend()
		backend := applyCompression(config.Compression{Type: tc.compressionType}, delegate)

		ctx := context.Background()
		assert.NoError(t, backend.Put(ctx, "someKey", "someValue", 60), tc.desc)

		value, err := backend.Get(ctx, "someKey")
		assert.NoError(t, err, tc.desc)
		assert.Equal(t, "someValue", value, tc.desc)

		if tc.compressionType == config.CompressionNone {
			assert.Same(t, delegate, backend, tc.desc)
		} else {
			assert.NotSame(t, delegate, backend, tc.desc)
		}
	}
}

func TestNewMemoryBackendChain(t *testing.T) {
	m, mock := metricstest.CreateMockMetrics()
	cfg := config.Configuration{
		Backend: config.Backend{
			Type:   config.BackendMemory,
			Memory: config.Memory{SweepIntervalSeconds: utils.MEMORY_SWEEP_SECONDS},
		},
		Compression: config.Compression{Type: config.CompressionSnappy},
	}

	backend := NewBackend(cfg, m)
	ctx := context.Background()

	// The full chain still honors the storage contract end to end.
	assert.NoError(t, backend.Put(ctx, "someKey", "someValue", 60))
	assert.Equal(t, utils.NewStashError(utils.RECORD_EXISTS), backend.Put(ctx, "someKey", "another", 60))

	value, err := backend.Get(ctx, "someKey")
	assert.NoError(t, err)
	assert.Equal(t, "someValue", value)

	assert.Equal(t, int64(1), mock.Counts[metrics.CreateOp+".backend.duration"])
	assert.Equal(t, int64(1), mock.Counts[metrics.CreateOp+".backend.error"])
	assert.Equal(t, int64(1), mock.Counts[metrics.RecallOp+".backend.duration"])
}
