package decorators

import (
	"context"
	"time"

	"github.com/stashd/stashd/backends"
	"github.com/stashd/stashd/metrics"
)

type backendWithMetrics struct {
	delegate backends.Backend
	metrics  *metrics.Metrics
}

// LogMetrics wraps a backend so every call reports its duration and outcome.
// Each backend method is attributed to the operation it serves: Put backs
// Create, Get and RemainingTTL back Recall, Replace backs Update and Delete
// backs Forget.
func LogMetrics(backend backends.Backend, m *metrics.Metrics) backends.Backend {
	return &backendWithMetrics{
		delegate: backend,
		metrics:  m,
	}
}

func (b *backendWithMetrics) Put(ctx context.Context, key string, value string, ttlSeconds int) error {
	start := time.Now()
	err := b.delegate.Put(ctx, key, value, ttlSeconds)
	if err == nil {
		b.metrics.RecordBackendDuration(metrics.CreateOp, time.Since(start))
	} else {
		b.metrics.RecordBackendError(metrics.CreateOp)
	}
	b.metrics.RecordPayloadSize(float64(len(value)))
	return err
}

func (b *backendWithMetrics) Get(ctx context.Context, key string) (string, error) {
	start := time.Now()
	val, err := b.delegate.Get(ctx, key)
	if err == nil {
		b.metrics.RecordBackendDuration(metrics.RecallOp, time.Since(start))
	} else {
		b.metrics.RecordBackendError(metrics.RecallOp)
	}
	return val, err
}

func (b *backendWithMetrics) Replace(ctx context.Context, key string, value *string, extraSeconds int) (time.Time, error) {
	start := time.Now()
	expiresAt, err := b.delegate.Replace(ctx, key, value, extraSeconds)
	if err == nil {
		b.metrics.RecordBackendDuration(metrics.UpdateOp, time.Since(start))
	} else {
		b.metrics.RecordBackendError(metrics.UpdateOp)
	}
	if value != nil {
		b.metrics.RecordPayloadSize(float64(len(*value)))
	}
	return expiresAt, err
}

func (b *backendWithMetrics) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := b.delegate.Delete(ctx, key)
	if err == nil {
		b.metrics.RecordBackendDuration(metrics.ForgetOp, time.Since(start))
	} else {
		b.metrics.RecordBackendError(metrics.ForgetOp)
	}
	return err
}

func (b *backendWithMetrics) RemainingTTL(ctx context.Context, key string) (int, error) {
	start := time.Now()
	remaining, err := b.delegate.RemainingTTL(ctx, key)
	if err == nil {
		b.metrics.RecordBackendDuration(metrics.RecallOp, time.Since(start))
	} else {
		b.metrics.RecordBackendError(metrics.RecallOp)
	}
	return remaining, err
}
