package backends

import (
	"context"
	"time"
)

// Backend is the storage contract the stash engine is written against. All
// implementations share the same external semantics:
//
//   - Put is atomic set-if-absent: a live record under the key fails the
//     write with a RECORD_EXISTS error instead of overwriting it.
//   - Get treats a record whose TTL has elapsed as NOT_FOUND even if the
//     substrate has not physically purged it yet.
//   - Replace atomically updates the payload, extends the TTL, or both. A
//     nil value keeps the stored payload; extraSeconds <= 0 keeps the
//     current expiry. It returns the record's new expiry time.
//   - Delete removes the record immediately, bypassing TTL.
//   - RemainingTTL reports the whole seconds left until expiry.
//
// The engine never inspects which variant is behind the interface.
type Backend interface {
	Put(ctx context.Context, key string, value string, ttlSeconds int) error
	Get(ctx context.Context, key string) (string, error)
	Replace(ctx context.Context, key string, value *string, extraSeconds int) (time.Time, error)
	Delete(ctx context.Context, key string) error
	RemainingTTL(ctx context.Context, key string) (int, error)
}
