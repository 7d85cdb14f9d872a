package backends

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/stashd/stashd/utils"
)

type memoryRecord struct {
	value     string
	expiresAt time.Time
}

// MemoryBackend is the transient heap store. Records live in process memory
// and are lost on restart. Expiry is checked lazily on every read, which is
// sufficient for correctness; StartSweeper adds a periodic purge so memory is
// reclaimed promptly under churn.
type MemoryBackend struct {
	db  map[string]memoryRecord
	mu  sync.Mutex
	now func() time.Time
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		db:  make(map[string]memoryRecord),
		now: time.Now,
	}
}

func (b *MemoryBackend) Put(ctx context.Context, key string, value string, ttlSeconds int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// An expired-but-unswept record does not count as a collision.
	if rec, ok := b.db[key]; ok && b.now().Before(rec.expiresAt) {
		return utils.NewStashError(utils.RECORD_EXISTS)
	}

	b.db[key] = memoryRecord{
		value:     value,
		expiresAt: b.now().Add(time.Duration(ttlSeconds) * time.Second),
	}
	return nil
}

func (b *MemoryBackend) Get(ctx context.Context, key string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.db[key]
	if !ok || !b.now().Before(rec.expiresAt) {
		return "", utils.NewStashError(utils.NOT_FOUND)
	}

	return rec.value, nil
}

func (b *MemoryBackend) Replace(ctx context.Context, key string, value *string, extraSeconds int) (time.Time, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.db[key]
	if !ok || !b.now().Before(rec.expiresAt) {
		return time.Time{}, utils.NewStashError(utils.NOT_FOUND)
	}

	if value != nil {
		rec.value = *value
	}
	if extraSeconds > 0 {
		rec.expiresAt = rec.expiresAt.Add(time.Duration(extraSeconds) * time.Second)
	}
	b.db[key] = rec

	return rec.expiresAt, nil
}

func (b *MemoryBackend) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.db[key]
	if !ok || !b.now().Before(rec.expiresAt) {
		return utils.NewStashError(utils.NOT_FOUND)
	}

	delete(b.db, key)
	return nil
}

func (b *MemoryBackend) RemainingTTL(ctx context.Context, key string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.db[key]
	if !ok || !b.now().Before(rec.expiresAt) {
		return 0, utils.NewStashError(utils.NOT_FOUND)
	}

	return int(rec.expiresAt.Sub(b.now()).Round(time.Second).Seconds()), nil
}

// StartSweeper launches a periodic task that removes expired records. The
// returned function cancels it. Sweeping only reclaims space; reads are
// already correct without it.
func (b *MemoryBackend) StartSweeper(interval time.Duration) (stop func()) {
	done := make(chan struct{})
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				removed := b.sweep()
				if removed > 0 {
					log.Debugf("memory backend sweep removed %d expired records", removed)
				}
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }
}

func (b *MemoryBackend) sweep() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	removed := 0
	for key, rec := range b.db {
		if !now.Before(rec.expiresAt) {
			delete(b.db, key)
			removed++
		}
	}
	return removed
}
