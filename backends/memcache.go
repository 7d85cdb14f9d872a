package backends

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/gomemcache/memcache"
	log "github.com/sirupsen/logrus"

	"github.com/stashd/stashd/config"
	"github.com/stashd/stashd/utils"
)

// MemcacheDataStore is the interface MemcacheBackend needs from the client
// library so unit tests can fake the server.
type MemcacheDataStore interface {
	Get(key string) (*memcache.Item, error)
	Add(item *memcache.Item) error
	CompareAndSwap(item *memcache.Item) error
	Delete(key string) error
}

// Memcache Object use to implement the MemcacheDataStore interface
type Memcache struct {
	client *memcache.Client
}

func (mc *Memcache) Get(key string) (*memcache.Item, error) {
	return mc.client.Get(key)
}

func (mc *Memcache) Add(item *memcache.Item) error {
	return mc.client.Add(item)
}

func (mc *Memcache) CompareAndSwap(item *memcache.Item) error {
	return mc.client.CompareAndSwap(item)
}

func (mc *Memcache) Delete(key string) error {
	return mc.client.Delete(key)
}

// memcacheEnvelope wraps the payload with its absolute expiry. Memcached
// expires keys natively but offers no way to read the remaining TTL back, so
// the backend stores the expiry alongside the payload and derives
// RemainingTTL from it.
type memcacheEnvelope struct {
	Value     []byte `json:"value"`
	ExpiresAt int64  `json:"expires_at"`
}

// MemcacheBackend implements the Backend interface
type MemcacheBackend struct {
	memcache MemcacheDataStore
}

// NewMemcacheBackend create a new memcache backend
func NewMemcacheBackend(cfg config.Memcache) *MemcacheBackend {
	if len(cfg.Hosts) == 0 {
		log.Fatalf("Cannot create a Memcache backend with no hosts configured")
	}
	return &MemcacheBackend{
		memcache: &Memcache{memcache.New(cfg.Hosts...)},
	}
}

// Put calls Add, which writes the given item only if no value already exists
// for its key. That is the conditional write collision detection needs;
// memcached's native expiry guarantees a dead record no longer blocks the
// key.
func (mc *MemcacheBackend) Put(ctx context.Context, key string, value string, ttlSeconds int) error {
	raw, err := json.Marshal(memcacheEnvelope{
		Value:     []byte(value),
		ExpiresAt: time.Now().Unix() + int64(ttlSeconds),
	})
	if err != nil {
		return err
	}

	err = mc.memcache.Add(&memcache.Item{
		Key:        key,
		Value:      raw,
		Expiration: int32(ttlSeconds),
	})
	if errors.Is(err, memcache.ErrNotStored) {
		return utils.NewStashError(utils.RECORD_EXISTS)
	}
	return err
}

func (mc *MemcacheBackend) Get(ctx context.Context, key string) (string, error) {
	env, _, err := mc.getEnvelope(key)
	if err != nil {
		return "", err
	}
	return string(env.Value), nil
}

// Replace re-reads and conditionally rewrites the record with memcached's
// compare-and-swap, retrying on interleaved writers. The committed item is
// always one writer's complete payload+TTL pair.
func (mc *MemcacheBackend) Replace(ctx context.Context, key string, value *string, extraSeconds int) (time.Time, error) {
	var lastErr error

	for attempt := 0; attempt < utils.MAX_WRITE_CONFLICT_RETRIES; attempt++ {
		env, item, err := mc.getEnvelope(key)
		if err != nil {
			return time.Time{}, err
		}

		remaining := env.ExpiresAt - time.Now().Unix()
		newTTL := remaining
		if extraSeconds > 0 {
			newTTL += int64(extraSeconds)
		}
		if value != nil {
			env.Value = []byte(*value)
		}
		env.ExpiresAt = time.Now().Unix() + newTTL

		raw, err := json.Marshal(env)
		if err != nil {
			return time.Time{}, err
		}
		item.Value = raw
		item.Expiration = int32(newTTL)

		err = mc.memcache.CompareAndSwap(item)
		if err == nil {
			return time.Unix(env.ExpiresAt, 0), nil
		}
		if errors.Is(err, memcache.ErrNotStored) || errors.Is(err, memcache.ErrCacheMiss) {
			return time.Time{}, utils.NewStashError(utils.NOT_FOUND)
		}
		if !errors.Is(err, memcache.ErrCASConflict) {
			return time.Time{}, err
		}
		lastErr = err
	}

	return time.Time{}, utils.NewStashError(utils.WRITE_CONFLICT, lastErr.Error())
}

func (mc *MemcacheBackend) Delete(ctx context.Context, key string) error {
	err := mc.memcache.Delete(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return utils.NewStashError(utils.NOT_FOUND)
	}
	return err
}

func (mc *MemcacheBackend) RemainingTTL(ctx context.Context, key string) (int, error) {
	env, _, err := mc.getEnvelope(key)
	if err != nil {
		return 0, err
	}
	return int(env.ExpiresAt - time.Now().Unix()), nil
}

func (mc *MemcacheBackend) getEnvelope(key string) (memcacheEnvelope, *memcache.Item, error) {
	item, err := mc.memcache.Get(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return memcacheEnvelope{}, nil, utils.NewStashError(utils.NOT_FOUND)
	}
	if err != nil {
		return memcacheEnvelope{}, nil, err
	}

	var env memcacheEnvelope
	if err := json.Unmarshal(item.Value, &env); err != nil {
		return memcacheEnvelope{}, nil, err
	}
	// The envelope expiry may elapse before memcached's own clock agrees.
	if env.ExpiresAt <= time.Now().Unix() {
		return memcacheEnvelope{}, nil, utils.NewStashError(utils.NOT_FOUND)
	}
	return env, item, nil
}
