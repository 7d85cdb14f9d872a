package backends

import (
	"context"
	"time"

	"github.com/google/gomemcache/memcache"
	"github.com/redis/go-redis/v9"

	"github.com/stashd/stashd/utils"
)

// ------------------------------------------
// Redis client mocks
// ------------------------------------------

func NewMockRedisBackend(mockClient RedisDB) *RedisBackend {
	return &RedisBackend{client: mockClient}
}

// FakeRedisClient is an in-memory stand-in for a Redis server. ServerError,
// when set, is returned by every call.
type FakeRedisClient struct {
	StoredData  map[string]string
	TTLs        map[string]int
	ServerError error
}

func (c *FakeRedisClient) Get(ctx context.Context, key string) (string, error) {
	if c.ServerError != nil {
		return "", c.ServerError
	}
	value, found := c.StoredData[key]
	if !found {
		return "", redis.Nil
	}
	return value, nil
}

func (c *FakeRedisClient) SetIfAbsent(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	if c.ServerError != nil {
		return false, c.ServerError
	}
	if _, found := c.StoredData[key]; found {
		return false, nil
	}
	c.StoredData[key] = value
	c.TTLs[key] = int(ttl.Seconds())
	return true, nil
}

func (c *FakeRedisClient) ReplaceExtend(ctx context.Context, key string, value *string, extraSeconds int) (int64, error) {
	if c.ServerError != nil {
		return 0, c.ServerError
	}
	ttl, found := c.TTLs[key]
	if !found || ttl <= 0 {
		return -2, nil
	}
	if extraSeconds > 0 {
		ttl += extraSeconds
	}
	if value != nil {
		c.StoredData[key] = *value
	}
	c.TTLs[key] = ttl
	return int64(ttl), nil
}

func (c *FakeRedisClient) TTL(ctx context.Context, key string) (time.Duration, error) {
	if c.ServerError != nil {
		return 0, c.ServerError
	}
	ttl, found := c.TTLs[key]
	if !found {
		return -2 * time.Second, nil
	}
	return time.Duration(ttl) * time.Second, nil
}

func (c *FakeRedisClient) Del(ctx context.Context, key string) (int64, error) {
	if c.ServerError != nil {
		return 0, c.ServerError
	}
	if _, found := c.StoredData[key]; !found {
		return 0, nil
	}
	delete(c.StoredData, key)
	delete(c.TTLs, key)
	return 1, nil
}

// ------------------------------------------
// Memcache client mocks
// ------------------------------------------

func NewMockMemcacheBackend(mockClient MemcacheDataStore) *MemcacheBackend {
	return &MemcacheBackend{memcache: mockClient}
}

type ErrorProneMemcache struct {
	ServerError error
}

func (ec *ErrorProneMemcache) Get(key string) (*memcache.Item, error) {
	return nil, ec.ServerError
}

func (ec *ErrorProneMemcache) Add(item *memcache.Item) error {
	return ec.ServerError
}

func (ec *ErrorProneMemcache) CompareAndSwap(item *memcache.Item) error {
	return ec.ServerError
}

func (ec *ErrorProneMemcache) Delete(key string) error {
	return ec.ServerError
}

// GoodMemcache keeps items in memory and models the server's cas token: Get
// hands out a fresh copy stamped with the key's current version, and
// CompareAndSwap only succeeds when no write landed in between.
type GoodMemcache struct {
	StoredData map[string]*memcache.Item
	CASErrors  int

	versions map[string]int
	issued   map[*memcache.Item]int
}

func (gm *GoodMemcache) Get(key string) (*memcache.Item, error) {
	stored, found := gm.StoredData[key]
	if !found {
		return nil, memcache.ErrCacheMiss
	}

	item := *stored
	if gm.issued == nil {
		gm.issued = make(map[*memcache.Item]int)
	}
	gm.issued[&item] = gm.version(key)
	return &item, nil
}

func (gm *GoodMemcache) Add(item *memcache.Item) error {
	if _, found := gm.StoredData[item.Key]; found {
		return memcache.ErrNotStored
	}
	gm.store(item)
	return nil
}

func (gm *GoodMemcache) CompareAndSwap(item *memcache.Item) error {
	if gm.CASErrors > 0 {
		gm.CASErrors--
		return memcache.ErrCASConflict
	}
	if _, found := gm.StoredData[item.Key]; !found {
		return memcache.ErrCacheMiss
	}
	if issuedAt, ok := gm.issued[item]; !ok || issuedAt != gm.version(item.Key) {
		return memcache.ErrCASConflict
	}
	gm.store(item)
	return nil
}

func (gm *GoodMemcache) Delete(key string) error {
	if _, found := gm.StoredData[key]; !found {
		return memcache.ErrCacheMiss
	}
	delete(gm.StoredData, key)
	return nil
}

func (gm *GoodMemcache) store(item *memcache.Item) {
	stored := *item
	gm.StoredData[item.Key] = &stored
	if gm.versions == nil {
		gm.versions = make(map[string]int)
	}
	gm.versions[item.Key]++
}

func (gm *GoodMemcache) version(key string) int {
	if gm.versions == nil {
		return 0
	}
	return gm.versions[key]
}

// ------------------------------------------
// Cassandra client mocks
// ------------------------------------------

func NewMockCassandraBackend(ttl int, mockClient CassandraDB) *CassandraBackend {
	return &CassandraBackend{
		defaultTTL: ttl,
		client:     mockClient,
	}
}

type ErrorProneCassandraClient struct {
	Applied     bool
	ServerError error
}

func (ec *ErrorProneCassandraClient) Init() error {
	return ec.ServerError
}

func (ec *ErrorProneCassandraClient) Get(ctx context.Context, key string) (string, error) {
	return "", ec.ServerError
}

func (ec *ErrorProneCassandraClient) Put(ctx context.Context, key string, value string, ttlSeconds int) (bool, error) {
	return ec.Applied, ec.ServerError
}

func (ec *ErrorProneCassandraClient) Update(ctx context.Context, key string, value string, ttlSeconds int) (bool, error) {
	return ec.Applied, ec.ServerError
}

func (ec *ErrorProneCassandraClient) TTL(ctx context.Context, key string) (int, error) {
	return 0, ec.ServerError
}

func (ec *ErrorProneCassandraClient) Delete(ctx context.Context, key string) (bool, error) {
	return ec.Applied, ec.ServerError
}

// Cassandra client that does not throw errors
type GoodCassandraClient struct {
	StoredData map[string]string
	TTLs       map[string]int
}

func (gc *GoodCassandraClient) Init() error {
	return nil
}

func (gc *GoodCassandraClient) Get(ctx context.Context, key string) (string, error) {
	if value, found := gc.StoredData[key]; found {
		return value, nil
	}
	return "", utils.NewStashError(utils.NOT_FOUND)
}

func (gc *GoodCassandraClient) Put(ctx context.Context, key string, value string, ttlSeconds int) (bool, error) {
	if _, found := gc.StoredData[key]; found {
		return false, nil
	}
	gc.StoredData[key] = value
	gc.TTLs[key] = ttlSeconds
	return true, nil
}

func (gc *GoodCassandraClient) Update(ctx context.Context, key string, value string, ttlSeconds int) (bool, error) {
	if _, found := gc.StoredData[key]; !found {
		return false, nil
	}
	gc.StoredData[key] = value
	gc.TTLs[key] = ttlSeconds
	return true, nil
}

func (gc *GoodCassandraClient) TTL(ctx context.Context, key string) (int, error) {
	if ttl, found := gc.TTLs[key]; found {
		return ttl, nil
	}
	return 0, utils.NewStashError(utils.NOT_FOUND)
}

func (gc *GoodCassandraClient) Delete(ctx context.Context, key string) (bool, error) {
	if _, found := gc.StoredData[key]; !found {
		return false, nil
	}
	delete(gc.StoredData, key)
	delete(gc.TTLs, key)
	return true, nil
}

// ------------------------------------------
// Aerospike client mocks
// ------------------------------------------

func NewMockAerospikeBackend(mockClient AerospikeDB) *AerospikeBackend {
	return &AerospikeBackend{client: mockClient}
}

type ErrorProneAerospikeClient struct {
	ServerError error
}

func (ec *ErrorProneAerospikeClient) Get(ctx context.Context, key string) (string, int, uint32, error) {
	return "", 0, 0, ec.ServerError
}

func (ec *ErrorProneAerospikeClient) Head(ctx context.Context, key string) (int, uint32, error) {
	return 0, 0, ec.ServerError
}

func (ec *ErrorProneAerospikeClient) Create(ctx context.Context, key string, value string, ttlSeconds int) error {
	return ec.ServerError
}

func (ec *ErrorProneAerospikeClient) Update(ctx context.Context, key string, value string, ttlSeconds int, generation uint32) error {
	return ec.ServerError
}

func (ec *ErrorProneAerospikeClient) Remove(ctx context.Context, key string) (bool, error) {
	return false, ec.ServerError
}

// Aerospike client that does not throw errors
type GoodAerospikeClient struct {
	StoredData  map[string]string
	TTLs        map[string]int
	Generations map[string]uint32
	GenErrors   int
}

func (gc *GoodAerospikeClient) Get(ctx context.Context, key string) (string, int, uint32, error) {
	value, found := gc.StoredData[key]
	if !found {
		return "", 0, 0, utils.NewStashError(utils.NOT_FOUND)
	}
	return value, gc.TTLs[key], gc.Generations[key], nil
}

func (gc *GoodAerospikeClient) Head(ctx context.Context, key string) (int, uint32, error) {
	if _, found := gc.StoredData[key]; !found {
		return 0, 0, utils.NewStashError(utils.NOT_FOUND)
	}
	return gc.TTLs[key], gc.Generations[key], nil
}

func (gc *GoodAerospikeClient) Create(ctx context.Context, key string, value string, ttlSeconds int) error {
	if _, found := gc.StoredData[key]; found {
		return utils.NewStashError(utils.RECORD_EXISTS)
	}
	gc.StoredData[key] = value
	gc.TTLs[key] = ttlSeconds
	gc.Generations[key] = 1
	return nil
}

func (gc *GoodAerospikeClient) Update(ctx context.Context, key string, value string, ttlSeconds int, generation uint32) error {
	if gc.GenErrors > 0 {
		gc.GenErrors--
		return utils.NewStashError(utils.WRITE_CONFLICT)
	}
	if _, found := gc.StoredData[key]; !found {
		return utils.NewStashError(utils.NOT_FOUND)
	}
	if gc.Generations[key] != generation {
		return utils.NewStashError(utils.WRITE_CONFLICT)
	}
	gc.StoredData[key] = value
	gc.TTLs[key] = ttlSeconds
	gc.Generations[key] = generation + 1
	return nil
}

func (gc *GoodAerospikeClient) Remove(ctx context.Context, key string) (bool, error) {
	if _, found := gc.StoredData[key]; !found {
		return false, nil
	}
	delete(gc.StoredData, key)
	delete(gc.TTLs, key)
	delete(gc.Generations, key)
	return true, nil
}
