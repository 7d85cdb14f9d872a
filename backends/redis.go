package backends

import (
	"context"
	"crypto/tls"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/stashd/stashd/config"
	"github.com/stashd/stashd/utils"
)

// RedisDB is the interface RedisBackend needs from the client library so unit
// tests can fake the server.
type RedisDB interface {
	Get(ctx context.Context, key string) (string, error)
	SetIfAbsent(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
	ReplaceExtend(ctx context.Context, key string, value *string, extraSeconds int) (int64, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
	Del(ctx context.Context, key string) (int64, error)
}

// replaceExtendScript updates the payload and/or extends the TTL in a single
// server-side step, so concurrent replaces can never commit a torn mix of
// payload and expiry from different calls. Returns the new TTL in seconds, or
// -2 when the key is missing or already expired.
var replaceExtendScript = redis.NewScript(`
local ttl = redis.call('TTL', KEYS[1])
if ttl <= 0 then
	return -2
end
local extra = tonumber(ARGV[3])
if extra > 0 then
	ttl = ttl + extra
end
if ARGV[1] == '1' then
	redis.call('SET', KEYS[1], ARGV[2], 'EX', ttl)
else
	redis.call('EXPIRE', KEYS[1], ttl)
end
return ttl
`)

// RedisDBClient is the production implementation of the RedisDB interface
type RedisDBClient struct {
	client *redis.Client
}

func (db RedisDBClient) Get(ctx context.Context, key string) (string, error) {
	return db.client.Get(ctx, key).Result()
}

func (db RedisDBClient) SetIfAbsent(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	return db.client.SetNX(ctx, key, value, ttl).Result()
}

func (db RedisDBClient) ReplaceExtend(ctx context.Context, key string, value *string, extraSeconds int) (int64, error) {
	hasValue := "0"
	newValue := ""
	if value != nil {
		hasValue = "1"
		newValue = *value
	}
	return replaceExtendScript.Run(ctx, db.client, []string{key}, hasValue, newValue, extraSeconds).Int64()
}

func (db RedisDBClient) TTL(ctx context.Context, key string) (time.Duration, error) {
	return db.client.TTL(ctx, key).Result()
}

func (db RedisDBClient) Del(ctx context.Context, key string) (int64, error) {
	return db.client.Del(ctx, key).Result()
}

// RedisBackend is the networked shared-cache store. Redis enforces per-key
// expiry natively; SET NX gives the atomic set-if-absent write that collision
// detection relies on.
type RedisBackend struct {
	cfg    config.Redis
	client RedisDB
}

func NewRedisBackend(cfg config.Redis, ctx context.Context) *RedisBackend {
	constr := cfg.Host + ":" + strconv.Itoa(cfg.Port)

	options := &redis.Options{
		Addr:     constr,
		Password: cfg.Password,
		DB:       cfg.Db,
	}
	if cfg.TLS.Enabled {
		options.TLSConfig = &tls.Config{
			InsecureSkipVerify: cfg.TLS.InsecureSkipVerify,
		}
	}

	client := redis.NewClient(options)
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Fatalf("Error creating Redis backend: %v", err)
	}
	log.Infof("Connected to Redis at %s:%d", cfg.Host, cfg.Port)

	return &RedisBackend{
		cfg:    cfg,
		client: RedisDBClient{client: client},
	}
}

func (b *RedisBackend) Put(ctx context.Context, key string, value string, ttlSeconds int) error {
	if ttlSeconds == 0 {
		ttlSeconds = b.cfg.Expiration * 60
	}

	stored, err := b.client.SetIfAbsent(ctx, key, value, time.Duration(ttlSeconds)*time.Second)
	if err != nil {
		return err
	}
	if !stored {
		return utils.NewStashError(utils.RECORD_EXISTS)
	}
	return nil
}

func (b *RedisBackend) Get(ctx context.Context, key string) (string, error) {
	res, err := b.client.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		return "", utils.NewStashError(utils.NOT_FOUND)
	}
	if err != nil {
		return "", err
	}
	return res, nil
}

func (b *RedisBackend) Replace(ctx context.Context, key string, value *string, extraSeconds int) (time.Time, error) {
	newTTL, err := b.client.ReplaceExtend(ctx, key, value, extraSeconds)
	if err != nil {
		return time.Time{}, err
	}
	if newTTL < 0 {
		return time.Time{}, utils.NewStashError(utils.NOT_FOUND)
	}
	return time.Now().Add(time.Duration(newTTL) * time.Second), nil
}

func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	deleted, err := b.client.Del(ctx, key)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return utils.NewStashError(utils.NOT_FOUND)
	}
	return nil
}

func (b *RedisBackend) RemainingTTL(ctx context.Context, key string) (int, error) {
	ttl, err := b.client.TTL(ctx, key)
	if err != nil {
		return 0, err
	}
	// -1 means no expiry, -2 means the key doesn't exist. Stash records
	// always carry a TTL, so both read as missing.
	if ttl < 0 {
		return 0, utils.NewStashError(utils.NOT_FOUND)
	}
	return int(ttl.Round(time.Second).Seconds()), nil
}
