package config

import (
	log "github.com/sirupsen/logrus"
)

type BackendType string

const (
	BackendMemory    BackendType = "memory"
	BackendBadger    BackendType = "badger"
	BackendRedis     BackendType = "redis"
	BackendMemcache  BackendType = "memcache"
	BackendCassandra BackendType = "cassandra"
	BackendAerospike BackendType = "aerospike"
)

type Backend struct {
	Type      BackendType `mapstructure:"type"`
	Memory    Memory      `mapstructure:"memory"`
	Badger    Badger      `mapstructure:"badger"`
	Redis     Redis       `mapstructure:"redis"`
	Memcache  Memcache    `mapstructure:"memcache"`
	Cassandra Cassandra   `mapstructure:"cassandra"`
	Aerospike Aerospike   `mapstructure:"aerospike"`
}

func (cfg *Backend) validateAndLog() {
	log.Infof("config.backend.type: %s", cfg.Type)
	switch cfg.Type {
	case BackendMemory:
		cfg.Memory.validateAndLog()
	case BackendBadger:
		cfg.Badger.validateAndLog()
	case BackendRedis:
		cfg.Redis.validateAndLog()
	case BackendMemcache:
		cfg.Memcache.validateAndLog()
	case BackendCassandra:
		cfg.Cassandra.validateAndLog()
	case BackendAerospike:
		cfg.Aerospike.validateAndLog()
	default:
		log.Fatalf(`invalid config.backend.type: %s. It must be one of "memory", "badger", "redis", "memcache", "cassandra", "aerospike"`, cfg.Type)
	}
}

// Memory holds the transient heap store settings. Data does not survive a
// process restart.
type Memory struct {
	SweepIntervalSeconds int `mapstructure:"sweep_interval_seconds"`
}

func (cfg *Memory) validateAndLog() {
	log.Infof("config.backend.memory.sweep_interval_seconds: %d", cfg.SweepIntervalSeconds)
}

type Badger struct {
	Dir               string `mapstructure:"dir"`
	SyncWrites        bool   `mapstructure:"sync_writes"`
	GCIntervalMinutes int    `mapstructure:"gc_interval_minutes"`
}

func (cfg *Badger) validateAndLog() {
	if cfg.Dir == "" {
		log.Fatalf("config.backend.badger.dir must not be empty")
	}
	log.Infof("config.backend.badger.dir: %s", cfg.Dir)
	log.Infof("config.backend.badger.sync_writes: %t", cfg.SyncWrites)
	log.Infof("config.backend.badger.gc_interval_minutes: %d", cfg.GCIntervalMinutes)
}

type Redis struct {
	Host       string   `mapstructure:"host"`
	Port       int      `mapstructure:"port"`
	Password   string   `mapstructure:"password"`
	Db         int      `mapstructure:"db"`
	Expiration int      `mapstructure:"expiration"`
	TLS        RedisTLS `mapstructure:"tls"`
}

type RedisTLS struct {
	Enabled            bool `mapstructure:"enabled"`
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify"`
}

func (cfg *Redis) validateAndLog() {
	log.Infof("config.backend.redis.host: %s", cfg.Host)
	log.Infof("config.backend.redis.port: %d", cfg.Port)
	log.Infof("config.backend.redis.db: %d", cfg.Db)
	log.Infof("config.backend.redis.expiration: %d", cfg.Expiration)
	log.Infof("config.backend.redis.tls.enabled: %t", cfg.TLS.Enabled)
	log.Infof("config.backend.redis.tls.insecure_skip_verify: %t", cfg.TLS.InsecureSkipVerify)
}

type Memcache struct {
	Hosts []string `mapstructure:"hosts"`
}

func (cfg *Memcache) validateAndLog() {
	log.Infof("config.backend.memcache.hosts: %v", cfg.Hosts)
}

type Cassandra struct {
	Hosts             string `mapstructure:"hosts"`
	Keyspace          string `mapstructure:"keyspace"`
	DefaultTTLSeconds int    `mapstructure:"default_ttl_seconds"`
}

func (cfg *Cassandra) validateAndLog() {
	log.Infof("config.backend.cassandra.hosts: %s", cfg.Hosts)
	log.Infof("config.backend.cassandra.keyspace: %s", cfg.Keyspace)
	log.Infof("config.backend.cassandra.default_ttl_seconds: %d", cfg.DefaultTTLSeconds)
}

type Aerospike struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Namespace string `mapstructure:"namespace"`
}

func (cfg *Aerospike) validateAndLog() {
	log.Infof("config.backend.aerospike.host: %s", cfg.Host)
	log.Infof("config.backend.aerospike.port: %d", cfg.Port)
	log.Infof("config.backend.aerospike.namespace: %s", cfg.Namespace)
}
