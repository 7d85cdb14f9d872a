package config

import (
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/stashd/stashd/utils"
)

func NewConfig() Configuration {
	v := viper.New()
	setConfigDefaults(v)
	setConfigFile(v)
	setEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	cfg := Configuration{}
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("Failed to unmarshal config: %v", err)
	}

	return cfg
}

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("port", 2424)
	v.SetDefault("admin_port", 2525)
	v.SetDefault("log.level", "info")
	v.SetDefault("backend.type", "memory")
	v.SetDefault("backend.memory.sweep_interval_seconds", utils.MEMORY_SWEEP_SECONDS)
	v.SetDefault("backend.badger.dir", "stash-data")
	v.SetDefault("backend.badger.sync_writes", false)
	v.SetDefault("backend.badger.gc_interval_minutes", utils.BADGER_GC_INTERVAL_MINUTES)
	v.SetDefault("backend.redis.host", "")
	v.SetDefault("backend.redis.port", 0)
	v.SetDefault("backend.redis.password", "")
	v.SetDefault("backend.redis.db", 0)
	v.SetDefault("backend.redis.expiration", utils.REDIS_DEFAULT_EXPIRATION_MIN)
	v.SetDefault("backend.redis.tls.enabled", false)
	v.SetDefault("backend.redis.tls.insecure_skip_verify", false)
	v.SetDefault("backend.memcache.hosts", []string{})
	v.SetDefault("backend.cassandra.hosts", "")
	v.SetDefault("backend.cassandra.keyspace", "stash")
	v.SetDefault("backend.cassandra.default_ttl_seconds", utils.CASSANDRA_DEFAULT_TTL_SECS)
	v.SetDefault("backend.aerospike.host", "")
	v.SetDefault("backend.aerospike.port", 0)
	v.SetDefault("backend.aerospike.namespace", "")
	v.SetDefault("compression.type", "snappy")
	v.SetDefault("metrics.influx.host", "")
	v.SetDefault("metrics.influx.database", "")
	v.SetDefault("metrics.influx.username", "")
	v.SetDefault("metrics.influx.password", "")
	v.SetDefault("metrics.influx.enabled", false)
	v.SetDefault("metrics.influx.interval_seconds", 10)
	v.SetDefault("metrics.prometheus.port", 0)
	v.SetDefault("metrics.prometheus.namespace", "stashd")
	v.SetDefault("metrics.prometheus.subsystem", "")
	v.SetDefault("metrics.prometheus.enabled", false)
	v.SetDefault("metrics.prometheus.timeout_ms", 10000)
	v.SetDefault("rate_limiter.enabled", true)
	v.SetDefault("rate_limiter.num_requests", utils.RATE_LIMITER_NUM_REQUESTS)
	v.SetDefault("routes.empty_index_response", false)

	v.SetDefault("tiers.free.storage_limit_bytes", utils.MAX_PAYLOAD_BYTES)
	v.SetDefault("tiers.free.default_ttl_seconds", utils.DEFAULT_TTL_SECONDS)
	v.SetDefault("tiers.free.max_ttl_seconds", utils.DEFAULT_TTL_SECONDS)
	v.SetDefault("tiers.free.rate_limit_per_minute", 60)
	v.SetDefault("tiers.free.burst", 10)
	v.SetDefault("tiers.pro.storage_limit_bytes", 50*utils.MAX_PAYLOAD_BYTES)
	v.SetDefault("tiers.pro.default_ttl_seconds", utils.MAX_TTL_SECONDS)
	v.SetDefault("tiers.pro.max_ttl_seconds", utils.MAX_TTL_SECONDS)
	v.SetDefault("tiers.pro.rate_limit_per_minute", 600)
	v.SetDefault("tiers.pro.burst", 60)
	v.SetDefault("tiers.enterprise.storage_limit_bytes", 500*utils.MAX_PAYLOAD_BYTES)
	v.SetDefault("tiers.enterprise.default_ttl_seconds", utils.MAX_TTL_SECONDS)
	v.SetDefault("tiers.enterprise.max_ttl_seconds", 7*utils.MAX_TTL_SECONDS)
	v.SetDefault("tiers.enterprise.rate_limit_per_minute", 6000)
	v.SetDefault("tiers.enterprise.burst", 600)
}

func setConfigFile(v *viper.Viper) {
	v.SetConfigName("config")       // name of config file (without extension)
	v.AddConfigPath("/etc/stashd/") // path to look for the config file in
	v.AddConfigPath("$HOME/.stashd") // call multiple times to add many search paths
	v.AddConfigPath(".")
}

func setEnvVars(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("STASH")
	v.AutomaticEnv()
}

type Configuration struct {
	Port         int          `mapstructure:"port"`
	AdminPort    int          `mapstructure:"admin_port"`
	Log          Log          `mapstructure:"log"`
	RateLimiting RateLimiting `mapstructure:"rate_limiter"`
	Backend      Backend      `mapstructure:"backend"`
	Compression  Compression  `mapstructure:"compression"`
	Metrics      Metrics      `mapstructure:"metrics"`
	Tiers        Tiers        `mapstructure:"tiers"`
	Auth         Auth         `mapstructure:"auth"`
	Routes       Routes       `mapstructure:"routes"`
}

// ValidateAndLog validates the config, terminating the program on any errors.
// It also logs the config values that it used.
func (cfg *Configuration) ValidateAndLog() {
	log.Infof("config.port: %d", cfg.Port)
	log.Infof("config.admin_port: %d", cfg.AdminPort)
	cfg.Log.validateAndLog()
	cfg.RateLimiting.validateAndLog()
	cfg.Backend.validateAndLog()
	cfg.Compression.validateAndLog()
	cfg.Metrics.validateAndLog()
	cfg.Tiers.validateAndLog()
	cfg.Auth.validateAndLog()
}

type Log struct {
	Level LogLevel `mapstructure:"level"`
}

func (cfg *Log) validateAndLog() {
	log.Infof("config.log.level: %s", cfg.Level)
}

type LogLevel string

const (
	Debug   LogLevel = "debug"
	Info    LogLevel = "info"
	Warning LogLevel = "warning"
	Error   LogLevel = "error"
	Fatal   LogLevel = "fatal"
	Panic   LogLevel = "panic"
)

// RateLimiting configures the transport-level IP rate limiter. The per-tenant
// token buckets are configured through the tier table instead.
type RateLimiting struct {
	Enabled              bool  `mapstructure:"enabled"`
	MaxRequestsPerSecond int64 `mapstructure:"num_requests"`
}

func (cfg *RateLimiting) validateAndLog() {
	log.Infof("config.rate_limiter.enabled: %t", cfg.Enabled)
	log.Infof("config.rate_limiter.num_requests: %d", cfg.MaxRequestsPerSecond)
}

type Compression struct {
	Type CompressionType `mapstructure:"type"`
}

func (cfg *Compression) validateAndLog() {
	switch cfg.Type {
	case CompressionNone:
		fallthrough
	case CompressionSnappy:
		log.Infof("config.compression.type: %s", cfg.Type)
	default:
		log.Fatalf(`invalid config.compression.type: %s. It must be "none" or "snappy"`, cfg.Type)
	}
}

type CompressionType string

const (
	CompressionNone   CompressionType = "none"
	CompressionSnappy CompressionType = "snappy"
)

type Metrics struct {
	Influx     InfluxMetrics     `mapstructure:"influx"`
	Prometheus PrometheusMetrics `mapstructure:"prometheus"`
}

func (cfg *Metrics) validateAndLog() {
	if cfg.Influx.Enabled {
		cfg.Influx.validateAndLog()
	}
	if cfg.Prometheus.Enabled {
		cfg.Prometheus.validateAndLog()
	}
	if !cfg.Influx.Enabled && !cfg.Prometheus.Enabled {
		log.Infof("Stashd will run without metrics")
	}
}

type InfluxMetrics struct {
	Enabled         bool   `mapstructure:"enabled"`
	Host            string `mapstructure:"host"`
	Database        string `mapstructure:"database"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	IntervalSeconds int    `mapstructure:"interval_seconds"`
}

func (influxMetricsConfig *InfluxMetrics) validateAndLog() {
	if influxMetricsConfig.Host == "" {
		log.Fatalf(`Despite being enabled, influx metrics came with no host info: config.metrics.influx.host = "".`)
	}
	if influxMetricsConfig.Database == "" {
		log.Fatalf(`Despite being enabled, influx metrics came with no database info: config.metrics.influx.database = "".`)
	}
	log.Infof("config.metrics.influx.host: %s", influxMetricsConfig.Host)
	log.Infof("config.metrics.influx.database: %s", influxMetricsConfig.Database)
	log.Infof("config.metrics.influx.interval_seconds: %d", influxMetricsConfig.IntervalSeconds)
}

type PrometheusMetrics struct {
	Enabled          bool   `mapstructure:"enabled"`
	Port             int    `mapstructure:"port"`
	Namespace        string `mapstructure:"namespace"`
	Subsystem        string `mapstructure:"subsystem"`
	TimeoutMillisRaw int64  `mapstructure:"timeout_ms"`
}

func (promMetricsConfig *PrometheusMetrics) Timeout() time.Duration {
	return time.Duration(promMetricsConfig.TimeoutMillisRaw) * time.Millisecond
}

func (promMetricsConfig *PrometheusMetrics) validateAndLog() {
	if promMetricsConfig.Port == 0 {
		log.Fatalf(`Despite being enabled, prometheus metrics came with an empty port number: config.metrics.prometheus.port = 0`)
	}
	log.Infof("config.metrics.prometheus.namespace: %s", promMetricsConfig.Namespace)
	log.Infof("config.metrics.prometheus.subsystem: %s", promMetricsConfig.Subsystem)
	log.Infof("config.metrics.prometheus.port: %d", promMetricsConfig.Port)
}

// Auth holds the static credential table mapping API keys to tenants. A
// production deployment would point the resolver at an external directory;
// the config-backed table keeps the core independent of that choice.
type Auth struct {
	Keys []APIKey `mapstructure:"keys"`
}

type APIKey struct {
	Key      string `mapstructure:"key"`
	TenantID string `mapstructure:"tenant_id"`
	Tier     Tier   `mapstructure:"tier"`
}

func (cfg *Auth) validateAndLog() {
	for _, k := range cfg.Keys {
		if k.Key == "" || k.TenantID == "" {
			log.Fatalf("config.auth.keys entries need both a key and a tenant_id")
		}
		if !k.Tier.valid() {
			log.Fatalf("config.auth.keys: unknown tier %q for tenant %q", k.Tier, k.TenantID)
		}
	}
	log.Infof("config.auth.keys: %d API keys configured", len(cfg.Keys))
}

type Routes struct {
	EmptyIndexResponse bool `mapstructure:"empty_index_response"`
}
