package utils

// The following numeric constants serve as configuration defaults
const (
	RECORD_ID_LENGTH             = 8
	MAX_ID_GENERATION_ATTEMPTS   = 3
	MAX_WRITE_CONFLICT_RETRIES   = 3
	FALLBACK_ID_LENGTH           = 36
	DEFAULT_TTL_SECONDS          = 3600
	MAX_TTL_SECONDS              = 86400
	MAX_PAYLOAD_BYTES            = 1024 * 1024
	RATE_LIMITER_NUM_REQUESTS    = 100
	MEMORY_SWEEP_SECONDS         = 60
	BADGER_GC_INTERVAL_MINUTES   = 10
	CASSANDRA_DEFAULT_TTL_SECS   = 2400
	REDIS_DEFAULT_EXPIRATION_MIN = 60
)
