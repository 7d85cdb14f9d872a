package config

import (
	log "github.com/sirupsen/logrus"
)

// Tier names a bundle of limits assigned to a tenant.
type Tier string

const (
	TierFree       Tier = "free"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

func (t Tier) valid() bool {
	switch t {
	case TierFree, TierPro, TierEnterprise:
		return true
	}
	return false
}

// TierLimits is read-only at request time. The table is loaded once at
// startup and passed by reference into every component that needs it, so no
// synchronization is required.
type TierLimits struct {
	StorageLimitBytes  int `mapstructure:"storage_limit_bytes"`
	DefaultTTLSeconds  int `mapstructure:"default_ttl_seconds"`
	MaxTTLSeconds      int `mapstructure:"max_ttl_seconds"`
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute"`
	Burst              int `mapstructure:"burst"`
}

type Tiers struct {
	Free       TierLimits `mapstructure:"free"`
	Pro        TierLimits `mapstructure:"pro"`
	Enterprise TierLimits `mapstructure:"enterprise"`
}

// Limits returns the limit bundle for the given tier. Unknown tiers fall back
// to the free tier so a bad credential record can never widen limits.
func (t Tiers) Limits(tier Tier) TierLimits {
	switch tier {
	case TierPro:
		return t.Pro
	case TierEnterprise:
		return t.Enterprise
	default:
		return t.Free
	}
}

func (t *Tiers) validateAndLog() {
	for _, entry := range []struct {
		tier   Tier
		limits TierLimits
	}{
		{TierFree, t.Free},
		{TierPro, t.Pro},
		{TierEnterprise, t.Enterprise},
	} {
		if entry.limits.StorageLimitBytes <= 0 {
			log.Fatalf("config.tiers.%s.storage_limit_bytes must be positive", entry.tier)
		}
		if entry.limits.DefaultTTLSeconds <= 0 || entry.limits.MaxTTLSeconds <= 0 {
			log.Fatalf("config.tiers.%s ttl limits must be positive", entry.tier)
		}
		if entry.limits.DefaultTTLSeconds > entry.limits.MaxTTLSeconds {
			log.Fatalf("config.tiers.%s.default_ttl_seconds exceeds max_ttl_seconds", entry.tier)
		}
		if entry.limits.RateLimitPerMinute <= 0 || entry.limits.Burst <= 0 {
			log.Fatalf("config.tiers.%s rate limits must be positive", entry.tier)
		}
		log.Infof("config.tiers.%s: storage_limit_bytes=%d default_ttl=%ds max_ttl=%ds rate=%d/min burst=%d",
			entry.tier, entry.limits.StorageLimitBytes, entry.limits.DefaultTTLSeconds,
			entry.limits.MaxTTLSeconds, entry.limits.RateLimitPerMinute, entry.limits.Burst)
	}
}
