// Package ratelimit enforces the per-tenant token buckets.
package ratelimit

import (
	"time"

	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"

	"github.com/stashd/stashd/config"
	"github.com/stashd/stashd/utils"
)

// TenantLimiter holds one limiter per tier. Buckets inside a limiter are
// keyed by tenant ID, so tenants on the same tier never share a budget. Idle
// buckets expire after an hour and are rebuilt full on the next request.
type TenantLimiter struct {
	limiters map[config.Tier]*limiter.Limiter
}

func NewTenantLimiter(tiers config.Tiers) *TenantLimiter {
	tl := &TenantLimiter{
		limiters: make(map[config.Tier]*limiter.Limiter, 3),
	}
	for tier, limits := range map[config.Tier]config.TierLimits{
		config.TierFree:       tiers.Free,
		config.TierPro:        tiers.Pro,
		config.TierEnterprise: tiers.Enterprise,
	} {
		lmt := tollbooth.NewLimiter(float64(limits.RateLimitPerMinute)/60.0, &limiter.ExpirableOptions{
			DefaultExpirationTTL: 1 * time.Hour,
		})
		lmt.SetBurst(limits.Burst)
		tl.limiters[tier] = lmt
	}
	return tl
}

// Admit consumes one token from the tenant's bucket and reports RATE_LIMITED
// once the bucket is empty. Unknown tiers draw from the free tier's limiter.
func (tl *TenantLimiter) Admit(tenantID string, tier config.Tier) error {
	lmt, ok := tl.limiters[tier]
	if !ok {
		lmt = tl.limiters[config.TierFree]
	}
	if lmt.LimitReached(tenantID) {
		return utils.NewStashError(utils.RATE_LIMITED)
	}
	return nil
}
