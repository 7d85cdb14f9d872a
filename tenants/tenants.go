// Package tenants resolves API keys to the tenants that own them.
package tenants

import (
	log "github.com/sirupsen/logrus"

	"github.com/stashd/stashd/config"
	"github.com/stashd/stashd/utils"
)

// Tenant is the authenticated caller of a request. Its ID is the only value
// that ever reaches a storage key, and its Limits drive every quota decision.
type Tenant struct {
	ID     string
	Tier   config.Tier
	Limits config.TierLimits
}

// Resolver turns an API key into a tenant. Implementations must return an
// UNAUTHORIZED StashError for unknown or empty keys.
type Resolver interface {
	Resolve(apiKey string) (Tenant, error)
}

// StaticResolver serves the credential table loaded from config. Lookups are
// read-only after construction.
type StaticResolver struct {
	byKey map[string]Tenant
}

func NewStaticResolver(auth config.Auth, tiers config.Tiers) *StaticResolver {
	byKey := make(map[string]Tenant, len(auth.Keys))
	for _, k := range auth.Keys {
		if _, dup := byKey[k.Key]; dup {
			log.Fatalf("config.auth.keys: duplicate API key for tenant %q", k.TenantID)
		}
		byKey[k.Key] = Tenant{
			ID:     k.TenantID,
			Tier:   k.Tier,
			Limits: tiers.Limits(k.Tier),
		}
	}
	return &StaticResolver{byKey: byKey}
}

func (r *StaticResolver) Resolve(apiKey string) (Tenant, error) {
	if apiKey == "" {
		return Tenant{}, utils.NewStashError(utils.UNAUTHORIZED, "missing API key")
	}
	tenant, found := r.byKey[apiKey]
	if !found {
		return Tenant{}, utils.NewStashError(utils.UNAUTHORIZED)
	}
	return tenant, nil
}
