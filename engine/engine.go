// Package engine implements the stash operations on top of a storage
// backend. It owns record ID generation, TTL policy and the tenant namespace;
// the HTTP layer above it only translates requests and responses.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stashd/stashd/backends"
	"github.com/stashd/stashd/config"
	"github.com/stashd/stashd/tenants"
	"github.com/stashd/stashd/utils"
	"github.com/stashd/stashd/validation"
)

// IDSource supplies record identifiers. The default draws random IDs; tests
// substitute fixed sequences to exercise the collision path.
type IDSource interface {
	RecordID() (string, error)
	FallbackID() (string, error)
}

type randomIDSource struct{}

func (randomIDSource) RecordID() (string, error)   { return utils.GenerateRecordID() }
func (randomIDSource) FallbackID() (string, error) { return utils.GenerateFallbackID() }

// Admitter is the slice of the rate limiter the engine needs.
type Admitter interface {
	Admit(tenantID string, tier config.Tier) error
}

type Engine struct {
	backend backends.Backend
	limiter Admitter
	ids     IDSource
	now     func() time.Time
}

func New(backend backends.Backend, limiter Admitter) *Engine {
	return &Engine{
		backend: backend,
		limiter: limiter,
		ids:     randomIDSource{},
		now:     time.Now,
	}
}

type CreateResult struct {
	ID         string
	TTLSeconds int
	ExpiresAt  time.Time
}

type RecallResult struct {
	Payload      string
	TTLRemaining int
}

type UpdateResult struct {
	ID           string
	TTLRemaining int
	ExpiresAt    time.Time
}

// namespaceKey is the only place a storage key is ever built. Every backend
// sees keys of this shape and nothing else, which is what keeps tenants from
// ever reading each other's records.
func namespaceKey(tenantID, recordID string) string {
	return fmt.Sprintf("tenant:%s:%s", tenantID, recordID)
}

// Create stores a new payload under a fresh record ID. A zero ttlSeconds
// falls back to the tenant's default. Short-ID collisions are retried up to
// the attempt budget, after which a UUID takes over.
func (e *Engine) Create(ctx context.Context, tenant tenants.Tenant, payload []byte, ttlSeconds int) (CreateResult, error) {
	if err := e.limiter.Admit(tenant.ID, tenant.Tier); err != nil {
		return CreateResult{}, err
	}

	if ttlSeconds < 0 {
		return CreateResult{}, utils.NewStashError(utils.INVALID_REQUEST, "ttl_seconds must not be negative")
	}
	if ttlSeconds == 0 {
		ttlSeconds = tenant.Limits.DefaultTTLSeconds
	}
	if ttlSeconds > tenant.Limits.MaxTTLSeconds {
		return CreateResult{}, utils.NewStashError(utils.TTL_EXCEEDED,
			fmt.Sprintf("ttl_seconds %d exceeds the tier maximum of %d", ttlSeconds, tenant.Limits.MaxTTLSeconds))
	}

	stored, err := validation.SerializePayload(payload, tenant.Limits)
	if err != nil {
		return CreateResult{}, err
	}

	recordID, err := e.putUnderFreshID(ctx, tenant.ID, stored, ttlSeconds)
	if err != nil {
		return CreateResult{}, err
	}

	return CreateResult{
		ID:         recordID,
		TTLSeconds: ttlSeconds,
		ExpiresAt:  e.now().Add(time.Duration(ttlSeconds) * time.Second),
	}, nil
}

// putUnderFreshID relies on the backend's atomic set-if-absent write to
// detect collisions: a RECORD_EXISTS result burns one attempt, anything else
// is final. When the short-ID budget runs out, a v4 UUID is long enough to
// be treated as collision-free.
func (e *Engine) putUnderFreshID(ctx context.Context, tenantID string, stored string, ttlSeconds int) (string, error) {
	for attempt := 0; attempt < utils.MAX_ID_GENERATION_ATTEMPTS; attempt++ {
		recordID, err := e.ids.RecordID()
		if err != nil {
			return "", asBackendError(err)
		}

		err = e.backend.Put(ctx, namespaceKey(tenantID, recordID), stored, ttlSeconds)
		if err == nil {
			return recordID, nil
		}
		if !utils.IsType(err, utils.RECORD_EXISTS) {
			return "", asBackendError(err)
		}
	}

	recordID, err := e.ids.FallbackID()
	if err != nil {
		return "", asBackendError(err)
	}
	if err := e.backend.Put(ctx, namespaceKey(tenantID, recordID), stored, ttlSeconds); err != nil {
		return "", asBackendError(err)
	}
	return recordID, nil
}

// Recall returns the payload and the TTL left on the record.
func (e *Engine) Recall(ctx context.Context, tenant tenants.Tenant, recordID string) (RecallResult, error) {
	if err := e.limiter.Admit(tenant.ID, tenant.Tier); err != nil {
		return RecallResult{}, err
	}

	key := namespaceKey(tenant.ID, recordID)
	payload, err := e.backend.Get(ctx, key)
	if err != nil {
		return RecallResult{}, asBackendError(err)
	}

	remaining, err := e.backend.RemainingTTL(ctx, key)
	if err != nil {
		// The record expired between the two reads.
		return RecallResult{}, asBackendError(err)
	}

	return RecallResult{
		Payload:      payload,
		TTLRemaining: remaining,
	}, nil
}

// Update replaces the payload, extends the TTL, or both, in one atomic
// backend write. The extended TTL may never exceed the tier maximum counted
// from now.
func (e *Engine) Update(ctx context.Context, tenant tenants.Tenant, recordID string, payload []byte, extraSeconds int) (UpdateResult, error) {
	if err := e.limiter.Admit(tenant.ID, tenant.Tier); err != nil {
		return UpdateResult{}, err
	}

	if payload == nil && extraSeconds == 0 {
		return UpdateResult{}, utils.NewStashError(utils.INVALID_REQUEST, "nothing to update: provide a payload, extend_ttl_seconds, or both")
	}
	if extraSeconds < 0 {
		return UpdateResult{}, utils.NewStashError(utils.INVALID_REQUEST, "extend_ttl_seconds must not be negative")
	}

	var newValue *string
	if payload != nil {
		stored, err := validation.SerializePayload(payload, tenant.Limits)
		if err != nil {
			return UpdateResult{}, err
		}
		newValue = &stored
	}

	key := namespaceKey(tenant.ID, recordID)

	if extraSeconds > 0 {
		remaining, err := e.backend.RemainingTTL(ctx, key)
		if err != nil {
			return UpdateResult{}, asBackendError(err)
		}
		if remaining+extraSeconds > tenant.Limits.MaxTTLSeconds {
			return UpdateResult{}, utils.NewStashError(utils.TTL_EXCEEDED,
				fmt.Sprintf("extending by %d seconds would exceed the tier maximum of %d", extraSeconds, tenant.Limits.MaxTTLSeconds))
		}
	}

	expiresAt, err := e.backend.Replace(ctx, key, newValue, extraSeconds)
	if err != nil {
		return UpdateResult{}, asBackendError(err)
	}

	return UpdateResult{
		ID:           recordID,
		TTLRemaining: int(expiresAt.Sub(e.now()).Round(time.Second).Seconds()),
		ExpiresAt:    expiresAt,
	}, nil
}

// Forget removes the record. Deleting an unknown or expired record reports
// NOT_FOUND rather than succeeding silently.
func (e *Engine) Forget(ctx context.Context, tenant tenants.Tenant, recordID string) error {
	if err := e.limiter.Admit(tenant.ID, tenant.Tier); err != nil {
		return err
	}

	if err := e.backend.Delete(ctx, namespaceKey(tenant.ID, recordID)); err != nil {
		return asBackendError(err)
	}
	return nil
}

// asBackendError passes StashErrors through untouched and wraps anything else
// as BACKEND_UNAVAILABLE, so substrate-specific failures never leak past the
// engine.
func asBackendError(err error) error {
	var se utils.StashError
	if errors.As(err, &se) {
		return se
	}
	return utils.NewStashError(utils.BACKEND_UNAVAILABLE, err.Error())
}
