package endpoints

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/stashd/stashd/backends"
	"github.com/stashd/stashd/config"
	"github.com/stashd/stashd/engine"
	"github.com/stashd/stashd/ratelimit"
	"github.com/stashd/stashd/tenants"
)

const testAPIKey = "test-key"

func testTiers() config.Tiers {
	return config.Tiers{
		Free: config.TierLimits{
			StorageLimitBytes:  256,
			DefaultTTLSeconds:  60,
			MaxTTLSeconds:      120,
			RateLimitPerMinute: 6000,
			Burst:              1000,
		},
		Pro:        config.TierLimits{StorageLimitBytes: 4096, DefaultTTLSeconds: 60, MaxTTLSeconds: 240, RateLimitPerMinute: 6000, Burst: 1000},
		Enterprise: config.TierLimits{StorageLimitBytes: 8192, DefaultTTLSeconds: 60, MaxTTLSeconds: 600, RateLimitPerMinute: 6000, Burst: 1000},
	}
}

func newTestDeps() (*engine.Engine, tenants.Resolver) {
	tiers := testTiers()
	eng := engine.New(backends.NewMemoryBackend(), ratelimit.NewTenantLimiter(tiers))
	resolver := tenants.NewStaticResolver(config.Auth{
		Keys: []config.APIKey{{Key: testAPIKey, TenantID: "acme", Tier: config.TierFree}},
	}, tiers)
	return eng, resolver
}

func authedRequest(method, target, body string) *http.Request {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	req.Header.Set(apiKeyHeader, testAPIKey)
	return req
}

func idParams(id string) httprouter.Params {
	return httprouter.Params{{Key: "id", Value: id}}
}
