package routing

import (
	"net/http"
	"time"

	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"github.com/stashd/stashd/config"
	"github.com/stashd/stashd/endpoints"
	"github.com/stashd/stashd/endpoints/decorators"
	"github.com/stashd/stashd/metrics"
	"github.com/stashd/stashd/tenants"
	"github.com/stashd/stashd/version"
)

// NewPublicHandler builds the router for the main listener: the four stash
// operations plus the index and status routes, wrapped with CORS and the
// transport-level IP rate limiter. The per-tenant token buckets live inside
// the engine and are not affected by cfg.RateLimiting.
func NewPublicHandler(cfg config.Configuration, eng endpoints.Engine, resolver tenants.Resolver, appMetrics *metrics.Metrics) http.Handler {
	router := httprouter.New()

	router.GET("/", endpoints.NewIndexHandler(cfg.Routes.EmptyIndexResponse))
	router.GET("/status", endpoints.Status) // Determines whether the server is ready for more traffic.
	router.GET("/version", endpoints.NewVersionEndpoint(version.Ver, version.Rev))

	router.POST("/stash", decorators.MonitorHttp(endpoints.NewStashHandler(eng, resolver), appMetrics, metrics.CreateOp))
	router.GET("/recall/:id", decorators.MonitorHttp(endpoints.NewRecallHandler(eng, resolver), appMetrics, metrics.RecallOp))
	router.PATCH("/update/:id", decorators.MonitorHttp(endpoints.NewUpdateHandler(eng, resolver), appMetrics, metrics.UpdateOp))
	router.DELETE("/forget/:id", decorators.MonitorHttp(endpoints.NewForgetHandler(eng, resolver), appMetrics, metrics.ForgetOp))

	handler := handleCors(router)
	handler = handleRateLimiting(handler, cfg.RateLimiting)
	return handler
}

func handleCors(handler http.Handler) http.Handler {
	coresCfg := cors.New(cors.Options{AllowCredentials: true, AllowOriginFunc: func(origin string) bool {
		return true
	}})
	return coresCfg.Handler(handler)
}

func handleRateLimiting(next http.Handler, cfg config.RateLimiting) http.Handler {
	// Skip rate limiter when disabled
	if !cfg.Enabled {
		return next
	}

	limit := tollbooth.NewLimiter(float64(cfg.MaxRequestsPerSecond), &limiter.ExpirableOptions{
		DefaultExpirationTTL: 1 * time.Hour,
	})
	limit.SetIPLookups([]string{"X-Forwarded-For", "X-Real-IP"})
	limit.SetMessage(`{ "error": "rate limit" }`)
	limit.SetMessageContentType("application/json")

	return tollbooth.LimitHandler(limit, next)
}
