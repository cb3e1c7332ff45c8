// README: HTTP router registration.
package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tripgenie/internal/http/handlers"
	"tripgenie/internal/http/middleware"
	"tripgenie/internal/infra"
)

type RouterDeps struct {
	Trips   handlers.TripService
	Summary handlers.SummarySource
	// Records may be nil; /api/metrics/recent then answers 404.
	Records handlers.RecordSource
	// Gatherer backs /metrics; nil skips the route.
	Gatherer prometheus.Gatherer
	// Verifier enables Firebase auth on /api/trips and /api/metrics when set.
	Verifier infra.TokenVerifier
	// Quota meters authenticated callers; it needs Verifier to take effect.
	Quota       handlers.QuotaService
	CORSOrigins []string
	TripTimeout time.Duration
	Log         *zap.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logging(log), middleware.Recovery(log), middleware.CORS(deps.CORSOrigins))
	if err := r.SetTrustedProxies(nil); err != nil {
		log.Warn("set trusted proxies", zap.Error(err))
	}

	r.GET("/health", handlers.Health)
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")

	trips := api.Group("/trips")
	if deps.Verifier != nil {
		trips.Use(middleware.Auth(deps.Verifier))
	}
	tripHandler := handlers.NewTripHandler(deps.Trips, deps.TripTimeout)
	if deps.Quota != nil {
		tripHandler.WithQuota(deps.Quota)
	}
	trips.POST("", tripHandler.Create)
	trips.GET("/quota", tripHandler.Quota)

	stats := api.Group("/metrics")
	if deps.Verifier != nil {
		stats.Use(middleware.Auth(deps.Verifier))
	}
	metricsHandler := handlers.NewMetricsHandler(deps.Summary, deps.Records)
	stats.GET("/summary", metricsHandler.Summary)
	stats.GET("/recent", metricsHandler.Recent)

	return r
}
