// README: Composition root; builds every service from Config for the API and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"tripgenie/internal/ai"
	"tripgenie/internal/config"
	httptransport "tripgenie/internal/http"
	"tripgenie/internal/infra"
	"tripgenie/internal/maps"
	"tripgenie/internal/modules/evaluation"
	"tripgenie/internal/modules/flights"
	"tripgenie/internal/modules/intent"
	"tripgenie/internal/modules/metrics"
	"tripgenie/internal/modules/planner"
	"tripgenie/internal/modules/quota"
	"tripgenie/internal/service"
)

// plannerTemperatureBoost makes itineraries a little more varied than extraction.
const plannerTemperatureBoost = 0.3

type App struct {
	Config       config.Config
	Log          *zap.Logger
	Orchestrator *service.Orchestrator
	Evaluator    *evaluation.Evaluator
	Tracker      *metrics.Tracker
	Registry     *prometheus.Registry
	// Store is nil when no database is configured.
	Store    *metrics.Store
	Verifier infra.TokenVerifier
	// Quota is nil unless a monthly allowance and a database are configured.
	Quota *quota.Service

	closers []func(context.Context) error
}

type buildOptions struct {
	provider ai.Provider
	searcher flights.Searcher
}

type Option func(*buildOptions)

// WithProvider replaces the configured LLM backend.
func WithProvider(p ai.Provider) Option {
	return func(o *buildOptions) { o.provider = p }
}

// WithSearcher replaces the configured flight search strategy.
func WithSearcher(s flights.Searcher) Option {
	return func(o *buildOptions) { o.searcher = s }
}

// Build wires the pipeline. Optional backends (Redis, Postgres, Maps) that fail to
// initialise are logged and skipped; auth and the LLM provider are required once configured.
// On error every backend opened so far is closed again.
func Build(ctx context.Context, cfg config.Config, log *zap.Logger, opts ...Option) (_ *App, err error) {
	var bo buildOptions
	for _, opt := range opts {
		opt(&bo)
	}
	a := &App{Config: cfg, Log: log}
	defer func() {
		if err == nil {
			return
		}
		if cerr := a.Close(context.WithoutCancel(ctx)); cerr != nil {
			log.Warn("release partial setup", zap.Error(cerr))
		}
	}()

	a.closers = append(a.closers, infra.InitTracing(ctx, cfg.Telemetry, log))

	provider := bo.provider
	if provider == nil {
		p, err := ai.NewProvider(ctx, cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("llm provider: %w", err)
		}
		provider = p
		if c, ok := p.(io.Closer); ok {
			a.closers = append(a.closers, func(context.Context) error { return c.Close() })
		}
	}

	client := ai.NewClient(provider, a.buildCache(ctx), ai.ClientOptions{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
		MaxRetries:  cfg.LLM.MaxRetries,
		CacheTTL:    cfg.Cache.TTL,
	}, log.Named("llm"))

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Tracker = metrics.NewTracker(metrics.Pricing{
		InputPerMTok:  cfg.Pricing.InputPerMTok,
		OutputPerMTok: cfg.Pricing.OutputPerMTok,
	}, a.Registry, log.Named("metrics"))

	if cfg.DB.DSN != "" {
		db, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			log.Warn("metrics database unavailable, records stay in memory", zap.Error(err))
		} else {
			a.Store = metrics.NewStore(db)
			a.Tracker.WithSink(a.Store)
			a.closers = append(a.closers, func(context.Context) error { return db.Close() })
		}
	}

	if cfg.Quota.MonthlyTrips > 0 && cfg.DB.DSN != "" {
		pool, err := infra.NewPool(ctx, cfg.DB.DSN)
		if err != nil {
			log.Warn("quota database unavailable, trips are not metered", zap.Error(err))
		} else {
			a.Quota = quota.NewService(quota.NewStore(pool), cfg.Quota.MonthlyTrips)
			a.closers = append(a.closers, func(context.Context) error { pool.Close(); return nil })
		}
	}

	if cfg.Firebase.ProjectID != "" {
		v, err := infra.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("firebase init: %w", err)
		}
		a.Verifier = v
	}

	searcher := bo.searcher
	if searcher == nil {
		searcher = flights.New(cfg.Flights, log.Named("flights"))
	}

	a.Evaluator = evaluation.NewEvaluator(client, cfg.LLM.JudgeModel, log.Named("evaluation"))
	a.Orchestrator = service.New(service.Deps{
		Intent: intent.NewExtractor(client, log.Named("intent")),
		Planner: planner.NewPlanner(client, a.buildGuide(), planner.Options{
			Temperature: cfg.LLM.Temperature + plannerTemperatureBoost,
		}, log.Named("planner")),
		Flights:   searcher,
		Evaluator: a.Evaluator,
		Tracker:   a.Tracker,
		Log:       log.Named("orchestrator"),
	}, service.Config{
		FlightTimeout:     cfg.Flights.Timeout,
		BestEffortFlights: cfg.Flights.BestEffort,
		DefaultOrigin:     cfg.Flights.DefaultOrigin,
	})

	log.Info("tripgenie wired",
		zap.String("llm_provider", client.ProviderName()),
		zap.String("model", cfg.LLM.Model),
		zap.String("judge_model", cfg.LLM.JudgeModel),
		zap.String("flights", searcher.Name()),
		zap.Bool("metrics_store", a.Store != nil),
		zap.Bool("auth", a.Verifier != nil),
		zap.Bool("quota", a.Quota != nil))
	return a, nil
}

func (a *App) buildCache(ctx context.Context) ai.Cache {
	if !a.Config.Cache.Enabled {
		return nil
	}
	if a.Config.Redis.Addr != "" {
		rdb, err := infra.NewRedis(ctx, a.Config.Redis.Addr)
		if err == nil {
			a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
			return ai.NewRedisCache(rdb)
		}
		a.Log.Warn("redis unavailable, using in-process cache", zap.Error(err))
	}
	return ai.NewMemoryCache(a.Config.Cache.TTL)
}

// buildGuide returns nil, not a typed nil pointer, when Maps is not configured.
func (a *App) buildGuide() planner.Guide {
	if a.Config.Maps.APIKey == "" {
		return nil
	}
	places, err := maps.NewPlacesService(a.Config.Maps.APIKey)
	if err != nil {
		a.Log.Warn("places service unavailable, planning without destination guide", zap.Error(err))
		return nil
	}
	return maps.NewDestinationGuide(places)
}

// Router builds the HTTP API over the wired services.
func (a *App) Router() *gin.Engine {
	deps := httptransport.RouterDeps{
		Trips:       a.Orchestrator,
		Summary:     a.Tracker,
		Gatherer:    a.Registry,
		Verifier:    a.Verifier,
		CORSOrigins: a.Config.HTTP.CORSOrigins,
		TripTimeout: a.Config.HTTP.RequestTimeout,
		Log:         a.Log.Named("http"),
	}
	if a.Store != nil {
		deps.Records = a.Store
	}
	if a.Quota != nil {
		deps.Quota = a.Quota
	}
	return httptransport.NewRouter(deps)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
