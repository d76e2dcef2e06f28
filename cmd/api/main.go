package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-register/internal/catalog"
	"github.com/noah-isme/toko-register/internal/config"
	"github.com/noah-isme/toko-register/internal/health"
	"github.com/noah-isme/toko-register/internal/obs"
	"github.com/noah-isme/toko-register/internal/pricing"
	"github.com/noah-isme/toko-register/internal/promotion"
	"github.com/noah-isme/toko-register/internal/ratelimit"
	"github.com/noah-isme/toko-register/internal/register"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipeline, err := loadPipeline(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("load promotion rules")
	}
	logger.Info().Strs("rules", pipeline.Rules()).Msg("promotion rules loaded")

	tracingEnabled := cfg.TracingEnabled
	if tracingEnabled {
		shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
			ServiceName:   "register-api",
			Environment:   cfg.AppEnv,
			Exporter:      cfg.TracingExporter,
			Endpoint:      cfg.OTLPEndpoint,
			SamplingRatio: cfg.TracingSampling,
			Rules:         pipeline.Rules(),
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	mem, err := catalog.NewMemory(catalog.DefaultItems())
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog")
	}
	var (
		items       catalog.Catalog = mem
		redisClient *redis.Client
	)
	if cfg.CacheEnabled() {
		redisClient, err = newRedis(ctx, cfg, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect redis")
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
		items = catalog.Cached{
			Source: mem,
			Cache:  catalog.NewCache(redisClient, cfg.CatalogCacheTTL),
			OnError: func(err error) {
				logger.Warn().Err(err).Msg("catalog cache")
			},
		}
	}

	var pricingMetrics *obs.PricingMetrics
	var httpMetrics *obs.HTTPMetrics
	if cfg.MetricsEnabled {
		pricingMetrics = obs.NewPricingMetrics(cfg.MetricsNamespace, nil)
		httpMetrics = obs.NewHTTPMetrics(cfg.MetricsNamespace, obs.ParseBucketsCSV(cfg.MetricsBuckets), nil)
	}

	registerSvc := &register.Service{
		Catalog:  items,
		Pipeline: pipeline,
		Logger:   logger,
		Metrics:  pricingMetrics,
		MaxItems: cfg.MaxBasketItems,
	}
	registerHandler := &register.Handler{Svc: registerSvc}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if tracingEnabled {
		r.Use(obs.Tracing(nil))
	}
	if httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	}))

	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	healthHandler := health.Handler{RedisTimeout: cfg.RedisPingTimeout, Rules: registerSvc.Rules}
	if redisClient != nil {
		healthHandler.Checker = readinessChecker{redis: redisClient}
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	var apiLimiter ratelimit.Handler
	if cfg.RateLimitEnabled() {
		lim, err := ratelimit.New(redisClient, cfg.APIRateLimit)
		if err != nil {
			logger.Fatal().Err(err).Msg("initialise rate limiter")
		}
		apiLimiter = ratelimit.Handler{
			Limiter: lim,
			OnError: func(err error) {
				logger.Warn().Err(err).Msg("rate limiter unavailable")
			},
		}
	}
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiLimiter.Middleware)
		registerHandler.Routes(r)
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown server")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server stopped")
}

func loadPipeline(cfg *config.Config) (*pricing.Pipeline, error) {
	if cfg.PromotionRulesFile == "" {
		return pricing.DefaultPipeline(), nil
	}
	defs, err := promotion.LoadFile(cfg.PromotionRulesFile)
	if err != nil {
		return nil, err
	}
	return promotion.Pipeline(defs)
}

func newRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if cfg.MetricsEnabled {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	redis *redis.Client
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}
