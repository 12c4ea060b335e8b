package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/plumbline-ai/sarah-booking/internal/api/router"
	"github.com/plumbline-ai/sarah-booking/internal/booking"
	"github.com/plumbline-ai/sarah-booking/internal/calllog"
	"github.com/plumbline-ai/sarah-booking/internal/calls"
	"github.com/plumbline-ai/sarah-booking/internal/config"
	"github.com/plumbline-ai/sarah-booking/internal/http/handlers"
	"github.com/plumbline-ai/sarah-booking/internal/identity"
	"github.com/plumbline-ai/sarah-booking/internal/notify"
	"github.com/plumbline-ai/sarah-booking/internal/observability/metrics"
	"github.com/plumbline-ai/sarah-booking/internal/schedule"
	"github.com/plumbline-ai/sarah-booking/internal/servicetitan"
	"github.com/plumbline-ai/sarah-booking/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ServiceTitan gateway
	platform, err := servicetitan.New(servicetitan.Config{
		BaseURL:      cfg.STBaseURL,
		AuthURL:      cfg.STAuthURL,
		ClientID:     cfg.STClientID,
		ClientSecret: cfg.STClientSecret,
		TenantID:     cfg.STTenantID,
		AppKey:       cfg.STAppKey,
		Timeout:      cfg.STTimeout,
	}, logger)
	if err != nil {
		logger.Error("servicetitan client init failed", "error", err)
		os.Exit(1)
	}

	// Redis: lookup cache and booking idempotency claims
	redisOpts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, caching and idempotency degraded", "error", err)
	}

	// Call log: postgres when configured, in-memory otherwise
	var records calllog.Repository = calllog.NewMemoryRepository()
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("postgres pool init failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		records = calllog.NewPostgresRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set, call log is in-memory only")
	}

	resolver := identity.NewResolver(platform, identity.NewCache(redisClient, cfg.DedupeWindow), identity.Config{
		DefaultState: cfg.DefaultState,
		StrictMatch:  cfg.IdentityStrictMatch,
	}, logger)

	availability := schedule.NewResolver(platform, schedule.ResolverConfig{
		BusinessUnits: []int64{cfg.BusinessUnitPlumbing, cfg.BusinessUnitDrain},
		JobTypeID:     cfg.JobTypeService,
		Horizon:       cfg.BookingHorizon,
	}, logger)

	orchestrator := booking.NewOrchestrator(platform, resolver,
		booking.NewDeduper(redisClient, cfg.DedupeWindow),
		booking.Config{
			Classifier: booking.Classifier{
				Plumbing: booking.Routing{BusinessUnitID: cfg.BusinessUnitPlumbing, JobTypeID: cfg.JobTypeService},
				Drain:    booking.Routing{BusinessUnitID: cfg.BusinessUnitDrain, JobTypeID: cfg.JobTypeDrain},
			},
			CampaignID:         cfg.CampaignID,
			DispatchFeeSKU:     cfg.DispatchFeeSKU,
			DispatchFeeEnabled: cfg.DispatchFeeEnabled,
		}, logger, m)

	var extractor *calls.Extractor
	if cfg.GeminiAPIKey != "" {
		generator, err := calls.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Error("gemini client init failed", "error", err)
			os.Exit(1)
		}
		defer generator.Close()
		extractor = calls.NewExtractor(generator, logger)
	} else {
		logger.Warn("GEMINI_API_KEY not set, post-call transcript extraction disabled")
	}

	notifier := notify.New(cfg.NotifyWebhookURL, cfg.NotifyTimeout, logger)

	postCallCfg := handlers.PostCallHandlerConfig{
		Bookings: orchestrator,
		Records:  records,
		Notifier: notifier,
		Logger:   logger,
		Metrics:  m,
	}
	if extractor != nil {
		postCallCfg.Extractor = extractor
	}

	handler := router.New(&router.Config{
		Logger:         logger,
		Metrics:        m,
		Check:          handlers.NewCheckHandler(resolver, availability, logger, m),
		Booking:        handlers.NewBookingHandler(orchestrator, records, logger, m),
		PostCall:       handlers.NewPostCallHandler(postCallCfg),
		Inbound:        handlers.NewInboundHandler(resolver, availability, logger, m),
		Diagnostics:    handlers.NewDiagnosticsHandler(platform, records, logger),
		Health:         handlers.NewHealthHandler(),
		MetricsHandler: promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	_ = redisClient.Close()
	logger.Info("server stopped")
}
