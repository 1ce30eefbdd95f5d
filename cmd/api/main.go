package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"example.com/kickaider/internal/api"
	"example.com/kickaider/internal/auth"
	"example.com/kickaider/internal/config"
	"example.com/kickaider/internal/domain"
	"example.com/kickaider/internal/logging"
	"example.com/kickaider/internal/outbox"
	"example.com/kickaider/internal/persistence/memory"
	persistence "example.com/kickaider/internal/persistence/postgres"
	httptransport "example.com/kickaider/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}

	logger := logging.Must("kickaider-api", logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		repo       domain.Repository
		dispatcher *outbox.Dispatcher
	)
	if cfg.UsesPostgres() {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer pool.Close()

		producer := outbox.NewKafkaProducer(cfg.KafkaBrokers)
		defer producer.Close()

		registry := outbox.NewSchemaRegistryClient(cfg.SchemaRegistryURL)
		dispatcher = outbox.NewDispatcher(pool, producer, registry, cfg.OutboxPollInterval, cfg.OutboxBatchSize,
			outbox.WithLogger(logger.Named("outbox")))
		go dispatcher.Start(ctx)

		repo = persistence.NewRepository(pool)
	} else {
		logger.Warn("POSTGRES_URL not set, using in-memory store without event delivery")
		repo = memory.NewRepository()
	}

	service := domain.NewService(repo,
		domain.WithLatency(cfg.LatencyMin, cfg.LatencyMax),
		domain.WithBootstrapPassword(cfg.BootstrapPassword),
	)

	mux := http.NewServeMux()
	api.NewHandler(service).RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	middlewares := []httptransport.Middleware{
		httptransport.CORS(cfg.CORSOrigin),
		httptransport.RequestLogger(logger.Named("http")),
	}
	if cfg.RateLimit.Enabled {
		trusted, err := httptransport.ParseTrustedProxies(cfg.RateLimit.TrustedProxies)
		if err != nil {
			logger.Fatal("invalid trusted proxies", zap.Error(err))
		}
		limiter := httptransport.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst,
			httptransport.WithTrustedProxies(trusted...),
			httptransport.WithMaxClients(cfg.RateLimit.MaxClients),
		)
		middlewares = append(middlewares, limiter.Middleware)
	}
	authMiddleware := auth.NewMiddleware(
		auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer},
		auth.PublicPaths("/healthz", "/metrics"),
	)
	middlewares = append(middlewares, authMiddleware.Wrap, httptransport.Metrics)

	server := httptransport.NewServer(
		httptransport.DefaultServerConfig(cfg.HTTPAddress),
		httptransport.Chain(mux, middlewares...),
	)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("api listening", zap.String("address", cfg.HTTPAddress), zap.Bool("postgres", cfg.UsesPostgres()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-shutdownCh
	logger.Info("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}

	if dispatcher != nil {
		dispatcher.Wait()
	}
}
