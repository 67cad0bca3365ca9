package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/cache"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/config"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/healthcheck"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/ingestion"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/ingestion/handler"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/jetstream"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/observer"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/storage"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/usecase"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/logger"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/utils"
)

const serviceVersion = "1.0.0"

func main() {
	time.Local = time.UTC

	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	observer.InitMetrics(cfg.Metrics.Enabled)

	logger.Log.Info("Starting voice webhook service",
		zap.String("environment", cfg.Environment),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("signature_required", cfg.Webhook.Secret != "" || cfg.IsProduction()),
	)
	if cfg.Webhook.Secret == "" {
		if cfg.IsProduction() {
			logger.Log.Error("Webhook secret is not configured; every delivery will be rejected")
		} else {
			logger.Log.Warn("Webhook secret is not configured; accepting unsigned deliveries")
		}
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), time.Minute)
	defer startCancel()

	postgresRepo, err := initPostgresRepo(cfg.Database.PostgresDSN, cfg.Database.PostgresAutoMigrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize Postgres repository", zap.Error(err))
	}

	callRepo := storage.NewCallRepoAdapter(postgresRepo)
	customerRepo := storage.NewCustomerRepoAdapter(postgresRepo)
	jobRepo := storage.NewJobRepoAdapter(postgresRepo)
	organizationRepo := storage.NewOrganizationRepoAdapter(postgresRepo)
	attributionRepo := storage.NewAttributionRepoAdapter(postgresRepo)
	exhaustedEventRepo := storage.NewExhaustedEventRepoAdapter(postgresRepo)

	jsClient, publisher, err := initEventPublisher(startCtx, cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize domain event publisher", zap.Error(err))
	}

	redisClient, toolResults, err := initToolResultCache(startCtx, cfg.Redis.URL, cfg.Tools.ResultTTL)
	if err != nil {
		logger.Log.Fatal("Failed to initialize tool result cache", zap.Error(err))
	}

	eventWorker, err := usecase.NewEventWorker(cfg.WorkerPools.Events, cfg.Events.MaxElapsed, publisher, exhaustedEventRepo, logger.Log)
	if err != nil {
		logger.Log.Fatal("Failed to initialize event worker pool", zap.Error(err))
	}

	registry := usecase.NewToolRegistry(
		usecase.NewBookingTool(customerRepo, jobRepo, callRepo, cfg.Phone.DefaultRegion),
		usecase.AvailabilityTool{},
		usecase.NewTransferTool(callRepo),
	)
	throttler, err := usecase.NewToolThrottler(usecase.ToolThrottlerConfig{
		PoolSize:    cfg.Tools.PoolSize,
		Concurrency: cfg.Tools.Concurrency,
		Timeout:     cfg.Tools.Timeout,
	}, registry, toolResults, logger.Log)
	if err != nil {
		logger.Log.Fatal("Failed to initialize tool executor", zap.Error(err))
	}

	callService := usecase.NewCallService(callRepo, attributionRepo, eventWorker)
	toolService := usecase.NewToolService(callRepo, throttler)
	assistantService := usecase.NewAssistantService(organizationRepo, registry, cfg.Assistant, cfg.Phone.DefaultRegion)

	router := ingestion.NewRouter()
	ingestion.RegisterVoiceHandlers(router,
		handler.NewVoiceHandler(callService),
		handler.NewToolsHandler(toolService),
		handler.NewAssistantHandler(assistantService),
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	webhookServer := ingestion.NewServer(ingestion.ServerConfig{
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Signature: ingestion.SignatureConfig{
			Secret:     cfg.Webhook.Secret,
			Header:     cfg.Webhook.SignatureHeader,
			Production: cfg.IsProduction(),
		},
	}, router, logger.Log)

	healthServer := healthcheck.NewServer(cfg.Health.Port, serviceVersion, logger.Log)
	healthServer.AddCheck("postgres", postgresRepo.Ping)
	if jsClient != nil {
		healthServer.AddCheck("nats", func(context.Context) error {
			if !jsClient.IsConnected() {
				return fmt.Errorf("nats disconnected")
			}
			return nil
		})
	}
	if redisClient != nil {
		healthServer.AddCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	if observer.Enabled() {
		healthServer.RegisterMetricsHandler(promhttp.Handler())
		logger.Log.Info("Metrics endpoint enabled", zap.String("path", "/metrics"), zap.Int("port", cfg.Health.Port))
	}

	healthServer.Start()
	webhookServer.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Log.Info("Received termination signal", zap.String("signal", sig.String()))

	shutdownTimeout := cfg.Server.ShutdownTimeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	logger.Log.Info("Starting graceful shutdown", zap.Duration("timeout", shutdownTimeout))

	// Stop accepting deliveries first so in-flight requests finish against live dependencies.
	if err := webhookServer.Stop(shutdownCtx); err != nil {
		logger.Log.Error("[shutdown] Error stopping webhook server", zap.Error(err))
	}

	var wg sync.WaitGroup
	stopComponent(&wg, "tool executor", throttler.Release)
	stopComponent(&wg, "event worker", func() {
		eventWorker.Stop(shutdownTimeout / 2)
	})
	stopComponent(&wg, "health check server", func() {
		if err := healthServer.Stop(shutdownCtx); err != nil {
			logger.Log.Error("[shutdown] Error stopping health check server", zap.Error(err))
		}
	})
	wg.Wait()

	// The event worker has drained, so its dependencies can go.
	if jsClient != nil {
		jsClient.Close()
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Log.Warn("[shutdown] Failed to close Redis client", zap.Error(err))
		}
	}
	if err := postgresRepo.Close(shutdownCtx); err != nil {
		logger.Log.Error("[shutdown] Failed to close PostgreSQL connection", zap.Error(err))
	}

	logger.Log.Info("Voice webhook service shutdown complete")
}

// stopComponent runs stop in its own goroutine. The deferred Done also runs when stop panics.
func stopComponent(wg *sync.WaitGroup, name string, stop func()) {
	wg.Add(1)
	utils.SafeGo(func() {
		defer wg.Done()
		logger.Log.Info("[shutdown] Stopping " + name)
		start := time.Now()
		stop()
		logger.Log.Info("[shutdown] Stopped "+name, zap.Duration("duration", time.Since(start)))
	}, func(r interface{}, stack []byte) {
		logger.Log.Error("[shutdown] Panic while stopping "+name,
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
	})
}

func initPostgresRepo(dsn string, autoMigrate bool) (*storage.PostgresRepo, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	repo, err := storage.NewPostgresRepo(dsn, autoMigrate)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres repository: %w", err)
	}

	logger.Log.Info("Initialized PostgreSQL repository")
	return repo, nil
}

// initEventPublisher connects to JetStream and ensures the domain event stream.
// Without a NATS URL events are dropped, which keeps local runs dependency-free.
func initEventPublisher(ctx context.Context, cfg *config.Config) (*jetstream.Client, usecase.DomainEventPublisher, error) {
	if cfg.NATS.URL == "" {
		logger.Log.Warn("NATS URL not configured; domain events will be discarded")
		return nil, usecase.DiscardPublisher{}, nil
	}

	client, err := jetstream.NewClient(cfg.NATS.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create JetStream client: %w", err)
	}

	maxAge := time.Duration(cfg.NATS.MaxAgeDays) * 24 * time.Hour
	if err := client.SetupStream(ctx, jetstream.DomainStreamConfig(cfg.NATS.Stream, cfg.NATS.SubjectPrefix, maxAge)); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to set up domain event stream: %w", err)
	}

	logger.Log.Info("Initialized JetStream publisher",
		zap.String("stream", cfg.NATS.Stream),
		zap.String("subject_prefix", cfg.NATS.SubjectPrefix),
	)
	return client, jetstream.NewDomainEventPublisher(client, cfg.NATS.SubjectPrefix), nil
}

// initToolResultCache returns a Redis-backed cache, or a no-op one when Redis is not configured.
func initToolResultCache(ctx context.Context, url string, ttl time.Duration) (*redis.Client, cache.ToolResultStore, error) {
	if url == "" {
		logger.Log.Info("Redis URL not configured; tool results will not be cached")
		return nil, cache.NoopToolResultCache{}, nil
	}

	client, err := cache.NewRedisClient(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	logger.Log.Info("Initialized Redis tool result cache", zap.Duration("ttl", ttl))
	return client, cache.NewRedisToolResultCache(client, ttl), nil
}
