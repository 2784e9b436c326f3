package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"storefront-analytics-tracker/internal/catalog"
	"storefront-analytics-tracker/internal/session"
	"storefront-analytics-tracker/internal/sink"
	"storefront-analytics-tracker/internal/store"
	"storefront-analytics-tracker/internal/tracker"
	"storefront-analytics-tracker/shared/cachex"
	"storefront-analytics-tracker/shared/config"
	"storefront-analytics-tracker/shared/dbx"
	"storefront-analytics-tracker/shared/lockx"
	"storefront-analytics-tracker/shared/logx"
	"storefront-analytics-tracker/shared/metricsx"
	"storefront-analytics-tracker/shared/observability"
)

const (
	taskRelayScan = "relay.scan"

	relayLockKey = "tracker:relay:lock"
)

func main() {
	cfg, problems := config.Load("relay-worker", 8083)
	version := strings.TrimSpace(os.Getenv("VERSION"))
	logger := logx.New(cfg.ServiceName, cfg.Env, version, cfg.LogLevel)

	if cfg.DatabaseURL == "" {
		problems = append(problems, config.Problem{Field: "DATABASE_URL", Message: "DATABASE_URL is required"})
	}
	if cfg.AsynqRedisAddr == "" {
		problems = append(problems, config.Problem{Field: "ASYNQ_REDIS_ADDR", Message: "ASYNQ_REDIS_ADDR is required"})
	}
	if !cfg.SinkConfigured() {
		problems = append(problems, config.Problem{Field: "SUPABASE_URL", Message: "sink must be configured for the relay worker"})
	}
	if len(problems) > 0 {
		logger.Error(context.Background(), "config_invalid", "invalid config",
			slog.String("error_code", "FAILED_PRECONDITION"),
			slog.Any("problems", problems),
		)
		os.Exit(1)
	}

	if cfg.OtelEnabled {
		if shutdown, err := observability.InitTracer(context.Background(), observability.TracerConfig{
			ServiceName: cfg.ServiceName,
			Env:         cfg.Env,
			Endpoint:    cfg.OtelEndpoint,
			Insecure:    cfg.OtelInsecure,
			SampleRatio: cfg.OtelSampleRatio,
		}); err == nil {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	metricsx.Register()

	dbPool, err := dbx.NewPool(cfg)
	if err != nil {
		logger.Error(context.Background(), "db_init_failed", "db init failed",
			slog.String("error_code", "FAILED_PRECONDITION"),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	defer dbPool.Close()

	var cache *cachex.Client
	if cfg.RedisAddr != "" {
		cache, err = cachex.New(cfg)
		if err != nil {
			logger.Error(context.Background(), "redis_init_failed", "redis init failed",
				slog.String("error_code", "FAILED_PRECONDITION"),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
		defer cache.Close()
	}

	catalogSource := catalog.NewPostgresSource(dbPool)
	pipeline := tracker.New(cfg, tracker.Deps{
		Store:    store.NewPostgresStore(dbPool),
		Sink:     sink.NewClient(cfg),
		Sessions: session.NewMemoryResolver(time.Duration(cfg.SessionTTLSec) * time.Second),
		Products: catalogSource,
		Orders:   catalogSource,
		Logger:   logger,
	})

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.AsynqRedisAddr,
		Password: cfg.AsynqRedisPass,
		DB:       cfg.AsynqRedisDB,
	}
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.AsynqConcurrency,
		Queues: map[string]int{
			cfg.AsynqQueue: 1,
		},
	})
	defer server.Shutdown()

	lockTTL := 2 * time.Duration(cfg.RelayScanSec) * time.Second

	mux := asynq.NewServeMux()
	mux.HandleFunc(taskRelayScan, func(ctx context.Context, t *asynq.Task) error {
		ctx, span := otel.Tracer("asynq").Start(ctx, "relay.scan")
		span.SetAttributes(attribute.String("queue", cfg.AsynqQueue))
		defer span.End()

		if cache != nil {
			lease, ok, err := lockx.Acquire(ctx, cache.Client(), relayLockKey, lockTTL)
			if err != nil {
				return err
			}
			if !ok {
				logger.Debug(ctx, "relay_skipped", "another relay pass holds the lock")
				return nil
			}
			defer func() { _ = lockx.Release(ctx, cache.Client(), lease) }()
		}

		delivered, remaining, err := pipeline.SyncPending(ctx, cfg.RelayBatchSize)
		if err != nil {
			return err
		}
		if delivered > 0 || remaining > 0 {
			logger.Info(ctx, "relay_pass", "relay pass finished",
				slog.Int("delivered", delivered),
				slog.Int("remaining", remaining),
			)
		}
		return nil
	})

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: time.UTC,
	})
	defer scheduler.Shutdown()
	if _, err := scheduler.Register("@every "+strconv.Itoa(cfg.RelayScanSec)+"s", asynq.NewTask(taskRelayScan, nil, asynq.Queue(cfg.AsynqQueue))); err != nil {
		logger.Error(context.Background(), "scheduler_init_failed", "scheduler init failed",
			slog.String("error_code", "FAILED_PRECONDITION"),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	if err := scheduler.Start(); err != nil {
		logger.Error(context.Background(), "scheduler_start_failed", "scheduler start failed",
			slog.String("error_code", "INTERNAL_ERROR"),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "worker_start", "relay worker started",
			slog.String("queue", cfg.AsynqQueue),
			slog.Int("concurrency", cfg.AsynqConcurrency),
			slog.Int("scan_interval_s", cfg.RelayScanSec),
		)
		errCh <- server.Run(mux)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info(context.Background(), "shutdown_signal", "received signal", slog.String("signal", sig.String()))
	case err := <-errCh:
		if !errors.Is(err, asynq.ErrServerClosed) {
			logger.Error(context.Background(), "worker_failed", "worker failed",
				slog.String("error_code", "INTERNAL_ERROR"),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	logger.Info(context.Background(), "worker_stop", "relay worker stopped")
}
