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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/notifyhub/wishlist-watcher/internal/api"
	"github.com/notifyhub/wishlist-watcher/internal/config"
	"github.com/notifyhub/wishlist-watcher/internal/coordination"
	"github.com/notifyhub/wishlist-watcher/internal/db"
	"github.com/notifyhub/wishlist-watcher/internal/fetcher"
	"github.com/notifyhub/wishlist-watcher/internal/metrics"
	"github.com/notifyhub/wishlist-watcher/internal/notifier"
	"github.com/notifyhub/wishlist-watcher/internal/policy"
	"github.com/notifyhub/wishlist-watcher/internal/ratelimiter"
	"github.com/notifyhub/wishlist-watcher/internal/repository"
	"github.com/notifyhub/wishlist-watcher/internal/service"
	"github.com/notifyhub/wishlist-watcher/internal/worker"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	logger = logger.With(zap.String("instance_id", cfg.InstanceID))

	// ---- database ----
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations applied")

	// ---- repositories ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	streamers := repository.NewPgStreamerRepository(pool)
	items := repository.NewPgItemRepository(pool)
	recipients := repository.NewPgRecipientRepository(pool)

	lockRepo, closeLock := newLockRepository(ctx, cfg, pool, logger)
	defer closeLock()

	// ---- check pipeline ----
	fetch := fetcher.NewHTTPFetcher(cfg.CatalogBaseURL, cfg.CatalogTimeout, ratelimiter.PerMinute(cfg.CatalogRequestsPerMinute))
	sink := notifier.NewThrottled(newSink(cfg, logger), ratelimiter.New(cfg.DeliveryRateLimit))
	fanout := service.NewFanout(recipients, sink, cfg.StreamerURLTemplate, logger, m.OnDelivered)
	checks := service.NewCheckService(fetch, items, fanout, policy.DefaultThresholds(), cfg.RateLimitBackoff, logger, m.OnFetchRetry)

	sched := worker.NewScheduler(streamers, checks, worker.Config{
		Tick: cfg.TickInterval,
		Intervals: worker.Intervals{
			VIP:    cfg.VIPPollInterval,
			High:   cfg.HighPollInterval,
			Normal: cfg.NormalPollInterval,
		},
		Pacing: worker.Pacing{
			VIP:       cfg.VIPPause,
			High:      cfg.HighPause,
			NormalMin: cfg.NormalPauseMin,
			NormalMax: cfg.NormalPauseMax,
		},
		Window: worker.ActiveWindow{StartHour: cfg.ActiveStartHour, EndHour: cfg.ActiveEndHour},
	}, m.SchedulerHooks(), logger)

	leader := coordination.NewLeader(lockRepo, coordination.Config{
		InstanceID:        cfg.InstanceID,
		HeartbeatInterval: cfg.LockHeartbeatInterval,
		RetryInterval:     cfg.LockRetryInterval,
	}, logger, m.OnLockHeld)

	// Context for all background goroutines; cancelled on shutdown signal.
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	leaderDone := make(chan struct{})
	go func() {
		defer close(leaderDone)
		leader.Run(workerCtx, sched.Run)
	}()

	// ---- HTTP server ----
	router := api.NewRouter(api.Deps{
		DB:         pool,
		Scheduler:  sched,
		Leader:     leader,
		Lock:       lockRepo,
		InstanceID: cfg.InstanceID,
		Recipients: recipients,
		Streamers:  streamers,
		Gatherer:   reg,
	}, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Stop ticking; the current check finishes, then the lock is released.
	cancelWorkers()
	select {
	case <-leaderDone:
	case <-shutdownCtx.Done():
		logger.Warn("in-flight check did not finish before the shutdown timeout")
	}

	logger.Info("server stopped cleanly")
}

// newLockRepository picks the lock backend. The returned func closes any
// client it opened.
func newLockRepository(
	ctx context.Context,
	cfg *config.Config,
	pool *pgxpool.Pool,
	logger *zap.Logger,
) (repository.LockRepository, func()) {
	if cfg.LockBackend != config.LockBackendRedis {
		return repository.NewPgLockRepository(pool, cfg.LockStaleAfter), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Fatal("failed to connect to redis", zap.String("addr", cfg.RedisAddress), zap.Error(err))
	}
	logger.Info("using redis scheduler lock", zap.String("addr", cfg.RedisAddress))

	repo := repository.NewRedisLockRepository(client, repository.DefaultRedisLockKey, cfg.LockStaleAfter, time.Now)
	return repo, func() { _ = client.Close() }
}

func newSink(cfg *config.Config, logger *zap.Logger) notifier.Sink {
	if cfg.Sink == config.SinkTelegram {
		sink, err := notifier.NewTelegramSink(cfg.TelegramBotToken)
		if err != nil {
			logger.Fatal("failed to initialise telegram sink", zap.Error(err))
		}
		return sink
	}
	return notifier.NewWebhookSink(cfg.WebhookURL, cfg.WebhookTimeout)
}
