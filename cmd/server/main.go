package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/telemetryhub/relay/internal/api"
	"github.com/telemetryhub/relay/internal/config"
	"github.com/telemetryhub/relay/internal/db"
	"github.com/telemetryhub/relay/internal/metrics"
	"github.com/telemetryhub/relay/internal/queue"
	"github.com/telemetryhub/relay/internal/service"
	"github.com/telemetryhub/relay/internal/storage"
	"github.com/telemetryhub/relay/internal/transport"
	"github.com/telemetryhub/relay/internal/worker"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	_ = godotenv.Load() // .env is optional; real env vars win

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx := context.Background()

	// ---- durable store ----
	store, cleanup, err := buildStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialise storage backend", zap.Error(err))
	}
	defer cleanup()

	// ---- transport ----
	var tr transport.Transport = transport.NewHTTPTransport(cfg.UpstreamURL, cfg.UpstreamTimeout)
	if cfg.UpstreamRateLimit > 0 {
		tr = transport.NewRateLimited(tr, cfg.UpstreamRateLimit)
	}

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	hooks := m.QueueHooks()
	manager := queue.NewManager(store, tr, cfg.StorageKey, cfg.MaxRetries, logger, hooks)
	manager.Load(ctx)
	m.RegisterQueueDepth(reg, manager.Len)

	svc := service.NewIngestService(manager, logger)

	// ---- flusher ----
	// Context for all background goroutines; cancelled on shutdown signal.
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	flusher := worker.NewFlusher(manager, cfg.FlushInterval, logger)
	flusherDone := make(chan struct{})
	go func() {
		defer close(flusherDone)
		flusher.Run(workerCtx)
	}()

	// ---- HTTP server ----
	router := api.NewRouter(svc, flusher.Kick, reg, logger)
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

	// 2. Stop the flusher and wait for an in-flight drain to finish.
	cancelWorkers()
	<-flusherDone

	logger.Info("server stopped cleanly")
}

// buildStore selects and initialises the configured storage backend.
// The returned cleanup releases backend resources on shutdown.
func buildStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Store, func(), error) {
	switch cfg.StorageBackend {
	case config.BackendFile:
		fs, err := storage.NewFileStore(cfg.FileStoreDir, cfg.StorageQuota)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil

	case config.BackendRedis:
		rs, err := storage.NewRedisStore(ctx, cfg.RedisURL, cfg.StorageQuota)
		if err != nil {
			return nil, nil, err
		}
		return rs, func() { _ = rs.Close() }, nil

	case config.BackendPostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("database migrations applied")
		return storage.NewPgStore(pool), pool.Close, nil
	}

	// config.Load already validated the backend name.
	return nil, nil, errors.New("unreachable: unknown storage backend")
}
