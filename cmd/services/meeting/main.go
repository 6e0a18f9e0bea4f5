package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc/health"

	config "github.com/xilidan/meetings/config/meeting"
	"github.com/xilidan/meetings/pkg/gen"
	"github.com/xilidan/meetings/pkg/lock"
	"github.com/xilidan/meetings/pkg/logger"
	"github.com/xilidan/meetings/pkg/observability"
	"github.com/xilidan/meetings/services/meeting/clients/gemini"
	"github.com/xilidan/meetings/services/meeting/directory"
	"github.com/xilidan/meetings/services/meeting/handler"
	"github.com/xilidan/meetings/services/meeting/server"
	"github.com/xilidan/meetings/services/meeting/storage"
	"github.com/xilidan/meetings/services/meeting/storage/badger"
	"github.com/xilidan/meetings/services/meeting/storage/postgres"
	"github.com/xilidan/meetings/services/meeting/usecase"
	ssousecase "github.com/xilidan/meetings/services/sso/usecase"
)

func main() {
	cfg := config.MustLoad()

	log := logger.New(logger.Config{
		Level:      logger.ParseLevel(cfg.LogLevel),
		Output:     os.Stderr,
		AddSource:  true,
		JSONFormat: cfg.LogJSON,
	})

	ctx := logger.WithContext(context.Background(), log)

	rootCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(rootCtx, cfg, log); err != nil {
		log.Error("failed to run()", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	locker, closeLocker, err := newLocker(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeLocker()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	if cfg.Summarizer.APIKey == "" {
		log.Warn("SUMMARIZER_API_KEY is not set, finished meetings will not be summarized")
	}

	usc := usecase.New(cfg, store, directory.New(store), gemini.New(cfg.Summarizer),
		usecase.WithMetrics(metrics),
		usecase.WithLocker(locker),
	)
	sso := ssousecase.New(cfg, store)

	hs := health.NewServer()
	h := handler.New(handler.Options{
		Usecase:        usc,
		SSO:            sso,
		Metrics:        metrics,
		Gatherer:       reg,
		Health:         hs,
		AllowedOrigins: cfg.AllowedOrigins,
		Log:            log,
	})

	return server.New(cfg, h, hs, log).Start(ctx)
}

func openStorage(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.Storage, error) {
	switch cfg.StorageDriver {
	case config.DriverBadger:
		log.Info("opening badger storage", slog.String("path", cfg.Badger.Path))
		store, err := badger.Open(cfg.Badger.Path, gen.UUID(), log)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger storage: %w", err)
		}
		return store, nil
	default:
		log.Info("connecting to postgres",
			slog.String("host", cfg.Database.Host),
			slog.Int("port", cfg.Database.Port),
			slog.String("database", cfg.Database.Name))
		store, err := postgres.Open(ctx, cfg.Database.DSN(), gen.UUID(), log)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres storage: %w", err)
		}
		return store, nil
	}
}

// newLocker returns a Redis-backed locker when REDIS_ADDR is set so several
// replicas serialize reconciles for the same participant.
func newLocker(ctx context.Context, cfg *config.Config, log *slog.Logger) (lock.Locker, func(), error) {
	if cfg.Redis.Addr == "" {
		log.Info("using in-process reconcile locks")
		return lock.NewLocal(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info("using redis reconcile locks", slog.String("addr", cfg.Redis.Addr))

	return lock.NewRedis(client, "meetings:lock:", cfg.Redis.LockTTL), func() {
		if err := client.Close(); err != nil {
			log.Error("failed to close redis client", slog.String("error", err.Error()))
		}
	}, nil
}
