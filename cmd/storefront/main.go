package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aldeandersantos/AkkaUi/internal/config"
	"github.com/aldeandersantos/AkkaUi/internal/events"
	h "github.com/aldeandersantos/AkkaUi/internal/http"
	"github.com/aldeandersantos/AkkaUi/internal/logging"
	"github.com/aldeandersantos/AkkaUi/internal/session"
	"github.com/aldeandersantos/AkkaUi/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Development())
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	factory, closeStorage, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open storage", zap.String("backend", cfg.StorageBackend), zap.Error(err))
	}
	defer closeStorage()

	opts := []session.Option{
		session.WithLogger(logger),
		session.WithSettings(session.Settings{
			CartKey:        cfg.CartStorageKey,
			LegacyCartKey:  cfg.LegacyCartKey,
			ToastTimeout:   cfg.ToastTimeout,
			ToastExitGrace: cfg.ToastExitGrace,
		}),
	}

	if len(cfg.KafkaBrokers) > 0 {
		publisher := events.NewKafkaPublisher(cfg.KafkaTopic, cfg.KafkaBrokers, events.WithLogger(logger))
		defer publisher.Close()
		go publisher.Run(ctx)
		opts = append(opts, session.WithPublisher(publisher))
		logger.Info("publishing cart events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}

	registry := session.NewRegistry(factory, opts...)
	defer registry.Close()

	srv := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: h.NewRouter(registry, logger, h.RouterConfig{
			RequestTimeout: cfg.RequestTimeout,
			SessionCookie:  cfg.SessionCookie,
			SecureCookie:   !cfg.Development(),
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("storefront starting", zap.String("port", cfg.HTTPPort), zap.String("storage", cfg.StorageBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

// openStorage connects the configured backend. Remote backends sit behind a
// circuit breaker and are shared by all sessions through key prefixes.
func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (session.StorageFactory, func(), error) {
	switch cfg.StorageBackend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		backend := storage.NewRedis(client)
		if err := backend.Ping(ctx); err != nil {
			client.Close()
			return nil, nil, err
		}
		logger.Info("redis ping succeeded", zap.String("addr", cfg.RedisAddr))

		breaker := storage.NewBreaker(backend, storage.BreakerSettings{Name: "redis-storage"})
		return session.Shared(breaker), func() { client.Close() }, nil

	case config.BackendMongo:
		db, err := storage.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("connected to mongodb", zap.String("database", cfg.MongoDBName))

		breaker := storage.NewBreaker(storage.NewMongo(db), storage.BreakerSettings{Name: "mongo-storage"})
		return session.Shared(breaker), func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := db.Client().Disconnect(disconnectCtx); err != nil {
				logger.Warn("mongodb disconnect failed", zap.Error(err))
			}
		}, nil

	default:
		return session.PerSession(cfg.StorageQuotaBytes), func() {}, nil
	}
}
