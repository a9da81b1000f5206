package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pet-placement/internal/adapters/auth/odin"
	"pet-placement/internal/adapters/helpers/remote"
	notifyadapter "pet-placement/internal/adapters/notify"
	pg "pet-placement/internal/adapters/storage/postgres"
	"pet-placement/internal/app"
	"pet-placement/internal/domain/helpers"
	"pet-placement/internal/platform/config"
	"pet-placement/internal/platform/logger"
	"pet-placement/internal/platform/metrics"
	"pet-placement/internal/ports/auth"
	"pet-placement/internal/ports/notify"
	"pet-placement/internal/router"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

//go:generate swag init -g internal/router/router.go -d ../../ -o ../../docs

func main() {
	configPath := flag.String("config", "config.yaml", "ruta al YAML de configuración (opcional)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Options{
		Level:  cfg.Log.Level,
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.Log.App,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	stores, closeDB, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeDB()

	notifier, closeRedis := openNotifier(ctx, cfg, log)
	defer closeRedis()

	registry, err := openRegistry(cfg)
	if err != nil {
		return err
	}

	verifier, err := openVerifier(cfg, log)
	if err != nil {
		return err
	}

	svcs := app.NewServices(app.Options{
		Stores:          stores,
		HelperRegistry:  registry,
		Notifier:        notifier,
		Metrics:         m,
		Log:             log,
		PermanentExpiry: cfg.PermanentExpiry(),
	})

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: router.NewRouter(router.Options{
			AuthVerifier: verifier,
			Services:     svcs,
			Metrics:      m,
			Log:          log,
		}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStores: DB_DSN vacío => in-memory.
func openStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (app.Stores, func(), error) {
	if cfg.Database.DSN == "" {
		log.Warn("DB_DSN not set, using in-memory store")
		return app.MemoryStores(), func() {}, nil
	}

	if cfg.Database.AutoMigrate {
		if err := pg.Migrate(cfg.Database.DSN, log.Named("migrate")); err != nil {
			return app.Stores{}, nil, err
		}
	}

	db, err := pg.Open(ctx, cfg.Database.DSN, cfg.Database.MaxOpenConns)
	if err != nil {
		return app.Stores{}, nil, fmt.Errorf("open postgres: %w", err)
	}
	return app.PostgresStores(db), func() { closeDB(db, log) }, nil
}

func closeDB(db *sql.DB, log *zap.Logger) {
	if err := db.Close(); err != nil {
		log.Warn("close postgres", zap.Error(err))
	}
}

// openNotifier: REDIS_ADDR vacío o Redis caído => solo log. El workflow no depende de la entrega.
func openNotifier(ctx context.Context, cfg *config.Config, log *zap.Logger) (notify.Notifier, func()) {
	if cfg.Redis.Addr == "" {
		return notifyadapter.NewLogNotifier(log.Named("notify")), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unavailable, falling back to log notifier", zap.Error(err))
		_ = client.Close()
		return notifyadapter.NewLogNotifier(log.Named("notify")), func() {}
	}

	return notifyadapter.NewRedisNotifier(client, cfg.Redis.ChannelPrefix, log.Named("notify")), func() { _ = client.Close() }
}

func openRegistry(cfg *config.Config) (helpers.Registry, error) {
	if cfg.HelperRegistry.BaseURL == "" {
		return nil, nil
	}
	c, err := remote.NewClient(remote.Config{
		BaseURL: cfg.HelperRegistry.BaseURL,
		APIKey:  cfg.HelperRegistry.APIKey,
		Timeout: cfg.HelperRegistry.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("helper registry: %w", err)
	}
	return c, nil
}

// openVerifier: sin ODIN_BASE_URL => modo dev (X-Debug-User-ID).
func openVerifier(cfg *config.Config, log *zap.Logger) (auth.AuthVerifier, error) {
	if cfg.Auth.OdinBaseURL == "" {
		log.Warn("ODIN_BASE_URL not set, dev auth via X-Debug-User-ID")
		return nil, nil
	}
	client, err := odin.NewClient(odin.Config{
		BaseURL: cfg.Auth.OdinBaseURL,
		APIKey:  cfg.Auth.OdinAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("odin: %w", err)
	}
	return odin.NewVerifier(client), nil
}
