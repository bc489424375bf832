// The wpaneld command runs the panel rotation daemon
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/wrale/wrale-panels/internal/wpaneld/config"
	"github.com/wrale/wrale-panels/internal/wpaneld/database"
	panelhttp "github.com/wrale/wrale-panels/internal/wpaneld/panel/http"
	"github.com/wrale/wrale-panels/internal/wpaneld/ratelimit"
	ratelimitredis "github.com/wrale/wrale-panels/internal/wpaneld/ratelimit/redis"
	"github.com/wrale/wrale-panels/internal/wpaneld/source"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "path to config file")
	envFile := flag.String("env-file", ".env", "optional dotenv file loaded before the environment is read")
	flag.Parse()

	// A missing .env is normal outside development
	_ = godotenv.Load(*envFile)

	instanceID := uuid.NewString()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("instance", instanceID)
	slog.SetDefault(logger)
	zlog := zerolog.New(os.Stdout).With().Timestamp().Str("instance", instanceID).Logger()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, zlog); err != nil {
		logger.Error("daemon stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("daemon stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, zlog zerolog.Logger) error {
	client, err := source.NewClient(
		cfg.Backend.BaseURL,
		source.WithTimeout(cfg.Backend.Timeout),
		source.WithClientLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("backend client: %w", err)
	}
	builderOpts := []source.BuilderOption{}

	if cfg.Database.Enabled() {
		db, err := database.SetupDatabase(ctx,
			database.ConnString(
				cfg.Database.Host,
				cfg.Database.Port,
				cfg.Database.User,
				cfg.Database.Password,
				cfg.Database.Name,
				cfg.Database.SSLMode,
			),
			database.PoolOptions{
				MaxOpenConns:    cfg.Database.MaxOpenConns,
				MaxIdleConns:    cfg.Database.MaxIdleConns,
				ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			},
			5, time.Second, logger,
		)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		builderOpts = append(builderOpts, source.WithRepository(
			source.NewRepository(db, source.WithRepositoryLogger(logger)),
		))
	}

	var rdb *goredis.Client
	if cfg.Redis.Enabled() {
		rdb = goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			// Snapshots and rate limits degrade gracefully while Redis is down
			logger.Warn("redis not reachable at startup", "addr", cfg.Redis.Addr, "error", err)
		}
		builderOpts = append(builderOpts, source.WithSnapshotCache(
			source.NewSnapshotCache(rdb, cfg.Redis.SnapshotTTL, logger),
		))
	}

	hub := panelhttp.NewHub(logger)

	registry, err := buildRegistry(cfg, source.NewBuilder(client, builderOpts...), hub, logger)
	if err != nil {
		return err
	}
	defer registry.Close()

	var limiter ratelimit.Service
	if !cfg.RateLimit.Disabled {
		var store ratelimit.Store = ratelimit.NewMemoryStore()
		if rdb != nil {
			store = ratelimitredis.NewStore(rdb)
		}
		limiter = ratelimit.NewService(store, logger)
		limiter.RegisterDefaultLimits()
		if err := limiter.RegisterConfiguredLimits(cfg.RateLimit); err != nil {
			return fmt.Errorf("rate limits: %w", err)
		}
	}

	handler := panelhttp.NewHandler(ctx, registry, hub, limiter, logger, zlog)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		return registry.Start(gctx)
	})

	g.Go(func() error {
		logger.Info("starting server",
			"host", cfg.Server.Host,
			"port", cfg.Server.Port,
			"panels", registry.Len(),
		)

		var err error
		if cfg.Server.TLSCert != "" && cfg.Server.TLSKey != "" {
			err = server.ListenAndServeTLS(cfg.Server.TLSCert, cfg.Server.TLSKey)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
		registry.Close()
		return nil
	})

	return g.Wait()
}
