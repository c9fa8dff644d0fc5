package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"banking-backoffice-api/internal/config"
	"banking-backoffice-api/internal/handler"
	"banking-backoffice-api/internal/iban"
	"banking-backoffice-api/internal/logger"
	"banking-backoffice-api/internal/notification"
	"banking-backoffice-api/internal/repository"
	"banking-backoffice-api/internal/seed"
	"banking-backoffice-api/internal/service"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(cfg.Logger, os.Stdout)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize record stores
	var (
		accountStore  repository.AccountStore
		operatorStore repository.OperatorStore
		storeChecker  handler.StoreChecker
	)

	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		db, err := initDatabase(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		accountStore = repository.NewAccountRepository(db)
		operatorStore = repository.NewOperatorRepository(db)
		storeChecker = handler.NewDBChecker(db)
	default:
		log.Warn("using in-memory record store, data is lost on restart")
		accountStore = repository.NewMemoryAccountStore()
		operatorStore = repository.NewMemoryOperatorStore()
		storeChecker = handler.MemoryChecker{}
	}

	healthHandler := handler.NewHealthHandler(storeChecker, version)

	// Initialize notifications
	var sink notification.Sink
	switch cfg.Notifier.Sink {
	case config.NotifierSinkRedis:
		client, err := initRedis(ctx, cfg.Redis, log)
		if err != nil {
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		defer client.Close()

		sink = notification.NewRedisStreamSink(client, cfg.Notifier.Stream, cfg.Notifier.StreamMaxLen)
		healthHandler.AddDependency("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	default:
		sink = notification.NewLogSink(log.With("component", "notifier"))
	}
	dispatcher := notification.NewDispatcher(sink, cfg.Notifier.QueueSize, log)

	// Initialize services
	accountService := service.NewAccountService(accountStore, iban.NewGenerator(nil), dispatcher, log)
	operatorService := service.NewOperatorService(operatorStore, dispatcher, log)

	if cfg.Seed.Enabled {
		if err := seed.NewLoader(accountService, operatorService, log).Load(ctx); err != nil {
			return fmt.Errorf("failed to load seed data: %w", err)
		}
	}

	// Initialize HTTP server
	router := handler.NewRouter(
		healthHandler,
		handler.NewAccountHandler(accountService, log),
		handler.NewOperatorHandler(operatorService, log),
		log,
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	// The dispatcher outlives the signal so queued events drain after shutdown
	g.Go(func() error {
		return dispatcher.Run(context.WithoutCancel(gctx))
	})

	g.Go(func() error {
		log.Info("starting server", "port", cfg.Server.Port, "store", cfg.Store.Driver, "notifier", cfg.Notifier.Sink)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		dispatcher.Close()
		if err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("server exited")
	return nil
}

func initDatabase(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)

	// Test connection
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := repository.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	log.Info("database connection established", "host", cfg.Host, "database", cfg.Database)
	return db, nil
}

func initRedis(ctx context.Context, cfg config.RedisConfig, log *slog.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Ping the client to ensure connection is established
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("error pinging redis: %w", err)
	}

	log.Info("redis client created", "addr", cfg.Addr)
	return client, nil
}
