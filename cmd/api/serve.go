package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/cashflow/card-gateway/internal/adapter/primary/http"
	"github.com/cashflow/card-gateway/internal/adapter/secondary/database"
	"github.com/cashflow/card-gateway/internal/adapter/secondary/eventbus"
	"github.com/cashflow/card-gateway/internal/adapter/secondary/messaging"
	"github.com/cashflow/card-gateway/internal/config"
	"github.com/cashflow/card-gateway/internal/constant/model/db"
	"github.com/cashflow/card-gateway/internal/core"
	"github.com/cashflow/card-gateway/internal/core/acquirer"
	"github.com/cashflow/card-gateway/internal/core/service"
	"github.com/cashflow/card-gateway/internal/logger"
	"github.com/cashflow/card-gateway/internal/port/output"
	"go.uber.org/zap"
)

func runServe(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.App.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()
	log.Info("Data folder initialized", zap.String("data_dir", cfg.App.DataDir))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Initialize secondary adapter: payment store
	paymentRepo, closeStore, err := openPaymentStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	// Notification channel and the synchronizer listening on it
	bus := eventbus.NewBus[core.PaymentResult](core.PaymentStatusUpdate, log)
	synchronizer := service.NewStatusSynchronizer(paymentRepo, log)
	bus.Subscribe(synchronizer.Handle)

	// Simulated acquiring bank
	settler := acquirer.NewSettler(acquirer.RandomIndex, bus, log)
	scheduler, stopScheduler, err := openScheduler(ctx, cfg, settler, log)
	if err != nil {
		return err
	}
	defer stopScheduler()

	resolver := acquirer.NewResolver(acquirer.RandomIndex, scheduler, cfg.Bank.ResolutionDelay)

	// Initialize core service (implements input port)
	paymentService := service.NewPaymentService(paymentRepo, acquirer.DefaultClassifier(), resolver, log)

	// Initialize primary adapter: HTTP
	exposeDetail := !cfg.App.IsProduction()
	paymentHandler := httpadapter.NewPaymentHandler(paymentService, log, exposeDetail)
	e := httpadapter.NewServer(paymentHandler, log, exposeDetail)

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server is listening", zap.String("addr", cfg.Server.Address()))
		if err := e.Start(cfg.Server.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("Stopping payment gateway", zap.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("Server failed", zap.Error(err))
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shutdown HTTP server", zap.Error(err))
	}
	return nil
}

func runMigrate(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	switch cfg.Database.Driver {
	case config.StorageDriverRedis, config.StorageDriverMemory:
		log.Info("Nothing to migrate", zap.String("driver", cfg.Database.Driver))
		return nil
	}

	// NewDB migrates on connect
	dbConn, err := db.NewDB(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Info("Database successfully synchronized", zap.String("driver", cfg.Database.Driver))
	return dbConn.Close()
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      cfg.Log.Output,
		FilePath:    cfg.Log.File,
		Development: !cfg.App.IsProduction() && cfg.Log.Format == "console",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return log, nil
}

func openPaymentStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (output.PaymentRepository, func(), error) {
	switch cfg.Database.Driver {
	case config.StorageDriverMemory:
		log.Warn("Using in-memory payment store; payments are lost on restart")
		return database.NewMemoryPaymentRepository(), func() {}, nil

	case config.StorageDriverRedis:
		client, err := database.NewRedisClient(ctx, cfg.Redis.Addr)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Connection to redis has been established", zap.String("addr", cfg.Redis.Addr))
		return database.NewRedisPaymentRepository(client), func() {
			if err := client.Close(); err != nil {
				log.Error("Failed to close redis connection", zap.Error(err))
			}
		}, nil

	default:
		dbConn, err := db.NewDB(cfg.Database.Driver, cfg.Database.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Info("Connection to the database has been established", zap.String("driver", cfg.Database.Driver))
		return database.NewGormPaymentRepository(dbConn.DB), func() {
			if err := dbConn.Close(); err != nil {
				log.Error("Failed to close database connection", zap.Error(err))
				return
			}
			log.Info("Database connection closed")
		}, nil
	}
}

func openScheduler(ctx context.Context, cfg *config.Config, settler *acquirer.Settler, log *zap.Logger) (output.ResolutionScheduler, func(), error) {
	if cfg.Scheduler.Driver == config.SchedulerDriverAMQP {
		scheduler, err := messaging.NewRabbitMQScheduler(cfg.RabbitMQ.URL, settler, log)
		if err != nil {
			return nil, nil, err
		}
		if err := scheduler.Start(ctx); err != nil {
			scheduler.Close()
			return nil, nil, err
		}
		return scheduler, func() {
			if err := scheduler.Close(); err != nil {
				log.Error("Failed to close RabbitMQ connection", zap.Error(err))
			}
		}, nil
	}

	scheduler := acquirer.NewTimerScheduler(settler)
	return scheduler, func() {
		if dropped := scheduler.Stop(); dropped > 0 {
			log.Warn("Pending payments will not be resolved", zap.Int("dropped_resolutions", dropped))
		}
	}, nil
}
