package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/chrissnell/remoteclimate/internal/dataset"
	"github.com/chrissnell/remoteclimate/internal/log"
	"github.com/chrissnell/remoteclimate/internal/managers"
	"github.com/chrissnell/remoteclimate/pkg/config"
	"go.uber.org/zap"
)

// App wires the collectors, storage engines and controllers together around
// a shared config provider.
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
}

// New builds an App around the given config provider and logger.
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// Run starts all managers and blocks until a shutdown signal arrives or the
// context is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	// Shared by the CO2 collector, which refreshes it, and the REST server,
	// which reads it.
	store := dataset.NewStore()

	storageManager, err := managers.NewStorageManager(ctx, &wg, a.configProvider)
	if err != nil {
		return fmt.Errorf("storage manager: %w", err)
	}

	collectors, err := managers.NewCollectorManager(ctx, &wg, a.configProvider, store, storageManager.ObservationDistributor, a.logger)
	if err != nil {
		return fmt.Errorf("collector manager: %w", err)
	}
	if err := collectors.StartCollectors(); err != nil {
		return fmt.Errorf("starting collectors: %w", err)
	}

	controllers, err := managers.NewControllerManager(ctx, &wg, a.configProvider, store, a.logger)
	if err != nil {
		return fmt.Errorf("controller manager: %w", err)
	}
	if err := controllers.StartControllers(); err != nil {
		return fmt.Errorf("starting controllers: %w", err)
	}

	log.Info("Startup complete")
	a.waitForShutdown(ctx, cancel, &wg)
	return nil
}

// waitForShutdown blocks until SIGINT, SIGTERM or context cancellation, then
// cancels the worker context and waits for everything to drain.
func (a *App) waitForShutdown(ctx context.Context, cancel context.CancelFunc, wg *sync.WaitGroup) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigs:
		log.Info("Received shutdown signal")
	case <-ctx.Done():
		log.Info("Context cancelled; shutting down")
	}

	cancel()
	log.Info("Waiting for workers to drain...")
	wg.Wait()
	log.Info("Shutdown complete")
}
