// Package storage defines the interface observation storage backends
// implement plus shared worker helpers.
package storage

import (
	"context"
	"sync"
	"time"

	"github.com/chrissnell/remoteclimate/internal/log"
	"github.com/chrissnell/remoteclimate/internal/types"
	"github.com/chrissnell/remoteclimate/pkg/config"
)

// StorageEngineInterface is implemented by every observation storage backend.
type StorageEngineInterface interface {
	StartStorageEngine(context.Context, *sync.WaitGroup) chan<- types.Observation
}

// HealthChecker is implemented by backends that can probe their own
// connection.
type HealthChecker interface {
	CheckHealth() *config.StorageHealthData
}

// StartHealthMonitor probes checker immediately and then on every interval
// tick, publishing results to the global health manager until ctx ends.
func StartHealthMonitor(ctx context.Context, storageType string, checker HealthChecker, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			health := checker.CheckHealth()
			GlobalHealthManager.UpdateHealth(storageType, health)
			log.Debugf("updated %s health status: %s", storageType, health.Status)

			select {
			case <-ticker.C:
			case <-ctx.Done():
				log.Infof("health monitor for %s shutting down", storageType)
				return
			}
		}
	}()
}

// ProcessObservations drains obsChan through processor until ctx ends.
// Processor errors are logged and the drain continues.
func ProcessObservations(ctx context.Context, wg *sync.WaitGroup, obsChan <-chan types.Observation, processor func(types.Observation) error, name string) {
	wg.Add(1)
	defer wg.Done()

	for {
		select {
		case obs := <-obsChan:
			if err := processor(obs); err != nil {
				log.Errorf("%s observation processor error: %v", name, err)
			}
		case <-ctx.Done():
			log.Infof("%s observation processor shutting down", name)
			return
		}
	}
}
