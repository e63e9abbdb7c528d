package managers

import (
	"context"
	"fmt"
	"sync"

	"github.com/chrissnell/remoteclimate/internal/storage"
	"github.com/chrissnell/remoteclimate/internal/storage/timescaledb"
	"github.com/chrissnell/remoteclimate/internal/types"
	"github.com/chrissnell/remoteclimate/pkg/config"
)

// StorageManager fans observations out to every configured storage backend.
type StorageManager struct {
	Engines                []StorageEngine
	ObservationDistributor chan types.Observation
}

// StorageEngine pairs a running backend with its intake channel.
type StorageEngine struct {
	Engine storage.StorageEngineInterface
	C      chan<- types.Observation
}

// NewStorageManager starts the observation distributor and brings up every
// backend named in the storage configuration.
func NewStorageManager(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider) (*StorageManager, error) {
	s := &StorageManager{
		ObservationDistributor: make(chan types.Observation, 20),
	}
	go s.startObservationDistributor(ctx, wg)

	storageConfig, err := configProvider.GetStorageConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading storage configuration: %v", err)
	}

	if ts := storageConfig.TimescaleDB; ts != nil && ts.ConnectionString != "" {
		if err := s.AddEngine(ctx, wg, "timescaledb", ts.ConnectionString); err != nil {
			return nil, fmt.Errorf("could not add TimescaleDB storage backend: %v", err)
		}
	}

	return s, nil
}

// GetObservationDistributor returns the channel collectors write to.
func (s *StorageManager) GetObservationDistributor() chan types.Observation {
	return s.ObservationDistributor
}

// AddEngine starts the named backend and registers its intake channel.
func (s *StorageManager) AddEngine(ctx context.Context, wg *sync.WaitGroup, engineName string, connectionString string) error {
	var engine storage.StorageEngineInterface

	switch engineName {
	case "timescaledb":
		var err error
		engine, err = timescaledb.New(ctx, connectionString)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown storage engine: %s", engineName)
	}

	s.Engines = append(s.Engines, StorageEngine{
		Engine: engine,
		C:      engine.StartStorageEngine(ctx, wg),
	})
	return nil
}

// startObservationDistributor forwards each incoming observation to every
// engine's intake channel. With no engines configured, observations are
// discarded silently.
func (s *StorageManager) startObservationDistributor(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	defer wg.Done()

	for {
		select {
		case obs := <-s.ObservationDistributor:
			for _, e := range s.Engines {
				e.C <- obs
			}
		case <-ctx.Done():
			return
		}
	}
}
