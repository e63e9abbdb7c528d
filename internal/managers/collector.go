package managers

import (
	"context"
	"fmt"
	"sync"

	"github.com/chrissnell/remoteclimate/internal/collectors"
	"github.com/chrissnell/remoteclimate/internal/collectors/noaaco2"
	"github.com/chrissnell/remoteclimate/internal/collectors/openweather"
	"github.com/chrissnell/remoteclimate/internal/dataset"
	"github.com/chrissnell/remoteclimate/internal/log"
	"github.com/chrissnell/remoteclimate/internal/types"
	"github.com/chrissnell/remoteclimate/pkg/config"
	"go.uber.org/zap"
)

// CollectorManager interface for the collector manager
type CollectorManager interface {
	StartCollectors() error
}

// NewCollectorManager creates a CollectorManager object, populated with all configured collectors
func NewCollectorManager(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, store *dataset.Store, distributor chan types.Observation, logger *zap.SugaredLogger) (CollectorManager, error) {
	cm := &collectorManager{
		ctx:            ctx,
		wg:             wg,
		configProvider: configProvider,
		logger:         logger,
		collectors:     make([]collectors.Collector, 0),
	}

	// The CO2 collector always runs. With no source configuration it polls
	// the default NOAA feed.
	log.Info("Initializing NOAA CO2 collector")
	co2Collector, err := noaaco2.NewCollector(ctx, wg, configProvider, store, logger)
	if err != nil {
		return nil, fmt.Errorf("error creating NOAA CO2 collector: %v", err)
	}
	cm.collectors = append(cm.collectors, co2Collector)

	// Weather pollers run one per enabled location, and only when the
	// OpenWeatherMap source is configured.
	sources, err := configProvider.GetSources()
	if err != nil {
		return nil, fmt.Errorf("error loading source configurations: %v", err)
	}
	if sources.OpenWeather != nil {
		locations, err := configProvider.GetLocations()
		if err != nil {
			return nil, fmt.Errorf("error loading location configurations: %v", err)
		}
		for _, location := range locations {
			if !location.Enabled {
				logger.Infof("Skipping disabled location [%s]", location.Name)
				continue
			}
			log.Infof("Initializing OpenWeatherMap poller [%v]", location.Name)
			poller, err := openweather.NewCollector(ctx, wg, configProvider, location.Name, distributor, logger)
			if err != nil {
				return nil, fmt.Errorf("error creating weather poller [%s]: %w", location.Name, err)
			}
			cm.collectors = append(cm.collectors, poller)
		}
	}

	return cm, nil
}

type collectorManager struct {
	ctx            context.Context
	wg             *sync.WaitGroup
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
	collectors     []collectors.Collector
}

func (c *collectorManager) StartCollectors() error {
	c.logger.Info("Collector manager starting")

	for _, collector := range c.collectors {
		c.logger.Infof("Starting collector [%v]", collector.CollectorName())
		if err := collector.StartCollector(); err != nil {
			return fmt.Errorf("failed to start collector [%s]: %w", collector.CollectorName(), err)
		}
	}

	c.logger.Infof("All %d collectors running", len(c.collectors))
	return nil
}
