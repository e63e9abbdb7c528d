// Package openweather polls the OpenWeatherMap API for a configured location
// and feeds normalized observations to the storage distributor.
package openweather

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chrissnell/remoteclimate/internal/collectors"
	"github.com/chrissnell/remoteclimate/internal/types"
	"github.com/chrissnell/remoteclimate/pkg/aqi"
	"github.com/chrissnell/remoteclimate/pkg/config"
	"github.com/chrissnell/remoteclimate/pkg/openweather"
	"github.com/chrissnell/remoteclimate/pkg/solar"
	"go.uber.org/zap"
)

// DefaultPollInterval is used when the configuration does not specify a poll
// interval. OpenWeatherMap updates current conditions roughly every 10
// minutes, so polling faster than this only burns API quota.
const DefaultPollInterval = 10 * time.Minute

type Collector struct {
	ctx                    context.Context
	cancel                 context.CancelFunc
	wg                     *sync.WaitGroup
	location               config.LocationData
	sourceConfig           config.OpenWeatherData
	client                 *openweather.Client
	ObservationDistributor chan types.Observation
	logger                 *zap.SugaredLogger
	pollInterval           time.Duration
}

// NewCollector creates a new OpenWeatherMap poller for a single location
func NewCollector(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, locationName string, distributor chan types.Observation, logger *zap.SugaredLogger) (*Collector, error) {
	collectorCtx, cancel := context.WithCancel(ctx)

	location := collectors.LoadLocationConfig(configProvider, locationName, logger)

	sources, err := configProvider.GetSources()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("error loading source configurations: %v", err)
	}
	if sources.OpenWeather == nil {
		cancel()
		return nil, fmt.Errorf("OpenWeatherMap source is not configured")
	}
	sourceConfig := *sources.OpenWeather

	apiKey := sourceConfig.ResolveAPIKey()
	if apiKey == "" {
		cancel()
		return nil, fmt.Errorf("OpenWeatherMap API key is required (set api_key or OPENWEATHER_API_KEY)")
	}

	client, err := openweather.New(openweather.Config{
		APIKey:   apiKey,
		BaseURL:  sourceConfig.APIEndpoint,
		Units:    sourceConfig.Units,
		Language: sourceConfig.Language,
		Timeout:  10 * time.Second,
	})
	if err != nil {
		cancel()
		return nil, err
	}

	collectorLogger := logger.Named("openweather").With("location", locationName)

	c := &Collector{
		ctx:                    collectorCtx,
		cancel:                 cancel,
		wg:                     wg,
		location:               *location,
		sourceConfig:           sourceConfig,
		client:                 client,
		ObservationDistributor: distributor,
		logger:                 collectorLogger,
		pollInterval:           collectors.ParseInterval(sourceConfig.PollInterval, DefaultPollInterval, collectorLogger),
	}

	return c, nil
}

// CollectorName returns the name of the location this collector polls
func (c *Collector) CollectorName() string {
	return c.location.Name
}

// StartCollector starts polling OpenWeatherMap
func (c *Collector) StartCollector() error {
	if c.location.Latitude == 0 && c.location.Longitude == 0 {
		return fmt.Errorf("location %s has no coordinates configured", c.location.Name)
	}

	c.logger.Infow("Starting OpenWeatherMap collector",
		"latitude", c.location.Latitude,
		"longitude", c.location.Longitude,
		"interval", c.pollInterval)

	c.wg.Add(1)
	go c.pollLoop()

	return nil
}

// StopCollector stops the collector
func (c *Collector) StopCollector() error {
	c.logger.Info("Stopping OpenWeatherMap collector")
	c.cancel()
	return nil
}

func (c *Collector) pollLoop() {
	defer c.wg.Done()

	// Initial poll immediately
	c.poll()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			c.logger.Info("Poll loop stopped")
			return
		case <-ticker.C:
			c.poll()
		}
	}
}

func (c *Collector) poll() {
	conditions, err := c.client.CurrentWeather(c.ctx, c.location.Latitude, c.location.Longitude)
	if err != nil {
		c.logger.Errorw("Failed to fetch current conditions", "error", err)
		return
	}

	obs := c.convertToObservation(conditions)

	if c.sourceConfig.AirQuality {
		// A failed air quality fetch does not drop the observation
		pollution, err := c.client.AirPollution(c.ctx, c.location.Latitude, c.location.Longitude)
		if err != nil {
			c.logger.Errorw("Failed to fetch air quality", "error", err)
		} else if sample, ok := pollution.Latest(); ok {
			obs.PM25 = float32(sample.Components.PM25)
			obs.PM10 = float32(sample.Components.PM10)
			obs.AQI = aqi.Overall(sample.Components.PM25, sample.Components.PM10)
		}
	}

	select {
	case c.ObservationDistributor <- obs:
		c.logger.Debugw("Observation sent",
			"temp", obs.Temperature,
			"humidity", obs.Humidity,
			"conditions", obs.Conditions)
	case <-c.ctx.Done():
		return
	}
}

func (c *Collector) convertToObservation(conditions *openweather.CurrentConditions) types.Observation {
	now := time.Now()

	obs := types.Observation{
		Timestamp:    now,
		LocationName: c.location.Name,
		Latitude:     c.location.Latitude,
		Longitude:    c.location.Longitude,

		Temperature: float32(conditions.Main.Temp),
		FeelsLike:   float32(conditions.Main.FeelsLike),
		TempMin:     float32(conditions.Main.TempMin),
		TempMax:     float32(conditions.Main.TempMax),
		Pressure:    float32(conditions.Main.Pressure),
		Humidity:    float32(conditions.Main.Humidity),

		WindSpeed:  float32(conditions.Wind.Speed),
		WindGust:   float32(conditions.Wind.Gust),
		WindDir:    float32(conditions.Wind.Deg),
		CloudCover: float32(conditions.Clouds.All),
		Visibility: float32(conditions.Visibility),

		Conditions:   conditions.Description(),
		ConditionsID: conditions.ConditionID(),
		Sunrise:      conditions.SunriseTime(),
		Sunset:       conditions.SunsetTime(),
	}

	// Rain and snow blocks are omitted from the response entirely when there
	// is no precipitation
	if conditions.Rain != nil {
		obs.RainOneHour = float32(conditions.Rain.OneHour)
	}
	if conditions.Snow != nil {
		obs.SnowOneHour = float32(conditions.Snow.OneHour)
	}

	obs.PotentialSolarWatts = float32(solar.PotentialIrradiance(c.location.Latitude, c.location.Longitude, now, solar.ClearSkyTurbidity))

	return obs
}
