package collectors

import (
	"time"

	"github.com/chrissnell/remoteclimate/pkg/config"
	"go.uber.org/zap"
)

// ParseInterval parses a duration string from the configuration, returning
// the fallback when the string is empty or does not parse.
func ParseInterval(value string, fallback time.Duration, logger *zap.SugaredLogger) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		logger.Warnf("invalid interval %q in configuration, using default %v", value, fallback)
		return fallback
	}
	if d <= 0 {
		logger.Warnf("non-positive interval %q in configuration, using default %v", value, fallback)
		return fallback
	}
	return d
}

// LoadLocationConfig loads configuration for a specific location
func LoadLocationConfig(configProvider config.ConfigProvider, locationName string, logger *zap.SugaredLogger) *config.LocationData {
	locations, err := configProvider.GetLocations()
	if err != nil {
		logger.Fatalf("Collector [%s] failed to load config: %v", locationName, err)
	}

	for _, location := range locations {
		if location.Name == locationName {
			return &location
		}
	}

	logger.Fatalf("Collector [%s] location not found in configuration", locationName)
	return nil
}
