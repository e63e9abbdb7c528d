package config

import (
	"os"
	"time"
)

// ConfigProvider is the backend-neutral view of the daemon configuration.
// Both the YAML file and the SQLite database implement it.
type ConfigProvider interface {
	LoadConfig() (*ConfigData, error)

	GetLocations() ([]LocationData, error)
	GetSources() (*SourcesData, error)
	GetStorageConfig() (*StorageData, error)
	GetControllers() ([]ControllerData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData is everything a provider knows, loaded in one call.
type ConfigData struct {
	Locations   []LocationData   `json:"locations"`
	Sources     SourcesData      `json:"sources,omitempty"`
	Storage     StorageData      `json:"storage,omitempty"`
	Controllers []ControllerData `json:"controllers,omitempty"`
}

// LocationData is a named coordinate the weather poller watches
type LocationData struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude,omitempty"`
	Enabled   bool    `json:"enabled"`
}

// SourcesData holds the configuration for the upstream data feeds
type SourcesData struct {
	NOAACO2     *NOAACO2Data     `json:"noaa_co2,omitempty"`
	OpenWeather *OpenWeatherData `json:"openweather,omitempty"`
}

// NOAACO2Data configures the monthly CO2 record feed
type NOAACO2Data struct {
	URL             string `json:"url,omitempty"`
	RefreshInterval string `json:"refresh_interval,omitempty"`
}

// OpenWeatherData configures the OpenWeatherMap poller
type OpenWeatherData struct {
	APIKey       string `json:"api_key,omitempty"`
	APIEndpoint  string `json:"api_endpoint,omitempty"`
	Units        string `json:"units,omitempty"`
	Language     string `json:"language,omitempty"`
	PollInterval string `json:"poll_interval,omitempty"`
	AirQuality   bool   `json:"air_quality,omitempty"`
}

// ResolveAPIKey returns the configured API key, falling back to the
// OPENWEATHER_API_KEY environment variable when the config omits one.
func (o *OpenWeatherData) ResolveAPIKey() string {
	if o.APIKey != "" {
		return o.APIKey
	}
	return os.Getenv("OPENWEATHER_API_KEY")
}

// StorageData holds the configuration for storage backends
type StorageData struct {
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty"`
}

type TimescaleDBData struct {
	ConnectionString string `json:"connection_string"`
}

// ControllerData holds the configuration for controller backends
type ControllerData struct {
	Type       string          `json:"type,omitempty"`
	RESTServer *RESTServerData `json:"rest,omitempty"`
}

type RESTServerData struct {
	Cert       string `json:"cert,omitempty"`
	Key        string `json:"key,omitempty"`
	Port       int    `json:"port,omitempty"`
	ListenAddr string `json:"listen_addr,omitempty"`
}

// StorageHealthData represents the health status of a storage backend
type StorageHealthData struct {
	LastCheck time.Time `json:"last_check"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
}
