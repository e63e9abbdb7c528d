package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider reads configuration from a YAML file. The file is parsed on
// first access and cached; edits require a restart.
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a provider for the given YAML file.
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig parses the file and converts it to the backend-neutral form.
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	raw, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	var doc struct {
		Locations   []LocationYAML   `yaml:"locations"`
		Sources     SourcesYAML      `yaml:"sources,omitempty"`
		Storage     StorageYAML      `yaml:"storage,omitempty"`
		Controllers []ControllerYAML `yaml:"controllers,omitempty"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	data := &ConfigData{
		Locations:   make([]LocationData, len(doc.Locations)),
		Controllers: make([]ControllerData, len(doc.Controllers)),
	}

	for i, loc := range doc.Locations {
		data.Locations[i] = LocationData{
			Name:      loc.Name,
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
			Altitude:  loc.Altitude,
			Enabled:   !loc.Disabled,
		}
	}

	if src := doc.Sources.NOAACO2; src != nil {
		data.Sources.NOAACO2 = &NOAACO2Data{
			URL:             src.URL,
			RefreshInterval: src.RefreshInterval,
		}
	}
	if src := doc.Sources.OpenWeather; src != nil {
		data.Sources.OpenWeather = &OpenWeatherData{
			APIKey:       src.APIKey,
			APIEndpoint:  src.APIEndpoint,
			Units:        src.Units,
			Language:     src.Language,
			PollInterval: src.PollInterval,
			AirQuality:   src.AirQuality,
		}
	}

	if ts := doc.Storage.TimescaleDB; ts != nil {
		data.Storage.TimescaleDB = &TimescaleDBData{
			ConnectionString: ts.ConnectionString,
		}
	}

	for i, controller := range doc.Controllers {
		data.Controllers[i] = ControllerData{
			Type: controller.Type,
		}
		if rest := controller.RESTServer; rest != nil {
			data.Controllers[i].RESTServer = &RESTServerData{
				Cert:       rest.Cert,
				Key:        rest.Key,
				Port:       rest.Port,
				ListenAddr: rest.ListenAddr,
			}
		}
	}

	y.config = data
	return data, nil
}

// ensureLoaded parses the file the first time any section is requested.
func (y *YAMLProvider) ensureLoaded() error {
	if y.config != nil {
		return nil
	}
	_, err := y.LoadConfig()
	return err
}

func (y *YAMLProvider) GetLocations() ([]LocationData, error) {
	if err := y.ensureLoaded(); err != nil {
		return nil, err
	}
	return y.config.Locations, nil
}

func (y *YAMLProvider) GetSources() (*SourcesData, error) {
	if err := y.ensureLoaded(); err != nil {
		return nil, err
	}
	return &y.config.Sources, nil
}

func (y *YAMLProvider) GetStorageConfig() (*StorageData, error) {
	if err := y.ensureLoaded(); err != nil {
		return nil, err
	}
	return &y.config.Storage, nil
}

func (y *YAMLProvider) GetControllers() ([]ControllerData, error) {
	if err := y.ensureLoaded(); err != nil {
		return nil, err
	}
	return y.config.Controllers, nil
}

// IsReadOnly reports that this backend cannot persist changes.
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close implements ConfigProvider; a file-backed provider holds nothing open.
func (y *YAMLProvider) Close() error {
	return nil
}

// File-format shapes. Tags are kebab-case to match the documented config
// layout rather than the internal field names.

type LocationYAML struct {
	Name      string  `yaml:"name"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Altitude  float64 `yaml:"altitude,omitempty"`
	Disabled  bool    `yaml:"disabled,omitempty"`
}

type SourcesYAML struct {
	NOAACO2     *NOAACO2YAML     `yaml:"noaa-co2,omitempty"`
	OpenWeather *OpenWeatherYAML `yaml:"openweather,omitempty"`
}

type NOAACO2YAML struct {
	URL             string `yaml:"url,omitempty"`
	RefreshInterval string `yaml:"refresh-interval,omitempty"`
}

type OpenWeatherYAML struct {
	APIKey       string `yaml:"api-key,omitempty"`
	APIEndpoint  string `yaml:"api-endpoint,omitempty"`
	Units        string `yaml:"units,omitempty"`
	Language     string `yaml:"language,omitempty"`
	PollInterval string `yaml:"poll-interval,omitempty"`
	AirQuality   bool   `yaml:"air-quality,omitempty"`
}

type StorageYAML struct {
	TimescaleDB *TimescaleDBYAML `yaml:"timescaledb,omitempty"`
}

type TimescaleDBYAML struct {
	ConnectionString string `yaml:"connection-string"`
}

type ControllerYAML struct {
	Type       string          `yaml:"type,omitempty"`
	RESTServer *RESTServerYAML `yaml:"rest,omitempty"`
}

type RESTServerYAML struct {
	Cert       string `yaml:"cert,omitempty"`
	Key        string `yaml:"key,omitempty"`
	Port       int    `yaml:"port,omitempty"`
	ListenAddr string `yaml:"listen-addr,omitempty"`
}
