package config

import (
	"os"
	"path/filepath"
	"testing"
)

const testYAML = `
locations:
  - name: Eberswalde
    latitude: 52.8333
    longitude: 13.8331
    altitude: 24
  - name: Potsdam
    latitude: 52.3989
    longitude: 13.0657
    disabled: true

sources:
  noaa-co2:
    url: https://example.org/co2_mm_mlo.txt
    refresh-interval: 6h
  openweather:
    api-key: abc123
    units: metric
    language: de
    poll-interval: 10m
    air-quality: true

storage:
  timescaledb:
    connection-string: "host=localhost user=climate dbname=climate"

controllers:
  - type: rest
    rest:
      port: 8080
      listen-addr: 127.0.0.1
`

func writeTestConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	return path
}

func TestYAMLProviderLoadConfig(t *testing.T) {
	provider := NewYAMLProvider(writeTestConfig(t, testYAML))

	cfg, err := provider.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if len(cfg.Locations) != 2 {
		t.Fatalf("got %d locations, want 2", len(cfg.Locations))
	}
	eberswalde := cfg.Locations[0]
	if eberswalde.Name != "Eberswalde" || eberswalde.Latitude != 52.8333 || eberswalde.Longitude != 13.8331 {
		t.Errorf("first location = %+v", eberswalde)
	}
	if !eberswalde.Enabled {
		t.Error("location without disabled flag should be enabled")
	}
	if cfg.Locations[1].Enabled {
		t.Error("disabled location should not be enabled")
	}

	if cfg.Sources.NOAACO2 == nil {
		t.Fatal("noaa-co2 source missing")
	}
	if cfg.Sources.NOAACO2.RefreshInterval != "6h" {
		t.Errorf("refresh interval = %q, want 6h", cfg.Sources.NOAACO2.RefreshInterval)
	}

	if cfg.Sources.OpenWeather == nil {
		t.Fatal("openweather source missing")
	}
	if cfg.Sources.OpenWeather.APIKey != "abc123" {
		t.Errorf("api key = %q, want abc123", cfg.Sources.OpenWeather.APIKey)
	}
	if !cfg.Sources.OpenWeather.AirQuality {
		t.Error("air quality polling should be enabled")
	}

	if cfg.Storage.TimescaleDB == nil {
		t.Fatal("timescaledb storage missing")
	}

	if len(cfg.Controllers) != 1 {
		t.Fatalf("got %d controllers, want 1", len(cfg.Controllers))
	}
	rest := cfg.Controllers[0]
	if rest.Type != "rest" || rest.RESTServer == nil || rest.RESTServer.Port != 8080 {
		t.Errorf("rest controller = %+v", rest)
	}
}

func TestYAMLProviderSectionGetters(t *testing.T) {
	provider := NewYAMLProvider(writeTestConfig(t, testYAML))

	// Section getters load the file lazily.
	locations, err := provider.GetLocations()
	if err != nil {
		t.Fatalf("GetLocations returned error: %v", err)
	}
	if len(locations) != 2 {
		t.Errorf("got %d locations, want 2", len(locations))
	}

	storage, err := provider.GetStorageConfig()
	if err != nil {
		t.Fatalf("GetStorageConfig returned error: %v", err)
	}
	if storage.TimescaleDB == nil {
		t.Error("timescaledb storage missing")
	}

	if !provider.IsReadOnly() {
		t.Error("YAML provider should be read-only")
	}
	if err := provider.Close(); err != nil {
		t.Errorf("Close returned error: %v", err)
	}
}

func TestYAMLProviderMissingFile(t *testing.T) {
	provider := NewYAMLProvider("/nonexistent/config.yaml")
	if _, err := provider.LoadConfig(); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestResolveAPIKey(t *testing.T) {
	ow := &OpenWeatherData{APIKey: "from-config"}
	if got := ow.ResolveAPIKey(); got != "from-config" {
		t.Errorf("ResolveAPIKey = %q, want from-config", got)
	}

	t.Setenv("OPENWEATHER_API_KEY", "from-env")
	ow = &OpenWeatherData{}
	if got := ow.ResolveAPIKey(); got != "from-env" {
		t.Errorf("ResolveAPIKey = %q, want from-env", got)
	}
}
