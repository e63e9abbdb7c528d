package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chrissnell/remoteclimate/internal/report"
	"github.com/chrissnell/remoteclimate/pkg/config"
	"github.com/chrissnell/remoteclimate/pkg/openweather"
)

func main() {
	var (
		lat      = flag.Float64("lat", 0, "Latitude of the location to report on")
		lon      = flag.Float64("lon", 0, "Longitude of the location to report on")
		location = flag.String("location", "", "Named location from the configuration (requires -config)")
		cfgFile  = flag.String("config", "", "Path to a YAML configuration file")
		apiKey   = flag.String("api-key", "", "OpenWeatherMap API key (falls back to config, then OPENWEATHER_API_KEY)")
		units    = flag.String("units", "metric", "Units system: metric, imperial or standard")
		noAir    = flag.Bool("no-air", false, "Skip the air pollution report")
	)
	flag.Parse()

	sourceConfig := &config.OpenWeatherData{APIKey: *apiKey}

	if *cfgFile != "" {
		filename, _ := filepath.Abs(*cfgFile)
		provider := config.NewYAMLProvider(filename)
		cfgData, err := provider.LoadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		if *apiKey == "" && cfgData.Sources.OpenWeather != nil {
			sourceConfig = cfgData.Sources.OpenWeather
		}
		if *location != "" {
			found := false
			for _, l := range cfgData.Locations {
				if l.Name == *location {
					*lat, *lon = l.Latitude, l.Longitude
					found = true
					break
				}
			}
			if !found {
				fmt.Fprintf(os.Stderr, "Location %q not found in configuration\n", *location)
				os.Exit(1)
			}
		}
	} else if *location != "" {
		fmt.Fprintln(os.Stderr, "The -location flag requires -config")
		os.Exit(1)
	}

	key := sourceConfig.ResolveAPIKey()
	if key == "" {
		fmt.Fprintln(os.Stderr, "An OpenWeatherMap API key is required. Pass -api-key or set OPENWEATHER_API_KEY.")
		os.Exit(1)
	}

	client, err := openweather.New(openweather.Config{
		APIKey:  key,
		BaseURL: sourceConfig.APIEndpoint,
		Units:   *units,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating OpenWeatherMap client: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	conditions, err := client.CurrentWeather(ctx, *lat, *lon)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching current weather: %v\n", err)
		os.Exit(1)
	}

	// Air quality is best-effort; a failed pollution fetch still prints the
	// weather report
	var pollution *openweather.AirPollution
	if !*noAir {
		pollution, err = client.AirPollution(ctx, *lat, *lon)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not fetch air quality: %v\n", err)
			pollution = nil
		}
	}

	if err := report.Weather(os.Stdout, conditions, pollution, *units); err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering weather report: %v\n", err)
		os.Exit(1)
	}
}
