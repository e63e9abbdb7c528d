// Command config-test loads the same configuration through the YAML and the
// SQLite provider and reports any differences between the two backends. It is
// a sanity check to run after converting a config with config-convert.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"reflect"

	"github.com/chrissnell/remoteclimate/pkg/config"
)

// differences counts every reported mismatch so the exit code can reflect
// the outcome.
var differences int

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "The YAML config to compare")
		sqliteFile = flag.String("sqlite", "", "The SQLite config to compare")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <config.yaml> -sqlite <config.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(*yamlFile, *sqliteFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(yamlPath, sqlitePath string) error {
	fmt.Printf("Comparing %s against %s\n\n", yamlPath, sqlitePath)

	yamlCfg, err := config.NewYAMLProvider(yamlPath).LoadConfig()
	if err != nil {
		return fmt.Errorf("loading YAML config: %w", err)
	}

	sqliteProvider, err := config.NewSQLiteProvider(sqlitePath)
	if err != nil {
		return fmt.Errorf("opening SQLite config: %w", err)
	}
	defer sqliteProvider.Close()

	sqliteCfg, err := sqliteProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading SQLite config: %w", err)
	}

	compareLocationLists(yamlCfg.Locations, sqliteCfg.Locations)

	fmt.Println("\nSources:")
	compareSection("NOAA CO2", yamlCfg.Sources.NOAACO2, sqliteCfg.Sources.NOAACO2)
	compareSection("OpenWeatherMap", yamlCfg.Sources.OpenWeather, sqliteCfg.Sources.OpenWeather)

	fmt.Println("\nStorage:")
	compareSection("TimescaleDB", yamlCfg.Storage.TimescaleDB, sqliteCfg.Storage.TimescaleDB)

	compareControllerLists(yamlCfg.Controllers, sqliteCfg.Controllers)

	if differences > 0 {
		return fmt.Errorf("\n%d differences found", differences)
	}
	fmt.Println("\nThe backends agree.")
	return nil
}

func mismatch(format string, args ...any) {
	differences++
	fmt.Printf("✗ "+format+"\n", args...)
}

// compareSection checks one optional config block: the backends must agree on
// whether it is present and, when present, on every field.
func compareSection[T any](name string, yaml, sqlite *T) {
	switch {
	case (yaml == nil) != (sqlite == nil):
		mismatch("%s is configured in only one backend", name)
	case yaml == nil:
		fmt.Printf("✓ %s: not configured in either backend\n", name)
	case reflect.DeepEqual(*yaml, *sqlite):
		fmt.Printf("✓ %s configuration matches\n", name)
	default:
		mismatch("%s configuration differs", name)
	}
}

func compareLocationLists(yaml, sqlite []config.LocationData) {
	fmt.Printf("Locations: %d in YAML, %d in SQLite\n", len(yaml), len(sqlite))
	if len(yaml) != len(sqlite) {
		mismatch("location counts differ")
		return
	}
	for i, yl := range yaml {
		sl := sqlite[i]
		if locationsEqual(yl, sl) {
			fmt.Printf("✓ Location %s matches\n", yl.Name)
			continue
		}
		mismatch("location %s differs", yl.Name)
		printLocationDiff(yl, sl)
	}
}

// locationsEqual compares coordinates with a small tolerance because the
// SQLite schema stores them as REAL.
func locationsEqual(a, b config.LocationData) bool {
	const tolerance = 1e-6
	return a.Name == b.Name &&
		a.Enabled == b.Enabled &&
		math.Abs(a.Latitude-b.Latitude) < tolerance &&
		math.Abs(a.Longitude-b.Longitude) < tolerance &&
		math.Abs(a.Altitude-b.Altitude) < tolerance
}

func printLocationDiff(yaml, sqlite config.LocationData) {
	fields := []struct {
		name         string
		yaml, sqlite any
	}{
		{"Name", yaml.Name, sqlite.Name},
		{"Enabled", yaml.Enabled, sqlite.Enabled},
		{"Latitude", yaml.Latitude, sqlite.Latitude},
		{"Longitude", yaml.Longitude, sqlite.Longitude},
		{"Altitude", yaml.Altitude, sqlite.Altitude},
	}
	for _, f := range fields {
		if !reflect.DeepEqual(f.yaml, f.sqlite) {
			fmt.Printf("  %s: YAML=%v, SQLite=%v\n", f.name, f.yaml, f.sqlite)
		}
	}
}

func compareControllerLists(yaml, sqlite []config.ControllerData) {
	fmt.Printf("\nControllers: %d in YAML, %d in SQLite\n", len(yaml), len(sqlite))
	if len(yaml) != len(sqlite) {
		mismatch("controller counts differ")
		return
	}
	for i, yc := range yaml {
		sc := sqlite[i]
		if controllersEqual(yc, sc) {
			fmt.Printf("✓ Controller %s matches\n", yc.Type)
		} else {
			mismatch("controller %s differs", yc.Type)
		}
	}
}

func controllersEqual(a, b config.ControllerData) bool {
	if a.Type != b.Type {
		return false
	}
	if (a.RESTServer == nil) != (b.RESTServer == nil) {
		return false
	}
	return a.RESTServer == nil || reflect.DeepEqual(*a.RESTServer, *b.RESTServer)
}
