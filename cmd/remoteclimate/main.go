package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chrissnell/remoteclimate/internal/app"
	"github.com/chrissnell/remoteclimate/internal/constants"
	"github.com/chrissnell/remoteclimate/internal/log"
	"github.com/chrissnell/remoteclimate/pkg/config"
)

func main() {
	cfgFile := flag.String("config", "config.yaml", "Configuration source: a YAML file, or a SQLite database produced by config-convert")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend: 'yaml' or 'sqlite'")
	debug := flag.Bool("debug", false, "Enable debug logging")
	logFile := flag.String("logfile", "", "Also write logs to this file, with rotation")
	showVersion := flag.Bool("version", false, "Print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("remoteclimate %s\n", constants.Version)
		os.Exit(0)
	}

	if err := initLogging(*debug, *logFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(*cfgFile, *cfgBackend); err != nil {
		log.Errorf("Fatal error: %v", err)
		os.Exit(1)
	}
}

func initLogging(debug bool, logFile string) error {
	if logFile != "" {
		return log.InitWithFile(debug, logFile)
	}
	return log.Init(debug)
}

func run(cfgFile, cfgBackend string) error {
	provider, err := openConfigProvider(cfgFile, cfgBackend)
	if err != nil {
		return err
	}
	defer provider.Close()

	application := app.New(provider, log.GetSugaredLogger())
	return application.Run(context.Background())
}

// openConfigProvider builds the configured provider and loads the config once
// up front, so a broken or missing source fails before anything starts.
func openConfigProvider(cfgFile, cfgBackend string) (config.ConfigProvider, error) {
	filename, _ := filepath.Abs(cfgFile)

	var provider config.ConfigProvider
	switch cfgBackend {
	case "yaml":
		provider = config.NewYAMLProvider(filename)
	case "sqlite":
		var err error
		provider, err = config.NewSQLiteProvider(filename)
		if err != nil {
			return nil, fmt.Errorf("error opening SQLite config: %w", err)
		}
	default:
		return nil, fmt.Errorf("config backend %q is not supported; use yaml or sqlite", cfgBackend)
	}

	if _, err := provider.LoadConfig(); err != nil {
		provider.Close()
		return nil, fmt.Errorf("error reading config %s (did you pass -config?): %w", filename, err)
	}

	return provider, nil
}
