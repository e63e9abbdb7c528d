package config

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// defaultScope narrows a query to the rows belonging to the 'default' config.
// The schema allows several named configs but only one is ever active.
const defaultScope = "config_id = (SELECT id FROM configs WHERE name = 'default')"

// SQLiteProvider reads and writes configuration in a SQLite database,
// typically one produced by config-convert or the provisioner.
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider opens the database and verifies it is reachable.
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening SQLite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging SQLite database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig assembles the full configuration from the default config row.
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	var (
		data ConfigData
		err  error
	)
	if data.Locations, err = s.GetLocations(); err != nil {
		return nil, err
	}

	sources, err := s.GetSources()
	if err != nil {
		return nil, err
	}
	data.Sources = *sources

	storage, err := s.GetStorageConfig()
	if err != nil {
		return nil, err
	}
	data.Storage = *storage

	if data.Controllers, err = s.GetControllers(); err != nil {
		return nil, err
	}
	return &data, nil
}

// forEachRow runs query and hands every row to scan.
func (s *SQLiteProvider) forEachRow(query string, scan func(*sql.Rows) error) error {
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// GetLocations returns the location rows of the default config, sorted by
// name.
func (s *SQLiteProvider) GetLocations() ([]LocationData, error) {
	var locations []LocationData
	err := s.forEachRow(
		"SELECT name, latitude, longitude, altitude, enabled FROM locations WHERE "+defaultScope+" ORDER BY name",
		func(rows *sql.Rows) error {
			var loc LocationData
			var altitude sql.NullFloat64
			if err := rows.Scan(&loc.Name, &loc.Latitude, &loc.Longitude, &altitude, &loc.Enabled); err != nil {
				return err
			}
			loc.Altitude = altitude.Float64
			locations = append(locations, loc)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("reading locations: %w", err)
	}
	return locations, nil
}

// GetSources returns the enabled data source rows. A source type missing
// from the table comes back as a nil section.
func (s *SQLiteProvider) GetSources() (*SourcesData, error) {
	sources := &SourcesData{}
	err := s.forEachRow(
		`SELECT source_type, noaa_url, noaa_refresh_interval,
		        ow_api_key, ow_api_endpoint, ow_units, ow_language, ow_poll_interval, ow_air_quality
		 FROM source_configs WHERE `+defaultScope+" AND enabled = 1",
		func(rows *sql.Rows) error {
			var sourceType string
			var noaaURL, noaaRefresh sql.NullString
			var owKey, owEndpoint, owUnits, owLanguage, owPoll sql.NullString
			var owAirQuality sql.NullBool
			if err := rows.Scan(&sourceType, &noaaURL, &noaaRefresh,
				&owKey, &owEndpoint, &owUnits, &owLanguage, &owPoll, &owAirQuality); err != nil {
				return err
			}
			switch sourceType {
			case "noaa_co2":
				sources.NOAACO2 = &NOAACO2Data{
					URL:             noaaURL.String,
					RefreshInterval: noaaRefresh.String,
				}
			case "openweather":
				sources.OpenWeather = &OpenWeatherData{
					APIKey:       owKey.String,
					APIEndpoint:  owEndpoint.String,
					Units:        owUnits.String,
					Language:     owLanguage.String,
					PollInterval: owPoll.String,
					AirQuality:   owAirQuality.Bool,
				}
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("reading source configs: %w", err)
	}
	return sources, nil
}

// GetStorageConfig returns the enabled storage backend rows.
func (s *SQLiteProvider) GetStorageConfig() (*StorageData, error) {
	storage := &StorageData{}
	err := s.forEachRow(
		"SELECT backend_type, timescale_connection_string FROM storage_configs WHERE "+defaultScope+" AND enabled = 1",
		func(rows *sql.Rows) error {
			var backendType string
			var connString sql.NullString
			if err := rows.Scan(&backendType, &connString); err != nil {
				return err
			}
			if backendType == "timescaledb" && connString.Valid {
				storage.TimescaleDB = &TimescaleDBData{ConnectionString: connString.String}
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("reading storage configs: %w", err)
	}
	return storage, nil
}

// GetControllers returns the enabled controller rows.
func (s *SQLiteProvider) GetControllers() ([]ControllerData, error) {
	var controllers []ControllerData
	err := s.forEachRow(
		`SELECT controller_type, rest_cert, rest_key, rest_port, rest_listen_addr
		 FROM controller_configs WHERE `+defaultScope+" AND enabled = 1 ORDER BY controller_type",
		func(rows *sql.Rows) error {
			var controllerType string
			var cert, key, listen sql.NullString
			var port sql.NullInt64
			if err := rows.Scan(&controllerType, &cert, &key, &port, &listen); err != nil {
				return err
			}
			controller := ControllerData{Type: controllerType}
			if controllerType == "rest" {
				controller.RESTServer = &RESTServerData{
					Cert:       cert.String,
					Key:        key.String,
					Port:       int(port.Int64),
					ListenAddr: listen.String,
				}
			}
			controllers = append(controllers, controller)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("reading controller configs: %w", err)
	}
	return controllers, nil
}

// IsReadOnly reports that this backend accepts SaveConfig.
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveConfig replaces the default configuration with configData in one
// transaction.
func (s *SQLiteProvider) SaveConfig(configData *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	configID, err := s.defaultConfigID(tx)
	if err != nil {
		return fmt.Errorf("resolving default config row: %w", err)
	}

	if err := s.clearExistingConfig(tx, configID); err != nil {
		return fmt.Errorf("clearing previous config: %w", err)
	}

	for i := range configData.Locations {
		if err := s.insertLocation(tx, configID, &configData.Locations[i]); err != nil {
			return fmt.Errorf("inserting location %s: %w", configData.Locations[i].Name, err)
		}
	}

	if err := s.insertSourceConfigs(tx, configID, &configData.Sources); err != nil {
		return fmt.Errorf("inserting source configs: %w", err)
	}

	if err := s.insertStorageConfigs(tx, configID, &configData.Storage); err != nil {
		return fmt.Errorf("inserting storage configs: %w", err)
	}

	for i := range configData.Controllers {
		if err := s.insertController(tx, configID, &configData.Controllers[i]); err != nil {
			return fmt.Errorf("inserting controller %s: %w", configData.Controllers[i].Type, err)
		}
	}

	return tx.Commit()
}

// defaultConfigID returns the id of the 'default' config row, inserting the
// row on first save.
func (s *SQLiteProvider) defaultConfigID(tx *sql.Tx) (int64, error) {
	var id int64
	err := tx.QueryRow("SELECT id FROM configs WHERE name = 'default'").Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		result, err := tx.Exec("INSERT INTO configs (name) VALUES ('default')")
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	case err != nil:
		return 0, err
	}
	return id, nil
}

func (s *SQLiteProvider) clearExistingConfig(tx *sql.Tx, configID int64) error {
	for _, table := range []string{"locations", "source_configs", "storage_configs", "controller_configs"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE config_id = ?", configID); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return nil
}

func (s *SQLiteProvider) insertLocation(tx *sql.Tx, configID int64, loc *LocationData) error {
	_, err := tx.Exec(
		"INSERT INTO locations (config_id, name, latitude, longitude, altitude, enabled) VALUES (?, ?, ?, ?, ?, ?)",
		configID, loc.Name, loc.Latitude, loc.Longitude, loc.Altitude, loc.Enabled)
	return err
}

func (s *SQLiteProvider) insertSourceConfigs(tx *sql.Tx, configID int64, sources *SourcesData) error {
	if sources.NOAACO2 != nil {
		_, err := tx.Exec(
			"INSERT INTO source_configs (config_id, source_type, enabled, noaa_url, noaa_refresh_interval) VALUES (?, 'noaa_co2', 1, ?, ?)",
			configID, sources.NOAACO2.URL, sources.NOAACO2.RefreshInterval)
		if err != nil {
			return err
		}
	}

	if ow := sources.OpenWeather; ow != nil {
		_, err := tx.Exec(
			"INSERT INTO source_configs (config_id, source_type, enabled, ow_api_key, ow_api_endpoint, ow_units, ow_language, ow_poll_interval, ow_air_quality) VALUES (?, 'openweather', 1, ?, ?, ?, ?, ?, ?)",
			configID, ow.APIKey, ow.APIEndpoint, ow.Units, ow.Language, ow.PollInterval, ow.AirQuality)
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *SQLiteProvider) insertStorageConfigs(tx *sql.Tx, configID int64, storage *StorageData) error {
	if storage.TimescaleDB == nil {
		return nil
	}
	_, err := tx.Exec(
		"INSERT INTO storage_configs (config_id, backend_type, enabled, timescale_connection_string) VALUES (?, 'timescaledb', 1, ?)",
		configID, storage.TimescaleDB.ConnectionString)
	return err
}

func (s *SQLiteProvider) insertController(tx *sql.Tx, configID int64, controller *ControllerData) error {
	if rest := controller.RESTServer; rest != nil {
		_, err := tx.Exec(
			"INSERT INTO controller_configs (config_id, controller_type, enabled, rest_cert, rest_key, rest_port, rest_listen_addr) VALUES (?, ?, 1, ?, ?, ?, ?)",
			configID, controller.Type, rest.Cert, rest.Key, rest.Port, rest.ListenAddr)
		return err
	}
	_, err := tx.Exec(
		"INSERT INTO controller_configs (config_id, controller_type, enabled) VALUES (?, ?, 1)",
		configID, controller.Type)
	return err
}
