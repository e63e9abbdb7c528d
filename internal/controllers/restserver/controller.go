// Package restserver serves the climate REST API: CO2 aggregates read from
// the in-memory dataset store and weather observations read from
// TimescaleDB.
package restserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chrissnell/remoteclimate/internal/database"
	"github.com/chrissnell/remoteclimate/internal/dataset"
	"github.com/chrissnell/remoteclimate/internal/log"
	"github.com/chrissnell/remoteclimate/internal/types"
	"github.com/chrissnell/remoteclimate/pkg/config"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Span cutoffs used when picking a source table in fetchWeatherSpan.
const (
	day   = 24 * time.Hour
	month = 30 * day
)

// Sentinel errors the handlers translate into HTTP status codes.
var (
	ErrNoObservationsFound = errors.New("no observations found")
	ErrSpanTooLong         = errors.New("span exceeds the one year maximum")
)

// Controller runs the HTTP listener and owns the database handle the
// weather handlers read from.
type Controller struct {
	ctx            context.Context
	wg             *sync.WaitGroup
	configProvider config.ConfigProvider
	restConfig     config.RESTServerData
	Server         http.Server
	DB             *gorm.DB
	DBEnabled      bool
	Locations      []config.LocationData
	store          *dataset.Store
	logger         *zap.SugaredLogger
	handlers       *Handlers
}

// NewController builds the REST controller, connecting to TimescaleDB when
// storage is configured so the weather endpoints can be served.
func NewController(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, rc config.RESTServerData, store *dataset.Store, logger *zap.SugaredLogger) (*Controller, error) {
	ctrl := &Controller{
		ctx:            ctx,
		wg:             wg,
		configProvider: configProvider,
		restConfig:     rc,
		store:          store,
		logger:         logger,
	}

	cfgData, err := configProvider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	ctrl.Locations = cfgData.Locations

	if rc.ListenAddr == "" {
		logger.Info("rest.listen_addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		rc.ListenAddr = "0.0.0.0"
	}
	if rc.Port == 0 {
		logger.Info("rest.port not provided; defaulting to 8080")
		rc.Port = 8080
	}

	// A configured TimescaleDB connection enables the weather endpoints.
	if cfgData.Storage.TimescaleDB != nil && cfgData.Storage.TimescaleDB.ConnectionString != "" {
		ctrl.DB, err = database.CreateConnection(cfgData.Storage.TimescaleDB.ConnectionString)
		if err != nil {
			return nil, fmt.Errorf("connecting to TimescaleDB: %w", err)
		}
		ctrl.DBEnabled = true
	}

	ctrl.handlers = NewHandlers(ctrl)
	ctrl.Server.Addr = fmt.Sprintf("%v:%v", rc.ListenAddr, rc.Port)
	ctrl.Server.Handler = ctrl.setupRouter()

	return ctrl, nil
}

// StartController begins serving and arranges a graceful stop when the
// controller context ends.
func (c *Controller) StartController() error {
	log.Infof("REST server listening on %s", c.Server.Addr)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()
		if err := c.listen(); !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("REST server shutting down")
		c.Server.Shutdown(context.Background())
	}()

	return nil
}

// listen serves TLS when a certificate pair is configured.
func (c *Controller) listen() error {
	if c.restConfig.Cert != "" && c.restConfig.Key != "" {
		return c.Server.ListenAndServeTLS(c.restConfig.Cert, c.restConfig.Key)
	}
	return c.Server.ListenAndServe()
}

// setupRouter registers the API routes.
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()

	// Tag every request with an ID for log correlation
	router.Use(c.requestIDMiddleware)

	// CO2 endpoints are served from the in-memory dataset store
	router.HandleFunc("/api/co2/summary", c.handlers.GetCO2Summary)
	router.HandleFunc("/api/co2/yearly", c.handlers.GetCO2Yearly)
	router.HandleFunc("/api/co2/recent", c.handlers.GetCO2Recent)
	router.HandleFunc("/api/co2/trend/{window}", c.handlers.GetCO2Trend)
	router.HandleFunc("/api/co2/milestones", c.handlers.GetCO2Milestones)
	router.HandleFunc("/api/co2/records", c.handlers.GetCO2Records)
	router.HandleFunc("/api/co2/report.txt", c.handlers.GetCO2Report)

	// Weather endpoints read from TimescaleDB
	router.HandleFunc("/api/weather/latest", c.handlers.GetWeatherLatest)
	router.HandleFunc("/api/weather/span/{span}", c.handlers.GetWeatherSpan)

	router.HandleFunc("/api/status", c.handlers.GetStatus)

	return router
}

// validateLocationExists reports whether the named location is configured.
func (c *Controller) validateLocationExists(locationName string) bool {
	for _, location := range c.Locations {
		if location.Name == locationName {
			return true
		}
	}
	return false
}

// defaultLocation returns the first enabled location from the configuration
func (c *Controller) defaultLocation() string {
	for _, location := range c.Locations {
		if location.Enabled {
			return location.Name
		}
	}
	return ""
}

// fetchWeatherSpan retrieves observations for a location over a time span,
// choosing the source table by span so that longer spans return coarser
// aggregates
func (c *Controller) fetchWeatherSpan(locationName string, span time.Duration) ([]types.BucketObservation, error) {
	if span > 365*day {
		return nil, ErrSpanTooLong
	}

	spanStart := time.Now().Add(-span)
	var observations []types.BucketObservation
	var err error

	switch {
	case span < 1*day:
		// The raw table has no bucket or period columns, so alias them to
		// keep one result shape across all spans
		err = c.DB.Table("observations").
			Select("*, time AS bucket, rain1h AS period_precip, snow1h AS period_snow").
			Where("time > ?", spanStart).
			Where("locationname = ?", locationName).
			Order("time").
			Find(&observations).Error
	case span < 2*month:
		err = c.DB.Table("observations_1h").
			Where("bucket > ?", spanStart).
			Where("locationname = ?", locationName).
			Order("bucket").
			Find(&observations).Error
	default:
		err = c.DB.Table("observations_1d").
			Where("bucket > ?", spanStart).
			Where("locationname = ?", locationName).
			Order("bucket").
			Find(&observations).Error
	}
	if err != nil {
		return nil, fmt.Errorf("querying observations: %w", err)
	}

	return observations, nil
}

// fetchLatestObservation retrieves the most recent observation for a location
func (c *Controller) fetchLatestObservation(locationName string) (*types.BucketObservation, error) {
	var observations []types.BucketObservation
	err := c.DB.Table("observations").
		Select("*, time AS bucket, rain1h AS period_precip, snow1h AS period_snow").
		Limit(1).
		Where("locationname = ?", locationName).
		Order("time DESC").
		Find(&observations).Error
	if err != nil {
		return nil, fmt.Errorf("querying observations: %w", err)
	}
	if len(observations) == 0 {
		return nil, ErrNoObservationsFound
	}

	return &observations[0], nil
}
