// Package noaaco2 polls the NOAA Global Monitoring Laboratory monthly mean
// CO2 feed, keeps the in-memory dataset store fresh, and mirrors the series
// into TimescaleDB when storage is configured.
package noaaco2

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chrissnell/remoteclimate/internal/collectors"
	"github.com/chrissnell/remoteclimate/internal/database"
	"github.com/chrissnell/remoteclimate/internal/dataset"
	"github.com/chrissnell/remoteclimate/internal/types"
	"github.com/chrissnell/remoteclimate/pkg/co2"
	"github.com/chrissnell/remoteclimate/pkg/config"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultRefreshInterval is how often the feed is re-fetched when the
// configuration does not specify an interval. NOAA publishes monthly, so
// anything on the order of hours is generous.
const DefaultRefreshInterval = 6 * time.Hour

const upsertMonthSQL = `
INSERT INTO co2_monthly (year, month, decimal_date, monthly_average, deseasonalized, num_days, std_dev, uncertainty)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (year, month)
DO UPDATE SET
	decimal_date = EXCLUDED.decimal_date,
	monthly_average = EXCLUDED.monthly_average,
	deseasonalized = EXCLUDED.deseasonalized,
	num_days = EXCLUDED.num_days,
	std_dev = EXCLUDED.std_dev,
	uncertainty = EXCLUDED.uncertainty`

// snapshotSummary is the JSON payload stored alongside each snapshot record.
type snapshotSummary struct {
	Latest     co2.Record     `json:"latest"`
	TotalTrend co2.Trend      `json:"total_trend"`
	Milestones []co2.Crossing `json:"milestones"`
}

type Collector struct {
	ctx             context.Context
	cancel          context.CancelFunc
	wg              *sync.WaitGroup
	sourceConfig    config.NOAACO2Data
	store           *dataset.Store
	client          *co2.Client
	db              *gorm.DB
	logger          *zap.SugaredLogger
	refreshInterval time.Duration
}

// NewCollector creates a new NOAA CO2 collector instance
func NewCollector(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, store *dataset.Store, logger *zap.SugaredLogger) (*Collector, error) {
	collectorCtx, cancel := context.WithCancel(ctx)

	sources, err := configProvider.GetSources()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("error loading source configurations: %v", err)
	}

	sourceConfig := config.NOAACO2Data{}
	if sources.NOAACO2 != nil {
		sourceConfig = *sources.NOAACO2
	}

	dataURL := sourceConfig.URL
	if dataURL == "" {
		dataURL = co2.DefaultDataURL
	}

	c := &Collector{
		ctx:             collectorCtx,
		cancel:          cancel,
		wg:              wg,
		sourceConfig:    sourceConfig,
		store:           store,
		client:          co2.NewClient(dataURL),
		logger:          logger.Named("noaaco2"),
		refreshInterval: collectors.ParseInterval(sourceConfig.RefreshInterval, DefaultRefreshInterval, logger),
	}

	storageConfig, err := configProvider.GetStorageConfig()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("error loading storage configuration: %v", err)
	}

	if storageConfig.TimescaleDB != nil && storageConfig.TimescaleDB.ConnectionString != "" {
		db, err := database.CreateConnection(storageConfig.TimescaleDB.ConnectionString)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("CO2 collector could not connect to database: %v", err)
		}
		c.db = db

		if err := c.createTables(); err != nil {
			cancel()
			return nil, err
		}
	} else {
		c.logger.Info("TimescaleDB storage not configured, CO2 records will be held in memory only")
	}

	return c, nil
}

// CollectorName returns the name of this collector
func (c *Collector) CollectorName() string {
	return "noaaco2"
}

// StartCollector begins the periodic refresh loop
func (c *Collector) StartCollector() error {
	c.logger.Infow("Starting NOAA CO2 collector",
		"url", c.client.DataURL,
		"interval", c.refreshInterval)

	c.wg.Add(1)
	go c.refreshLoop()

	return nil
}

// StopCollector stops the collector
func (c *Collector) StopCollector() error {
	c.logger.Info("Stopping NOAA CO2 collector")
	c.cancel()
	return nil
}

func (c *Collector) refreshLoop() {
	defer c.wg.Done()

	// time.Ticker's only begin to fire *after* the interval has elapsed.
	// Since we're dealing with very long intervals, we fire the fetcher now,
	// before we start the ticker.
	c.refresh()

	ticker := time.NewTicker(c.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			c.logger.Info("Refresh loop stopped")
			return
		case <-ticker.C:
			c.refresh()
		}
	}
}

func (c *Collector) refresh() {
	series, err := c.client.Fetch(c.ctx)
	if err != nil {
		c.logger.Errorw("Failed to fetch CO2 data", "error", err, "url", c.client.DataURL)
		c.store.SetError(err)
		return
	}

	if series.Len() == 0 {
		err := fmt.Errorf("feed returned no parseable records")
		c.logger.Errorw("Failed to refresh CO2 data", "error", err, "url", c.client.DataURL)
		c.store.SetError(err)
		return
	}

	c.store.Update(series, c.client.DataURL)

	latest, _ := series.Last()
	c.logger.Infow("CO2 series refreshed",
		"records", series.Len(),
		"latest", latest.Date(),
		"average", latest.MonthlyAverage)

	if c.db == nil {
		return
	}

	if err := c.storeSeries(series); err != nil {
		c.logger.Errorw("Failed to store CO2 monthly records", "error", err)
	}
	if err := c.storeSnapshot(series, latest); err != nil {
		c.logger.Errorw("Failed to store CO2 snapshot", "error", err)
	}
}

// storeSeries upserts every monthly record. NOAA revises recent months as
// flagging catches up, so existing rows are overwritten rather than skipped.
func (c *Collector) storeSeries(series *co2.Series) error {
	err := c.db.Transaction(func(tx *gorm.DB) error {
		for _, r := range series.Records {
			err := tx.Exec(upsertMonthSQL,
				r.Year, r.Month, r.DecimalDate, r.MonthlyAverage,
				r.Deseasonalized, r.NumDays, r.StdDev, r.Uncertainty).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error upserting monthly records: %v", err)
	}

	c.logger.Debugw("CO2 monthly records stored", "records", series.Len())
	return nil
}

// storeSnapshot upserts the single snapshot row for this feed URL, carrying
// the full summary as JSONB.
func (c *Collector) storeSnapshot(series *co2.Series, latest co2.Record) error {
	summary := snapshotSummary{
		Latest:     latest,
		TotalTrend: series.TotalTrend(),
		Milestones: series.Crossings(co2.DefaultMilestones),
	}

	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("could not marshal CO2 snapshot to JSON: %v", err)
	}

	var existingRecord types.CO2SnapshotRecord
	err = c.db.Where("source_url = ?", c.client.DataURL).First(&existingRecord).Error

	if err == gorm.ErrRecordNotFound {
		newRecord := types.CO2SnapshotRecord{
			SourceURL:     c.client.DataURL,
			Records:       series.Len(),
			LatestYear:    latest.Year,
			LatestMonth:   latest.Month,
			LatestAverage: latest.MonthlyAverage,
			FetchedAt:     time.Now(),
		}
		newRecord.Data.Set(summaryJSON)
		err = c.db.Create(&newRecord).Error
	} else if err == nil {
		existingRecord.Records = series.Len()
		existingRecord.LatestYear = latest.Year
		existingRecord.LatestMonth = latest.Month
		existingRecord.LatestAverage = latest.MonthlyAverage
		existingRecord.FetchedAt = time.Now()
		existingRecord.Data.Set(summaryJSON)
		err = c.db.Save(&existingRecord).Error
	}
	if err != nil {
		return fmt.Errorf("error saving snapshot record: %v", err)
	}

	c.logger.Debugw("CO2 snapshot stored", "url", c.client.DataURL)
	return nil
}

func (c *Collector) createTables() error {
	err := c.db.AutoMigrate(types.CO2Month{})
	if err != nil {
		return fmt.Errorf("error creating or migrating CO2 monthly database table: %v", err)
	}

	err = c.db.AutoMigrate(types.CO2SnapshotRecord{})
	if err != nil {
		return fmt.Errorf("error creating or migrating CO2 snapshot database table: %v", err)
	}

	return nil
}
