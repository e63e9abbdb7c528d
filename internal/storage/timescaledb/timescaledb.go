package timescaledb

import (
	"context"
	"sync"
	"time"

	"github.com/chrissnell/remoteclimate/internal/database"
	"github.com/chrissnell/remoteclimate/internal/log"
	"github.com/chrissnell/remoteclimate/internal/storage"
	"github.com/chrissnell/remoteclimate/internal/types"
	"gorm.io/gorm"
)

const healthCheckInterval = 60 * time.Second

// Storage holds the configuration for a TimescaleDB storage backend
type Storage struct {
	TimescaleDBConn *gorm.DB
}

// schemaStep is one idempotent DDL statement run at startup. Optional steps
// log their failure and continue.
type schemaStep struct {
	msg      string
	warn     string
	sql      string
	optional bool
}

var schemaSteps = []schemaStep{
	{"creating observations table...", "could not create observations table", createTableSQL, false},
	{"creating co2_monthly table...", "could not create co2_monthly table", createCO2TableSQL, false},
	{"creating TimescaleDB extension...", "could not create TimescaleDB extension", createExtensionSQL, false},
	{"creating hypertable...", "could not create hypertable", createHypertableSQL, false},
	// CREATE TYPE has no IF NOT EXISTS clause, and the type cannot be dropped
	// while the aggregate functions depend on it, so an already-exists error
	// on restart is expected and harmless.
	{"creating circular average state type...", "unable to create circular average state type (it probably already exists; this is safe to ignore):", createCircAvgStateTypeSQL, true},
	{"creating circular average state accumulating function...", "could not create circular average state accumulating function", createCircAvgStateFunctionSQL, false},
	{"creating circular average state combiner function...", "could not create circular average state combiner function", createCircAvgCombinerFunctionSQL, false},
	{"creating circular average state finalizer function...", "could not create circular average state finalizer function", createCircAvgFinalizerFunctionSQL, false},
	{"creating circular average aggregate function...", "could not create circular average aggregate function", createCircAvgAggregateFunctionSQL, false},
	{"creating 1h view...", "could not create 1h view", create1hViewSQL, false},
	{"creating 1d view...", "could not create 1d view", create1dViewSQL, false},
	{"adding 1h aggregation policy...", "could not add 1h aggregation policy", addAggregationPolicy1hSQL, false},
	{"adding 1d aggregation policy...", "could not add 1d aggregation policy", addAggregationPolicy1dSQL, false},
	{"adding retention policy for observations...", "could not add retention policy for observations", addRetentionPolicySQL, false},
	{"adding retention policy for the 1h view...", "could not add retention policy for the 1h view", addRetentionPolicy1hSQL, false},
}

// New connects to TimescaleDB, brings the schema up to date and starts the
// periodic health monitor.
func New(ctx context.Context, connectionString string) (*Storage, error) {
	conn, err := database.CreateConnection(connectionString)
	if err != nil {
		return nil, err
	}

	t := &Storage{TimescaleDBConn: conn}
	if err := t.initSchema(ctx); err != nil {
		return nil, err
	}

	storage.StartHealthMonitor(ctx, "timescaledb", t, healthCheckInterval)

	return t, nil
}

// initSchema runs the DDL that brings a fresh database up to the schema this
// engine expects: tables, the hypertable, the circular average aggregate used
// for wind direction, the continuous aggregate views and their policies.
func (t *Storage) initSchema(ctx context.Context) error {
	log.Info("initializing database schema...")
	for _, step := range schemaSteps {
		log.Info(step.msg)
		if err := t.TimescaleDBConn.WithContext(ctx).Exec(step.sql).Error; err != nil {
			if step.optional {
				log.Warn(step.warn, err)
				continue
			}
			log.Warn("warning: " + step.warn)
			return err
		}
	}

	// CO2 snapshots are plain relational rows; GORM migrates that table
	// straight from the model.
	if err := t.TimescaleDBConn.WithContext(ctx).AutoMigrate(types.CO2SnapshotRecord{}); err != nil {
		log.Warn("warning: could not create or migrate co2_snapshots table")
		return err
	}

	return nil
}

// StartStorageEngine creates a goroutine loop to receive observations and send
// them off to TimescaleDB
func (t *Storage) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- types.Observation {
	log.Info("starting TimescaleDB storage engine...")
	obsChan := make(chan types.Observation, 10)
	go storage.ProcessObservations(ctx, wg, obsChan, t.StoreObservation, "TimescaleDB")
	return obsChan
}

// StoreObservation stores an observation in TimescaleDB
func (t *Storage) StoreObservation(obs types.Observation) error {
	if err := t.TimescaleDBConn.Create(&obs).Error; err != nil {
		log.Error("could not store observation:", err)
		return err
	}
	return nil
}
