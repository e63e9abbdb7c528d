// Package database opens GORM connections to TimescaleDB with the logging
// configuration shared by every component.
package database

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/chrissnell/remoteclimate/internal/log"
)

// CreateConnection opens a GORM connection with the shared zap-backed logger.
// Queries slower than one second log at warn.
func CreateConnection(connectionString string) (*gorm.DB, error) {
	log.Info("opening TimescaleDB connection")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: newGormLogger()})
	if err != nil {
		log.Warn("TimescaleDB connection failed:", err)
		return nil, err
	}
	return db, nil
}

// Ping verifies a connection is alive at the database/sql level.
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func newGormLogger() gormlogger.Interface {
	return gormlogger.New(
		zap.NewStdLog(log.GetZapLogger()),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)
}
