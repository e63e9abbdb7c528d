package timescaledb

import (
	"time"

	"github.com/chrissnell/remoteclimate/internal/database"
	"github.com/chrissnell/remoteclimate/internal/storage"
	"github.com/chrissnell/remoteclimate/pkg/config"
)

// CheckHealth reports whether the TimescaleDB connection can still answer a query.
func (t *Storage) CheckHealth() *config.StorageHealthData {
	if t.TimescaleDBConn == nil {
		return unhealthy("no database handle", "storage was started without a connection")
	}

	if err := database.Ping(t.TimescaleDBConn); err != nil {
		return unhealthy("ping failed", err.Error())
	}

	// A ping only exercises the connection; run a query as well.
	var result int
	if err := t.TimescaleDBConn.Raw("SELECT 1").Scan(&result).Error; err != nil {
		return unhealthy("query failed", err.Error())
	}

	return &config.StorageHealthData{
		LastCheck: time.Now(),
		Status:    storage.StatusHealthy,
		Message:   "ping and query OK",
	}
}

func unhealthy(message, detail string) *config.StorageHealthData {
	return &config.StorageHealthData{
		LastCheck: time.Now(),
		Status:    storage.StatusUnhealthy,
		Message:   message,
		Error:     detail,
	}
}
