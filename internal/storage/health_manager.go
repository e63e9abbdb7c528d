package storage

import (
	"sync"
	"time"

	"github.com/chrissnell/remoteclimate/pkg/config"
)

// Health status values reported by storage backends.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// HealthManager tracks per-backend health snapshots. Snapshots are stored by
// value so readers never share memory with the writers.
type HealthManager struct {
	mu     sync.RWMutex
	health map[string]config.StorageHealthData
}

// GlobalHealthManager is the singleton the status endpoint reads from.
var GlobalHealthManager = NewHealthManager()

// NewHealthManager returns an empty tracker.
func NewHealthManager() *HealthManager {
	return &HealthManager{health: make(map[string]config.StorageHealthData)}
}

// UpdateHealth records the latest health snapshot for a storage backend.
func (hm *HealthManager) UpdateHealth(storageType string, health *config.StorageHealthData) {
	if health == nil {
		return
	}
	hm.mu.Lock()
	hm.health[storageType] = *health
	hm.mu.Unlock()
}

// GetHealth returns the last snapshot for a single backend.
func (hm *HealthManager) GetHealth(storageType string) (*config.StorageHealthData, bool) {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	h, ok := hm.health[storageType]
	if !ok {
		return nil, false
	}
	return &h, true
}

// GetAllHealth returns a snapshot of every backend's health.
func (hm *HealthManager) GetAllHealth() map[string]*config.StorageHealthData {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	all := make(map[string]*config.StorageHealthData, len(hm.health))
	for name, h := range hm.health {
		all[name] = &h
	}
	return all
}

// IsHealthy reports whether a backend's last check succeeded and is no older
// than maxAge.
func (hm *HealthManager) IsHealthy(storageType string, maxAge time.Duration) bool {
	h, ok := hm.GetHealth(storageType)
	if !ok || time.Since(h.LastCheck) > maxAge {
		return false
	}
	return h.Status == StatusHealthy
}
