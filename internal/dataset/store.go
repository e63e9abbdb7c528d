// Package dataset holds the most recently fetched CO2 series in memory so
// that collectors can refresh it and controllers can read it concurrently.
package dataset

import (
	"sync"
	"time"

	"github.com/chrissnell/remoteclimate/pkg/co2"
)

// Store is a concurrency-safe holder for the current CO2 series. A failed
// refresh never clears a previously loaded series; readers keep seeing the
// last good data.
type Store struct {
	mu          sync.RWMutex
	series      *co2.Series
	sourceURL   string
	fetchedAt   time.Time
	fetchCount  int
	lastError   string
	lastErrorAt time.Time
}

// Status describes the state of the store for reporting endpoints
type Status struct {
	Loaded      bool      `json:"loaded"`
	Records     int       `json:"records"`
	SourceURL   string    `json:"source_url,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
	FetchCount  int       `json:"fetch_count"`
	LastError   string    `json:"last_error,omitempty"`
	LastErrorAt time.Time `json:"last_error_at"`
}

// NewStore creates an empty dataset store
func NewStore() *Store {
	return &Store{}
}

// Update replaces the current series with a freshly fetched one
func (s *Store) Update(series *co2.Series, sourceURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.series = series
	s.sourceURL = sourceURL
	s.fetchedAt = time.Now()
	s.fetchCount++
	s.lastError = ""
}

// SetError records a failed refresh attempt without touching the series
func (s *Store) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastError = err.Error()
	s.lastErrorAt = time.Now()
}

// Series returns the current series, or nil if no fetch has succeeded yet.
// Callers must treat the returned series as read-only.
func (s *Store) Series() *co2.Series {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.series
}

// Loaded reports whether a series is available
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.series != nil && s.series.Len() > 0
}

// Status returns a snapshot of the store's state.
// This method is safe for concurrent use.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		Loaded:      s.series != nil && s.series.Len() > 0,
		SourceURL:   s.sourceURL,
		FetchedAt:   s.fetchedAt,
		FetchCount:  s.fetchCount,
		LastError:   s.lastError,
		LastErrorAt: s.lastErrorAt,
	}
	if s.series != nil {
		st.Records = s.series.Len()
	}
	return st
}
