// Package collectors defines the pollers that keep the application supplied
// with upstream climate data.
package collectors

// Collector is an interface that provides standard methods for the various
// data collectors
type Collector interface {
	StartCollector() error
	StopCollector() error
	CollectorName() string
}
