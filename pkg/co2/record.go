// Package co2 parses and aggregates the NOAA Global Monitoring Laboratory
// monthly mean CO2 record from Mauna Loa Observatory.
//
// The feed is a plain-text file of whitespace-delimited rows, eight numeric
// columns per row, preceded by a comment header. Rows the observatory could
// not measure directly carry a negative day count and an interpolated
// monthly average.
package co2

import "fmt"

// Record is one monthly mean CO2 observation.
type Record struct {
	Year           int     `json:"year"`
	Month          int     `json:"month"`
	DecimalDate    float64 `json:"decimal_date"`
	MonthlyAverage float64 `json:"monthly_average"`
	Deseasonalized float64 `json:"deseasonalized"`
	NumDays        int     `json:"num_days"`
	StdDev         float64 `json:"std_dev"`
	Uncertainty    float64 `json:"uncertainty"`
}

// Interpolated reports whether the monthly average was interpolated rather
// than measured. The feed marks these rows with a negative day count.
func (r Record) Interpolated() bool {
	return r.NumDays < 0
}

// Date returns the record's month as a YYYY-MM label.
func (r Record) Date() string {
	return fmt.Sprintf("%04d-%02d", r.Year, r.Month)
}
