// Package aqi converts particulate matter concentrations into US EPA
// Air Quality Index values.
package aqi

import "math"

// breakpoint maps a concentration band [cLow, cHigh] onto an index band
// [iLow, iHigh] for the EPA's piecewise-linear AQI formula.
type breakpoint struct {
	cLow, cHigh float64
	iLow, iHigh float64
}

// 24-hour average breakpoints from EPA technical assistance document 454/B-18-007.
var (
	pm25Breakpoints = []breakpoint{
		{0.0, 12.0, 0, 50},
		{12.1, 35.4, 51, 100},
		{35.5, 55.4, 101, 150},
		{55.5, 150.4, 151, 200},
		{150.5, 250.4, 201, 300},
		{250.5, 350.4, 301, 400},
		{350.5, 500.4, 401, 500},
	}

	pm10Breakpoints = []breakpoint{
		{0, 54, 0, 50},
		{55, 154, 51, 100},
		{155, 254, 101, 150},
		{255, 354, 151, 200},
		{355, 424, 201, 300},
		{425, 504, 301, 400},
		{505, 604, 401, 500},
	}
)

// CalculatePM25 calculates the Air Quality Index from a 24-hour average
// PM2.5 concentration (μg/m³).
func CalculatePM25(pm25 float64) int32 {
	return fromConcentration(pm25, pm25Breakpoints)
}

// CalculatePM10 calculates the Air Quality Index from a 24-hour average
// PM10 concentration (μg/m³).
func CalculatePM10(pm10 float64) int32 {
	return fromConcentration(pm10, pm10Breakpoints)
}

// fromConcentration applies the EPA formula
// I = (I_high - I_low) / (C_high - C_low) * (C - C_low) + I_low
// within the band containing c.
func fromConcentration(c float64, bands []breakpoint) int32 {
	if c < 0 {
		return 0
	}
	for _, b := range bands {
		if c <= b.cHigh {
			i := (b.iHigh-b.iLow)/(b.cHigh-b.cLow)*(c-b.cLow) + b.iLow
			return int32(math.Round(i))
		}
	}
	// The index is capped at 500 beyond the highest band.
	return 500
}

// Overall returns the combined AQI for a site: the highest of the
// per-pollutant index values, per EPA reporting rules.
func Overall(pm25, pm10 float64) int32 {
	i25 := CalculatePM25(pm25)
	i10 := CalculatePM10(pm10)
	if i10 > i25 {
		return i10
	}
	return i25
}

// GetCategory maps an AQI value onto the EPA category name.
func GetCategory(aqi int32) string {
	switch {
	case aqi <= 50:
		return "Good"
	case aqi <= 100:
		return "Moderate"
	case aqi <= 150:
		return "Unhealthy for Sensitive Groups"
	case aqi <= 200:
		return "Unhealthy"
	case aqi <= 300:
		return "Very Unhealthy"
	default:
		return "Hazardous"
	}
}
