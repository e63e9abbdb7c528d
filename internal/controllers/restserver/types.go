package restserver

import (
	"time"

	"github.com/chrissnell/remoteclimate/internal/dataset"
	"github.com/chrissnell/remoteclimate/pkg/co2"
	"github.com/chrissnell/remoteclimate/pkg/config"
)

// WeatherReading is the wire form of one weather observation. Numeric fields
// stay float32 to match the stored column types.
type WeatherReading struct {
	LocationName        string  `json:"location"`
	ReadingTimestamp    int64   `json:"ts"`
	Temperature         float32 `json:"temp,omitempty"`
	FeelsLike           float32 `json:"feelslike,omitempty"`
	TempMin             float32 `json:"tempmin,omitempty"`
	TempMax             float32 `json:"tempmax,omitempty"`
	Barometer           float32 `json:"bar,omitempty"`
	Humidity            float32 `json:"hum,omitempty"`
	WindSpeed           float32 `json:"winds,omitempty"`
	WindGust            float32 `json:"windgust,omitempty"`
	WindDirection       float32 `json:"windd,omitempty"`
	CardinalDirection   string  `json:"windcard,omitempty"`
	CloudCover          float32 `json:"clouds,omitempty"`
	Visibility          float32 `json:"visibility,omitempty"`
	RainOneHour         float32 `json:"rain1h,omitempty"`
	SnowOneHour         float32 `json:"snow1h,omitempty"`
	PeriodRain          float32 `json:"period_rain,omitempty"`
	PeriodSnow          float32 `json:"period_snow,omitempty"`
	Conditions          string  `json:"conditions,omitempty"`
	Sunrise             int64   `json:"sunrise,omitempty"`
	Sunset              int64   `json:"sunset,omitempty"`
	PotentialSolarWatts float32 `json:"potentialsolarwatts,omitempty"`
	AQI                 int32   `json:"aqi"`
	PM25                float32 `json:"pm25"`
	PM10                float32 `json:"pm10"`
}

// CO2SummaryData is the /api/co2/summary response payload
type CO2SummaryData struct {
	Records       int            `json:"records"`
	First         co2.Record     `json:"first"`
	Latest        co2.Record     `json:"latest"`
	TotalTrend    co2.Trend      `json:"total_trend"`
	TrailingTrend co2.Trend      `json:"trailing_10y_trend"`
	FitRate       float64        `json:"fit_rate_10y_ppm_per_year"`
	Milestones    []co2.Crossing `json:"milestones"`
}

// CO2MonthData is a monthly record with its interpolation flag made explicit
type CO2MonthData struct {
	co2.Record
	Interpolated bool `json:"interpolated"`
}

// CO2TrendData is the /api/co2/trend/{window} response payload
type CO2TrendData struct {
	WindowYears int       `json:"window_years"`
	Trend       co2.Trend `json:"trend"`
	FitRate     float64   `json:"fit_rate_ppm_per_year"`
}

// StatusData is the /api/status response payload
type StatusData struct {
	Version string                               `json:"version"`
	Dataset dataset.Status                       `json:"dataset"`
	Storage map[string]*config.StorageHealthData `json:"storage,omitempty"`
}

// headingToCardinalDirection buckets a wind heading in degrees into one of
// the sixteen compass points.
func headingToCardinalDirection(f float32) string {
	points := []string{
		"N", "NNE", "NE", "ENE",
		"E", "ESE", "SE", "SSE",
		"S", "SSW", "SW", "WSW",
		"W", "WNW", "NW", "NNW",
	}
	return points[int((f+11.25)/22.5)%16]
}

// timestampMillis renders a timestamp as Unix milliseconds. Timestamps the
// database never set come back as zero or epoch values and render as 0.
func timestampMillis(t time.Time) int64 {
	if t.Unix() <= 0 {
		return 0
	}
	return t.UnixMilli()
}
