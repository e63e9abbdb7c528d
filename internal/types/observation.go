package types

import (
	"time"

	"github.com/jackc/pgtype"
	"gorm.io/gorm"
)

// Observation is a single weather observation for a configured location,
// normalized from the provider's response with derived air quality and
// solar fields added.
type Observation struct {
	Timestamp           time.Time `gorm:"column:time"`
	LocationName        string    `gorm:"column:locationname"`
	Latitude            float64   `gorm:"column:latitude"`
	Longitude           float64   `gorm:"column:longitude"`
	Temperature         float32   `gorm:"column:temperature"`
	FeelsLike           float32   `gorm:"column:feelslike"`
	TempMin             float32   `gorm:"column:tempmin"`
	TempMax             float32   `gorm:"column:tempmax"`
	Pressure            float32   `gorm:"column:pressure"`
	Humidity            float32   `gorm:"column:humidity"`
	WindSpeed           float32   `gorm:"column:windspeed"`
	WindGust            float32   `gorm:"column:windgust"`
	WindDir             float32   `gorm:"column:winddir"`
	CloudCover          float32   `gorm:"column:cloudcover"`
	Visibility          float32   `gorm:"column:visibility"`
	RainOneHour         float32   `gorm:"column:rain1h"`
	SnowOneHour         float32   `gorm:"column:snow1h"`
	Conditions          string    `gorm:"column:conditions"`
	ConditionsID        int       `gorm:"column:conditionsid"`
	Sunrise             time.Time `gorm:"column:sunrise"`
	Sunset              time.Time `gorm:"column:sunset"`
	PotentialSolarWatts float32   `gorm:"column:potentialsolarwatts"`
	AQI                 int32     `gorm:"column:aqi"`
	PM25                float32   `gorm:"column:pm25"`
	PM10                float32   `gorm:"column:pm10"`
}

// TableName implements the GORM Tabler interface for the Observation struct
func (Observation) TableName() string {
	return "observations"
}

// BucketObservation is an Observation with the extra fields present in the
// hourly materialized view
type BucketObservation struct {
	Bucket       time.Time `gorm:"column:bucket"`
	PeriodPrecip float32   `gorm:"column:period_precip"`
	PeriodSnow   float32   `gorm:"column:period_snow"`
	Observation
}

// CO2Month is one month of the Mauna Loa record as stored in the database.
// Rows are upserted on every refresh because NOAA revises recent months.
type CO2Month struct {
	Year           int     `gorm:"column:year;primaryKey"`
	Month          int     `gorm:"column:month;primaryKey"`
	DecimalDate    float64 `gorm:"column:decimal_date"`
	MonthlyAverage float64 `gorm:"column:monthly_average"`
	Deseasonalized float64 `gorm:"column:deseasonalized"`
	NumDays        int     `gorm:"column:num_days"`
	StdDev         float64 `gorm:"column:std_dev"`
	Uncertainty    float64 `gorm:"column:uncertainty"`
}

// TableName implements the GORM Tabler interface for the CO2Month struct
func (CO2Month) TableName() string {
	return "co2_monthly"
}

// CO2SnapshotRecord captures the state of the CO2 feed after each successful
// refresh, with the full summary stored as JSONB
type CO2SnapshotRecord struct {
	gorm.Model

	SourceURL     string       `gorm:"uniqueIndex,not null"`
	Records       int          `gorm:"not null"`
	LatestYear    int          `gorm:"not null"`
	LatestMonth   int          `gorm:"not null"`
	LatestAverage float64      `gorm:"not null"`
	FetchedAt     time.Time    `gorm:"index"`
	Data          pgtype.JSONB `gorm:"type:jsonb;not null"`
}

// TableName implements the GORM Tabler interface for the CO2SnapshotRecord struct
func (CO2SnapshotRecord) TableName() string {
	return "co2_snapshots"
}
