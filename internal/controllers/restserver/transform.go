package restserver

import (
	"github.com/chrissnell/remoteclimate/internal/types"
	"github.com/chrissnell/remoteclimate/pkg/aqi"
)

// transformSpanObservations converts database observations to a WeatherReading slice for JSON output
func (h *Handlers) transformSpanObservations(observations []types.BucketObservation) []*WeatherReading {
	readings := make([]*WeatherReading, 0, len(observations))

	for _, o := range observations {
		readings = append(readings, &WeatherReading{
			LocationName:        o.LocationName,
			ReadingTimestamp:    o.Bucket.UnixMilli(),
			Temperature:         o.Temperature,
			FeelsLike:           o.FeelsLike,
			TempMin:             o.TempMin,
			TempMax:             o.TempMax,
			Barometer:           o.Pressure,
			Humidity:            o.Humidity,
			WindSpeed:           o.WindSpeed,
			WindGust:            o.WindGust,
			WindDirection:       o.WindDir,
			CardinalDirection:   headingToCardinalDirection(o.WindDir),
			CloudCover:          o.CloudCover,
			Visibility:          o.Visibility,
			RainOneHour:         o.RainOneHour,
			SnowOneHour:         o.SnowOneHour,
			PeriodRain:          o.PeriodPrecip,
			PeriodSnow:          o.PeriodSnow,
			Conditions:          o.Conditions,
			Sunrise:             timestampMillis(o.Sunrise),
			Sunset:              timestampMillis(o.Sunset),
			PotentialSolarWatts: o.PotentialSolarWatts,
			AQI:                 getOrCalculateAQI(o.Observation),
			PM25:                o.PM25,
			PM10:                o.PM10,
		})
	}

	return readings
}

// transformLatestObservation converts the most recent database observation to a WeatherReading for JSON output
func (h *Handlers) transformLatestObservation(latest *types.BucketObservation) *WeatherReading {
	if latest == nil {
		return &WeatherReading{}
	}

	reading := WeatherReading{
		LocationName:        latest.LocationName,
		ReadingTimestamp:    latest.Timestamp.UnixMilli(),
		Temperature:         latest.Temperature,
		FeelsLike:           latest.FeelsLike,
		TempMin:             latest.TempMin,
		TempMax:             latest.TempMax,
		Barometer:           latest.Pressure,
		Humidity:            latest.Humidity,
		WindSpeed:           latest.WindSpeed,
		WindGust:            latest.WindGust,
		WindDirection:       latest.WindDir,
		CardinalDirection:   headingToCardinalDirection(latest.WindDir),
		CloudCover:          latest.CloudCover,
		Visibility:          latest.Visibility,
		RainOneHour:         latest.RainOneHour,
		SnowOneHour:         latest.SnowOneHour,
		PeriodRain:          latest.PeriodPrecip,
		PeriodSnow:          latest.PeriodSnow,
		Conditions:          latest.Conditions,
		Sunrise:             timestampMillis(latest.Sunrise),
		Sunset:              timestampMillis(latest.Sunset),
		PotentialSolarWatts: latest.PotentialSolarWatts,
		AQI:                 getOrCalculateAQI(latest.Observation),
		PM25:                latest.PM25,
		PM10:                latest.PM10,
	}
	return &reading
}

// getOrCalculateAQI returns the stored AQI value if available, otherwise calculates it from the particulate readings
func getOrCalculateAQI(o types.Observation) int32 {
	// If the collector already stored an AQI value, use it
	if o.AQI > 0 {
		return o.AQI
	}
	// Otherwise calculate from the particulates if available
	if o.PM25 > 0 || o.PM10 > 0 {
		return aqi.Overall(float64(o.PM25), float64(o.PM10))
	}
	return 0
}
