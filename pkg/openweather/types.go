package openweather

import "time"

// Coord is a latitude/longitude pair.
type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Condition describes one weather condition entry (OWM sends a list, the
// first entry is primary).
type Condition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Main carries the core thermodynamic readings.
type Main struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  float64 `json:"pressure"`
	Humidity  float64 `json:"humidity"`
	SeaLevel  float64 `json:"sea_level"`
	GrndLevel float64 `json:"grnd_level"`
}

// Wind carries wind speed, direction and gusts.
type Wind struct {
	Speed float64 `json:"speed"`
	Deg   float64 `json:"deg"`
	Gust  float64 `json:"gust"`
}

// Clouds is cloud cover in percent.
type Clouds struct {
	All int `json:"all"`
}

// Precipitation is rain or snow volume for the preceding period.
type Precipitation struct {
	OneHour    float64 `json:"1h"`
	ThreeHours float64 `json:"3h"`
}

// Sys carries country and sun times.
type Sys struct {
	Type    int    `json:"type"`
	ID      int    `json:"id"`
	Country string `json:"country"`
	Sunrise int64  `json:"sunrise"`
	Sunset  int64  `json:"sunset"`
}

// CurrentConditions is the /weather endpoint response.
type CurrentConditions struct {
	Coord      Coord          `json:"coord"`
	Weather    []Condition    `json:"weather"`
	Base       string         `json:"base"`
	Main       Main           `json:"main"`
	Visibility int            `json:"visibility"`
	Wind       Wind           `json:"wind"`
	Clouds     Clouds         `json:"clouds"`
	Rain       *Precipitation `json:"rain,omitempty"`
	Snow       *Precipitation `json:"snow,omitempty"`
	Dt         int64          `json:"dt"`
	Sys        Sys            `json:"sys"`
	Timezone   int            `json:"timezone"`
	ID         int            `json:"id"`
	Name       string         `json:"name"`
}

// Description returns the primary condition description, or an empty string
// when the conditions list is empty.
func (c *CurrentConditions) Description() string {
	if len(c.Weather) == 0 {
		return ""
	}
	return c.Weather[0].Description
}

// ConditionID returns the primary condition code, or zero.
func (c *CurrentConditions) ConditionID() int {
	if len(c.Weather) == 0 {
		return 0
	}
	return c.Weather[0].ID
}

// ObservedAt returns the observation time.
func (c *CurrentConditions) ObservedAt() time.Time {
	return time.Unix(c.Dt, 0)
}

// SunriseTime returns the local sunrise as a time.Time.
func (c *CurrentConditions) SunriseTime() time.Time {
	return time.Unix(c.Sys.Sunrise, 0)
}

// SunsetTime returns the local sunset as a time.Time.
func (c *CurrentConditions) SunsetTime() time.Time {
	return time.Unix(c.Sys.Sunset, 0)
}

// AirPollution is the /air_pollution endpoint response.
type AirPollution struct {
	Coord Coord             `json:"coord"`
	List  []PollutionSample `json:"list"`
}

// Latest returns the most recent pollution sample.
func (p *AirPollution) Latest() (PollutionSample, bool) {
	if len(p.List) == 0 {
		return PollutionSample{}, false
	}
	return p.List[len(p.List)-1], true
}

// PollutionSample is one timestamped air quality measurement.
type PollutionSample struct {
	Dt         int64      `json:"dt"`
	Main       AQIIndex   `json:"main"`
	Components Components `json:"components"`
}

// AQIIndex is OpenWeatherMap's 1-5 air quality index.
type AQIIndex struct {
	AQI int `json:"aqi"`
}

// Components are pollutant concentrations in µg/m³.
type Components struct {
	CO   float64 `json:"co"`
	NO   float64 `json:"no"`
	NO2  float64 `json:"no2"`
	O3   float64 `json:"o3"`
	SO2  float64 `json:"so2"`
	PM25 float64 `json:"pm2_5"`
	PM10 float64 `json:"pm10"`
	NH3  float64 `json:"nh3"`
}

// AQILevel names OpenWeatherMap's 1-5 air quality index values.
func AQILevel(index int) string {
	switch index {
	case 1:
		return "Good"
	case 2:
		return "Fair"
	case 3:
		return "Moderate"
	case 4:
		return "Poor"
	case 5:
		return "Very Poor"
	default:
		return "Unknown"
	}
}
