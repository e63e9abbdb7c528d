package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/chrissnell/remoteclimate/pkg/co2"
	"github.com/chrissnell/remoteclimate/pkg/openweather"
)

func keelingSeries() *co2.Series {
	return &co2.Series{Records: []co2.Record{
		{Year: 1958, Month: 3, DecimalDate: 1958.2027, MonthlyAverage: 315.71, Deseasonalized: 314.44, NumDays: -1, StdDev: -9.99, Uncertainty: -0.99},
		{Year: 1988, Month: 5, DecimalDate: 1988.3699, MonthlyAverage: 351.30, Deseasonalized: 349.01, NumDays: 26, StdDev: 0.55, Uncertainty: 0.20},
		{Year: 2013, Month: 5, DecimalDate: 2013.3699, MonthlyAverage: 400.02, Deseasonalized: 397.40, NumDays: 27, StdDev: 0.61, Uncertainty: 0.22},
		{Year: 2022, Month: 5, DecimalDate: 2022.3699, MonthlyAverage: 421.00, Deseasonalized: 418.46, NumDays: 28, StdDev: 0.39, Uncertainty: 0.14},
		{Year: 2023, Month: 3, DecimalDate: 2023.2027, MonthlyAverage: 421.12, Deseasonalized: 420.33, NumDays: 28, StdDev: 0.42, Uncertainty: 0.15},
	}}
}

func TestCO2Summary(t *testing.T) {
	var buf bytes.Buffer
	if err := CO2Summary(&buf, keelingSeries()); err != nil {
		t.Fatalf("CO2Summary: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"MAUNA LOA CO2 DATA SUMMARY",
		"Time period: 1958-03 to 2023-03",
		"Total records: 5",
		"First measurement: 315.71 ppm (1958)",
		"Latest measurement: 421.12 ppm (2023)",
		"Total increase: 105.41 ppm over 65.0 years",
		"Average rate: 1.62 ppm/year",
		"Key Milestones:",
		"350 ppm: 1988-05",
		"400 ppm: 2013-05",
		"420 ppm: 2022-05",
		"Recent 12 Months:",
		"2023-03:  421.12 ppm",
		"NOAA Global Monitoring Laboratory",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q\n%s", want, out)
		}
	}
}

func TestCO2SummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := CO2Summary(&buf, &co2.Series{}); err == nil {
		t.Error("expected an error for an empty series")
	}
}

func TestCO2Table(t *testing.T) {
	var buf bytes.Buffer
	if err := CO2Table(&buf, keelingSeries(), 0); err != nil {
		t.Fatalf("CO2Table: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "MAUNA LOA OBSERVATORY - ATMOSPHERIC CO2 CONCENTRATIONS") {
		t.Errorf("missing banner\n%s", out)
	}
	if !strings.Contains(out, "Year  Month    Date     CO2(ppm)  Deseason.  Days  StdDev  Uncert.") {
		t.Errorf("missing column header\n%s", out)
	}
	// The 1958 row was interpolated and carries the trailing marker.
	if !strings.Contains(out, "1958     3   1958.2027   315.71    314.44    -1   -9.99   -0.99*") {
		t.Errorf("missing interpolated row\n%s", out)
	}
	if !strings.Contains(out, "2023     3   2023.2027   421.12    420.33    28    0.42    0.15 ") {
		t.Errorf("missing measured row\n%s", out)
	}
	if !strings.Contains(out, "* = interpolated data") {
		t.Errorf("missing footnote\n%s", out)
	}
	if !strings.Contains(out, "SUMMARY STATISTICS:") {
		t.Errorf("missing statistics block\n%s", out)
	}
	if !strings.Contains(out, "Total increase: 105.41 ppm over 65.0 years") {
		t.Errorf("missing total increase\n%s", out)
	}
}

func TestCO2TableLimit(t *testing.T) {
	var buf bytes.Buffer
	if err := CO2Table(&buf, keelingSeries(), 2); err != nil {
		t.Fatalf("CO2Table: %v", err)
	}
	out := buf.String()

	if strings.Contains(out, "1958.2027") {
		t.Errorf("limit 2 should drop the 1958 row\n%s", out)
	}
	if !strings.Contains(out, "2022.3699") || !strings.Contains(out, "2023.2027") {
		t.Errorf("limit 2 should keep the two newest rows\n%s", out)
	}
	// Statistics still describe the full series.
	if !strings.Contains(out, "Total records: 5") {
		t.Errorf("statistics should cover the whole series\n%s", out)
	}
	if !strings.Contains(out, "First measurement: 315.71 ppm") {
		t.Errorf("statistics should cover the whole series\n%s", out)
	}
}

func TestCO2Recent(t *testing.T) {
	series := keelingSeries()
	var buf bytes.Buffer
	if err := CO2Recent(&buf, series.Recent(3)); err != nil {
		t.Fatalf("CO2Recent: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "MOST RECENT 3 MONTHS OF CO2 DATA") {
		t.Errorf("missing banner\n%s", out)
	}
	if !strings.Contains(out, "2023-03      421.12") {
		t.Errorf("missing newest row\n%s", out)
	}
	if strings.Contains(out, "1958-03") {
		t.Errorf("oldest record should be outside the window\n%s", out)
	}
}

func TestCO2RecentMarksInterpolated(t *testing.T) {
	records := []co2.Record{
		{Year: 1964, Month: 2, DecimalDate: 1964.1257, MonthlyAverage: 320.07, Deseasonalized: 319.61, NumDays: -1, StdDev: -9.99, Uncertainty: -0.99},
	}
	var buf bytes.Buffer
	if err := CO2Recent(&buf, records); err != nil {
		t.Fatalf("CO2Recent: %v", err)
	}
	if !strings.Contains(buf.String(), "-0.99*") {
		t.Errorf("interpolated row should carry a star\n%s", buf.String())
	}
}

func TestCO2Yearly(t *testing.T) {
	means := []co2.YearlyMean{
		{Year: 1959, Mean: 315.98, Months: 12},
		{Year: 1960, Mean: 316.91, Months: 12, Change: 0.93},
		{Year: 1961, Mean: 317.65, Months: 12, Change: 0.74},
	}

	var buf bytes.Buffer
	if err := CO2Yearly(&buf, means); err != nil {
		t.Fatalf("CO2Yearly: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "YEARLY AVERAGE CO2 CONCENTRATIONS") {
		t.Errorf("missing banner\n%s", out)
	}
	// First row has no change column.
	if !strings.Contains(out, "1959        315.98\n") {
		t.Errorf("missing first row\n%s", out)
	}
	if !strings.Contains(out, "1960        316.91  +0.93") {
		t.Errorf("missing change column\n%s", out)
	}

	if err := CO2Yearly(&buf, nil); err == nil {
		t.Error("expected an error for empty means")
	}
}

func TestWeather(t *testing.T) {
	conditions := &openweather.CurrentConditions{
		Coord:   openweather.Coord{Lat: 52.3906, Lon: 13.0645},
		Weather: []openweather.Condition{{ID: 802, Main: "Clouds", Description: "scattered clouds"}},
		Main: openweather.Main{
			Temp:      21.4,
			FeelsLike: 20.9,
			Pressure:  1013,
			Humidity:  58,
		},
		Visibility: 10000,
		Wind:       openweather.Wind{Speed: 3.6, Deg: 220, Gust: 7.2},
		Clouds:     openweather.Clouds{All: 40},
		Dt:         1755770400,
		Sys:        openweather.Sys{Sunrise: 1755747660, Sunset: 1755799500},
		Timezone:   7200,
		Name:       "Potsdam",
	}
	pollution := &openweather.AirPollution{
		List: []openweather.PollutionSample{{
			Dt:   1755770400,
			Main: openweather.AQIIndex{AQI: 2},
			Components: openweather.Components{
				CO: 201.9, NO2: 8.4, O3: 68.7, PM25: 9.0, PM10: 12.6, SO2: 1.3, NH3: 0.8,
			},
		}},
	}

	var buf bytes.Buffer
	if err := Weather(&buf, conditions, pollution, "metric"); err != nil {
		t.Fatalf("Weather: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Weather in Potsdam:",
		"Temperature: 21.4°C (feels like 20.9°C)",
		"Condition: scattered clouds",
		"Humidity: 58%",
		"Pressure: 1013 hPa",
		"Wind: 3.6 m/s from SW",
		"Gusts: 7.2 m/s",
		"Cloud cover: 40%",
		"Sunrise:",
		"Daylight: 14h",
		"above the horizon",
		"OpenWeatherMap index: 2 (Fair)",
		"US EPA AQI: 38 (Good)",
		"PM2.5:     9.00",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("weather report missing %q\n%s", want, out)
		}
	}
}

func TestWeatherWithoutPollution(t *testing.T) {
	conditions := &openweather.CurrentConditions{
		Main: openweather.Main{Temp: 48.2, FeelsLike: 45.1, Pressure: 1019, Humidity: 71},
		Wind: openweather.Wind{Speed: 5.0, Deg: 0},
	}

	var buf bytes.Buffer
	if err := Weather(&buf, conditions, nil, "imperial"); err != nil {
		t.Fatalf("Weather: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "Temperature: 48.2°F") {
		t.Errorf("imperial units not applied\n%s", out)
	}
	if !strings.Contains(out, "Wind: 5.0 mph from N") {
		t.Errorf("wind line wrong\n%s", out)
	}
	if strings.Contains(out, "Air quality") {
		t.Errorf("no pollution passed but air quality rendered\n%s", out)
	}
	// No station name falls back to coordinates.
	if !strings.Contains(out, "Weather in 0.0000, 0.0000:") {
		t.Errorf("coordinate fallback missing\n%s", out)
	}
}

func TestCardinal(t *testing.T) {
	tests := []struct {
		deg  float64
		want string
	}{
		{0, "N"},
		{11.24, "N"},
		{11.26, "NNE"},
		{90, "E"},
		{180, "S"},
		{220, "SW"},
		{270, "W"},
		{359, "N"},
	}
	for _, tt := range tests {
		if got := cardinal(tt.deg); got != tt.want {
			t.Errorf("cardinal(%v) = %q, want %q", tt.deg, got, tt.want)
		}
	}
}
