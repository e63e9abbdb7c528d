// Package report renders plain-text climate reports. Every renderer writes a
// fixed-width layout to an io.Writer so the same output serves terminals and
// text/plain HTTP responses.
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chrissnell/remoteclimate/pkg/aqi"
	"github.com/chrissnell/remoteclimate/pkg/co2"
	"github.com/chrissnell/remoteclimate/pkg/openweather"
	"github.com/chrissnell/remoteclimate/pkg/solar"
)

// ErrNoData is returned when a renderer is handed an empty series or record
// set.
var ErrNoData = errors.New("no data to report")

// CO2Summary writes the headline numbers for a CO2 series: time period,
// record count, overall and trailing ten-year trends, milestone crossings,
// and the most recent twelve months.
func CO2Summary(w io.Writer, series *co2.Series) error {
	first, ok := series.First()
	if !ok {
		return ErrNoData
	}
	last, _ := series.Last()
	total := series.TotalTrend()

	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintln(w, "MAUNA LOA CO2 DATA SUMMARY")
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "Time period: %s to %s\n", first.Date(), last.Date())
	fmt.Fprintf(w, "Total records: %d\n", series.Len())
	fmt.Fprintf(w, "First measurement: %.2f ppm (%d)\n", first.MonthlyAverage, first.Year)
	fmt.Fprintf(w, "Latest measurement: %.2f ppm (%d)\n", last.MonthlyAverage, last.Year)
	fmt.Fprintf(w, "Total increase: %.2f ppm over %.1f years\n", total.Increase, total.Years)
	fmt.Fprintf(w, "Average rate: %.2f ppm/year\n", total.Rate)
	if recent := series.TrailingTrend(10); recent.Years > 0 {
		fmt.Fprintf(w, "Recent 10-year trend: %.2f ppm/year\n", recent.Rate)
	}

	fmt.Fprintf(w, "\n%20s\n", "Key Milestones:")
	fmt.Fprintln(w, strings.Repeat("-", 30))
	for _, c := range series.Crossings(co2.DefaultMilestones) {
		if !c.Found {
			continue
		}
		fmt.Fprintf(w, "%15g ppm: %s\n", c.Threshold, c.Record.Date())
	}

	fmt.Fprintf(w, "\n%20s\n", "Recent 12 Months:")
	fmt.Fprintln(w, strings.Repeat("-", 30))
	for _, r := range series.Recent(12) {
		fmt.Fprintf(w, "%s: %7.2f ppm\n", r.Date(), r.MonthlyAverage)
	}

	fmt.Fprintln(w, "\nData source: NOAA Global Monitoring Laboratory")
	fmt.Fprintln(w, "Location: Mauna Loa Observatory, Hawaii")
	fmt.Fprintln(w, "Started by: Charles David Keeling (1958)")
	return nil
}

// CO2Table writes the monthly table in feed column order, one row per
// record, with a trailing "*" on rows whose average was interpolated. A
// positive limit restricts the table to the most recent rows; the summary
// statistics below it always cover the whole series.
func CO2Table(w io.Writer, series *co2.Series, limit int) error {
	if series.Len() == 0 {
		return ErrNoData
	}

	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w, "MAUNA LOA OBSERVATORY - ATMOSPHERIC CO2 CONCENTRATIONS")
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w, "Source: NOAA Global Monitoring Laboratory")
	fmt.Fprintln(w, "Units: parts per million (ppm)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Year  Month    Date     CO2(ppm)  Deseason.  Days  StdDev  Uncert.")
	fmt.Fprintln(w, strings.Repeat("-", 80))

	rows := series.Records
	if limit > 0 && limit < len(rows) {
		rows = rows[len(rows)-limit:]
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%4d    %2d   %8.4f  %7.2f   %7.2f   %3d   %5.2f   %5.2f%s\n",
			r.Year, r.Month, r.DecimalDate, r.MonthlyAverage, r.Deseasonalized,
			r.NumDays, r.StdDev, r.Uncertainty, interpolatedMark(r))
	}

	fmt.Fprintln(w, strings.Repeat("-", 80))
	fmt.Fprintln(w, "* = interpolated data")

	first, _ := series.First()
	last, _ := series.Last()
	total := series.TotalTrend()
	fmt.Fprintln(w, "\nSUMMARY STATISTICS:")
	fmt.Fprintf(w, "Time period: %s to %s\n", first.Date(), last.Date())
	fmt.Fprintf(w, "Total records: %d\n", series.Len())
	fmt.Fprintf(w, "First measurement: %.2f ppm\n", first.MonthlyAverage)
	fmt.Fprintf(w, "Latest measurement: %.2f ppm\n", last.MonthlyAverage)
	fmt.Fprintf(w, "Total increase: %.2f ppm over %.1f years\n", total.Increase, total.Years)
	fmt.Fprintf(w, "Average rate: %.2f ppm/year\n", total.Rate)
	if recent := series.TrailingTrend(10); recent.Years > 0 {
		fmt.Fprintf(w, "Recent 10-year trend: %.2f ppm/year\n", recent.Rate)
	}
	return nil
}

// CO2Recent writes a short table of the given records in the order passed,
// with interpolated rows marked.
func CO2Recent(w io.Writer, records []co2.Record) error {
	if len(records) == 0 {
		return ErrNoData
	}

	fmt.Fprintln(w, strings.Repeat("-", 50))
	fmt.Fprintf(w, "MOST RECENT %d MONTHS OF CO2 DATA\n", len(records))
	fmt.Fprintln(w, strings.Repeat("-", 50))
	fmt.Fprintln(w, "Date       CO2 (ppm)  Deseasonalized  Days  Uncertainty")
	fmt.Fprintln(w, strings.Repeat("-", 50))
	for _, r := range records {
		fmt.Fprintf(w, "%s    %8.2f    %8.2f     %3d    %6.2f%s\n",
			r.Date(), r.MonthlyAverage, r.Deseasonalized, r.NumDays,
			r.Uncertainty, interpolatedMark(r))
	}
	fmt.Fprintln(w, "\n* = interpolated data")
	return nil
}

// CO2Yearly writes yearly mean concentrations with the change from the
// prior listed year. The first row carries no change column.
func CO2Yearly(w io.Writer, means []co2.YearlyMean) error {
	if len(means) == 0 {
		return ErrNoData
	}

	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintln(w, "YEARLY AVERAGE CO2 CONCENTRATIONS")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintln(w, "Year    Average (ppm)   Change")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	for i, m := range means {
		if i == 0 {
			fmt.Fprintf(w, "%d    %10.2f\n", m.Year, m.Mean)
			continue
		}
		fmt.Fprintf(w, "%d    %10.2f  %+5.2f\n", m.Year, m.Mean, m.Change)
	}
	return nil
}

// Weather writes a current-conditions block. Pollution may be nil when air
// quality was not fetched. Units is the OpenWeatherMap unit system the
// conditions were requested with and selects the temperature and wind
// labels.
func Weather(w io.Writer, conditions *openweather.CurrentConditions, pollution *openweather.AirPollution, units string) error {
	if conditions == nil {
		return ErrNoData
	}

	tempUnit, windUnit := unitLabels(units)
	name := conditions.Name
	if name == "" {
		name = fmt.Sprintf("%.4f, %.4f", conditions.Coord.Lat, conditions.Coord.Lon)
	}

	// Sunrise and sunset come back in UTC; the timezone field is the
	// station's offset from UTC in seconds.
	loc := time.FixedZone("local", conditions.Timezone)

	fmt.Fprintf(w, "Weather in %s:\n", name)
	fmt.Fprintf(w, "  Temperature: %.1f%s (feels like %.1f%s)\n",
		conditions.Main.Temp, tempUnit, conditions.Main.FeelsLike, tempUnit)
	if desc := conditions.Description(); desc != "" {
		fmt.Fprintf(w, "  Condition: %s\n", desc)
	}
	fmt.Fprintf(w, "  Humidity: %.0f%%\n", conditions.Main.Humidity)
	fmt.Fprintf(w, "  Pressure: %.0f hPa\n", conditions.Main.Pressure)
	fmt.Fprintf(w, "  Wind: %.1f %s from %s\n",
		conditions.Wind.Speed, windUnit, cardinal(conditions.Wind.Deg))
	if conditions.Wind.Gust > 0 {
		fmt.Fprintf(w, "  Gusts: %.1f %s\n", conditions.Wind.Gust, windUnit)
	}
	fmt.Fprintf(w, "  Cloud cover: %d%%\n", conditions.Clouds.All)
	if conditions.Rain != nil && conditions.Rain.OneHour > 0 {
		fmt.Fprintf(w, "  Rain (last hour): %.1f mm\n", conditions.Rain.OneHour)
	}
	if conditions.Snow != nil && conditions.Snow.OneHour > 0 {
		fmt.Fprintf(w, "  Snow (last hour): %.1f mm\n", conditions.Snow.OneHour)
	}
	fmt.Fprintf(w, "  Sunrise: %s  Sunset: %s\n",
		conditions.SunriseTime().In(loc).Format("15:04"),
		conditions.SunsetTime().In(loc).Format("15:04"))
	if rise, set, ok := solar.DaylightTimes(conditions.ObservedAt(), conditions.Coord.Lat, conditions.Coord.Lon); ok {
		fmt.Fprintf(w, "  Daylight: %s\n", formatDaylight(set.Sub(rise)))
	}
	if pos := solar.SunPosition(conditions.Coord.Lat, conditions.Coord.Lon, conditions.ObservedAt()); pos.ElevationDeg > 0 {
		fmt.Fprintf(w, "  Sun: %.0f° above the horizon\n", pos.ElevationDeg)
	}
	fmt.Fprintf(w, "  Observed: %s\n",
		conditions.ObservedAt().In(loc).Format("2006-01-02 15:04"))

	if pollution == nil {
		return nil
	}
	sample, ok := pollution.Latest()
	if !ok {
		return nil
	}

	epa := aqi.Overall(sample.Components.PM25, sample.Components.PM10)
	fmt.Fprintf(w, "\nAir quality in %s:\n", name)
	fmt.Fprintf(w, "  OpenWeatherMap index: %d (%s)\n",
		sample.Main.AQI, openweather.AQILevel(sample.Main.AQI))
	fmt.Fprintf(w, "  US EPA AQI: %d (%s)\n", epa, aqi.GetCategory(epa))
	fmt.Fprintln(w, "  Pollutant levels (µg/m³):")
	fmt.Fprintf(w, "    CO:    %8.2f\n", sample.Components.CO)
	fmt.Fprintf(w, "    NO2:   %8.2f\n", sample.Components.NO2)
	fmt.Fprintf(w, "    O3:    %8.2f\n", sample.Components.O3)
	fmt.Fprintf(w, "    PM2.5: %8.2f\n", sample.Components.PM25)
	fmt.Fprintf(w, "    PM10:  %8.2f\n", sample.Components.PM10)
	fmt.Fprintf(w, "    SO2:   %8.2f\n", sample.Components.SO2)
	fmt.Fprintf(w, "    NH3:   %8.2f\n", sample.Components.NH3)
	return nil
}

// formatDaylight renders a duration as hours and minutes.
func formatDaylight(d time.Duration) string {
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	return fmt.Sprintf("%dh %02dm", h, m)
}

func interpolatedMark(r co2.Record) string {
	if r.Interpolated() {
		return "*"
	}
	return " "
}

func unitLabels(units string) (temp string, wind string) {
	switch units {
	case "imperial":
		return "°F", "mph"
	case "standard":
		return "K", "m/s"
	default:
		return "°C", "m/s"
	}
}

var cardinalDirections = []string{"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE", "S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW"}

func cardinal(deg float64) string {
	return cardinalDirections[int((deg+11.25)/22.5)%16]
}
