package co2

import (
	"math"
	"testing"
)

func rec(year, month int, decimalDate, average float64) Record {
	return Record{
		Year:           year,
		Month:          month,
		DecimalDate:    decimalDate,
		MonthlyAverage: average,
		NumDays:        25,
	}
}

func TestTotalTrend(t *testing.T) {
	series := &Series{Records: []Record{
		{Year: 1958, Month: 3, DecimalDate: 1958.2027, MonthlyAverage: 315.71, Deseasonalized: 314.44, NumDays: -1, StdDev: -9.99, Uncertainty: -0.99},
		{Year: 2023, Month: 3, DecimalDate: 2023.2027, MonthlyAverage: 421.12, Deseasonalized: 420.33, NumDays: 28, StdDev: 0.42, Uncertainty: 0.15},
	}}

	trend := series.TotalTrend()
	if math.Abs(trend.Increase-105.41) > 0.001 {
		t.Errorf("Increase = %.4f, want 105.41", trend.Increase)
	}
	if math.Abs(trend.Years-65.0) > 1e-6 {
		t.Errorf("Years = %.6f, want 65.0", trend.Years)
	}
	if math.Abs(trend.Rate-1.6217) > 0.0005 {
		t.Errorf("Rate = %.4f, want 1.6217", trend.Rate)
	}
}

func TestTotalTrendEmpty(t *testing.T) {
	series := &Series{}
	trend := series.TotalTrend()
	if trend.Increase != 0 || trend.Years != 0 || trend.Rate != 0 {
		t.Errorf("empty series trend = %+v, want zero", trend)
	}
}

func TestTrailingTrend(t *testing.T) {
	series := &Series{Records: []Record{
		rec(2000, 6, 2000.45, 369.5),
		rec(2010, 6, 2010.45, 392.0),
		rec(2015, 6, 2015.45, 402.8),
		rec(2020, 6, 2020.45, 416.4),
	}}

	trend := series.TrailingTrend(10)
	if trend.Start.Year != 2010 {
		t.Errorf("window start year = %d, want 2010", trend.Start.Year)
	}
	if trend.End.Year != 2020 {
		t.Errorf("window end year = %d, want 2020", trend.End.Year)
	}
	if math.Abs(trend.Increase-24.4) > 1e-9 {
		t.Errorf("Increase = %.4f, want 24.4", trend.Increase)
	}
	if math.Abs(trend.Rate-2.44) > 1e-9 {
		t.Errorf("Rate = %.4f, want 2.44", trend.Rate)
	}
}

func TestTrailingTrendTooFewRecords(t *testing.T) {
	series := &Series{Records: []Record{
		rec(2000, 6, 2000.45, 369.5),
		rec(2020, 6, 2020.45, 416.4),
	}}

	// Only the 2020 record falls inside a 5-year window.
	trend := series.TrailingTrend(5)
	if trend.Years != 0 || trend.Rate != 0 {
		t.Errorf("single-record window trend = %+v, want zero", trend)
	}
}

func TestFitRate(t *testing.T) {
	// Perfectly linear series: 2 ppm per year.
	series := &Series{}
	for i := 0; i < 24; i++ {
		decimalDate := 2000.0 + float64(i)/12.0
		series.Records = append(series.Records,
			rec(2000+i/12, i%12+1, decimalDate, 370.0+2.0*float64(i)/12.0))
	}

	slope := series.FitRate(0)
	if math.Abs(slope-2.0) > 1e-9 {
		t.Errorf("FitRate(0) = %.6f, want 2.0", slope)
	}

	if got := (&Series{}).FitRate(0); got != 0 {
		t.Errorf("FitRate on empty series = %v, want 0", got)
	}
}

func TestYearlyMeans(t *testing.T) {
	series := &Series{Records: []Record{
		rec(1959, 1, 1959.04, 315.0),
		rec(1959, 2, 1959.12, 316.0),
		rec(1959, 3, 1959.20, 317.0),
		rec(1960, 1, 1960.04, 317.5),
		rec(1961, 7, 1961.54, 318.3),
	}}

	means := series.YearlyMeans(0, 0)
	if len(means) != 3 {
		t.Fatalf("got %d years, want 3", len(means))
	}

	if means[0].Year != 1959 || math.Abs(means[0].Mean-316.0) > 1e-9 {
		t.Errorf("1959 mean = %+v, want 316.0", means[0])
	}
	if means[0].Months != 3 {
		t.Errorf("1959 months = %d, want 3", means[0].Months)
	}
	if means[0].Change != 0 {
		t.Errorf("first year change = %v, want 0", means[0].Change)
	}

	// A single-record year averages to that record's value.
	if means[1].Year != 1960 || math.Abs(means[1].Mean-317.5) > 1e-9 {
		t.Errorf("1960 mean = %+v, want 317.5", means[1])
	}
	if math.Abs(means[1].Change-1.5) > 1e-9 {
		t.Errorf("1960 change = %v, want 1.5", means[1].Change)
	}
	if math.Abs(means[2].Change-0.8) > 1e-9 {
		t.Errorf("1961 change = %v, want 0.8", means[2].Change)
	}
}

func TestYearlyMeansRange(t *testing.T) {
	series := &Series{Records: []Record{
		rec(1959, 1, 1959.04, 315.0),
		rec(1960, 1, 1960.04, 316.0),
		rec(1961, 1, 1961.04, 317.0),
		rec(1962, 1, 1962.04, 318.0),
	}}

	tests := []struct {
		name       string
		start, end int
		wantYears  []int
	}{
		{"open range", 0, 0, []int{1959, 1960, 1961, 1962}},
		{"start bound", 1961, 0, []int{1961, 1962}},
		{"end bound", 0, 1960, []int{1959, 1960}},
		{"both bounds", 1960, 1961, []int{1960, 1961}},
		{"empty range", 1970, 1980, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			means := series.YearlyMeans(tt.start, tt.end)
			if len(means) != len(tt.wantYears) {
				t.Fatalf("got %d years, want %d", len(means), len(tt.wantYears))
			}
			for i, y := range tt.wantYears {
				if means[i].Year != y {
					t.Errorf("year %d = %d, want %d", i, means[i].Year, y)
				}
			}
		})
	}
}

func TestFirstCrossing(t *testing.T) {
	series := &Series{Records: []Record{
		rec(1988, 4, 1988.29, 349.9),
		rec(1988, 5, 1988.37, 350.1),
		rec(1988, 6, 1988.45, 349.5),
		rec(1989, 5, 1989.37, 351.2),
	}}

	crossing := series.FirstCrossing(350)
	if !crossing.Found {
		t.Fatal("expected a crossing")
	}
	// First record at or above the threshold wins even though a later
	// month dips back below it.
	if crossing.Record.Year != 1988 || crossing.Record.Month != 5 {
		t.Errorf("crossing at %s, want 1988-05", crossing.Record.Date())
	}

	crossing = series.FirstCrossing(400)
	if crossing.Found {
		t.Errorf("unexpected crossing at %s", crossing.Record.Date())
	}
}

func TestCrossings(t *testing.T) {
	series := &Series{Records: []Record{
		rec(1986, 5, 1986.37, 349.0),
		rec(1988, 5, 1988.37, 351.3),
		rec(2013, 5, 2013.37, 400.0),
		rec(2022, 5, 2022.37, 421.0),
	}}

	crossings := series.Crossings(DefaultMilestones)
	if len(crossings) != 3 {
		t.Fatalf("got %d crossings, want 3", len(crossings))
	}
	wantYears := []int{1988, 2013, 2022}
	for i, c := range crossings {
		if !c.Found {
			t.Errorf("threshold %.0f not found", c.Threshold)
			continue
		}
		if c.Record.Year != wantYears[i] {
			t.Errorf("threshold %.0f crossed %d, want %d", c.Threshold, c.Record.Year, wantYears[i])
		}
	}
}

func TestRecent(t *testing.T) {
	series := &Series{Records: []Record{
		rec(2022, 1, 2022.04, 418.0),
		rec(2022, 2, 2022.12, 419.0),
		rec(2022, 3, 2022.20, 420.0),
	}}

	recent := series.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("got %d records, want 2", len(recent))
	}
	if recent[0].Month != 2 || recent[1].Month != 3 {
		t.Errorf("Recent(2) months = %d, %d; want 2, 3", recent[0].Month, recent[1].Month)
	}

	if got := series.Recent(10); len(got) != 3 {
		t.Errorf("Recent(10) on 3 records = %d records, want 3", len(got))
	}
	if got := series.Recent(0); got != nil {
		t.Errorf("Recent(0) = %v, want nil", got)
	}
}

func TestYearAndMonthLookup(t *testing.T) {
	series := &Series{Records: []Record{
		rec(1999, 11, 1999.87, 367.0),
		rec(1999, 12, 1999.96, 368.0),
		rec(2000, 1, 2000.04, 369.0),
	}}

	if got := series.Year(1999); len(got) != 2 {
		t.Errorf("Year(1999) = %d records, want 2", len(got))
	}
	if got := series.Year(1990); got != nil {
		t.Errorf("Year(1990) = %v, want nil", got)
	}

	r, ok := series.Month(2000, 1)
	if !ok || r.MonthlyAverage != 369.0 {
		t.Errorf("Month(2000, 1) = %+v, %v", r, ok)
	}
	if _, ok := series.Month(2000, 2); ok {
		t.Error("Month(2000, 2) should not be found")
	}
}
