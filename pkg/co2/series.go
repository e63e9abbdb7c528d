package co2

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DefaultMilestones are the ppm thresholds reported by the summary tools.
var DefaultMilestones = []float64{350, 400, 420}

// Trend is the change in monthly average CO2 between two records.
type Trend struct {
	Start    Record  `json:"start"`
	End      Record  `json:"end"`
	Increase float64 `json:"increase_ppm"`
	Years    float64 `json:"years"`
	Rate     float64 `json:"rate_ppm_per_year"`
}

// YearlyMean is the mean of a calendar year's monthly averages. Change is
// the difference from the previous year in the returned list and is zero
// for the first entry.
type YearlyMean struct {
	Year   int     `json:"year"`
	Mean   float64 `json:"mean_ppm"`
	Months int     `json:"months"`
	Change float64 `json:"change_ppm"`
}

// Crossing is the first record at or above a ppm threshold.
type Crossing struct {
	Threshold float64 `json:"threshold_ppm"`
	Record    Record  `json:"record"`
	Found     bool    `json:"found"`
}

func newTrend(start, end Record) Trend {
	t := Trend{
		Start:    start,
		End:      end,
		Increase: end.MonthlyAverage - start.MonthlyAverage,
		Years:    end.DecimalDate - start.DecimalDate,
	}
	if t.Years > 0 {
		t.Rate = t.Increase / t.Years
	}
	return t
}

// TotalTrend reports the change from the first record to the last. Elapsed
// time is the difference of the two decimal dates. An empty series yields a
// zero Trend.
func (s *Series) TotalTrend() Trend {
	first, ok := s.First()
	if !ok {
		return Trend{}
	}
	last, _ := s.Last()
	return newTrend(first, last)
}

// TrailingTrend reports the change across the trailing window: records whose
// year is within windowYears of the last record's year. A window holding
// fewer than two records yields a zero Trend.
func (s *Series) TrailingTrend(windowYears int) Trend {
	recent := s.trailing(windowYears)
	if len(recent) < 2 {
		return Trend{}
	}
	return newTrend(recent[0], recent[len(recent)-1])
}

func (s *Series) trailing(windowYears int) []Record {
	last, ok := s.Last()
	if !ok {
		return nil
	}
	cutoff := last.Year - windowYears
	var recent []Record
	for _, r := range s.Records {
		if r.Year >= cutoff {
			recent = append(recent, r)
		}
	}
	return recent
}

// FitRate returns the least-squares growth rate in ppm per year over the
// trailing window, regressing monthly average on decimal date. A window of
// zero fits the whole series. Fewer than two points yields zero.
func (s *Series) FitRate(windowYears int) float64 {
	var recs []Record
	if windowYears == 0 {
		recs = s.Records
	} else {
		recs = s.trailing(windowYears)
	}
	if len(recs) < 2 {
		return 0
	}

	xs := make([]float64, len(recs))
	ys := make([]float64, len(recs))
	for i, r := range recs {
		xs[i] = r.DecimalDate
		ys[i] = r.MonthlyAverage
	}
	_, slope := stat.LinearRegression(xs, ys, nil, false)
	return slope
}

// YearlyMeans groups records by calendar year and averages each year's
// monthly values. Years outside [startYear, endYear] are excluded; a zero
// bound leaves that side open. Results are sorted ascending by year.
func (s *Series) YearlyMeans(startYear, endYear int) []YearlyMean {
	type accum struct {
		sum float64
		n   int
	}
	byYear := make(map[int]*accum)
	for _, r := range s.Records {
		if startYear != 0 && r.Year < startYear {
			continue
		}
		if endYear != 0 && r.Year > endYear {
			continue
		}
		a := byYear[r.Year]
		if a == nil {
			a = &accum{}
			byYear[r.Year] = a
		}
		a.sum += r.MonthlyAverage
		a.n++
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	means := make([]YearlyMean, 0, len(years))
	for i, y := range years {
		a := byYear[y]
		m := YearlyMean{Year: y, Mean: a.sum / float64(a.n), Months: a.n}
		if i > 0 {
			m.Change = m.Mean - means[i-1].Mean
		}
		means = append(means, m)
	}
	return means
}

// FirstCrossing returns the first record in file order whose monthly average
// reaches threshold. Later dips below the threshold do not matter.
func (s *Series) FirstCrossing(threshold float64) Crossing {
	for _, r := range s.Records {
		if r.MonthlyAverage >= threshold {
			return Crossing{Threshold: threshold, Record: r, Found: true}
		}
	}
	return Crossing{Threshold: threshold}
}

// Crossings returns FirstCrossing for each threshold.
func (s *Series) Crossings(thresholds []float64) []Crossing {
	crossings := make([]Crossing, 0, len(thresholds))
	for _, t := range thresholds {
		crossings = append(crossings, s.FirstCrossing(t))
	}
	return crossings
}

// Recent returns the last n records in file order, or all of them when the
// series is shorter.
func (s *Series) Recent(n int) []Record {
	if n <= 0 {
		return nil
	}
	if n > len(s.Records) {
		n = len(s.Records)
	}
	return s.Records[len(s.Records)-n:]
}

// Year returns all records for a calendar year.
func (s *Series) Year(year int) []Record {
	var recs []Record
	for _, r := range s.Records {
		if r.Year == year {
			recs = append(recs, r)
		}
	}
	return recs
}

// Month returns the record for a specific year and month.
func (s *Series) Month(year, month int) (Record, bool) {
	for _, r := range s.Records {
		if r.Year == year && r.Month == month {
			return r, true
		}
	}
	return Record{}, false
}
