package co2

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Series holds a parsed data file: the data rows in file order plus the
// comment header that precedes them.
type Series struct {
	Records []Record `json:"records"`
	Header  []string `json:"-"`
}

// Parse reads a monthly-mean data file. Comment lines (starting with "#" or
// "-") are collected into the series header, blank lines are dropped, and
// rows that do not parse cleanly are skipped. The returned error is non-nil
// only when the reader itself fails.
func Parse(r io.Reader) (*Series, error) {
	series := &Series{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			series.Header = append(series.Header, line)
			continue
		}
		rec, ok := ParseLine(line)
		if !ok {
			continue
		}
		series.Records = append(series.Records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading CO2 data: %w", err)
	}

	return series, nil
}

// ParseLine parses a single data row. It requires at least eight
// whitespace-delimited fields in feed column order: year, month, decimal
// date, monthly average, deseasonalized average, day count, standard
// deviation, uncertainty. Extra trailing fields are ignored. The second
// return is false when the row is malformed.
func ParseLine(line string) (Record, bool) {
	f := strings.Fields(line)
	if len(f) < 8 {
		return Record{}, false
	}

	year, err1 := strconv.Atoi(f[0])
	month, err2 := strconv.Atoi(f[1])
	decimalDate, err3 := strconv.ParseFloat(f[2], 64)
	average, err4 := strconv.ParseFloat(f[3], 64)
	deseasonalized, err5 := strconv.ParseFloat(f[4], 64)
	numDays, err6 := strconv.Atoi(f[5])
	stdDev, err7 := strconv.ParseFloat(f[6], 64)
	uncertainty, err8 := strconv.ParseFloat(f[7], 64)
	for _, err := range []error{err1, err2, err3, err4, err5, err6, err7, err8} {
		if err != nil {
			return Record{}, false
		}
	}

	return Record{
		Year:           year,
		Month:          month,
		DecimalDate:    decimalDate,
		MonthlyAverage: average,
		Deseasonalized: deseasonalized,
		NumDays:        numDays,
		StdDev:         stdDev,
		Uncertainty:    uncertainty,
	}, true
}

// Len returns the number of data rows in the series.
func (s *Series) Len() int {
	return len(s.Records)
}

// First returns the earliest record in file order.
func (s *Series) First() (Record, bool) {
	if len(s.Records) == 0 {
		return Record{}, false
	}
	return s.Records[0], true
}

// Last returns the latest record in file order.
func (s *Series) Last() (Record, bool) {
	if len(s.Records) == 0 {
		return Record{}, false
	}
	return s.Records[len(s.Records)-1], true
}
