package co2

import (
	"strings"
	"testing"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Record
		ok   bool
	}{
		{
			name: "measured row",
			line: "2023   3    2023.2027      421.12      420.33     28      0.42     0.15",
			want: Record{Year: 2023, Month: 3, DecimalDate: 2023.2027, MonthlyAverage: 421.12, Deseasonalized: 420.33, NumDays: 28, StdDev: 0.42, Uncertainty: 0.15},
			ok:   true,
		},
		{
			name: "interpolated row",
			line: "1958   3    1958.2027      315.71      314.44     -1     -9.99    -0.99",
			want: Record{Year: 1958, Month: 3, DecimalDate: 1958.2027, MonthlyAverage: 315.71, Deseasonalized: 314.44, NumDays: -1, StdDev: -9.99, Uncertainty: -0.99},
			ok:   true,
		},
		{
			name: "extra trailing fields ignored",
			line: "1980 6 1980.4563 341.47 339.99 21 0.55 0.21 extra junk",
			want: Record{Year: 1980, Month: 6, DecimalDate: 1980.4563, MonthlyAverage: 341.47, Deseasonalized: 339.99, NumDays: 21, StdDev: 0.55, Uncertainty: 0.21},
			ok:   true,
		},
		{
			name: "too few fields",
			line: "1958 3 1958.2027 315.71",
			ok:   false,
		},
		{
			name: "non-numeric year",
			line: "19x8 3 1958.2027 315.71 314.44 -1 -9.99 -0.99",
			ok:   false,
		},
		{
			name: "non-numeric average",
			line: "1958 3 1958.2027 n/a 314.44 -1 -9.99 -0.99",
			ok:   false,
		},
		{
			name: "fractional day count",
			line: "1958 3 1958.2027 315.71 314.44 2.5 -9.99 -0.99",
			ok:   false,
		},
		{
			name: "empty line",
			line: "",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLine(tt.line)
			if ok != tt.ok {
				t.Fatalf("ParseLine(%q) ok = %v, want %v", tt.line, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("ParseLine(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseLineInterpolatedFlag(t *testing.T) {
	rec, ok := ParseLine("1964   2    1964.1257      320.07      319.62     -1     -9.99    -0.99")
	if !ok {
		t.Fatal("expected row to parse")
	}
	if !rec.Interpolated() {
		t.Error("negative day count should mark record interpolated")
	}

	rec, ok = ParseLine("2020 1 2020.0410 413.61 413.30 29 0.32 0.12")
	if !ok {
		t.Fatal("expected row to parse")
	}
	if rec.Interpolated() {
		t.Error("positive day count should not mark record interpolated")
	}
}

const sampleFeed = `# --------------------------------------------------------------------
# USE OF NOAA GML DATA
#
# Data from March 1958 through April 1974 have been obtained by C. David Keeling
# --------------------------------------------------------------------
#
# year month decimal_date average deseasonalized ndays sdev unc
1958   3    1958.2027      315.71      314.44     -1     -9.99    -0.99
1958   4    1958.2877      317.45      315.16     -1     -9.99    -0.99

1958   5    1958.3699      317.51      314.71     -1     -9.99    -0.99
1958   6    1958.4548      bad-row     315.19     -1     -9.99    -0.99
1958   7    1958.5370      315.86      315.19     -1     -9.99    -0.99
short line here
1958   8    1958.6219      314.93      316.19     -1     -9.99    -0.99
`

func TestParse(t *testing.T) {
	series, err := Parse(strings.NewReader(sampleFeed))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if got, want := series.Len(), 5; got != want {
		t.Fatalf("parsed %d records, want %d", got, want)
	}

	// Malformed rows are dropped silently and order is preserved.
	wantMonths := []int{3, 4, 5, 7, 8}
	for i, r := range series.Records {
		if r.Month != wantMonths[i] {
			t.Errorf("record %d month = %d, want %d", i, r.Month, wantMonths[i])
		}
	}

	if got, want := len(series.Header), 7; got != want {
		t.Errorf("captured %d header lines, want %d", got, want)
	}
	if !strings.Contains(series.Header[1], "USE OF NOAA GML DATA") {
		t.Errorf("unexpected header line: %q", series.Header[1])
	}

	first, ok := series.First()
	if !ok || first.Month != 3 {
		t.Errorf("First() = %+v, %v; want March row", first, ok)
	}
	last, ok := series.Last()
	if !ok || last.Month != 8 {
		t.Errorf("Last() = %+v, %v; want August row", last, ok)
	}
}

func TestParseEmpty(t *testing.T) {
	series, err := Parse(strings.NewReader("# header only\n"))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if series.Len() != 0 {
		t.Errorf("expected no records, got %d", series.Len())
	}
	if _, ok := series.First(); ok {
		t.Error("First() on empty series should report not ok")
	}
	if _, ok := series.Last(); ok {
		t.Error("Last() on empty series should report not ok")
	}
}
