package solar

import (
	"testing"
	"time"
)

func TestDaylightTimes(t *testing.T) {
	tests := []struct {
		name     string
		date     time.Time
		lat, lon float64
		wantOK   bool
		minDay   time.Duration
		maxDay   time.Duration
	}{
		{
			name: "equator at the March equinox",
			date: time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC),
			lat:  0, lon: 0,
			wantOK: true,
			minDay: 11*time.Hour + 50*time.Minute,
			maxDay: 12*time.Hour + 20*time.Minute,
		},
		{
			name: "London summer solstice",
			date: time.Date(2025, 6, 21, 12, 0, 0, 0, time.UTC),
			lat:  51.5074, lon: -0.1278,
			wantOK: true,
			minDay: 16*time.Hour + 20*time.Minute,
			maxDay: 17 * time.Hour,
		},
		{
			name: "Seattle winter solstice",
			date: time.Date(2025, 12, 21, 12, 0, 0, 0, time.UTC),
			lat:  47.6, lon: -122.3,
			wantOK: true,
			minDay: 8 * time.Hour,
			maxDay: 9 * time.Hour,
		},
		{
			name: "Tromsø midnight sun",
			date: time.Date(2025, 6, 21, 12, 0, 0, 0, time.UTC),
			lat:  69.65, lon: 18.96,
		},
		{
			name: "Tromsø polar night",
			date: time.Date(2025, 12, 21, 12, 0, 0, 0, time.UTC),
			lat:  69.65, lon: 18.96,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rise, set, ok := DaylightTimes(tt.date, tt.lat, tt.lon)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !tt.wantOK {
				if !rise.IsZero() || !set.IsZero() {
					t.Errorf("polar case returned times %v, %v", rise, set)
				}
				return
			}
			if !rise.Before(set) {
				t.Fatalf("sunrise %v not before sunset %v", rise, set)
			}
			if day := set.Sub(rise); day < tt.minDay || day > tt.maxDay {
				t.Errorf("daylight = %v, want between %v and %v", day, tt.minDay, tt.maxDay)
			}
		})
	}
}

func TestDaylightTimesLondonSolstice(t *testing.T) {
	rise, set, ok := DaylightTimes(time.Date(2025, 6, 21, 12, 0, 0, 0, time.UTC), 51.5074, -0.1278)
	if !ok {
		t.Fatal("expected daylight in London")
	}

	wantRise := time.Date(2025, 6, 21, 3, 43, 0, 0, time.UTC)
	wantSet := time.Date(2025, 6, 21, 20, 21, 0, 0, time.UTC)
	if d := absDuration(rise.Sub(wantRise)); d > 10*time.Minute {
		t.Errorf("sunrise = %v, want about %v", rise, wantRise)
	}
	if d := absDuration(set.Sub(wantSet)); d > 10*time.Minute {
		t.Errorf("sunset = %v, want about %v", set, wantSet)
	}
}

func TestDaylightTimesYearRound(t *testing.T) {
	// Mid-latitudes never see polar conditions and day length stays inside
	// a predictable band.
	for day := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC); day.Year() == 2025; day = day.AddDate(0, 0, 1) {
		rise, set, ok := DaylightTimes(day, 45.0, 0.0)
		if !ok {
			t.Fatalf("%s: unexpected polar conditions at 45N", day.Format("2006-01-02"))
		}
		if !rise.Before(set) {
			t.Fatalf("%s: sunrise %v not before sunset %v", day.Format("2006-01-02"), rise, set)
		}
		if d := set.Sub(rise); d < 8*time.Hour || d > 16*time.Hour {
			t.Errorf("%s: day length %v out of range", day.Format("2006-01-02"), d)
		}
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
