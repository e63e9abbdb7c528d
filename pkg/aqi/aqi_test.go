package aqi

import "testing"

func TestCalculatePM25(t *testing.T) {
	tests := []struct {
		name string
		pm25 float64
		want int32
	}{
		{"zero", 0, 0},
		{"good boundary", 12.0, 50},
		{"moderate", 35.4, 100},
		{"usg", 55.4, 150},
		{"unhealthy", 150.4, 200},
		{"very unhealthy", 250.4, 300},
		{"hazardous", 500.4, 500},
		{"beyond scale", 600, 500},
		{"negative clamps to zero", -5, 0},
		{"mid-range good", 6.0, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculatePM25(tt.pm25); got != tt.want {
				t.Errorf("CalculatePM25(%v) = %d, want %d", tt.pm25, got, tt.want)
			}
		})
	}
}

func TestCalculatePM10(t *testing.T) {
	tests := []struct {
		name string
		pm10 float64
		want int32
	}{
		{"zero", 0, 0},
		{"good boundary", 54, 50},
		{"moderate", 154, 100},
		{"usg", 254, 150},
		{"beyond scale", 700, 500},
		{"negative clamps to zero", -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculatePM10(tt.pm10); got != tt.want {
				t.Errorf("CalculatePM10(%v) = %d, want %d", tt.pm10, got, tt.want)
			}
		})
	}
}

func TestOverall(t *testing.T) {
	// PM10 at 154 µg/m³ indexes higher than PM2.5 at 10 µg/m³.
	if got := Overall(10, 154); got != 100 {
		t.Errorf("Overall(10, 154) = %d, want 100", got)
	}
	// PM2.5 dominates when its index is higher.
	if got := Overall(55.4, 10); got != 150 {
		t.Errorf("Overall(55.4, 10) = %d, want 150", got)
	}
}

func TestGetCategory(t *testing.T) {
	tests := []struct {
		aqi  int32
		want string
	}{
		{0, "Good"},
		{50, "Good"},
		{51, "Moderate"},
		{150, "Unhealthy for Sensitive Groups"},
		{200, "Unhealthy"},
		{300, "Very Unhealthy"},
		{500, "Hazardous"},
	}

	for _, tt := range tests {
		if got := GetCategory(tt.aqi); got != tt.want {
			t.Errorf("GetCategory(%d) = %q, want %q", tt.aqi, got, tt.want)
		}
	}
}
