package openweather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const currentWeatherPayload = `{
  "coord": {"lon": 13.82, "lat": 52.83},
  "weather": [{"id": 800, "main": "Clear", "description": "clear sky", "icon": "01d"}],
  "base": "stations",
  "main": {"temp": 21.3, "feels_like": 20.9, "temp_min": 19.8, "temp_max": 23.1, "pressure": 1015, "humidity": 53},
  "visibility": 10000,
  "wind": {"speed": 3.6, "deg": 250, "gust": 5.2},
  "clouds": {"all": 0},
  "rain": {"1h": 0.5},
  "dt": 1661870592,
  "sys": {"type": 2, "id": 2011538, "country": "DE", "sunrise": 1661834187, "sunset": 1661882248},
  "timezone": 7200,
  "id": 2856639,
  "name": "Eberswalde",
  "cod": 200
}`

const airPollutionPayload = `{
  "coord": {"lon": 13.82, "lat": 52.83},
  "list": [{
    "main": {"aqi": 2},
    "components": {"co": 201.94, "no": 0.02, "no2": 0.77, "o3": 68.66, "so2": 0.64, "pm2_5": 12.5, "pm10": 15.4, "nh3": 0.12},
    "dt": 1606147200
  }]
}`

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestCurrentWeather(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Write([]byte(currentWeatherPayload))
	}))

	conditions, err := client.CurrentWeather(context.Background(), 52.83, 13.82)
	if err != nil {
		t.Fatalf("CurrentWeather returned error: %v", err)
	}

	if gotPath != "/weather" {
		t.Errorf("request path = %q, want /weather", gotPath)
	}
	if got := gotQuery["appid"]; len(got) != 1 || got[0] != "test-key" {
		t.Errorf("appid param = %v, want test-key", got)
	}
	if got := gotQuery["units"]; len(got) != 1 || got[0] != "metric" {
		t.Errorf("units param = %v, want metric", got)
	}
	if got := gotQuery["lat"]; len(got) != 1 || got[0] != "52.83" {
		t.Errorf("lat param = %v, want 52.83", got)
	}

	if conditions.Name != "Eberswalde" {
		t.Errorf("Name = %q, want Eberswalde", conditions.Name)
	}
	if conditions.Main.Temp != 21.3 {
		t.Errorf("Temp = %v, want 21.3", conditions.Main.Temp)
	}
	if conditions.Description() != "clear sky" {
		t.Errorf("Description = %q, want clear sky", conditions.Description())
	}
	if conditions.ConditionID() != 800 {
		t.Errorf("ConditionID = %d, want 800", conditions.ConditionID())
	}
	if conditions.Rain == nil || conditions.Rain.OneHour != 0.5 {
		t.Errorf("Rain = %+v, want 0.5 over one hour", conditions.Rain)
	}
	if conditions.Snow != nil {
		t.Errorf("Snow = %+v, want nil", conditions.Snow)
	}
	if got := conditions.SunriseTime(); !got.Equal(time.Unix(1661834187, 0)) {
		t.Errorf("SunriseTime = %v", got)
	}
}

func TestAirPollution(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/air_pollution" {
			t.Errorf("request path = %q, want /air_pollution", r.URL.Path)
		}
		w.Write([]byte(airPollutionPayload))
	}))

	pollution, err := client.AirPollution(context.Background(), 52.83, 13.82)
	if err != nil {
		t.Fatalf("AirPollution returned error: %v", err)
	}

	sample, ok := pollution.Latest()
	if !ok {
		t.Fatal("expected a pollution sample")
	}
	if sample.Main.AQI != 2 {
		t.Errorf("AQI = %d, want 2", sample.Main.AQI)
	}
	if sample.Components.PM25 != 12.5 {
		t.Errorf("PM2.5 = %v, want 12.5", sample.Components.PM25)
	}
}

func TestAPIError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"cod": 401, "message": "Invalid API key"}`))
	}))

	_, err := client.CurrentWeather(context.Background(), 52.83, 13.82)
	if err == nil {
		t.Fatal("expected error for 401 response")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", apiErr.StatusCode)
	}
	if apiErr.Message != "Invalid API key" {
		t.Errorf("Message = %q, want Invalid API key", apiErr.Message)
	}
}

func TestAPIErrorStringCod(t *testing.T) {
	// OWM sends cod as a string for some errors; the message must still
	// come through.
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"cod": "404", "message": "city not found"}`))
	}))

	_, err := client.CurrentWeather(context.Background(), 0, 0)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.Message != "city not found" {
		t.Errorf("Message = %q, want city not found", apiErr.Message)
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("New with empty key = %v, want ErrMissingAPIKey", err)
	}
}

func TestAQILevel(t *testing.T) {
	tests := []struct {
		index int
		want  string
	}{
		{1, "Good"},
		{2, "Fair"},
		{3, "Moderate"},
		{4, "Poor"},
		{5, "Very Poor"},
		{0, "Unknown"},
		{6, "Unknown"},
	}
	for _, tt := range tests {
		if got := AQILevel(tt.index); got != tt.want {
			t.Errorf("AQILevel(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
}
