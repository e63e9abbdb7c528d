package responseformat

import (
	"encoding/csv"
	"encoding/json"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

type sampleRow struct {
	Year    int     `json:"year"`
	Month   int     `json:"month"`
	Average float64 `json:"monthly_average"`
	Note    string  `json:"-"`
}

type sampleTrend struct {
	Start sampleRow `json:"start"`
	End   sampleRow `json:"end"`
	Rate  float64   `json:"rate_ppm_per_year"`
}

// Reading is embedded by sampleBucket the way bucketed query rows embed the
// base observation type.
type Reading struct {
	Year    int     `json:"year"`
	Average float64 `json:"average"`
}

type sampleBucket struct {
	Bucket string `json:"bucket"`
	Reading
}

func TestWriteResponseDefaultsToJSON(t *testing.T) {
	f := NewFormatter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/co2/recent", nil)

	rows := []sampleRow{{Year: 2023, Month: 3, Average: 421.12}}
	if err := f.WriteResponse(w, req, rows, nil); err != nil {
		t.Fatalf("WriteResponse: %v", err)
	}

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if cors := w.Header().Get("Access-Control-Allow-Origin"); cors != "*" {
		t.Errorf("CORS header = %q, want *", cors)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decoding JSON body: %v", err)
	}
	if len(decoded) != 1 || decoded[0]["year"].(float64) != 2023 {
		t.Errorf("unexpected JSON payload: %v", decoded)
	}
}

func TestWriteResponseSetsHeaders(t *testing.T) {
	f := NewFormatter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/status", nil)

	headers := map[string]string{"Cache-Control": "max-age=60"}
	if err := f.WriteResponse(w, req, sampleRow{Year: 2023}, headers); err != nil {
		t.Fatalf("WriteResponse: %v", err)
	}
	if got := w.Header().Get("Cache-Control"); got != "max-age=60" {
		t.Errorf("Cache-Control = %q, want max-age=60", got)
	}
}

func TestWriteResponseMsgPackUsesJSONNames(t *testing.T) {
	f := NewFormatter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/co2/recent?format=msgpack", nil)

	if err := f.WriteResponse(w, req, sampleRow{Year: 1958, Month: 3, Average: 315.71}, nil); err != nil {
		t.Fatalf("WriteResponse: %v", err)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/x-msgpack" {
		t.Errorf("Content-Type = %q, want application/x-msgpack", ct)
	}

	var decoded map[string]any
	dec := msgpack.NewDecoder(w.Body)
	if err := dec.Decode(&decoded); err != nil {
		t.Fatalf("decoding msgpack body: %v", err)
	}
	if _, ok := decoded["monthly_average"]; !ok {
		t.Errorf("msgpack payload missing json-tagged key, got keys %v", keysOf(decoded))
	}
	if _, ok := decoded["Average"]; ok {
		t.Errorf("msgpack payload used Go field name instead of json tag")
	}
}

func TestWriteResponseCSVSlice(t *testing.T) {
	f := NewFormatter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/co2/recent?format=csv", nil)

	rows := []sampleRow{
		{Year: 1958, Month: 3, Average: 315.71, Note: "dropped"},
		{Year: 2023, Month: 3, Average: 421.12},
	}
	if err := f.WriteResponse(w, req, rows, nil); err != nil {
		t.Fatalf("WriteResponse: %v", err)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}

	records, err := csv.NewReader(w.Body).ReadAll()
	if err != nil {
		t.Fatalf("reading CSV body: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d CSV rows, want header + 2 data rows", len(records))
	}
	wantHeader := []string{"year", "month", "monthly_average"}
	if !reflect.DeepEqual(records[0], wantHeader) {
		t.Errorf("CSV header = %v, want %v", records[0], wantHeader)
	}
	if records[1][2] != "315.71" {
		t.Errorf("first data row average = %q, want 315.71", records[1][2])
	}
	if records[2][0] != "2023" {
		t.Errorf("second data row year = %q, want 2023", records[2][0])
	}
}

func TestWriteResponseCSVFlattensNestedStructs(t *testing.T) {
	f := NewFormatter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/co2/summary?format=csv", nil)

	trend := sampleTrend{
		Start: sampleRow{Year: 1958, Month: 3, Average: 315.71},
		End:   sampleRow{Year: 2023, Month: 3, Average: 421.12},
		Rate:  1.6217,
	}
	if err := f.WriteResponse(w, req, trend, nil); err != nil {
		t.Fatalf("WriteResponse: %v", err)
	}

	records, err := csv.NewReader(w.Body).ReadAll()
	if err != nil {
		t.Fatalf("reading CSV body: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d CSV rows, want header + 1 data row", len(records))
	}
	wantHeader := []string{
		"start_year", "start_month", "start_monthly_average",
		"end_year", "end_month", "end_monthly_average",
		"rate_ppm_per_year",
	}
	if !reflect.DeepEqual(records[0], wantHeader) {
		t.Errorf("CSV header = %v, want %v", records[0], wantHeader)
	}
	if records[1][6] != "1.6217" {
		t.Errorf("rate cell = %q, want 1.6217", records[1][6])
	}
}

func TestWriteResponseCSVEmbeddedStructNoPrefix(t *testing.T) {
	// Anonymous embedded fields flatten into the parent without a name
	// prefix, matching how encoding/json inlines them.
	f := NewFormatter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/co2/yearly?format=csv", nil)

	rows := []sampleBucket{{Bucket: "1959", Reading: Reading{Year: 1959, Average: 315.97}}}
	if err := f.WriteResponse(w, req, rows, nil); err != nil {
		t.Fatalf("WriteResponse: %v", err)
	}

	records, err := csv.NewReader(w.Body).ReadAll()
	if err != nil {
		t.Fatalf("reading CSV body: %v", err)
	}
	wantHeader := []string{"bucket", "year", "average"}
	if !reflect.DeepEqual(records[0], wantHeader) {
		t.Errorf("CSV header = %v, want %v", records[0], wantHeader)
	}
	if len(records) != 2 || records[1][1] != "1959" {
		t.Errorf("CSV rows = %v", records[1:])
	}
}

func TestWriteResponseCSVRejectsScalars(t *testing.T) {
	f := NewFormatter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/status?format=csv", nil)

	if err := f.WriteResponse(w, req, 42, nil); err == nil {
		t.Error("expected error rendering a scalar as CSV, got nil")
	}
}

func keysOf(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
