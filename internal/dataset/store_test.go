package dataset

import (
	"errors"
	"testing"

	"github.com/chrissnell/remoteclimate/pkg/co2"
)

func testSeries(n int) *co2.Series {
	s := &co2.Series{}
	for i := 0; i < n; i++ {
		s.Records = append(s.Records, co2.Record{
			Year:           1958 + i,
			Month:          3,
			MonthlyAverage: 315.71 + float64(i),
			NumDays:        25,
		})
	}
	return s
}

func TestStoreStartsEmpty(t *testing.T) {
	s := NewStore()

	if s.Loaded() {
		t.Error("new store reports loaded")
	}
	if s.Series() != nil {
		t.Error("new store returned a non-nil series")
	}

	st := s.Status()
	if st.Loaded || st.Records != 0 || st.FetchCount != 0 {
		t.Errorf("unexpected empty status: %+v", st)
	}
}

func TestStoreUpdate(t *testing.T) {
	s := NewStore()
	s.Update(testSeries(3), "https://example.com/co2.txt")

	if !s.Loaded() {
		t.Fatal("store not loaded after update")
	}
	if got := s.Series().Len(); got != 3 {
		t.Errorf("series length = %d, want 3", got)
	}

	st := s.Status()
	if st.Records != 3 {
		t.Errorf("status records = %d, want 3", st.Records)
	}
	if st.SourceURL != "https://example.com/co2.txt" {
		t.Errorf("status source URL = %q", st.SourceURL)
	}
	if st.FetchCount != 1 {
		t.Errorf("fetch count = %d, want 1", st.FetchCount)
	}
	if st.FetchedAt.IsZero() {
		t.Error("fetched-at timestamp not set")
	}
}

func TestStoreErrorKeepsLastGoodSeries(t *testing.T) {
	s := NewStore()
	s.Update(testSeries(2), "https://example.com/co2.txt")
	s.SetError(errors.New("connection refused"))

	if !s.Loaded() {
		t.Error("store lost its series after a failed refresh")
	}
	if got := s.Series().Len(); got != 2 {
		t.Errorf("series length = %d, want 2", got)
	}

	st := s.Status()
	if st.LastError != "connection refused" {
		t.Errorf("last error = %q, want connection refused", st.LastError)
	}
	if st.LastErrorAt.IsZero() {
		t.Error("last error timestamp not set")
	}
}

func TestStoreErrorClearedByUpdate(t *testing.T) {
	s := NewStore()
	s.SetError(errors.New("timeout"))
	s.Update(testSeries(1), "https://example.com/co2.txt")

	if st := s.Status(); st.LastError != "" {
		t.Errorf("last error not cleared by update: %q", st.LastError)
	}
}

func TestStoreFetchCountAccumulates(t *testing.T) {
	s := NewStore()
	for i := 0; i < 3; i++ {
		s.Update(testSeries(1), "https://example.com/co2.txt")
	}
	if st := s.Status(); st.FetchCount != 3 {
		t.Errorf("fetch count = %d, want 3", st.FetchCount)
	}
}
