package co2

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientFetch(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.UserAgent = "remoteclimate-test"

	series, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if series.Len() != 5 {
		t.Errorf("fetched %d records, want 5", series.Len())
	}
	if gotUserAgent != "remoteclimate-test" {
		t.Errorf("user agent = %q, want remoteclimate-test", gotUserAgent)
	}
}

func TestClientFetchBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestClientFetchCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(server.URL)
	if _, err := client.Fetch(ctx); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestClientDefaultURL(t *testing.T) {
	client := NewClient("")
	if client.DataURL != "" {
		t.Errorf("DataURL = %q, want empty (default applied at fetch time)", client.DataURL)
	}
}
