package co2

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// DefaultDataURL is the NOAA GML monthly in-situ CO2 record for Mauna Loa.
const DefaultDataURL = "https://gml.noaa.gov/webdata/ccgg/trends/co2/co2_mm_mlo.txt"

// DefaultTimeout bounds a fetch when the caller supplies no HTTP client.
const DefaultTimeout = 30 * time.Second

// Client fetches and parses the monthly-mean feed.
type Client struct {
	// DataURL is the feed location. Empty means DefaultDataURL.
	DataURL string
	// HTTPClient overrides the default client and its DefaultTimeout.
	HTTPClient *http.Client
	// UserAgent is sent with each request when set.
	UserAgent string
}

// NewClient returns a client for the given feed URL. An empty URL selects
// DefaultDataURL.
func NewClient(dataURL string) *Client {
	return &Client{DataURL: dataURL}
}

// Fetch downloads the feed and parses it into a Series.
func (c *Client) Fetch(ctx context.Context) (*Series, error) {
	dataURL := c.DataURL
	if dataURL == "" {
		dataURL = DefaultDataURL
	}
	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dataURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating CO2 feed request: %v", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching CO2 feed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from CO2 feed", resp.StatusCode)
	}

	series, err := Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error parsing CO2 feed: %v", err)
	}
	return series, nil
}
