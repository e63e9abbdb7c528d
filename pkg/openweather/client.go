// Package openweather is a typed client for the OpenWeatherMap current
// weather and air pollution APIs.
package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultBaseURL is the OpenWeatherMap API root.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

// DefaultTimeout bounds API requests when the config supplies no timeout.
const DefaultTimeout = 30 * time.Second

// ErrMissingAPIKey is returned by New when no API key is configured.
var ErrMissingAPIKey = errors.New("openweathermap: API key is required")

// Config configures a Client. APIKey is required; everything else has a
// default.
type Config struct {
	APIKey   string
	BaseURL  string        // DefaultBaseURL when empty
	Units    string        // "metric" when empty
	Language string        // API default when empty
	Timeout  time.Duration // DefaultTimeout when zero
}

// Client calls the OpenWeatherMap API.
type Client struct {
	cfg    Config
	client *http.Client
}

// New creates a Client from cfg.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Units == "" {
		cfg.Units = "metric"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

// CurrentWeather fetches current conditions for a coordinate.
func (c *Client) CurrentWeather(ctx context.Context, lat, lon float64) (*CurrentConditions, error) {
	v := c.query(lat, lon)
	v.Set("units", c.cfg.Units)
	if c.cfg.Language != "" {
		v.Set("lang", c.cfg.Language)
	}

	var conditions CurrentConditions
	if err := c.get(ctx, "/weather", v, &conditions); err != nil {
		return nil, err
	}
	return &conditions, nil
}

// AirPollution fetches the current air quality sample for a coordinate.
func (c *Client) AirPollution(ctx context.Context, lat, lon float64) (*AirPollution, error) {
	var pollution AirPollution
	if err := c.get(ctx, "/air_pollution", c.query(lat, lon), &pollution); err != nil {
		return nil, err
	}
	return &pollution, nil
}

func (c *Client) query(lat, lon float64) url.Values {
	v := url.Values{}
	v.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	v.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	v.Set("appid", c.cfg.APIKey)
	return v
}

func (c *Client) get(ctx context.Context, path string, v url.Values, out any) error {
	reqURL := fmt.Sprint(c.cfg.BaseURL, path, "?", v.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("error creating OpenWeatherMap request: %v", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("error making request to OpenWeatherMap: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return newAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("unable to decode OpenWeatherMap response: %v", err)
	}
	return nil
}

// APIError is a non-200 response from the API, carrying the HTTP status and
// the message from the error envelope when one was sent.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("openweathermap: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("openweathermap: unexpected status %d", e.StatusCode)
}

func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	// The error envelope's message field is best-effort; the cod field is
	// sometimes a number and sometimes a string, so only message is read.
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
		apiErr.Message = envelope.Message
	}
	return apiErr
}
