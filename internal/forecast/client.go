// Package forecast derives a beekeeping forecast from Open-Meteo conditions.
package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// DefaultURL is the Open-Meteo forecast endpoint
const DefaultURL = "https://api.open-meteo.com/v1/forecast"

// Conditions are the Open-Meteo values the forecast is derived from. Nil means not reported.
type Conditions struct {
	Current struct {
		Temperature   *float64 `json:"temperature_2m"`
		Humidity      *float64 `json:"relative_humidity_2m"`
		WindSpeed     *float64 `json:"wind_speed_10m"`
		WindDirection *float64 `json:"wind_direction_10m"`
	} `json:"current"`
	Daily struct {
		PrecipitationSum []*float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

// Precipitation returns the first daily precipitation sum, or nil
func (c *Conditions) Precipitation() *float64 {
	if len(c.Daily.PrecipitationSum) == 0 {
		return nil
	}
	return c.Daily.PrecipitationSum[0]
}

// Client queries Open-Meteo
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for baseURL. transport may be nil.
func NewClient(baseURL string, transport http.RoundTripper) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{baseURL: baseURL, client: &http.Client{Transport: transport}}
}

// Conditions fetches current conditions and the daily precipitation for a location
func (c *Client) Conditions(ctx context.Context, lat, lng float64) (*Conditions, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid forecast URL: %w", err)
	}
	q := u.Query()
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("current", "temperature_2m,relative_humidity_2m,wind_speed_10m,wind_direction_10m")
	q.Set("daily", "precipitation_sum")
	q.Set("timezone", "auto")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return nil, urlErr.Err
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("Open-Meteo returned %d", resp.StatusCode)
	}

	var cond Conditions
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&cond); err != nil {
		return nil, fmt.Errorf("decode Open-Meteo response: %w", err)
	}
	return &cond, nil
}
