// Package openweather fetches the 5-day forecast used by the weather agent.
package openweather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

type Config struct {
	APIKey  string `envconfig:"OPENWEATHER_API_KEY" required:"true"`
	BaseURL string `envconfig:"OPENWEATHER_BASE_URL" default:"https://api.openweathermap.org"`
	Units   string `envconfig:"OPENWEATHER_UNITS" default:"metric"`
	Timeout int    `envconfig:"OPENWEATHER_TIMEOUT" default:"10"`
}

type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
	}
}

// Forecast returns the raw multi-day forecast JSON for a city.
func (c *Client) Forecast(ctx context.Context, city string) (string, error) {
	query := url.Values{
		"q":     {city},
		"appid": {c.cfg.APIKey},
		"units": {c.cfg.Units},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"/data/2.5/forecast?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build forecast request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read forecast response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("forecast request for %q failed with status %d", city, resp.StatusCode)
	}
	return string(body), nil
}
