// Package geoapify wraps the Geoapify places APIs used for activity, lodging
// and car-rental listings. Listings carry names, addresses and contact info
// but no pricing.
package geoapify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Config struct {
	APIKey  string `envconfig:"GEOAPIFY_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEOAPIFY_BASE_URL" default:"https://api.geoapify.com"`
	Timeout int    `envconfig:"GEOAPIFY_TIMEOUT" default:"15"`
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

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	query.Set("apiKey", c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request %s failed with status %d", path, resp.StatusCode)
	}
	return body, nil
}

// PlaceID geocodes a free-text place descriptor into a Geoapify place id.
func (c *Client) PlaceID(ctx context.Context, place string) (string, error) {
	body, err := c.get(ctx, "/v1/geocode/search", url.Values{"text": {place}})
	if err != nil {
		return "", err
	}

	var geocode struct {
		Features []struct {
			Properties struct {
				PlaceID string `json:"place_id"`
			} `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(body, &geocode); err != nil {
		return "", fmt.Errorf("decode geocode response: %w", err)
	}
	if len(geocode.Features) == 0 || geocode.Features[0].Properties.PlaceID == "" {
		return "", fmt.Errorf("no place found for %q", place)
	}
	return geocode.Features[0].Properties.PlaceID, nil
}

// places fetches up to ten places of the given categories inside a place.
func (c *Client) places(ctx context.Context, place, categories string) (string, error) {
	placeID, err := c.PlaceID(ctx, place)
	if err != nil {
		return "", err
	}

	body, err := c.get(ctx, "/v2/places", url.Values{
		"categories": {categories},
		"filter":     {"place:" + placeID},
		"limit":      {"10"},
	})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Activities lists venues matching the given category expression, e.g.
// "catering.restaurant,catering.cafe" for a food-focused trip.
func (c *Client) Activities(ctx context.Context, place, categories string) (string, error) {
	if strings.TrimSpace(categories) == "" {
		categories = "tourism,leisure,heritage"
	}
	return c.places(ctx, place, categories)
}

// Lodgings lists hotels, hostels, motels and guest houses without pricing.
func (c *Client) Lodgings(ctx context.Context, place string) (string, error) {
	return c.places(ctx, place, "accommodation,accommodation.hotel,accommodation.motel,accommodation.guest_house,accommodation.hostel")
}

// CarRentals lists car rental providers without pricing.
func (c *Client) CarRentals(ctx context.Context, place string) (string, error) {
	return c.places(ctx, place, "rental.car")
}
