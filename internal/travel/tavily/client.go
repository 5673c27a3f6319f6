// Package tavily is a minimal client for the Tavily web search API, the
// general-purpose search capability shared by every agent.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Config struct {
	APIKey     string `envconfig:"TAVILY_API_KEY" required:"true"`
	BaseURL    string `envconfig:"TAVILY_BASE_URL" default:"https://api.tavily.com"`
	MaxResults int    `envconfig:"TAVILY_MAX_RESULTS" default:"5"`
	Timeout    int    `envconfig:"TAVILY_TIMEOUT" default:"15"`
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

type searchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Search runs a free-text query and returns ranked snippets as JSON.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"api_key":     c.cfg.APIKey,
		"query":       query,
		"max_results": c.cfg.MaxResults,
	})
	if err != nil {
		return "", fmt.Errorf("encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search request failed with status %d", resp.StatusCode)
	}

	var parsed struct {
		Results []searchResult `json:"results"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode search response: %w", err)
	}

	out, err := json.Marshal(parsed.Results)
	if err != nil {
		return "", fmt.Errorf("encode search results: %w", err)
	}
	return string(out), nil
}
