// Package amadeus is a thin client for the Amadeus self-service APIs used by
// the budget agent: flight offer search and hotel list + offer lookup.
//
// Authentication is an OAuth2 client-credentials token fetched lazily before
// the first request. If a request comes back 401 the token is refreshed and
// the request retried exactly once; this is the only retry behavior in the
// whole service.
package amadeus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	logx "github.com/tripsmith/server/pkg/logger"
)

type Config struct {
	APIKey    string `envconfig:"AMADEUS_API_KEY" required:"true"`
	APISecret string `envconfig:"AMADEUS_API_SECRET" required:"true"`
	BaseURL   string `envconfig:"AMADEUS_BASE_URL" default:"https://test.api.amadeus.com"`
	Timeout   int    `envconfig:"AMADEUS_TIMEOUT" default:"15"`
}

type Client struct {
	cfg  Config
	http *http.Client

	mu    sync.Mutex
	token string
}

func New(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
	}
}

// refreshToken fetches a fresh access token, replacing any cached one.
func (c *Client) refreshToken(ctx context.Context) error {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.cfg.APIKey},
		"client_secret": {c.cfg.APISecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/v1/security/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, snippet(body))
	}

	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tok); err != nil {
		return fmt.Errorf("decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return fmt.Errorf("token response contained no access token")
	}

	c.mu.Lock()
	c.token = tok.AccessToken
	c.mu.Unlock()
	return nil
}

func (c *Client) currentToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	tok := c.token
	c.mu.Unlock()
	if tok != "" {
		return tok, nil
	}
	if err := c.refreshToken(ctx); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, nil
}

// authorizedGet performs a bearer-authenticated GET with a single forced
// refresh-and-retry on 401.
func (c *Client) authorizedGet(ctx context.Context, path string, query url.Values) ([]byte, error) {
	do := func(token string) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path+"?"+query.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return c.http.Do(req)
	}

	token, err := c.currentToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := do(token)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		logx.Debug().Str("path", path).Msg("amadeus token expired, refreshing once")
		if err := c.refreshToken(ctx); err != nil {
			return nil, err
		}
		c.mu.Lock()
		token = c.token
		c.mu.Unlock()
		resp, err = do(token)
		if err != nil {
			return nil, fmt.Errorf("retry %s: %w", path, err)
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("request %s failed with status %d: %s", path, resp.StatusCode, snippet(body))
	}
	return body, nil
}

// SearchFlights returns round-trip flight offers between two airport codes.
func (c *Client) SearchFlights(ctx context.Context, origin, destination, departDate, returnDate string, adults int) (string, error) {
	query := url.Values{
		"originLocationCode":      {origin},
		"destinationLocationCode": {destination},
		"departureDate":           {departDate},
		"returnDate":              {returnDate},
		"adults":                  {strconv.Itoa(adults)},
		"currencyCode":            {"USD"},
		"max":                     {"5"},
	}

	body, err := c.authorizedGet(ctx, "/v2/shopping/flight-offers", query)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// SearchHotels lists hotels in a city and fetches the best rate offers for up
// to ten of them.
func (c *Client) SearchHotels(ctx context.Context, cityCode, checkIn, checkOut string, adults int) (string, error) {
	listQuery := url.Values{
		"cityCode":    {cityCode},
		"radius":      {"15"},
		"radiusUnit":  {"KM"},
		"hotelSource": {"ALL"},
	}
	body, err := c.authorizedGet(ctx, "/v1/reference-data/locations/hotels/by-city", listQuery)
	if err != nil {
		return "", err
	}

	var listing struct {
		Data []struct {
			HotelID string `json:"hotelId"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		return "", fmt.Errorf("decode hotel listing: %w", err)
	}
	if len(listing.Data) == 0 {
		return "", fmt.Errorf("no hotels found in %s", cityCode)
	}

	ids := make([]string, 0, 10)
	for _, h := range listing.Data {
		ids = append(ids, h.HotelID)
		if len(ids) == 10 {
			break
		}
	}

	offersQuery := url.Values{
		"hotelIds":     {strings.Join(ids, ",")},
		"checkInDate":  {checkIn},
		"checkOutDate": {checkOut},
		"adults":       {strconv.Itoa(adults)},
		"currency":     {"USD"},
		"roomQuantity": {"1"},
		"bestRateOnly": {"true"},
	}
	body, err = c.authorizedGet(ctx, "/v3/shopping/hotel-offers", offersQuery)
	if err != nil {
		return "", err
	}
	return formatHotelOffers(body)
}

// formatHotelOffers flattens the offer payload to the fields the budget agent
// actually reasons over.
func formatHotelOffers(body []byte) (string, error) {
	var raw struct {
		Data []struct {
			Hotel struct {
				HotelID string         `json:"hotelId"`
				Name    string         `json:"name"`
				Address map[string]any `json:"address"`
			} `json:"hotel"`
			Offers []struct {
				ID    string `json:"id"`
				Price struct {
					Total    string `json:"total"`
					Currency string `json:"currency"`
				} `json:"price"`
				CheckInDate  string `json:"checkInDate"`
				CheckOutDate string `json:"checkOutDate"`
			} `json:"offers"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("decode hotel offers: %w", err)
	}

	type offer struct {
		ID           string `json:"id"`
		Price        string `json:"price"`
		Currency     string `json:"currency"`
		CheckInDate  string `json:"check_in_date"`
		CheckOutDate string `json:"check_out_date"`
	}
	type hotel struct {
		HotelID string         `json:"hotel_id"`
		Name    string         `json:"name"`
		Address map[string]any `json:"address,omitempty"`
		Offers  []offer        `json:"offers"`
	}

	hotels := make([]hotel, 0, len(raw.Data))
	for _, d := range raw.Data {
		h := hotel{HotelID: d.Hotel.HotelID, Name: d.Hotel.Name, Address: d.Hotel.Address}
		for _, o := range d.Offers {
			h.Offers = append(h.Offers, offer{
				ID:           o.ID,
				Price:        o.Price.Total,
				Currency:     o.Price.Currency,
				CheckInDate:  o.CheckInDate,
				CheckOutDate: o.CheckOutDate,
			})
		}
		hotels = append(hotels, h)
	}

	out, err := json.Marshal(map[string]any{"hotels": hotels})
	if err != nil {
		return "", fmt.Errorf("encode hotel offers: %w", err)
	}
	return string(out), nil
}

func snippet(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max]
	}
	return s
}
