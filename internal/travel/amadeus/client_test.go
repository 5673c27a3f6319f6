package amadeus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	return New(Config{
		APIKey:    "key",
		APISecret: "secret",
		BaseURL:   baseURL,
		Timeout:   5,
	})
}

func TestSearchFlightsFetchesTokenLazily(t *testing.T) {
	var tokenCalls int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/security/oauth2/token":
			atomic.AddInt32(&tokenCalls, 1)
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "client_credentials", r.FormValue("grant_type"))
			assert.Equal(t, "key", r.FormValue("client_id"))
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-1"})
		case "/v2/shopping/flight-offers":
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			assert.Equal(t, "BKK", r.URL.Query().Get("originLocationCode"))
			assert.Equal(t, "2", r.URL.Query().Get("adults"))
			fmt.Fprint(w, `{"data":[{"id":"1"}]}`)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	out, err := c.SearchFlights(context.Background(), "BKK", "NRT", "2026-09-01", "2026-09-07", 2)
	require.NoError(t, err)
	assert.Contains(t, out, `"data"`)
	assert.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls))

	// Second call reuses the cached token
	_, err = c.SearchFlights(context.Background(), "BKK", "NRT", "2026-09-01", "2026-09-07", 2)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls))
}

func TestSearchFlightsRefreshesOnceOn401(t *testing.T) {
	var tokenCalls, flightCalls int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/security/oauth2/token":
			n := atomic.AddInt32(&tokenCalls, 1)
			json.NewEncoder(w).Encode(map[string]string{"access_token": fmt.Sprintf("tok-%d", n)})
		case "/v2/shopping/flight-offers":
			atomic.AddInt32(&flightCalls, 1)
			if r.Header.Get("Authorization") == "Bearer tok-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			assert.Equal(t, "Bearer tok-2", r.Header.Get("Authorization"))
			fmt.Fprint(w, `{"data":[]}`)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	out, err := c.SearchFlights(context.Background(), "BKK", "NRT", "2026-09-01", "2026-09-07", 1)
	require.NoError(t, err)
	assert.Contains(t, out, `"data"`)
	assert.Equal(t, int32(2), atomic.LoadInt32(&tokenCalls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&flightCalls))
}

func TestSearchFlightsFailsAfterSecond401(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/security/oauth2/token":
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok"})
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.SearchFlights(context.Background(), "BKK", "NRT", "2026-09-01", "2026-09-07", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestSearchHotelsFlattensOffers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/security/oauth2/token":
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok"})
		case "/v1/reference-data/locations/hotels/by-city":
			assert.Equal(t, "PAR", r.URL.Query().Get("cityCode"))
			fmt.Fprint(w, `{"data":[{"hotelId":"H1"},{"hotelId":"H2"}]}`)
		case "/v3/shopping/hotel-offers":
			ids := strings.Split(r.URL.Query().Get("hotelIds"), ",")
			assert.Equal(t, []string{"H1", "H2"}, ids)
			fmt.Fprint(w, `{"data":[{"hotel":{"hotelId":"H1","name":"Le Test"},"offers":[{"id":"O1","price":{"total":"420.00","currency":"USD"},"checkInDate":"2026-09-01","checkOutDate":"2026-09-07"}]}]}`)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	out, err := c.SearchHotels(context.Background(), "PAR", "2026-09-01", "2026-09-07", 2)
	require.NoError(t, err)
	assert.Contains(t, out, `"name":"Le Test"`)
	assert.Contains(t, out, `"price":"420.00"`)
}

func TestSearchHotelsNoHotelsFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/security/oauth2/token":
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok"})
		default:
			fmt.Fprint(w, `{"data":[]}`)
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.SearchHotels(context.Background(), "XXX", "2026-09-01", "2026-09-07", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no hotels found")
}
