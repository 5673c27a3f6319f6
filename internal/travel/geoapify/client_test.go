package geoapify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, placesAssert func(r *http.Request)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-key", r.URL.Query().Get("apiKey"))
		switch r.URL.Path {
		case "/v1/geocode/search":
			fmt.Fprint(w, `{"features":[{"properties":{"place_id":"pid-123"}}]}`)
		case "/v2/places":
			if placesAssert != nil {
				placesAssert(r)
			}
			fmt.Fprint(w, `{"features":[{"properties":{"name":"Some Venue"}}]}`)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
}

func newTestClient(baseURL string) *Client {
	return New(Config{APIKey: "test-key", BaseURL: baseURL, Timeout: 5})
}

func TestActivitiesDefaultsCategories(t *testing.T) {
	srv := newTestServer(t, func(r *http.Request) {
		assert.Equal(t, "tourism,leisure,heritage", r.URL.Query().Get("categories"))
		assert.Equal(t, "place:pid-123", r.URL.Query().Get("filter"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
	})
	defer srv.Close()

	out, err := newTestClient(srv.URL).Activities(context.Background(), "Tokyo", "")
	require.NoError(t, err)
	assert.Contains(t, out, "Some Venue")
}

func TestActivitiesPassesCategories(t *testing.T) {
	srv := newTestServer(t, func(r *http.Request) {
		assert.Equal(t, "catering.restaurant,catering.cafe", r.URL.Query().Get("categories"))
	})
	defer srv.Close()

	_, err := newTestClient(srv.URL).Activities(context.Background(), "Tokyo", "catering.restaurant,catering.cafe")
	require.NoError(t, err)
}

func TestLodgingsAndCarRentalsCategories(t *testing.T) {
	var got []string
	srv := newTestServer(t, func(r *http.Request) {
		got = append(got, r.URL.Query().Get("categories"))
	})
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Lodgings(context.Background(), "Tokyo")
	require.NoError(t, err)
	_, err = c.CarRentals(context.Background(), "Tokyo")
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Contains(t, got[0], "accommodation.hotel")
	assert.Equal(t, "rental.car", got[1])
}

func TestPlaceIDNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"features":[]}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).PlaceID(context.Background(), "Nowhereville")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no place found")
}
