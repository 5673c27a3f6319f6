package tavily

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "test-key", payload["api_key"])
		assert.Equal(t, "best ramen in Tokyo", payload["query"])
		assert.Equal(t, float64(3), payload["max_results"])

		fmt.Fprint(w, `{"results":[{"title":"Ramen guide","url":"https://example.com","content":"Ichiran and friends"}],"answer":"ignored"}`)
	}))
	defer srv.Close()

	c := New(Config{APIKey: "test-key", BaseURL: srv.URL, MaxResults: 3, Timeout: 5})
	out, err := c.Search(context.Background(), "best ramen in Tokyo")
	require.NoError(t, err)

	var results []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "Ramen guide", results[0]["title"])
	assert.NotContains(t, out, "ignored", "only the ranked results are returned")
}

func TestSearchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(Config{APIKey: "test-key", BaseURL: srv.URL, Timeout: 5})
	_, err := c.Search(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
