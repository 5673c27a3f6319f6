package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/components/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripsmith/server/internal/travel/amadeus"
	"github.com/tripsmith/server/internal/travel/geoapify"
	"github.com/tripsmith/server/internal/travel/openweather"
	"github.com/tripsmith/server/internal/travel/tavily"
)

func invoke(t *testing.T, bt tool.BaseTool, args string) string {
	t.Helper()
	inv, ok := bt.(tool.InvokableTool)
	require.True(t, ok)
	out, err := inv.InvokableRun(context.Background(), args)
	require.NoError(t, err, "adapter tools fail soft, never with a Go error")
	return out
}

func TestForecastToolFailsSoft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ow := openweather.New(openweather.Config{APIKey: "k", BaseURL: srv.URL, Timeout: 5})
	out := invoke(t, createForecastTool(ow), `{"city":"Tokyo"}`)

	var parsed ForecastOutput
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Empty(t, parsed.Forecast)
	assert.Contains(t, parsed.Error, "Error getting weather forecast")
}

func TestForecastToolRequiresCity(t *testing.T) {
	ow := openweather.New(openweather.Config{APIKey: "k", BaseURL: "http://unused", Timeout: 5})
	out := invoke(t, createForecastTool(ow), `{}`)

	var parsed ForecastOutput
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, "city is required", parsed.Error)
}

func TestActivitiesToolMapsPurposeToCategories(t *testing.T) {
	var gotCategories string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/geocode/search":
			w.Write([]byte(`{"features":[{"properties":{"place_id":"pid"}}]}`))
		case "/v2/places":
			gotCategories = r.URL.Query().Get("categories")
			w.Write([]byte(`{"features":[]}`))
		}
	}))
	defer srv.Close()

	geo := geoapify.New(geoapify.Config{APIKey: "k", BaseURL: srv.URL, Timeout: 5})
	tl := createActivitiesTool(geo)

	invoke(t, tl, `{"place":"Tokyo","category":"foodie"}`)
	assert.Equal(t, "catering.restaurant,catering.cafe", gotCategories)

	invoke(t, tl, `{"place":"Tokyo","category":"entertainment"}`)
	assert.Contains(t, gotCategories, "entertainment.theme_park")

	// Unknown or absent purpose falls back to general sightseeing
	invoke(t, tl, `{"place":"Tokyo"}`)
	assert.Equal(t, "tourism,leisure,heritage", gotCategories)
}

func TestCapabilitySetNames(t *testing.T) {
	ctx := context.Background()

	am := amadeus.New(amadeus.Config{})
	geo := geoapify.New(geoapify.Config{})
	ow := openweather.New(openweather.Config{})
	tv := tavily.New(tavily.Config{})

	names := func(ts []tool.BaseTool) []string {
		infos, err := GetToolInfos(ctx, ts)
		require.NoError(t, err)
		out := make([]string, 0, len(infos))
		for _, info := range infos {
			out = append(out, info.Name)
		}
		return out
	}

	assert.Equal(t, []string{ToolForecast, ToolWebSearch}, names(GetWeatherTools(ow, tv)))
	assert.Equal(t, []string{ToolActivities, ToolWebSearch}, names(GetSuggestionTools(geo, tv)))
	assert.Equal(t,
		[]string{ToolFlights, ToolHotels, ToolLodgings, ToolCarRentals, ToolWebSearch},
		names(GetBudgetTools(am, geo, tv)))
}
