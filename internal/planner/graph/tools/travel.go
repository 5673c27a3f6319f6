package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/tripsmith/server/internal/travel/amadeus"
	"github.com/tripsmith/server/internal/travel/geoapify"
	"github.com/tripsmith/server/internal/travel/openweather"
	logx "github.com/tripsmith/server/pkg/logger"
)

// Adapter-backed tools. Adapter failures become a structured error field in
// the tool output rather than a Go error, so the calling agent always gets a
// string to reason over and the loop never aborts on a broken lookup.

type ForecastInput struct {
	City string `json:"city"`
}

type ForecastOutput struct {
	Forecast string `json:"forecast,omitempty"`
	Error    string `json:"error,omitempty"`
}

func createForecastTool(ow *openweather.Client) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolForecast,
			Desc: "Get the multi-day weather forecast for a city from OpenWeatherMap. Always try this first for any city.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"city": {
					Type:     "string",
					Desc:     "City name, optionally with state and country (e.g. \"Boston, MA, US\")",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *ForecastInput) (*ForecastOutput, error) {
			if in.City == "" {
				return &ForecastOutput{Error: "city is required"}, nil
			}
			forecast, err := ow.Forecast(ctx, in.City)
			if err != nil {
				logx.Warn().Err(err).Str("city", in.City).Msg("forecast lookup failed")
				return &ForecastOutput{Error: fmt.Sprintf("Error getting weather forecast: %v", err)}, nil
			}
			return &ForecastOutput{Forecast: forecast}, nil
		},
	)
}

type ActivitiesInput struct {
	Place    string `json:"place"`
	Category string `json:"category,omitempty"`
}

type ActivitiesOutput struct {
	Venues string `json:"venues,omitempty"`
	Error  string `json:"error,omitempty"`
}

// activityCategories maps trip purposes to Geoapify category expressions.
var activityCategories = map[string]string{
	"foodie":        "catering.restaurant,catering.cafe",
	"entertainment": "entertainment,entertainment.theme_park,entertainment.water_park",
	"business":      "tourism,heritage,leisure",
}

func createActivitiesTool(geo *geoapify.Client) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolActivities,
			Desc: "List venues in a place matching a trip purpose. Returns names, addresses and contact details, no pricing.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"place": {
					Type:     "string",
					Desc:     "Place descriptor: city name with state and country",
					Required: true,
				},
				"category": {
					Type: "string",
					Desc: "Trip purpose: one of foodie, entertainment, business. Omit for general sightseeing.",
				},
			}),
		},
		func(ctx context.Context, in *ActivitiesInput) (*ActivitiesOutput, error) {
			if in.Place == "" {
				return &ActivitiesOutput{Error: "place is required"}, nil
			}
			venues, err := geo.Activities(ctx, in.Place, activityCategories[in.Category])
			if err != nil {
				logx.Warn().Err(err).Str("place", in.Place).Msg("activity lookup failed")
				return &ActivitiesOutput{Error: fmt.Sprintf("Error getting activities: %v", err)}, nil
			}
			return &ActivitiesOutput{Venues: venues}, nil
		},
	)
}

type FlightsInput struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
	ReturnDate    string `json:"return_date"`
	Adults        int    `json:"adults,omitempty"`
}

type FlightsOutput struct {
	Offers string `json:"offers,omitempty"`
	Error  string `json:"error,omitempty"`
}

func createFlightsTool(am *amadeus.Client) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolFlights,
			Desc: "Search round-trip flight offers between two airports with prices in USD.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"origin": {
					Type:     "string",
					Desc:     "IATA airport code of the origin city (e.g. JFK)",
					Required: true,
				},
				"destination": {
					Type:     "string",
					Desc:     "IATA airport code of the destination city (e.g. BOS)",
					Required: true,
				},
				"departure_date": {
					Type:     "string",
					Desc:     "Departure date in YYYY-MM-DD format",
					Required: true,
				},
				"return_date": {
					Type:     "string",
					Desc:     "Return date in YYYY-MM-DD format",
					Required: true,
				},
				"adults": {
					Type: "number",
					Desc: "Number of adult travelers (default 1)",
				},
			}),
		},
		func(ctx context.Context, in *FlightsInput) (*FlightsOutput, error) {
			if in.Adults <= 0 {
				in.Adults = 1
			}
			offers, err := am.SearchFlights(ctx, in.Origin, in.Destination, in.DepartureDate, in.ReturnDate, in.Adults)
			if err != nil {
				logx.Warn().Err(err).Str("origin", in.Origin).Str("destination", in.Destination).Msg("flight search failed")
				return &FlightsOutput{Error: fmt.Sprintf("Error getting flight data: %v", err)}, nil
			}
			return &FlightsOutput{Offers: offers}, nil
		},
	)
}

type HotelsInput struct {
	CityCode string `json:"city_code"`
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
	Adults   int    `json:"adults,omitempty"`
}

type HotelsOutput struct {
	Offers string `json:"offers,omitempty"`
	Error  string `json:"error,omitempty"`
}

func createHotelsTool(am *amadeus.Client) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolHotels,
			Desc: "Search hotel offers with rates for a city and stay dates, prices in USD.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"city_code": {
					Type:     "string",
					Desc:     "IATA city code (e.g. NYC, BOS, LON)",
					Required: true,
				},
				"check_in": {
					Type:     "string",
					Desc:     "Check-in date in YYYY-MM-DD format",
					Required: true,
				},
				"check_out": {
					Type:     "string",
					Desc:     "Check-out date in YYYY-MM-DD format",
					Required: true,
				},
				"adults": {
					Type: "number",
					Desc: "Number of adults (default 1)",
				},
			}),
		},
		func(ctx context.Context, in *HotelsInput) (*HotelsOutput, error) {
			if in.Adults <= 0 {
				in.Adults = 1
			}
			offers, err := am.SearchHotels(ctx, in.CityCode, in.CheckIn, in.CheckOut, in.Adults)
			if err != nil {
				logx.Warn().Err(err).Str("city_code", in.CityCode).Msg("hotel search failed")
				return &HotelsOutput{Error: fmt.Sprintf("Error getting hotel data: %v", err)}, nil
			}
			return &HotelsOutput{Offers: offers}, nil
		},
	)
}

type PlaceInput struct {
	Place string `json:"place"`
}

type PlacesOutput struct {
	Listings string `json:"listings,omitempty"`
	Error    string `json:"error,omitempty"`
}

func createLodgingsTool(geo *geoapify.Client) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolLodgings,
			Desc: "List lodging options (hotels, hostels, guest houses) in a place. Names and addresses only, no pricing.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"place": {
					Type:     "string",
					Desc:     "Place descriptor: city name with state and country",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *PlaceInput) (*PlacesOutput, error) {
			listings, err := geo.Lodgings(ctx, in.Place)
			if err != nil {
				logx.Warn().Err(err).Str("place", in.Place).Msg("lodging lookup failed")
				return &PlacesOutput{Error: fmt.Sprintf("Error getting accommodation data: %v", err)}, nil
			}
			return &PlacesOutput{Listings: listings}, nil
		},
	)
}

func createCarRentalsTool(geo *geoapify.Client) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolCarRentals,
			Desc: "List car rental providers in a place. Names and addresses only, no pricing.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"place": {
					Type:     "string",
					Desc:     "Place descriptor: city name with state and country",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *PlaceInput) (*PlacesOutput, error) {
			listings, err := geo.CarRentals(ctx, in.Place)
			if err != nil {
				logx.Warn().Err(err).Str("place", in.Place).Msg("car rental lookup failed")
				return &PlacesOutput{Error: fmt.Sprintf("Error getting car rental data: %v", err)}, nil
			}
			return &PlacesOutput{Listings: listings}, nil
		},
	)
}
