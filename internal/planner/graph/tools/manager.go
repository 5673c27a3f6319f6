// Package tools defines the capability registry: the adapter-backed tools the
// reasoning agents call, and the supervisor meta-tools that proxy to fresh
// agent instances during Phase 2 conversation.
package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/tripsmith/server/internal/travel/amadeus"
	"github.com/tripsmith/server/internal/travel/geoapify"
	"github.com/tripsmith/server/internal/travel/openweather"
	"github.com/tripsmith/server/internal/travel/tavily"
)

// Tool names. Dispatch matches on these exactly; unknown names fail closed in
// the tools node's unknown-tool handler.
const (
	ToolWebSearch   = "web_search"
	ToolForecast    = "get_weather_forecast"
	ToolActivities  = "find_activities"
	ToolFlights     = "search_flights"
	ToolHotels      = "search_hotels"
	ToolLodgings    = "find_lodgings"
	ToolCarRentals  = "find_car_rentals"
	ToolWeather     = "weather_report"
	ToolSuggestions = "activity_suggestions"
	ToolBudget      = "budget_analysis"
)

// GetWeatherTools returns the capability set of the weather agent.
func GetWeatherTools(ow *openweather.Client, search *tavily.Client) []tool.BaseTool {
	return []tool.BaseTool{
		createForecastTool(ow),
		NewWebSearchTool(search),
	}
}

// GetSuggestionTools returns the capability set of the suggestion agent.
func GetSuggestionTools(geo *geoapify.Client, search *tavily.Client) []tool.BaseTool {
	return []tool.BaseTool{
		createActivitiesTool(geo),
		NewWebSearchTool(search),
	}
}

// GetBudgetTools returns the capability set of the budget agent.
func GetBudgetTools(am *amadeus.Client, geo *geoapify.Client, search *tavily.Client) []tool.BaseTool {
	return []tool.BaseTool{
		createFlightsTool(am),
		createHotelsTool(am),
		createLodgingsTool(geo),
		createCarRentalsTool(geo),
		NewWebSearchTool(search),
	}
}

// GetSupervisorTools returns the Phase 2 capability set: meta-tools that
// re-derive any Phase 1 report on demand, plus web search.
func GetSupervisorTools(runner TripRunner, search tool.BaseTool) []tool.BaseTool {
	return []tool.BaseTool{
		createWeatherReportTool(runner),
		createSuggestionsTool(runner),
		createBudgetAnalysisTool(runner),
		search,
	}
}

// GetToolInfos extracts ToolInfo from each tool for model binding.
func GetToolInfos(ctx context.Context, ts []tool.BaseTool) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(ts))
	for _, t := range ts {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("get tool info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}
