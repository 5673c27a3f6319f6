// Package prompts renders the agent directives. Rendering goes through the
// Eino prompt component so prompt callbacks fire for observability.
package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/tripsmith/server/internal/planner/graph/tools"
	"github.com/tripsmith/server/internal/planner/model"
)

//go:embed template/weather_directive.txt
var weatherDirective string

//go:embed template/suggestion_directive.txt
var suggestionDirective string

//go:embed template/budget_directive.txt
var budgetDirective string

//go:embed template/synthesis_directive.txt
var synthesisDirective string

//go:embed template/supervisor_directive.txt
var supervisorDirective string

// render formats a Go-template directive via the Eino prompt component.
func render(ctx context.Context, template string, vars map[string]any) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(template),
	)
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("render directive: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("render directive: empty result")
	}
	return msgs[0].Content, nil
}

// RenderWeatherDirective renders the weather agent's system directive.
func RenderWeatherDirective(ctx context.Context) (string, error) {
	return render(ctx, weatherDirective, map[string]any{
		"ForecastTool": tools.ToolForecast,
		"SearchTool":   tools.ToolWebSearch,
	})
}

// RenderSuggestionDirective renders the suggestion agent's directive with the
// upstream weather analysis injected.
func RenderSuggestionDirective(ctx context.Context, weatherReport string) (string, error) {
	return render(ctx, suggestionDirective, map[string]any{
		"ActivitiesTool": tools.ToolActivities,
		"SearchTool":     tools.ToolWebSearch,
		"WeatherReport":  weatherReport,
	})
}

// RenderBudgetDirective renders the budget agent's directive with the
// upstream activity suggestions injected.
func RenderBudgetDirective(ctx context.Context, suggestions string) (string, error) {
	return render(ctx, budgetDirective, map[string]any{
		"FlightsTool":    tools.ToolFlights,
		"HotelsTool":     tools.ToolHotels,
		"LodgingsTool":   tools.ToolLodgings,
		"CarRentalsTool": tools.ToolCarRentals,
		"SearchTool":     tools.ToolWebSearch,
		"Suggestions":    suggestions,
	})
}

func tripVars(trip *model.TripState) map[string]any {
	return map[string]any{
		"OriginCity":       trip.Params.OriginCity,
		"Destination":      trip.Params.Destination,
		"StartDate":        trip.Params.StartDate,
		"EndDate":          trip.Params.EndDate,
		"Adults":           trip.Params.Adults,
		"Budget":           trip.Params.Budget,
		"Purpose":          string(trip.Params.Purpose),
		"WeatherReport":    trip.WeatherReport,
		"SuggestionReport": trip.SuggestionReport,
		"BudgetReport":     trip.BudgetReport,
		"FinalItinerary":   trip.FinalItinerary,
	}
}

// RenderSynthesisDirective renders the Phase 1 synthesis directive from the
// three specialist reports plus the original trip parameters.
func RenderSynthesisDirective(ctx context.Context, trip *model.TripState) (string, error) {
	return render(ctx, synthesisDirective, tripVars(trip))
}

// RenderSupervisorDirective renders the Phase 2 conversational directive with
// the accumulated trip context and the meta-tool names.
func RenderSupervisorDirective(ctx context.Context, trip *model.TripState) (string, error) {
	vars := tripVars(trip)
	vars["WeatherTool"] = tools.ToolWeather
	vars["SuggestionsTool"] = tools.ToolSuggestions
	vars["BudgetTool"] = tools.ToolBudget
	vars["SearchTool"] = tools.ToolWebSearch
	return render(ctx, supervisorDirective, vars)
}
