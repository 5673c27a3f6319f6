package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"

	"github.com/tripsmith/server/internal/planner/graph/prompts"
)

// Factory builds a fresh specialist agent per invocation so each run starts
// from a clean conversation. It implements tools.TripRunner, which lets the
// Phase 2 meta-tools re-derive any report on demand.
type Factory struct {
	cm              model.ToolCallingChatModel
	weatherTools    []tool.BaseTool
	suggestionTools []tool.BaseTool
	budgetTools     []tool.BaseTool
	maxSteps        int
}

func NewFactory(cm model.ToolCallingChatModel, weatherTools, suggestionTools, budgetTools []tool.BaseTool, maxSteps int) *Factory {
	return &Factory{
		cm:              cm,
		weatherTools:    weatherTools,
		suggestionTools: suggestionTools,
		budgetTools:     budgetTools,
		maxSteps:        maxSteps,
	}
}

// WeatherReport runs a fresh weather agent for the destination and dates.
func (f *Factory) WeatherReport(ctx context.Context, destination, startDate, endDate string) (string, error) {
	directive, err := prompts.RenderWeatherDirective(ctx)
	if err != nil {
		return "", err
	}

	a, err := New(ctx, "weather", directive, f.cm, f.weatherTools, f.maxSteps)
	if err != nil {
		return "", err
	}

	request := fmt.Sprintf(
		"Today is %s. Get the weather forecast for %s from %s to %s. "+
			"Analyze the conditions and provide travel and packing recommendations.",
		time.Now().Format("2006-01-02"), destination, startDate, endDate,
	)
	return a.Run(ctx, request)
}

// ActivitySuggestions runs a fresh suggestion agent. The upstream weather
// analysis is injected into its directive.
func (f *Factory) ActivitySuggestions(ctx context.Context, destination, purpose, weatherReport string) (string, error) {
	directive, err := prompts.RenderSuggestionDirective(ctx, weatherReport)
	if err != nil {
		return "", err
	}

	a, err := New(ctx, "suggestion", directive, f.cm, f.suggestionTools, f.maxSteps)
	if err != nil {
		return "", err
	}

	var request string
	switch purpose {
	case "foodie":
		request = fmt.Sprintf("I am visiting %s and I love trying restaurants and cafes. Suggest good places to eat in %s.", destination, destination)
	case "entertainment":
		request = fmt.Sprintf("I am visiting %s to have fun. Suggest good entertainment venues in %s.", destination, destination)
	case "business":
		request = fmt.Sprintf("I am visiting %s for business. Suggest places to visit in %s while I am free from work.", destination, destination)
	default:
		request = fmt.Sprintf("I am visiting %s. Suggest the most worthwhile places to see in %s.", destination, destination)
	}
	return a.Run(ctx, request)
}

// BudgetAnalysis runs a fresh budget agent. The upstream suggestions are
// injected into its directive.
func (f *Factory) BudgetAnalysis(ctx context.Context, origin, destination, startDate, endDate string, adults, budget int, suggestions string) (string, error) {
	directive, err := prompts.RenderBudgetDirective(ctx, suggestions)
	if err != nil {
		return "", err
	}

	a, err := New(ctx, "budget", directive, f.cm, f.budgetTools, f.maxSteps)
	if err != nil {
		return "", err
	}

	request := fmt.Sprintf(
		"%d adult(s) are travelling from %s to %s from %s to %s with a budget of %d USD. "+
			"Estimate the cost of flights, hotels, accommodation, car rentals and taxis, "+
			"compare it against the budget and suggest how to manage it effectively.",
		adults, origin, destination, startDate, endDate, budget,
	)
	return a.Run(ctx, request)
}
