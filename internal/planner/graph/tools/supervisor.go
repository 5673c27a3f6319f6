package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	logx "github.com/tripsmith/server/pkg/logger"
)

// TripRunner runs a fresh specialized reasoning agent end to end. The agent
// factory implements it; the supervisor meta-tools below proxy to it so
// Phase 2 can re-derive any Phase 1 report from current parameters instead of
// reusing cached output.
type TripRunner interface {
	WeatherReport(ctx context.Context, destination, startDate, endDate string) (string, error)
	ActivitySuggestions(ctx context.Context, destination, purpose, weatherReport string) (string, error)
	BudgetAnalysis(ctx context.Context, origin, destination, startDate, endDate string, adults, budget int, suggestions string) (string, error)
}

type WeatherReportInput struct {
	Destination string `json:"destination"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

type AgentReportOutput struct {
	Report string `json:"report,omitempty"`
	Error  string `json:"error,omitempty"`
}

func createWeatherReportTool(runner TripRunner) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolWeather,
			Desc: "Run the weather specialist for a destination and date range. Returns a forecast analysis with packing advice.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"destination": {
					Type:     "string",
					Desc:     "Destination city name",
					Required: true,
				},
				"start_date": {
					Type:     "string",
					Desc:     "Trip start date in YYYY-MM-DD format",
					Required: true,
				},
				"end_date": {
					Type:     "string",
					Desc:     "Trip end date in YYYY-MM-DD format",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *WeatherReportInput) (*AgentReportOutput, error) {
			report, err := runner.WeatherReport(ctx, in.Destination, in.StartDate, in.EndDate)
			if err != nil {
				logx.Warn().Err(err).Str("destination", in.Destination).Msg("weather agent failed")
				return &AgentReportOutput{Error: fmt.Sprintf("Error getting weather data: %v", err)}, nil
			}
			return &AgentReportOutput{Report: report}, nil
		},
	)
}

type SuggestionsInput struct {
	Destination   string `json:"destination"`
	Purpose       string `json:"purpose,omitempty"`
	WeatherReport string `json:"weather_report,omitempty"`
}

func createSuggestionsTool(runner TripRunner) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolSuggestions,
			Desc: "Run the activity specialist for a destination. Suggests venues matching the trip purpose and current weather.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"destination": {
					Type:     "string",
					Desc:     "Destination city name",
					Required: true,
				},
				"purpose": {
					Type: "string",
					Desc: "Trip purpose: one of foodie, entertainment, business. Omit for a general trip.",
				},
				"weather_report": {
					Type: "string",
					Desc: "Latest weather analysis to factor into the suggestions",
				},
			}),
		},
		func(ctx context.Context, in *SuggestionsInput) (*AgentReportOutput, error) {
			report, err := runner.ActivitySuggestions(ctx, in.Destination, in.Purpose, in.WeatherReport)
			if err != nil {
				logx.Warn().Err(err).Str("destination", in.Destination).Msg("suggestion agent failed")
				return &AgentReportOutput{Error: fmt.Sprintf("Error getting activity suggestions: %v", err)}, nil
			}
			return &AgentReportOutput{Report: report}, nil
		},
	)
}

type BudgetAnalysisInput struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Adults      int    `json:"adults,omitempty"`
	Budget      int    `json:"budget,omitempty"`
	Suggestions string `json:"suggestions,omitempty"`
}

func createBudgetAnalysisTool(runner TripRunner) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolBudget,
			Desc: "Run the budget specialist for a trip. Estimates flight, hotel and transport costs and compares against the stated budget.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"origin": {
					Type:     "string",
					Desc:     "Origin city name",
					Required: true,
				},
				"destination": {
					Type:     "string",
					Desc:     "Destination city name",
					Required: true,
				},
				"start_date": {
					Type:     "string",
					Desc:     "Trip start date in YYYY-MM-DD format",
					Required: true,
				},
				"end_date": {
					Type:     "string",
					Desc:     "Trip end date in YYYY-MM-DD format",
					Required: true,
				},
				"adults": {
					Type: "number",
					Desc: "Number of adult travelers (default 1)",
				},
				"budget": {
					Type: "number",
					Desc: "Available budget in USD",
				},
				"suggestions": {
					Type: "string",
					Desc: "Activity suggestions to include in the cost estimate",
				},
			}),
		},
		func(ctx context.Context, in *BudgetAnalysisInput) (*AgentReportOutput, error) {
			if in.Adults <= 0 {
				in.Adults = 1
			}
			report, err := runner.BudgetAnalysis(ctx, in.Origin, in.Destination, in.StartDate, in.EndDate, in.Adults, in.Budget, in.Suggestions)
			if err != nil {
				logx.Warn().Err(err).Str("destination", in.Destination).Msg("budget agent failed")
				return &AgentReportOutput{Error: fmt.Sprintf("Error getting budget analysis: %v", err)}, nil
			}
			return &AgentReportOutput{Report: report}, nil
		},
	)
}
