package nodes

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/tripsmith/server/internal/planner/graph/conversations"
	"github.com/tripsmith/server/internal/planner/graph/prompts"
	"github.com/tripsmith/server/internal/planner/graph/tools"
	"github.com/tripsmith/server/internal/planner/model"
	logx "github.com/tripsmith/server/pkg/logger"
)

// Graph node names.
const (
	NodeGatekeeper          = "Gatekeeper"
	NodeWeatherStage        = "WeatherStage"
	NodeSuggestionStage     = "SuggestionStage"
	NodeBudgetStage         = "BudgetStage"
	NodeSynthesis           = "Synthesis"
	NodeSupervisorAssembler = "SupervisorAssembler"
	NodeSupervisor          = "Supervisor"
	NodeToolExecutor        = "ToolExecutor"
)

// NewGatekeeperPreHandler creates the pre-handler for the Gatekeeper node
func NewGatekeeperPreHandler() func(context.Context, model.TurnInput, *model.AppState) (model.TurnInput, error) {
	return func(ctx context.Context, in model.TurnInput, s *model.AppState) (model.TurnInput, error) {
		if s.ThreadID == "" {
			s.ThreadID = in.ThreadID
		}
		// Reset tool call counter and limit flag for each new turn
		s.ToolCallCount = 0
		s.ToolCallLimitReached = false
		s.ToolCallIDSeq = 0
		// Reset accumulated total cost for each new turn
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewGatekeeperNode creates the Gatekeeper node. It resolves the trip record
// for the thread (creating it from the turn's parameters on first contact),
// records the inbound user message, and hands the stored conversation on.
func NewGatekeeperNode(mgr *conversations.Manager) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.TurnInput) ([]*schema.Message, error) {
		trip, err := mgr.EnsureTrip(ctx, input)
		if err != nil {
			return nil, err
		}

		if err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			state.Trip = trip
			return nil
		}); err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		if strings.TrimSpace(input.Query) != "" {
			if err := mgr.AppendUserTurn(ctx, input.ThreadID, input.Query); err != nil {
				return nil, fmt.Errorf("record user turn: %w", err)
			}
		}

		history, err := mgr.History(ctx, input.ThreadID)
		if err != nil {
			return nil, fmt.Errorf("load conversation history: %w", err)
		}
		return history, nil
	})
}

// NewPhaseCondition creates the condition function routing each turn to the
// initial planning pipeline or the conversational supervisor. The phase marker
// only ever flips forward, so a planned thread can never re-enter the pipeline.
func NewPhaseCondition() func(context.Context, []*schema.Message) (string, error) {
	return func(ctx context.Context, input []*schema.Message) (string, error) {
		var planned bool
		compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			planned = state.Trip != nil && state.Trip.InitialPlanComplete
			return nil
		})

		if planned {
			logx.Debug().Msg("Plan already complete - routing to supervisor")
			return NodeSupervisorAssembler, nil
		}
		logx.Debug().Msg("No plan yet - routing to planning pipeline")
		return NodeWeatherStage, nil
	}
}

// tripFromState reads the trip record out of graph state. The gatekeeper runs
// first on every path, so a missing trip is a wiring bug, not a user error.
func tripFromState(ctx context.Context) (*model.TripState, error) {
	var trip *model.TripState
	err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
		if state.Trip == nil {
			return fmt.Errorf("missing trip record in state")
		}
		trip = state.Trip
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access state: %w", err)
	}
	return trip, nil
}

// NewWeatherStageNode creates the first planning stage. A failed agent run is
// recorded as diagnostic text in the report slot so the pipeline always moves
// forward with something for downstream stages to read.
func NewWeatherStageNode(runner tools.TripRunner, mgr *conversations.Manager) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input []*schema.Message) ([]*schema.Message, error) {
		trip, err := tripFromState(ctx)
		if err != nil {
			return nil, err
		}

		report, err := runner.WeatherReport(ctx, trip.Params.Destination, trip.Params.StartDate, trip.Params.EndDate)
		if err != nil {
			logx.Warn().Err(err).Str("thread_id", trip.ThreadID).Msg("Weather stage failed")
			report = fmt.Sprintf("Error getting weather data: %v", err)
		}
		trip.WeatherReport = report

		if err := mgr.SaveTrip(ctx, trip); err != nil {
			logx.Error().Err(err).Str("thread_id", trip.ThreadID).Msg("Error saving trip after weather stage")
		}
		return input, nil
	})
}

// NewSuggestionStageNode creates the second planning stage, fed by the weather
// report the first stage stored.
func NewSuggestionStageNode(runner tools.TripRunner, mgr *conversations.Manager) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input []*schema.Message) ([]*schema.Message, error) {
		trip, err := tripFromState(ctx)
		if err != nil {
			return nil, err
		}

		report, err := runner.ActivitySuggestions(ctx, trip.Params.Destination, string(trip.Params.Purpose), trip.WeatherReport)
		if err != nil {
			logx.Warn().Err(err).Str("thread_id", trip.ThreadID).Msg("Suggestion stage failed")
			report = fmt.Sprintf("Error getting activity suggestions: %v", err)
		}
		trip.SuggestionReport = report

		if err := mgr.SaveTrip(ctx, trip); err != nil {
			logx.Error().Err(err).Str("thread_id", trip.ThreadID).Msg("Error saving trip after suggestion stage")
		}
		return input, nil
	})
}

// NewBudgetStageNode creates the third planning stage, fed by the suggestions
// the second stage stored.
func NewBudgetStageNode(runner tools.TripRunner, mgr *conversations.Manager) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input []*schema.Message) ([]*schema.Message, error) {
		trip, err := tripFromState(ctx)
		if err != nil {
			return nil, err
		}

		report, err := runner.BudgetAnalysis(ctx,
			trip.Params.OriginCity, trip.Params.Destination,
			trip.Params.StartDate, trip.Params.EndDate,
			trip.Params.Adults, trip.Params.Budget,
			trip.SuggestionReport,
		)
		if err != nil {
			logx.Warn().Err(err).Str("thread_id", trip.ThreadID).Msg("Budget stage failed")
			report = fmt.Sprintf("Error getting budget analysis: %v", err)
		}
		trip.BudgetReport = report

		if err := mgr.SaveTrip(ctx, trip); err != nil {
			logx.Error().Err(err).Str("thread_id", trip.ThreadID).Msg("Error saving trip after budget stage")
		}
		return input, nil
	})
}

// NewSynthesisNode creates the final planning stage. It merges the three
// reports into one itinerary with a direct model call. The plan is marked
// complete whether or not synthesis succeeds; a thread never replans.
func NewSynthesisNode(cm einomodel.BaseChatModel, modelName string, mgr *conversations.Manager) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input []*schema.Message) (*schema.Message, error) {
		trip, err := tripFromState(ctx)
		if err != nil {
			return nil, err
		}

		directive, rerr := prompts.RenderSynthesisDirective(ctx, trip)
		if rerr != nil {
			return nil, fmt.Errorf("render synthesis directive: %w", rerr)
		}

		out, gerr := cm.Generate(ctx, []*schema.Message{
			schema.SystemMessage(directive),
			schema.UserMessage("Create the full day-by-day itinerary for this trip."),
		})

		switch {
		case gerr != nil:
			logx.Error().Err(gerr).Str("thread_id", trip.ThreadID).Msg("Synthesis failed")
			trip.FinalItinerary = fmt.Sprintf("Error creating final itinerary: %v", gerr)
		case out == nil || strings.TrimSpace(out.Content) == "":
			logx.Warn().Str("thread_id", trip.ThreadID).Msg("Synthesis produced empty itinerary")
			trip.FinalItinerary = ""
		default:
			trip.FinalItinerary = out.Content
			trackUsageCost(out, modelName, NodeSynthesis, trip.ThreadID, nil)
		}
		trip.InitialPlanComplete = true

		if err := mgr.SaveTrip(ctx, trip); err != nil {
			logx.Error().Err(err).Str("thread_id", trip.ThreadID).Msg("Error saving trip after synthesis")
		}
		if strings.TrimSpace(trip.FinalItinerary) != "" {
			if err := mgr.SaveAssistantTurn(ctx, trip.ThreadID, trip.FinalItinerary); err != nil {
				logx.Error().Err(err).Str("thread_id", trip.ThreadID).Msg("Error saving itinerary message")
			}
		}

		return schema.AssistantMessage(trip.FinalItinerary, nil), nil
	})
}

// NewSupervisorAssemblerNode creates the node that builds the supervisor's
// context: the trip-aware directive followed by the stored conversation.
func NewSupervisorAssemblerNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, history []*schema.Message) ([]*schema.Message, error) {
		trip, err := tripFromState(ctx)
		if err != nil {
			return nil, err
		}

		directive, err := prompts.RenderSupervisorDirective(ctx, trip)
		if err != nil {
			return nil, fmt.Errorf("render supervisor directive: %w", err)
		}

		messages := make([]*schema.Message, 0, len(history)+1)
		messages = append(messages, schema.SystemMessage(directive))
		messages = append(messages, history...)
		return messages, nil
	})
}

// NewSupervisorPreHandler creates the pre-handler for the Supervisor node
func NewSupervisorPreHandler(maxToolCalls int) func(context.Context, []*schema.Message, *model.AppState) ([]*schema.Message, error) {
	return func(ctx context.Context, in []*schema.Message, state *model.AppState) ([]*schema.Message, error) {
		// Heuristic fix for Gemini OpenAI-compat: ensure tool results carry tool_call_id
		if len(in) > 0 {
			last := in[len(in)-1]
			if last != nil && last.Role == schema.Tool && strings.TrimSpace(last.ToolCallID) == "" {
				// Try to find the most recent assistant tool call id from history
				for i := len(state.History) - 1; i >= 0; i-- {
					msg := state.History[i]
					if msg == nil || msg.Role != schema.Assistant || len(msg.ToolCalls) == 0 {
						continue
					}
					id := msg.ToolCalls[0].ID
					if strings.TrimSpace(id) != "" {
						last.ToolCallID = id
					}
					break
				}
			}
		}

		state.History = append(state.History, in...)

		if checkAndMarkToolLimit(state, maxToolCalls) {
			maxToolCalls = normalizeMaxToolCalls(maxToolCalls)
			wrapUp := &schema.Message{
				Role: schema.System,
				Content: fmt.Sprintf(
					"SYSTEM NOTICE: You have reached the maximum tool call limit (%d). "+
						"Please synthesize a helpful response using the information you've already gathered. "+
						"Acknowledge any limitations in your response if you couldn't complete all necessary tool calls.",
					maxToolCalls,
				),
			}
			state.History = append(state.History, wrapUp)
		}

		logx.Debug().Msg("AI thinking...")

		return state.History, nil
	}
}

// NewSupervisorPostHandler creates the post-handler for the Supervisor node
func NewSupervisorPostHandler(mgr *conversations.Manager, modelName string) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.AppState) (*schema.Message, error) {
		trackUsageCost(out, modelName, NodeSupervisor, state.ThreadID, state)

		// Normalize tool calls: some providers (Gemini OpenAI-compat) may omit tool_call IDs.
		if out != nil && len(out.ToolCalls) > 0 {
			for i := range out.ToolCalls {
				if strings.TrimSpace(out.ToolCalls[i].ID) == "" {
					state.ToolCallIDSeq++
					out.ToolCalls[i].ID = fmt.Sprintf("call_%d", state.ToolCallIDSeq)
				}
			}
		}

		state.History = append(state.History, out)

		if len(out.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(out.ToolCalls)).Msg("Calling tools")
		} else {
			logx.Debug().Msg("AI response ready")
		}

		// Save only when it's a final assistant message (no further tool calls),
		// or when we've reached the tool-call limit but still have a content response.
		if out.Role == schema.Assistant && (len(out.ToolCalls) == 0 || state.ToolCallLimitReached) && strings.TrimSpace(out.Content) != "" {
			if err := mgr.SaveAssistantTurn(ctx, state.ThreadID, out.Content); err != nil {
				logx.Error().
					Str("thread_id", state.ThreadID).
					Err(err).
					Msg("Error saving assistant response in supervisor post-handler")
			} else {
				logx.Debug().
					Str("thread_id", state.ThreadID).
					Msg("Successfully saved assistant response")
			}
		}

		return out, nil
	}
}

// trackUsageCost computes and logs usage cost when the provider reports token
// usage, accumulating the running total into state when one is given.
func trackUsageCost(out *schema.Message, modelName, node, threadID string, state *model.AppState) {
	if !model.CostEnabled() || out == nil || out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	pricing := model.ResolvePricing(modelName)
	inC, outC, totalC := model.ComputeCost(out.ResponseMeta.Usage, pricing)
	if out.Extra == nil {
		out.Extra = map[string]any{}
	}
	out.Extra["usage_cost"] = map[string]any{
		"currency":          "USD",
		"model":             modelName,
		"prompt_tokens":     out.ResponseMeta.Usage.PromptTokens,
		"completion_tokens": out.ResponseMeta.Usage.CompletionTokens,
		"total_tokens":      out.ResponseMeta.Usage.TotalTokens,
		"input_cost":        inC,
		"output_cost":       outC,
		"total_cost":        totalC,
	}
	logx.Debug().
		Str("thread_id", threadID).
		Str("node", node).
		Str("model", modelName).
		Int("prompt_tokens", out.ResponseMeta.Usage.PromptTokens).
		Int("completion_tokens", out.ResponseMeta.Usage.CompletionTokens).
		Int("total_tokens", out.ResponseMeta.Usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")

	if state != nil {
		state.TotalCostUSD += totalC
		out.Extra["usage_cost_total_usd"] = state.TotalCostUSD
	}
}

// NewToolExecutorCondition creates the condition function for tool execution routing
func NewToolExecutorCondition() func(context.Context, *schema.Message) (string, error) {
	return func(ctx context.Context, input *schema.Message) (string, error) {
		// Check if tool limit was reached
		var limitReached bool
		compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			limitReached = state.ToolCallLimitReached
			return nil
		})

		if limitReached {
			logx.Debug().Msg("Tool limit reached previously - routing to end")
			return compose.END, nil
		}

		if len(input.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(input.ToolCalls)).Msg("Routing to ToolExecutor")
			return NodeToolExecutor, nil
		}

		logx.Debug().Msg("No tool calls - continuing to end")
		return compose.END, nil
	}
}

// NewToolExecutorPreHandler creates the pre-handler for ToolExecutor node
func NewToolExecutorPreHandler(maxToolCalls int) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, in *schema.Message, state *model.AppState) (*schema.Message, error) {
		// Increment tool call counter
		exceeded := incrementToolCallAndCheck(state, maxToolCalls)

		logx.Debug().
			Int("tool_call_count", state.ToolCallCount).
			Str("thread_id", state.ThreadID).
			Msg("Tool execution attempt")

		if exceeded {
			maxToolCalls = normalizeMaxToolCalls(maxToolCalls)
			logx.Warn().
				Int("tool_call_count", state.ToolCallCount).
				Int("max_tool_calls", maxToolCalls).
				Str("thread_id", state.ThreadID).
				Msg("Tool call limit exceeded - flagging and continuing")
		}

		return in, nil
	}
}
