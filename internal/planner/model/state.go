package model

import (
	"fmt"

	"github.com/cloudwego/eino/schema"
)

// TripPurpose is the single-choice trip interest selector. The HTTP layer
// still accepts the legacy foodie/entertainment/business booleans but rejects
// requests with more than one set.
type TripPurpose string

const (
	PurposeGeneral       TripPurpose = ""
	PurposeFoodie        TripPurpose = "foodie"
	PurposeEntertainment TripPurpose = "entertainment"
	PurposeBusiness      TripPurpose = "business"
)

// ParsePurpose converts the three legacy interest flags into a TripPurpose.
// More than one flag set is a validation error.
func ParsePurpose(foodie, entertainment, business bool) (TripPurpose, error) {
	set := 0
	purpose := PurposeGeneral
	if foodie {
		set++
		purpose = PurposeFoodie
	}
	if entertainment {
		set++
		purpose = PurposeEntertainment
	}
	if business {
		set++
		purpose = PurposeBusiness
	}
	if set > 1 {
		return PurposeGeneral, fmt.Errorf("at most one of foodie, entertainment, business may be set")
	}
	return purpose, nil
}

// TripParams are the immutable trip parameters captured on plan creation.
type TripParams struct {
	OriginCity  string      `json:"origin_city"`
	Destination string      `json:"destination"`
	StartDate   string      `json:"start_date"`
	EndDate     string      `json:"end_date"`
	Adults      int         `json:"adults"`
	Budget      int         `json:"budget"`
	Purpose     TripPurpose `json:"purpose"`
}

// TripState is the shared trip record threaded through the planning graph,
// keyed by thread id. Stage reports are write-once within Phase 1; a failed
// stage stores diagnostic text instead so downstream stages always have a
// string to consume.
type TripState struct {
	ThreadID string     `json:"thread_id"`
	Params   TripParams `json:"params"`

	WeatherReport    string `json:"weather_report,omitempty"`
	SuggestionReport string `json:"suggestion_report,omitempty"`
	BudgetReport     string `json:"budget_report,omitempty"`
	FinalItinerary   string `json:"final_itinerary,omitempty"`

	// InitialPlanComplete is the permanent phase marker. It flips to true when
	// synthesis finishes (successfully or not) and is never reset.
	InitialPlanComplete bool `json:"initial_plan_complete"`
}

// TurnInput is the graph entry payload. Plan creation sets Params; follow-up
// chat turns set Query and leave Params nil.
type TurnInput struct {
	ThreadID string      `json:"thread_id"`
	Query    string      `json:"query,omitempty"`
	Params   *TripParams `json:"params,omitempty"`
}

// AppState stores per-invocation state for the planning graph.
// Concurrency model:
//   - Registered as graph local state via compose.WithGenLocalState.
//   - All reads/writes happen only inside state handlers
//     (WithStatePreHandler, WithStatePostHandler, compose.ProcessState),
//     which the graph engine serializes, so no mutex is required.
//   - Cross-invocation persistence goes through TripRepository, never here.
type AppState struct {
	ThreadID             string
	Trip                 *TripState        // loaded or created by the gatekeeper
	History              []*schema.Message // supervisor conversation, mutated only in handlers
	ToolCallCount        int
	ToolCallLimitReached bool
	ToolCallIDSeq        int // synthesizes tool_call_id when the provider omits one

	// Accumulated total LLM cost (USD) across model invocations for this turn
	TotalCostUSD float64
}
