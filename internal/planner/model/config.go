package model

// ================ Config ================

// SupervisorModelConfig configures the model that drives Phase 2 conversation
// and the Phase 1 itinerary synthesis.
type SupervisorModelConfig struct {
	Model       string  `envconfig:"SUPERVISOR_MODEL" default:"gemini-2.5-pro"`
	MaxTokens   int     `envconfig:"SUPERVISOR_MAX_TOKENS" default:"4096"`
	Temperature float32 `envconfig:"SUPERVISOR_TEMPERATURE" default:"0.5"`
}

// AgentModelConfig configures the model shared by the weather, suggestion and
// budget reasoning agents.
type AgentModelConfig struct {
	Model       string  `envconfig:"AGENT_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"AGENT_MAX_TOKENS" default:"2048"`
	Temperature float32 `envconfig:"AGENT_TEMPERATURE" default:"0.5"`
}

type ConversationConfig struct {
	TTL string `envconfig:"CONVERSATION_TTL" default:"24h"`
	Tools struct {
		MaxCalls int `envconfig:"CONVERSATION_TOOL_MAX_CALLS" default:"10"`
	}
	Agent struct {
		MaxSteps int `envconfig:"AGENT_MAX_STEPS" default:"12"`
	}
}
