package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	plannermodel "github.com/tripsmith/server/internal/planner/model"
	logx "github.com/tripsmith/server/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	APIKey        string
	BaseURL       string
	SupervisorCfg *plannermodel.SupervisorModelConfig
	AgentCfg      *plannermodel.AgentModelConfig
}

// ChatModels holds the supervisor model (Phase 2 conversation + synthesis)
// and the lighter model shared by the three specialist agents.
type ChatModels struct {
	Supervisor     model.ToolCallingChatModel
	Agent          model.ToolCallingChatModel
	SupervisorName string
	AgentName      string
}

// NewChatModels creates both Gemini chat models with the given configuration.
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	supervisor, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.SupervisorCfg.Model,
		Temperature: &config.SupervisorCfg.Temperature,
		MaxTokens:   &config.SupervisorCfg.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating supervisor model")
		return nil, fmt.Errorf("error creating supervisor model: %w", err)
	}

	agent, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.AgentCfg.Model,
		Temperature: &config.AgentCfg.Temperature,
		MaxTokens:   &config.AgentCfg.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating agent model")
		return nil, fmt.Errorf("error creating agent model: %w", err)
	}

	return &ChatModels{
		Supervisor:     supervisor,
		Agent:          agent,
		SupervisorName: config.SupervisorCfg.Model,
		AgentName:      config.AgentCfg.Model,
	}, nil
}
