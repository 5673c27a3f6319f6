// Package agents provides the generic reasoning agent: a ReAct loop driven by
// a directive and a capability set, iterating tool calls until the model
// emits a final textual answer or the step bound is hit.
package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/flow/agent/react"
	"github.com/cloudwego/eino/schema"

	logx "github.com/tripsmith/server/pkg/logger"
)

const DefaultMaxSteps = 12

// Agent is one specialized reasoning agent instance. The three trip
// specialists differ only in directive text and capability set.
type Agent struct {
	name      string
	directive string
	runner    *react.Agent
}

// New builds an agent from a directive and a capability set. maxSteps bounds
// the think/call/observe loop so a backend that never stops calling tools
// cannot spin forever.
func New(ctx context.Context, name, directive string, cm model.ToolCallingChatModel, capabilities []tool.BaseTool, maxSteps int) (*Agent, error) {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	runner, err := react.NewAgent(ctx, &react.AgentConfig{
		ToolCallingModel: cm,
		ToolsConfig: compose.ToolsNodeConfig{
			Tools:               capabilities,
			ExecuteSequentially: true,
		},
		MaxStep: maxSteps,
	})
	if err != nil {
		return nil, fmt.Errorf("build %s agent: %w", name, err)
	}

	return &Agent{
		name:      name,
		directive: directive,
		runner:    runner,
	}, nil
}

// Run drives the loop to completion for a single request and returns the
// final free-text answer. A run that never produces free text (only tool
// calls, or an empty completion) is a failure, never an empty success.
func (a *Agent) Run(ctx context.Context, request string) (string, error) {
	out, err := a.runner.Generate(ctx, []*schema.Message{
		schema.SystemMessage(a.directive),
		schema.UserMessage(request),
	})
	if err != nil {
		logx.Error().Err(err).Str("agent", a.name).Msg("agent run failed")
		return "", fmt.Errorf("%s agent: %w", a.name, err)
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		logx.Warn().Str("agent", a.name).Msg("agent produced no final answer")
		return "", fmt.Errorf("%s agent produced no final answer", a.name)
	}

	logx.Debug().Str("agent", a.name).Int("answer_len", len(out.Content)).Msg("agent finished")
	return out.Content, nil
}
