package agents

import (
	"context"
	"fmt"
	"sync"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoIn struct {
	Text string `json:"text"`
}

type echoOut struct {
	Text string `json:"text"`
}

func echoTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: "echo",
			Desc: "echoes its input",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"text": {Type: "string", Required: true},
			}),
		},
		func(_ context.Context, in *echoIn) (*echoOut, error) {
			return &echoOut{Text: in.Text}, nil
		},
	)
}

// scriptedModel pops one canned response per Generate call.
type scriptedModel struct {
	mu    sync.Mutex
	queue []*schema.Message

	lastInput []*schema.Message
}

func (m *scriptedModel) Generate(_ context.Context, in []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastInput = in
	if len(m.queue) == 0 {
		return nil, fmt.Errorf("scripted model queue is empty")
	}
	out := m.queue[0]
	m.queue = m.queue[1:]
	return out, nil
}

func (m *scriptedModel) Stream(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	out, err := m.Generate(ctx, in, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{out}), nil
}

func (m *scriptedModel) WithTools(_ []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	return m, nil
}

func TestAgentRunReturnsFinalAnswer(t *testing.T) {
	ctx := context.Background()
	sm := &scriptedModel{queue: []*schema.Message{
		schema.AssistantMessage("Pack an umbrella; rain is likely mid-week.", nil),
	}}

	a, err := New(ctx, "weather", "You are a weather analyst.", sm, []tool.BaseTool{echoTool()}, 5)
	require.NoError(t, err)

	out, err := a.Run(ctx, "What is the forecast for Tokyo?")
	require.NoError(t, err)
	assert.Equal(t, "Pack an umbrella; rain is likely mid-week.", out)

	// The directive and request both reached the model.
	require.NotEmpty(t, sm.lastInput)
	assert.Equal(t, schema.System, sm.lastInput[0].Role)
	assert.Contains(t, sm.lastInput[0].Content, "weather analyst")
}

func TestAgentRunEmptyAnswerIsError(t *testing.T) {
	ctx := context.Background()
	sm := &scriptedModel{queue: []*schema.Message{
		schema.AssistantMessage("   ", nil),
	}}

	a, err := New(ctx, "budget", "directive", sm, []tool.BaseTool{echoTool()}, 5)
	require.NoError(t, err)

	_, err = a.Run(ctx, "estimate costs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no final answer")
}

func TestFactoryRequestsMatchPurpose(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		purpose string
		want    string
	}{
		{"foodie", "restaurants and cafes"},
		{"entertainment", "entertainment venues"},
		{"business", "for business"},
		{"", "worthwhile places"},
	}

	for _, tt := range tests {
		t.Run("purpose "+tt.purpose, func(t *testing.T) {
			sm := &scriptedModel{queue: []*schema.Message{
				schema.AssistantMessage("some suggestions", nil),
			}}
			f := NewFactory(sm, []tool.BaseTool{echoTool()}, []tool.BaseTool{echoTool()}, []tool.BaseTool{echoTool()}, 5)

			out, err := f.ActivitySuggestions(ctx, "Tokyo", tt.purpose, "sunny")
			require.NoError(t, err)
			assert.Equal(t, "some suggestions", out)

			// The request the agent saw carries the purpose-specific phrasing.
			last := sm.lastInput[len(sm.lastInput)-1]
			assert.Equal(t, schema.User, last.Role)
			assert.Contains(t, last.Content, tt.want)
			// The weather analysis is injected into the directive.
			assert.Contains(t, sm.lastInput[0].Content, "sunny")
		})
	}
}
