package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/tripsmith/server/internal/travel/tavily"
	logx "github.com/tripsmith/server/pkg/logger"
)

type WebSearchInput struct {
	Query string `json:"query"`
}

type WebSearchOutput struct {
	Results string `json:"results,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewWebSearchTool wraps the Tavily client as a tool. It is shared by every
// agent and by the Phase 2 supervisor.
func NewWebSearchTool(search *tavily.Client) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolWebSearch,
			Desc: "Search the web for current information. Use when a dedicated lookup tool fails or does not cover the question.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     "string",
					Desc:     "Free-text search query",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *WebSearchInput) (*WebSearchOutput, error) {
			if in.Query == "" {
				return &WebSearchOutput{Error: "query is required"}, nil
			}
			results, err := search.Search(ctx, in.Query)
			if err != nil {
				logx.Warn().Err(err).Str("query", in.Query).Msg("web search failed")
				return &WebSearchOutput{Error: fmt.Sprintf("Error searching the web: %v", err)}, nil
			}
			return &WebSearchOutput{Results: results}, nil
		},
	)
}
