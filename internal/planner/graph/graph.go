// Package graph composes the trip planning workflow: a gatekeeper that routes
// each turn either into the fixed planning pipeline (weather, suggestions,
// budget, synthesis) or into the conversational supervisor loop, depending on
// whether the thread already has a completed plan.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/tripsmith/server/internal/planner/graph/agents"
	"github.com/tripsmith/server/internal/planner/graph/conversations"
	"github.com/tripsmith/server/internal/planner/graph/nodes"
	"github.com/tripsmith/server/internal/planner/graph/observers"
	"github.com/tripsmith/server/internal/planner/graph/tools"
	"github.com/tripsmith/server/internal/planner/model"
	"github.com/tripsmith/server/internal/travel/amadeus"
	"github.com/tripsmith/server/internal/travel/geoapify"
	"github.com/tripsmith/server/internal/travel/openweather"
	"github.com/tripsmith/server/internal/travel/tavily"
	logx "github.com/tripsmith/server/pkg/logger"
)

// Runner is a thin wrapper to execute the compiled graph with the public TurnInput.
type Runner interface {
	Invoke(ctx context.Context, in model.TurnInput) (string, error)
}

// Config holds everything needed to compose the full planning graph end-to-end.
// This is a convenience layer over GraphConfig that also constructs ChatModels,
// the conversation Manager and the agent factory.
type Config struct {
	APIKey          string
	BaseURL         string
	SupervisorModel model.SupervisorModelConfig
	AgentModel      model.AgentModelConfig
	Conversation    model.ConversationConfig
	TripRepo        model.TripRepository

	Amadeus     *amadeus.Client
	Geoapify    *geoapify.Client
	OpenWeather *openweather.Client
	Tavily      *tavily.Client
}

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	ChatModels      *nodes.ChatModels
	Manager         *conversations.Manager
	Agents          tools.TripRunner
	SupervisorTools []tool.BaseTool
	ToolMaxCalls    int
}

// GraphBuilder handles the construction of the planning graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.TurnInput, *schema.Message]
}

// graphRunner serializes turns per thread. Concurrent turns for distinct
// threads run in parallel; two turns on the same thread would race on the
// stored trip record and history, so the second waits.
type graphRunner struct {
	runnable compose.Runnable[model.TurnInput, *schema.Message]

	mu          sync.Mutex
	threadLocks map[string]*sync.Mutex
}

func (r *graphRunner) lockThread(threadID string) *sync.Mutex {
	r.mu.Lock()
	lock, ok := r.threadLocks[threadID]
	if !ok {
		lock = &sync.Mutex{}
		r.threadLocks[threadID] = lock
	}
	r.mu.Unlock()
	return lock
}

func (r *graphRunner) Invoke(ctx context.Context, in model.TurnInput) (string, error) {
	lock := r.lockThread(in.ThreadID)
	lock.Lock()
	defer lock.Unlock()

	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return "", err
	}
	if out == nil {
		return "", nil
	}
	return out.Content, nil
}

// BuildPlannerGraph composes ChatModels, the conversation Manager, the agent
// factory and all tools, builds the graph, and returns a Runner.
func BuildPlannerGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.TripRepo == nil {
		return nil, fmt.Errorf("trip repo is nil")
	}
	if cfg.Amadeus == nil || cfg.Geoapify == nil || cfg.OpenWeather == nil || cfg.Tavily == nil {
		return nil, fmt.Errorf("travel clients are not properly initialized")
	}

	// Create chat models
	cms, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{
		APIKey:        cfg.APIKey,
		BaseURL:       cfg.BaseURL,
		SupervisorCfg: &cfg.SupervisorModel,
		AgentCfg:      &cfg.AgentModel,
	})
	if err != nil {
		return nil, err
	}

	// Create conversation manager
	mgr := conversations.NewManager(cfg.TripRepo)

	// Create the agent factory with per-specialist capability sets
	factory := agents.NewFactory(
		cms.Agent,
		tools.GetWeatherTools(cfg.OpenWeather, cfg.Tavily),
		tools.GetSuggestionTools(cfg.Geoapify, cfg.Tavily),
		tools.GetBudgetTools(cfg.Amadeus, cfg.Geoapify, cfg.Tavily),
		cfg.Conversation.Agent.MaxSteps,
	)

	supervisorTools := tools.GetSupervisorTools(factory, tools.NewWebSearchTool(cfg.Tavily))

	// Build runnable graph
	runnable, err := BuildGraph(ctx, &GraphConfig{
		ChatModels:      cms,
		Manager:         mgr,
		Agents:          factory,
		SupervisorTools: supervisorTools,
		ToolMaxCalls:    cfg.Conversation.Tools.MaxCalls,
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Planner graph built successfully")
	return &graphRunner{
		runnable:    runnable,
		threadLocks: make(map[string]*sync.Mutex),
	}, nil
}

// BuildGraph constructs and returns the compiled planning graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.TurnInput, *schema.Message], error) {
	// Basic config validation
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModels == nil || config.ChatModels.Supervisor == nil || config.ChatModels.Agent == nil {
		return nil, fmt.Errorf("chat models are not properly initialized")
	}
	if config.Manager == nil {
		return nil, fmt.Errorf("conversation manager is nil")
	}
	if config.Agents == nil {
		return nil, fmt.Errorf("agent factory is nil")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.TurnInput, *schema.Message](
			compose.WithGenLocalState(func(ctx context.Context) *model.AppState {
				return &model.AppState{}
			}),
		),
	}

	if err := builder.setupSupervisorTools(ctx); err != nil {
		return nil, err
	}

	builder.addNodes()
	builder.addEdges()

	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// setupSupervisorTools binds the Phase 2 meta-tools to the supervisor model
// and adds the tool executor node
func (b *GraphBuilder) setupSupervisorTools(ctx context.Context) error {
	toolInfos, err := tools.GetToolInfos(ctx, b.config.SupervisorTools)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to get tool infos")
		return fmt.Errorf("failed to get tool infos: %w", err)
	}

	bound, err := b.config.ChatModels.Supervisor.WithTools(toolInfos)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools to supervisor model")
		return fmt.Errorf("failed to bind tools to supervisor model: %w", err)
	}
	b.config.ChatModels.Supervisor = bound

	toolsNode, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		Tools:               b.config.SupervisorTools,
		ExecuteSequentially: true,
		UnknownToolsHandler: func(ctx context.Context, name, input string) (string, error) {
			// Gracefully handle hallucinated or malformed tool calls (e.g., empty name)
			logx.Warn().
				Str("tool_name", name).
				Str("arguments", input).
				Msg("Unknown or invalid tool call; returning fallback result")
			// Return a compact, structured message the model can use to proceed
			return fmt.Sprintf("{\"error\":\"unknown_tool\",\"name\":%q,\"note\":\"ignored\"}", name), nil
		},
		ToolArgumentsHandler: func(ctx context.Context, name, arguments string) (string, error) {
			// Best-effort sanitize; never fail hard here
			var m map[string]any
			if err := json.Unmarshal([]byte(arguments), &m); err != nil {
				// keep original if not JSON
				return arguments, nil
			}

			// All supervisor tools take plain string fields plus the two
			// numeric budget fields; trim the strings and coerce the numbers.
			for k, v := range m {
				switch k {
				case "adults", "budget":
					switch vv := v.(type) {
					case float64:
						// JSON numbers decode as float64
						m[k] = int(vv)
					case string:
						if n, err := strconv.Atoi(strings.TrimSpace(vv)); err == nil {
							m[k] = n
						} else {
							delete(m, k)
						}
					default:
						delete(m, k)
					}
				default:
					switch vv := v.(type) {
					case string:
						m[k] = strings.TrimSpace(vv)
					}
				}
			}

			sanitized, err := json.Marshal(m)
			if err != nil {
				// fallback to original
				return arguments, nil
			}
			return string(sanitized), nil
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Failed to create tools node")
		return fmt.Errorf("failed to create tools node: %w", err)
	}

	b.graph.AddToolsNode(nodes.NodeToolExecutor, toolsNode,
		compose.WithStatePreHandler(nodes.NewToolExecutorPreHandler(b.config.ToolMaxCalls)),
	)

	return nil
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() {
	b.graph.AddLambdaNode(nodes.NodeGatekeeper,
		nodes.NewGatekeeperNode(b.config.Manager),
		compose.WithStatePreHandler(nodes.NewGatekeeperPreHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeWeatherStage,
		nodes.NewWeatherStageNode(b.config.Agents, b.config.Manager),
	)

	b.graph.AddLambdaNode(nodes.NodeSuggestionStage,
		nodes.NewSuggestionStageNode(b.config.Agents, b.config.Manager),
	)

	b.graph.AddLambdaNode(nodes.NodeBudgetStage,
		nodes.NewBudgetStageNode(b.config.Agents, b.config.Manager),
	)

	b.graph.AddLambdaNode(nodes.NodeSynthesis,
		nodes.NewSynthesisNode(b.config.ChatModels.Supervisor, b.config.ChatModels.SupervisorName, b.config.Manager),
	)

	b.graph.AddLambdaNode(nodes.NodeSupervisorAssembler,
		nodes.NewSupervisorAssemblerNode(),
	)

	b.graph.AddChatModelNode(nodes.NodeSupervisor,
		b.config.ChatModels.Supervisor,
		compose.WithStatePreHandler(nodes.NewSupervisorPreHandler(b.config.ToolMaxCalls)),
		compose.WithStatePostHandler(nodes.NewSupervisorPostHandler(b.config.Manager, b.config.ChatModels.SupervisorName)),
	)
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, nodes.NodeGatekeeper},
		{nodes.NodeWeatherStage, nodes.NodeSuggestionStage},
		{nodes.NodeSuggestionStage, nodes.NodeBudgetStage},
		{nodes.NodeBudgetStage, nodes.NodeSynthesis},
		{nodes.NodeSynthesis, compose.END},
		{nodes.NodeSupervisorAssembler, nodes.NodeSupervisor},
		{nodes.NodeToolExecutor, nodes.NodeSupervisor},
	}

	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	phaseBranch := compose.NewGraphBranch(
		nodes.NewPhaseCondition(),
		map[string]bool{
			nodes.NodeWeatherStage:        true,
			nodes.NodeSupervisorAssembler: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeGatekeeper, phaseBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding phase branch")
		return fmt.Errorf("error adding phase branch: %w", err)
	}

	decisionBranch := compose.NewGraphBranch(
		nodes.NewToolExecutorCondition(),
		map[string]bool{
			nodes.NodeToolExecutor: true,
			compose.END:            true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeSupervisor, decisionBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding decision branch")
		return fmt.Errorf("error adding decision branch: %w", err)
	}

	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.TurnInput, *schema.Message], error) {
	// Limit total run steps to avoid infinite loops in branching or tool retries
	maxSteps := 10 + b.config.ToolMaxCalls*2
	if maxSteps < 20 {
		maxSteps = 20
	}

	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(maxSteps))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
