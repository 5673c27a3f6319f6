package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/tripsmith/server/internal/core"
	"github.com/tripsmith/server/internal/planner/graph"
	"github.com/tripsmith/server/internal/planner/model"
	"github.com/tripsmith/server/internal/planner/repo"
	"github.com/tripsmith/server/internal/server"
	"github.com/tripsmith/server/internal/travel/amadeus"
	"github.com/tripsmith/server/internal/travel/geoapify"
	"github.com/tripsmith/server/internal/travel/openweather"
	"github.com/tripsmith/server/internal/travel/tavily"
	logx "github.com/tripsmith/server/pkg/logger"
	pkgredis "github.com/tripsmith/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the planner service,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	ListenAddr  string `envconfig:"LISTEN_ADDR" default:":8080"`

	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Planner configs
	Supervisor   model.SupervisorModelConfig
	Agent        model.AgentModelConfig
	Conversation model.ConversationConfig

	// Travel providers
	Amadeus     amadeus.Config
	Geoapify    geoapify.Config
	OpenWeather openweather.Config
	Tavily      tavily.Config
}

func main() {
	ctx := context.Background()

	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load structured config from env
	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(envCfg.Environment)})

	rdb, err := envCfg.Redis.New()
	if err != nil {
		log.Fatalf("Failed to initialise Redis client: %v", err)
	}
	defer rdb.Close()

	logx.Info().Msg("Connected to Redis successfully")

	ttl, err := time.ParseDuration(envCfg.Conversation.TTL)
	if err != nil {
		log.Fatalf("Invalid CONVERSATION_TTL '%s': %v", envCfg.Conversation.TTL, err)
	}

	runner, err := graph.BuildPlannerGraph(ctx, graph.Config{
		APIKey:          envCfg.APIKey,
		BaseURL:         envCfg.BaseURL,
		SupervisorModel: envCfg.Supervisor,
		AgentModel:      envCfg.Agent,
		Conversation:    envCfg.Conversation,
		TripRepo:        repo.NewRedisTripRepository(rdb, ttl),
		Amadeus:         amadeus.New(envCfg.Amadeus),
		Geoapify:        geoapify.New(envCfg.Geoapify),
		OpenWeather:     openweather.New(envCfg.OpenWeather),
		Tavily:          tavily.New(envCfg.Tavily),
	})
	if err != nil {
		log.Fatalf("Failed to build planner graph: %v", err)
	}

	srv := server.New(envCfg.ListenAddr, runner)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("HTTP server failed: %v", err)
	case sig := <-stop:
		logx.Info().Str("signal", sig.String()).Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logx.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}
}
