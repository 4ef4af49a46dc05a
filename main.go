package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/Chative-shopping-guide/server/internal/agent/model"
	"github.com/Chative-shopping-guide/server/internal/core"
	logx "github.com/Chative-shopping-guide/server/pkg/logger"
	pkgneo4j "github.com/Chative-shopping-guide/server/pkg/neo4j"
	pkgredis "github.com/Chative-shopping-guide/server/pkg/redis"
)

// AppConfig defines all configurable parameters of the assistant,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	Redis pkgredis.Config
	Neo4j pkgneo4j.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Catalog      model.CatalogConfig
	Intent       model.IntentConfig
	Response     model.ResponseConfig
	Conversation model.ConversationConfig
	Reply        model.ReplyModelConfig
	Prompt       model.PromptConfig
	Server       model.ServerConfig
}

func (c AppConfig) Env() core.Environment {
	return core.ParseEnvironment(c.Environment)
}

func loadConfig() (AppConfig, error) {
	if err := godotenv.Load(".env"); err != nil {
		logx.Debug().Err(err).Msg("No .env file loaded")
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
