package main

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/redis/go-redis/v9"

	"github.com/Chative-shopping-guide/server/internal/agent/catalog"
	"github.com/Chative-shopping-guide/server/internal/agent/extract"
	"github.com/Chative-shopping-guide/server/internal/agent/graph"
	"github.com/Chative-shopping-guide/server/internal/agent/graph/conversations"
	"github.com/Chative-shopping-guide/server/internal/agent/model"
	"github.com/Chative-shopping-guide/server/internal/agent/reply"
	"github.com/Chative-shopping-guide/server/internal/agent/repo"
	"github.com/Chative-shopping-guide/server/internal/agent/tools"
	logx "github.com/Chative-shopping-guide/server/pkg/logger"
)

// App is the process-wide context: catalog, backend connections and the
// dialogue runner, built once at startup and released by Close.
type App struct {
	Config     AppConfig
	Store      catalog.Store
	Comparator *tools.Comparator
	Runner     graph.Runner

	rdb    *redis.Client
	driver neo4j.DriverWithContext
}

// NewCatalogApp opens the configured catalog only.
func NewCatalogApp(ctx context.Context, cfg AppConfig) (*App, error) {
	app := &App{Config: cfg}
	if err := app.openCatalog(ctx); err != nil {
		app.Close(ctx)
		return nil, err
	}
	app.Comparator = tools.NewComparator(app.Store)
	return app, nil
}

// NewApp opens the catalog, conversation memory and reply model and builds
// the dialogue graph.
func NewApp(ctx context.Context, cfg AppConfig) (*App, error) {
	app, err := NewCatalogApp(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := app.buildRunner(ctx); err != nil {
		app.Close(ctx)
		return nil, err
	}
	return app, nil
}

func (a *App) openCatalog(ctx context.Context) error {
	switch a.Config.Catalog.Backend {
	case model.CatalogBackendTable, "":
		products, err := catalog.LoadCSV(a.Config.Catalog.Path)
		if err != nil {
			return err
		}
		a.Store = catalog.NewMemoryStore(products)
	case model.CatalogBackendGraph:
		driver, err := a.neo4jDriver(ctx)
		if err != nil {
			return err
		}
		a.Store = catalog.NewGraphStore(driver, a.Config.Neo4j.Database, a.Config.Neo4j.QueryTimeout)
	default:
		return fmt.Errorf("unknown catalog backend %q", a.Config.Catalog.Backend)
	}

	logx.Info().Str("backend", a.Store.Backend()).Msg("Catalog ready")
	return nil
}

func (a *App) neo4jDriver(ctx context.Context) (neo4j.DriverWithContext, error) {
	if a.driver != nil {
		return a.driver, nil
	}
	driver, err := a.Config.Neo4j.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect neo4j: %w", err)
	}
	a.driver = driver
	logx.Info().Str("uri", a.Config.Neo4j.URI).Msg("Connected to Neo4j")
	return driver, nil
}

func (a *App) conversationRepo(ctx context.Context) (model.ConversationRepository, error) {
	if !a.Config.Redis.Enabled() {
		logx.Info().Msg("REDIS_URL not set; keeping conversation memory in process")
		return repo.NewMemoryConversationRepository(a.Config.Conversation.TTL), nil
	}

	rdb, err := a.Config.Redis.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	a.rdb = rdb
	logx.Info().Msg("Connected to Redis")
	return repo.NewRedisConversationRepository(rdb, a.Config.Conversation.TTL), nil
}

func (a *App) buildRunner(ctx context.Context) error {
	conversationRepo, err := a.conversationRepo(ctx)
	if err != nil {
		return err
	}
	mm := conversations.NewMessagesManager(conversationRepo, a.Config.Conversation).
		WithAssistantName(a.Config.Prompt.AssistantName)

	chatModel, err := reply.NewChatModel(ctx, reply.ChatModelConfig{
		APIKey:  a.Config.APIKey,
		BaseURL: a.Config.BaseURL,
		Model:   a.Config.Reply,
	})
	if err != nil {
		return err
	}

	generator, err := reply.NewGenerator(ctx, chatModel, mm, reply.Config{
		Model:  a.Config.Reply,
		Prompt: a.Config.Prompt,
	})
	if err != nil {
		return err
	}

	extractor := extract.New(a.Config.Catalog.DefaultMaxPrice)
	runner, err := graph.BuildGraph(ctx, graph.Config{
		Reply:     generator,
		Retriever: tools.NewRetriever(a.Store, extractor, a.Config.Catalog.ResultLimit),
		Coupons:   tools.NewCouponResolver(a.Store),
		Intent:    a.Config.Intent,
		Response:  a.Config.Response,
	})
	if err != nil {
		return err
	}
	a.Runner = runner
	return nil
}

// Close releases backend connections.
func (a *App) Close(ctx context.Context) {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			logx.Warn().Err(err).Msg("Failed to close Redis client")
		}
		a.rdb = nil
	}
	if a.driver != nil {
		if err := a.driver.Close(ctx); err != nil {
			logx.Warn().Err(err).Msg("Failed to close Neo4j driver")
		}
		a.driver = nil
	}
}
