// Package main provides the zzpkit API server implementation.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/zzpkit/zzpkit/pkg/actions"
	"github.com/zzpkit/zzpkit/pkg/automation"
	"github.com/zzpkit/zzpkit/pkg/embedding"
	"github.com/zzpkit/zzpkit/pkg/eventbus"
	"github.com/zzpkit/zzpkit/pkg/events"
	"github.com/zzpkit/zzpkit/pkg/indexer"
	"github.com/zzpkit/zzpkit/pkg/messaging"
	"github.com/zzpkit/zzpkit/pkg/persistence"
	"github.com/zzpkit/zzpkit/pkg/retriever"
	"github.com/zzpkit/zzpkit/pkg/vectorstore"
	"github.com/zzpkit/zzpkit/pkg/web"
	"github.com/zzpkit/zzpkit/pkg/workflow"
)

type apiConfig struct {
	openAIKey       string
	openAIBaseURL   string
	vectorDir       string
	messagingURL    string
	messagingAPIKey string
}

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	engine      *automation.Engine
	handlers    *web.APIHandlers
}

func NewAPI(
	ctx context.Context,
	logger *slog.Logger,
	p persistence.Persistence,
	eventBus eventbus.EventBus,
	cfg apiConfig,
) (*API, error) {
	provider, err := embedding.NewOpenAIProvider(embedding.OpenAIConfig{
		APIKey:  cfg.openAIKey,
		BaseURL: cfg.openAIBaseURL,
	}, logger)
	if err != nil {
		return nil, err
	}

	store, err := newVectorStore(cfg.vectorDir, p, provider, logger)
	if err != nil {
		return nil, err
	}

	ix := indexer.NewIndexer(p, store, logger)
	rt := retriever.NewRetriever(store, logger)
	router := workflow.NewRouter(p, rt, ix, eventBus, logger)
	registry := actions.NewDefaultRegistry(logger, newSender(cfg, logger), router)
	engine := automation.NewEngine(p, registry, logger)

	handlers := web.NewAPIHandlers(p, engine, router, registry, eventBus, logger)

	return &API{
		logger:      logger,
		persistence: p,
		eventBus:    eventBus,
		engine:      engine,
		handlers:    handlers,
	}, nil
}

// newVectorStore keeps vectors in the embedded chromem database when a
// directory is configured, and in the main database otherwise.
func newVectorStore(
	vectorDir string,
	p persistence.Persistence,
	provider embedding.Provider,
	logger *slog.Logger,
) (vectorstore.Store, error) {
	if vectorDir != "" {
		return vectorstore.NewChromemStore(vectorDir, provider, logger)
	}

	return vectorstore.NewEmbeddingStore(p.Embeddings(), provider, logger), nil
}

func newSender(cfg apiConfig, logger *slog.Logger) messaging.Sender {
	if cfg.messagingURL == "" {
		return messaging.NewLogSender(logger)
	}

	return messaging.NewHTTPSender(messaging.Config{
		BaseURL: cfg.messagingURL,
		APIKey:  cfg.messagingAPIKey,
	})
}

func (a *API) App() *fiber.App {
	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("zzpkit API")
	})

	web.RegisterRoutes(app, a.handlers)

	return app
}

// Start subscribes the engine to domain events and serves HTTP until
// the listener fails or the process is stopped.
func (a *API) Start(ctx context.Context, port int) error {
	a.eventBus.Handle(func(ctx context.Context, event events.DomainEvent) error {
		return a.engine.HandleEvent(ctx, string(event.Type), event.Data, event.UserID)
	})

	if err := a.eventBus.Subscribe(ctx); err != nil {
		return err
	}

	return a.App().Listen(":" + strconv.Itoa(port))
}
