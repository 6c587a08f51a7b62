package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kapu/recipe-telegram-bot-go/internal/adapter"
	"github.com/kapu/recipe-telegram-bot-go/internal/bot"
	"github.com/kapu/recipe-telegram-bot-go/internal/config"
	"github.com/kapu/recipe-telegram-bot-go/internal/constants"
	"github.com/kapu/recipe-telegram-bot-go/internal/service"
	"github.com/kapu/recipe-telegram-bot-go/internal/service/ai"
	"github.com/kapu/recipe-telegram-bot-go/internal/service/cache"
	"github.com/kapu/recipe-telegram-bot-go/internal/session"
	"go.uber.org/zap"
)

// Container bundles assembled services for constructing runtime components like Bot.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	botDeps *bot.Dependencies
	cache   *cache.CacheService
}

// NewBot instantiates a bot using the pre-built dependency graph.
func (c *Container) NewBot() (*bot.Bot, error) {
	if c == nil || c.botDeps == nil {
		return nil, fmt.Errorf("bot dependencies not initialized")
	}
	return bot.NewBot(c.botDeps)
}

// Close releases held infrastructure connections.
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.cache != nil {
		_ = c.cache.Close()
	}
}

// Build assembles all infrastructure services and returns a container capable
// of creating fully-wired bots. Heavy-weight initialization (cache/AI) happens
// here so that bot.NewBot stays focused on orchestration logic.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	messageAdapter := adapter.NewMessageAdapter()
	formatter := adapter.NewResponseFormatter()

	// Cache is optional infrastructure: the catalog degrades to uncached
	// requests when redis is unreachable.
	cacheSvc, err := cache.NewCacheService(cache.CacheConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)
	if err != nil {
		logger.Warn("Cache unavailable, continuing without it", zap.Error(err))
		cacheSvc = nil
	} else {
		closers = append(closers, func() {
			_ = cacheSvc.Close()
		})
	}

	// Recipe catalog
	httpClient := &http.Client{Timeout: constants.APIConfig.MealDBTimeout}
	mealdbClient := service.NewMealDBAPIClient(httpClient, cfg.MealDB.BaseURL, logger)
	catalog := service.NewMealDBService(mealdbClient, cacheSvc, logger)

	// AI stack
	modelManager, err := ai.NewModelManager(ctx, ai.ModelManagerConfig{
		GeminiAPIKey:   cfg.Gemini.APIKey,
		OpenAIAPIKey:   cfg.OpenAI.APIKey,
		EnableFallback: cfg.OpenAI.EnableFallback,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create model manager: %w", err)
	}

	translator := ai.NewTranslationService(modelManager, cfg.Translate.SourceLang, cfg.Translate.TargetLang, logger)

	deps := &bot.Dependencies{
		Config:         cfg,
		Logger:         logger,
		MessageAdapter: messageAdapter,
		Formatter:      formatter,
		Sessions:       session.NewStore(),
		Catalog:        catalog,
		Translator:     translator,
	}

	return &Container{
		Config:  cfg,
		Logger:  logger,
		botDeps: deps,
		cache:   cacheSvc,
	}, nil
}
