// Package wire 提供手工依赖装配
package wire

import (
	"context"
	"fmt"
	"time"

	"copysmith-ai-api/internal/application/credit"
	"copysmith-ai-api/internal/application/generation"
	"copysmith-ai-api/internal/application/retrieval"
	"copysmith-ai-api/internal/config"
	"copysmith-ai-api/internal/infrastructure/corpus"
	"copysmith-ai-api/internal/infrastructure/image"
	"copysmith-ai-api/internal/infrastructure/llm"
	"copysmith-ai-api/internal/infrastructure/persistence/postgres"
	"copysmith-ai-api/internal/infrastructure/persistence/redis"
	"copysmith-ai-api/internal/interfaces/http/handler"
	"copysmith-ai-api/internal/interfaces/http/router"
	"copysmith-ai-api/internal/workflow/prompt"
	"copysmith-ai-api/pkg/auth"
	"copysmith-ai-api/pkg/logger"
)

// App 装配完成的应用
type App struct {
	Router *router.Router
	Pg     *postgres.Client
	Redis  *redis.Client
}

// InitializeApp 按依赖顺序装配整个应用
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	// 数据层
	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init postgres: %w", err)
	}
	if err := pgClient.AutoMigrate(); err != nil {
		_ = pgClient.Close()
		return nil, nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	redisClient, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		_ = pgClient.Close()
		return nil, nil, fmt.Errorf("failed to init redis: %w", err)
	}

	txManager := postgres.NewTxManager(pgClient)
	userRepo := postgres.NewUserRepository(pgClient)
	creditRepo := postgres.NewCreditRepository(pgClient)
	generationRepo := postgres.NewGenerationRepository(pgClient)
	resultCache := redis.NewResultCache(redisClient)
	rateLimiter := redis.NewRateLimiter(redisClient, cfg.Security.RateLimit.RequestsPerSecond, time.Second)

	// 语料与召回：进程启动时加载一次，之后只读
	corpusStore := corpus.NewFileStore(cfg.Corpus.Path)
	examples, err := corpusStore.LoadExamples(ctx)
	if err != nil {
		_ = redisClient.Close()
		_ = pgClient.Close()
		return nil, nil, fmt.Errorf("failed to load corpus: %w", err)
	}
	retriever := retrieval.NewRetriever(examples)
	logger.Info(ctx, "corpus loaded", "examples", retriever.Size())

	// 生成后端
	textProvider := llm.NewEinoProvider(cfg)
	imageProvider, err := image.NewGenAIProvider(ctx, &cfg.Image)
	if err != nil {
		_ = redisClient.Close()
		_ = pgClient.Close()
		return nil, nil, fmt.Errorf("failed to init image provider: %w", err)
	}

	// 应用层
	gate := credit.NewGate(creditRepo, txManager)
	orchestrator := generation.NewOrchestrator(
		retriever,
		prompt.NewAssembler(prompt.NewRegistry()),
		generation.NewParser(),
		textProvider,
		imageProvider,
		&cfg.Pipeline,
	)
	generationSvc := generation.NewService(orchestrator, gate, generationRepo, resultCache, &cfg.Pipeline)

	// 接口层
	jwtManager := auth.NewJWTManager(cfg.Security.JWT.Secret, cfg.Security.JWT.Issuer)
	generationHandler := handler.NewGenerationHandler(generationSvc, cfg)
	handlers := router.Handlers{
		Health:     handler.NewHealthHandler(pgClient, redisClient, cfg.App.Version),
		Auth:       handler.NewAuthHandler(userRepo, jwtManager, &cfg.Security.JWT),
		Generation: generationHandler,
		Stream:     handler.NewStreamHandler(generationHandler, generationSvc),
		Credit:     handler.NewCreditHandler(gate),
	}

	app := &App{
		Router: router.New(cfg, handlers, rateLimiter),
		Pg:     pgClient,
		Redis:  redisClient,
	}

	cleanup := func() {
		if err := redisClient.Close(); err != nil {
			logger.Error(ctx, "failed to close redis", err)
		}
		if err := pgClient.Close(); err != nil {
			logger.Error(ctx, "failed to close postgres", err)
		}
	}
	return app, cleanup, nil
}
