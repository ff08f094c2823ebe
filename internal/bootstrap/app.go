package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"cv-ingest/internal/aiparse"
	"cv-ingest/internal/llm"
	openai "cv-ingest/internal/llm/openai"
	"cv-ingest/internal/quota"
	"cv-ingest/internal/services/health"
	"cv-ingest/internal/shared/config"
	"cv-ingest/internal/shared/server"
	"cv-ingest/internal/shared/storage/db"
	"cv-ingest/internal/shared/storage/object"
	localstore "cv-ingest/internal/shared/storage/object/local"
	miniostore "cv-ingest/internal/shared/storage/object/minio"
	s3store "cv-ingest/internal/shared/storage/object/s3"
	"cv-ingest/internal/shared/telemetry"
	"cv-ingest/internal/uploads"
)

// App holds shared dependencies and the HTTP router.
type App struct {
	Config         config.Config
	Router         *gin.Engine
	DB             *sql.DB
	Redis          *redis.Client
	Store          object.ObjectStore
	UploadsRepo    uploads.Repo
	Quota          quota.Checker
	LLM            llm.Client
	Parser         *aiparse.Parser
	UploadsService *uploads.Service
	UploadsHandler *uploads.Handler
	Health         *health.Service
}

// Build constructs every component once and mounts the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Health: health.NewService(sqlDB),
	}

	if sqlDB != nil {
		app.UploadsRepo = &uploads.PGRepo{DB: sqlDB}
	} else {
		app.UploadsRepo = uploads.NewMemoryRepo()
	}

	if err := buildQuota(app); err != nil {
		return nil, err
	}

	llmClient, err := buildLLM(cfg.LLM)
	if err != nil {
		return nil, err
	}
	app.LLM = llmClient
	app.Parser = aiparse.NewParser(llmClient, aiparse.Options{
		Model:         cfg.LLM.Model,
		MaxInputChars: cfg.AI.MaxInputChars,
		Policy: aiparse.Policy{
			MaxAttempts: cfg.AI.MaxAttempts,
			BaseDelay:   cfg.AI.BaseDelay,
		},
	})

	app.UploadsService = &uploads.Service{
		Repo:   app.UploadsRepo,
		Quota:  app.Quota,
		Store:  app.Store,
		Parser: app.Parser,
	}
	app.UploadsHandler = uploads.NewHandler(app.UploadsService, cfg.Upload)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:   cfg,
		Health:   app.Health,
		Handlers: []server.RouteRegistrar{app.UploadsHandler},
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.db.memory", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.DefaultLambdaOptions().WithOverrides(cfg.DB)
		sqlDB, err = db.Shared(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.DefaultServerOptions().WithOverrides(cfg.DB)
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.db.memory", map[string]any{"reason": "connect failed", "err": err.Error()})
			return nil, nil
		}
		return nil, err
	}

	if isDevLike(cfg.Env) {
		telemetry.Info("bootstrap.db.migrate", map[string]any{"env": cfg.Env})
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "minio":
		return miniostore.New(ctx, cfg.MinIO)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

// buildQuota prefers the Redis counter when REDIS_URL is set and falls back
// to counting stored records.
func buildQuota(app *App) error {
	limit, window := app.Config.Quota.Limit, app.Config.Quota.Window
	if url := strings.TrimSpace(app.Config.RedisURL); url != "" {
		client, err := quota.NewRedisClient(url)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			// quota checks fail open until Redis recovers
			telemetry.Warn("bootstrap.redis.ping_failed", map[string]any{"err": err.Error()})
		}
		app.Redis = client
		app.Quota = quota.NewRedisService(client, limit, window)
		return nil
	}
	app.Quota = quota.NewService(app.UploadsRepo, limit, window)
	return nil
}

func buildLLM(cfg config.LLMConfig) (llm.Client, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "openai":
		if strings.TrimSpace(cfg.APIKey) == "" {
			telemetry.Warn("bootstrap.llm.no_api_key", map[string]any{"provider": "openai"})
		}
		return openai.NewClient(openai.Options{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		})
	default:
		telemetry.Warn("bootstrap.llm.unconfigured", map[string]any{"provider": cfg.Provider})
		return llm.UnconfiguredClient{Provider: cfg.Provider}, nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
