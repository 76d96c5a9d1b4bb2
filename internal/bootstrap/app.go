package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"codm-backend/internal/analyze"
	googleauth "codm-backend/internal/auth"
	"codm-backend/internal/dashboards"
	"codm-backend/internal/docstore"
	"codm-backend/internal/llm"
	"codm-backend/internal/llm/gemini"
	"codm-backend/internal/llm/openai"
	"codm-backend/internal/services/health"
	"codm-backend/internal/shared/auth"
	"codm-backend/internal/shared/config"
	"codm-backend/internal/shared/server"
	"codm-backend/internal/shared/server/middleware"
	"codm-backend/internal/shared/storage/db"
	"codm-backend/internal/shared/storage/object"
	localstore "codm-backend/internal/shared/storage/object/local"
	s3store "codm-backend/internal/shared/storage/object/s3"
	"codm-backend/internal/shared/telemetry"
)

// App holds shared dependencies and the assembled router.
type App struct {
	Config     config.Config
	Router     *gin.Engine
	DB         *sql.DB
	Store      docstore.Store
	Archive    object.Store
	Extractor  llm.Extractor
	Tokens     *auth.Tokens
	Health     *health.Service
	Dashboards *dashboards.Service
	Analyze    *analyze.Service
	GoogleAuth *googleauth.GoogleService
}

// Build constructs every dependency and the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	telemetry.Init(cfg.Env)

	store, sqlDB, err := BuildStore(ctx, cfg, serverPoolOptions())
	if err != nil {
		return nil, err
	}
	if sqlDB != nil && cfg.IsDevLike() {
		if err := db.Migrate(ctx, sqlDB); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	archive, err := buildArchive(ctx, cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	extractor, err := buildExtractor(ctx, cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.Env)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	app := &App{
		Config:    cfg,
		DB:        sqlDB,
		Store:     store,
		Archive:   archive,
		Extractor: extractor,
		Tokens:    tokens,
		Health:    health.NewService(0),
	}
	if sqlDB != nil {
		app.Health.Add("database", sqlDB.PingContext)
	}

	app.Dashboards = dashboards.NewService(store)
	app.Analyze = &analyze.Service{
		Extractor: extractor,
		Archive:   archive,
		Timeout:   cfg.LLMTimeout,
	}
	app.GoogleAuth = googleauth.NewGoogleService(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL,
		cfg.UIRedirectURL,
		tokens,
	)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:     cfg,
		Verifier:   tokens,
		Limiter:    middleware.NewRateLimiter(nil),
		Health:     app.Health,
		Dashboards: dashboards.NewHandler(app.Dashboards, cfg.PublicBaseURL),
		Analyze:    analyze.NewHandler(app.Analyze),
		GoogleAuth: app.GoogleAuth,
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":         cfg.Env,
		"docstore":    cfg.DocStore,
		"llmProvider": cfg.LLMProvider,
		"llmModel":    cfg.LLMModel,
		"archive":     archive != nil,
	})
	return app, nil
}

// Close releases the document store.
func (a *App) Close() error {
	if a == nil || a.Store == nil {
		return nil
	}
	return a.Store.Close()
}

func serverPoolOptions() db.Options {
	if db.IsLambdaRuntime() {
		return db.OptionsFromEnv(db.LambdaOptions())
	}
	return db.OptionsFromEnv(db.ServerOptions())
}

// BuildStore selects the document store backend. The returned *sql.DB is
// non-nil only for the postgres backend. In dev-like environments a missing
// or unreachable database falls back to the in-memory store.
func BuildStore(ctx context.Context, cfg config.Config, opts db.Options) (docstore.Store, *sql.DB, error) {
	switch cfg.DocStore {
	case "memory":
		if !cfg.IsDevLike() {
			return nil, nil, errors.New("DOCSTORE=memory is only allowed in dev")
		}
		telemetry.Warn("bootstrap: using in-memory document store", nil)
		return docstore.NewMemoryStore(), nil, nil
	case "firestore":
		fs, err := docstore.NewFirestoreStore(ctx, cfg.FirebaseProjectID, cfg.FirebaseEmail, cfg.FirebaseKey)
		if err != nil {
			return nil, nil, err
		}
		return fs, nil, nil
	}

	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap: DATABASE_URL empty; using in-memory document store", nil)
			return docstore.NewMemoryStore(), nil, nil
		}
		return nil, nil, errors.New("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		sqlDB, err = db.Shared(ctx, cfg.DatabaseURL, opts)
	} else {
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap: database connect failed; using in-memory document store", map[string]any{
				"error": err.Error(),
			})
			return docstore.NewMemoryStore(), nil, nil
		}
		return nil, nil, err
	}
	return &docstore.PostgresStore{DB: sqlDB}, sqlDB, nil
}

func buildArchive(ctx context.Context, cfg config.Config) (object.Store, error) {
	if !cfg.ScreenshotArchive {
		return nil, nil
	}
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.AWSRegion) == "" || strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, errors.New("OBJECT_STORE=s3 requires AWS_REGION and S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildExtractor(ctx context.Context, cfg config.Config) (llm.Extractor, error) {
	switch cfg.LLMProvider {
	case llm.ProviderOpenAI:
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			telemetry.Warn("bootstrap: OPENAI_API_KEY empty; analysis disabled", nil)
			return llm.Placeholder{}, nil
		}
		return openai.NewClient(openai.Options{APIKey: cfg.OpenAIAPIKey, Model: cfg.LLMModel})
	default:
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			telemetry.Warn("bootstrap: GEMINI_API_KEY empty; analysis disabled", nil)
			return llm.Placeholder{}, nil
		}
		return gemini.NewClient(ctx, gemini.Options{APIKey: cfg.GeminiAPIKey, Model: cfg.LLMModel})
	}
}
