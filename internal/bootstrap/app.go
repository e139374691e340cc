package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-ingest/internal/credits"
	"resume-ingest/internal/extract"
	"resume-ingest/internal/llm"
	anthropicllm "resume-ingest/internal/llm/anthropic"
	"resume-ingest/internal/llm/gemini"
	"resume-ingest/internal/llm/openai"
	"resume-ingest/internal/ocr"
	"resume-ingest/internal/parsing"
	"resume-ingest/internal/services/health"
	"resume-ingest/internal/shared/config"
	"resume-ingest/internal/shared/server"
	"resume-ingest/internal/shared/storage/db"
	"resume-ingest/internal/shared/telemetry"
	"resume-ingest/resume/service"
)

// App holds shared dependencies.
type App struct {
	Config         config.Config
	Router         *gin.Engine
	DB             *sql.DB
	Credits        *credits.Service
	OCR            *ocr.Adapter
	Extractor      *extract.Selector
	LLM            llm.Structurer
	Structurer     *service.Client
	Parser         *parsing.Service
	ParseHandler   *parsing.Handler
	CreditsHandler *credits.Handler
	Health         *health.Service
}

// Build prepares the HTTP server: database, pipeline and router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	telemetry.Configure(cfg.LogLevel, os.Stdout)
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg, db.DefaultServerOptions(), db.Connect)
	if err != nil {
		return nil, err
	}

	app, err := BuildPipeline(ctx, cfg, sqlDB)
	if err != nil {
		return nil, err
	}

	app.ParseHandler = parsing.NewHandler(app.Parser, cfg.ParseTimeout)
	app.CreditsHandler = credits.NewHandler(app.Credits)
	app.Health = health.NewService(nil, cfg.LLMProvider)
	if sqlDB != nil {
		app.Health.DB = sqlDB
	}
	app.Router = server.NewRouter(server.RouterDeps{
		Config:         cfg,
		ParseHandler:   app.ParseHandler,
		CreditsHandler: app.CreditsHandler,
		Credits:        app.Credits,
		Health:         app.Health,
	})
	return app, nil
}

// BuildPipeline wires the parse pipeline without HTTP. A nil sqlDB keeps the
// credit ledger in memory.
func BuildPipeline(ctx context.Context, cfg config.Config, sqlDB *sql.DB) (*App, error) {
	app := &App{Config: cfg, DB: sqlDB}

	if sqlDB != nil {
		app.Credits = credits.NewPostgresService(credits.NewPGStore(sqlDB, cfg.CreditsStartingBalance))
	} else {
		app.Credits = credits.NewService(cfg.CreditsStartingBalance)
	}

	app.OCR = ocr.NewAdapter(ocr.NewTesseractProvider(ocr.Config{
		Tesseract:   cfg.TesseractPath,
		Language:    cfg.OCRLanguage,
		TessdataDir: cfg.TessdataDir,
	}, nil), nil)
	app.Extractor = extract.NewSelector(app.OCR)

	provider, err := buildLLM(ctx, cfg)
	if err != nil {
		if !isDevLike(cfg.Env) {
			return nil, err
		}
		telemetry.Warn("bootstrap.llm", map[string]any{
			"provider": cfg.LLMProvider,
			"error":    err.Error(),
			"fallback": "heuristic only",
		})
		provider = llm.PlaceholderClient{}
	}
	app.LLM = provider
	app.Structurer = service.NewClient(provider, app.Credits)
	app.Parser = parsing.NewService(app.Credits, app.Extractor, app.Structurer)

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":        cfg.Env,
		"provider":   cfg.LLMProvider,
		"model":      cfg.LLMModel,
		"ocr_lang":   cfg.OCRLanguage,
		"db_enabled": sqlDB != nil,
	})
	return app, nil
}

type connectFunc func(ctx context.Context, databaseURL string, opts db.Options) (*sql.DB, error)

func buildDB(ctx context.Context, cfg config.Config, defaults db.Options, connect connectFunc) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Info("bootstrap.db", map[string]any{"mode": "memory", "reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(defaults))
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB)
		if err != nil {
			_ = sqlDB.Close()
		}
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.db", map[string]any{"mode": "memory", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildLLM(ctx context.Context, cfg config.Config) (llm.Structurer, error) {
	switch cfg.LLMProvider {
	case "none":
		return llm.PlaceholderClient{}, nil
	case "gemini":
		return gemini.NewClient(ctx, gemini.Options{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.LLMModel,
			Timeout: cfg.LLMTimeout,
		})
	case "anthropic":
		return anthropicllm.NewClient(anthropicllm.Options{
			APIKey:  cfg.AnthropicAPIKey,
			Model:   cfg.LLMModel,
			Timeout: cfg.LLMTimeout,
		})
	default:
		return openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel, cfg.LLMTimeout)
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
