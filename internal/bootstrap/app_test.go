package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"resume-ingest/internal/llm"
	"resume-ingest/internal/llm/openai"
	"resume-ingest/internal/shared/config"
	"resume-ingest/internal/shared/storage/db"
)

func failingConnect(ctx context.Context, databaseURL string, opts db.Options) (*sql.DB, error) {
	return nil, errors.New("connection refused")
}

func TestBuildDBWithoutURL(t *testing.T) {
	sqlDB, err := buildDB(context.Background(), config.Config{Env: "dev"}, db.DefaultServerOptions(), failingConnect)
	if err != nil || sqlDB != nil {
		t.Fatalf("expected memory mode in dev, got db=%v err=%v", sqlDB, err)
	}

	_, err = buildDB(context.Background(), config.Config{Env: "production"}, db.DefaultServerOptions(), failingConnect)
	if err == nil {
		t.Fatalf("expected error in production without DATABASE_URL")
	}
}

func TestBuildDBConnectFailure(t *testing.T) {
	cfg := config.Config{Env: "local", DatabaseURL: "postgres://x"}
	sqlDB, err := buildDB(context.Background(), cfg, db.DefaultServerOptions(), failingConnect)
	if err != nil || sqlDB != nil {
		t.Fatalf("expected memory fallback in local, got db=%v err=%v", sqlDB, err)
	}

	cfg.Env = "production"
	if _, err := buildDB(context.Background(), cfg, db.DefaultServerOptions(), failingConnect); err == nil {
		t.Fatalf("expected connect error in production")
	}
}

func TestBuildLLMSelectsProvider(t *testing.T) {
	p, err := buildLLM(context.Background(), config.Config{LLMProvider: "none"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.(llm.PlaceholderClient); !ok {
		t.Fatalf("expected placeholder, got %T", p)
	}

	p, err = buildLLM(context.Background(), config.Config{LLMProvider: "openai", LLMModel: "gpt-4o-mini", OpenAIAPIKey: "sk-test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.(*openai.Client); !ok {
		t.Fatalf("expected openai client, got %T", p)
	}

	if _, err := buildLLM(context.Background(), config.Config{LLMProvider: "anthropic", LLMModel: "claude-sonnet-4-5"}); err == nil {
		t.Fatalf("expected missing key error")
	}
}

func TestBuildPipelineFallsBackToPlaceholderInDev(t *testing.T) {
	cfg := config.Config{Env: "dev", LLMProvider: "openai", LLMModel: "gpt-4o-mini", CreditsStartingBalance: 30}
	app, err := BuildPipeline(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := app.LLM.(llm.PlaceholderClient); !ok {
		t.Fatalf("expected placeholder provider, got %T", app.LLM)
	}
	bal, err := app.Credits.Balance(context.Background(), "u1")
	if err != nil || bal != 30 {
		t.Fatalf("expected starting balance 30, got %d err=%v", bal, err)
	}

	cfg.Env = "production"
	if _, err := BuildPipeline(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for missing key in production")
	}
}

func TestBuildServesHealth(t *testing.T) {
	cfg := config.Config{
		Env:                    "dev",
		AllowGuests:            true,
		LLMProvider:            "none",
		CreditsStartingBalance: 30,
		ParseRatePerMinute:     6,
	}
	app, err := Build(cfg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	app.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
