package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"resume-ingest/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Env                    string
	Port                   string
	CORSAllowOrigin        []string
	LogLevel               string
	DatabaseURL            string
	JWTSecret              string
	AllowGuests            bool
	LLMProvider            string
	LLMModel               string
	OpenAIAPIKey           string
	GeminiAPIKey           string
	AnthropicAPIKey        string
	LLMTimeout             time.Duration
	TesseractPath          string
	OCRLanguage            string
	TessdataDir            string
	CreditsStartingBalance int
	ParseTimeout           time.Duration
	ParseRatePerMinute     int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		telemetry.Warn("config", map[string]any{"error": "DATABASE_URL is required in production"})
	}

	provider := normalizeProvider(getEnv("LLM_PROVIDER", "openai"))
	return Config{
		Env:                    env,
		Port:                   getEnv("PORT", "8080"),
		CORSAllowOrigin:        splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		DatabaseURL:            dbURL,
		JWTSecret:              os.Getenv("JWT_SECRET"),
		AllowGuests:            getBool("ALLOW_GUESTS", env != "production"),
		LLMProvider:            provider,
		LLMModel:               getEnv("LLM_MODEL", defaultModel(provider)),
		OpenAIAPIKey:           os.Getenv("OPENAI_API_KEY"),
		GeminiAPIKey:           os.Getenv("GEMINI_API_KEY"),
		AnthropicAPIKey:        os.Getenv("ANTHROPIC_API_KEY"),
		LLMTimeout:             getSeconds("LLM_TIMEOUT_SECONDS", 120),
		TesseractPath:          getEnv("TESSERACT_PATH", "tesseract"),
		OCRLanguage:            getEnv("OCR_LANGUAGE", "fra"),
		TessdataDir:            os.Getenv("TESSDATA_DIR"),
		CreditsStartingBalance: getInt("CREDITS_STARTING_BALANCE", 30),
		ParseTimeout:           getSeconds("PARSE_TIMEOUT_SECONDS", 180),
		ParseRatePerMinute:     getInt("RATE_LIMIT_PARSE_PER_MINUTE", 6),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		telemetry.Warn("config", map[string]any{"key": key, "error": "invalid integer"})
		return def
	}
	return v
}

func getSeconds(key string, def int) time.Duration {
	v := getInt(key, def)
	if v == 0 {
		v = def
	}
	return time.Duration(v) * time.Second
}

func getBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "gemini", "google":
		return "gemini"
	case "anthropic", "claude":
		return "anthropic"
	case "none", "off", "disabled":
		return "none"
	default:
		return "openai"
	}
}

func defaultModel(provider string) string {
	switch provider {
	case "gemini":
		return "gemini-2.5-flash"
	case "anthropic":
		return "claude-sonnet-4-5"
	case "none":
		return ""
	default:
		return "gpt-4o-mini"
	}
}
