package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-ingest/internal/credits"
	"resume-ingest/internal/parsing"
	"resume-ingest/internal/services/health"
	"resume-ingest/internal/shared/config"
	"resume-ingest/internal/shared/metrics"
	"resume-ingest/internal/shared/server/middleware"
	"resume-ingest/internal/shared/server/respond"
)

const parseRateGroup = "PARSE"

// RouterDeps carries the handlers mounted by NewRouter.
type RouterDeps struct {
	Config         config.Config
	ParseHandler   *parsing.Handler
	CreditsHandler *credits.Handler
	Credits        *credits.Service
	Health         *health.Service
	RateLimiter    *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.Auth(cfg.AllowGuests),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:    parseRules(cfg.ParseRatePerMinute),
			GroupFor: groupFor,
			Limiter:  deps.RateLimiter,
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true})
			return
		}
		status, ok := deps.Health.Status(c.Request.Context())
		code := http.StatusOK
		if !ok {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, status)
	})
	registerMeRoutes(api, deps.Credits)
	if deps.ParseHandler != nil {
		deps.ParseHandler.RegisterRoutes(api)
	}
	if deps.CreditsHandler != nil {
		deps.CreditsHandler.RegisterRoutes(api)
		if cfg.Env == "dev" {
			dev := api.Group("/dev")
			deps.CreditsHandler.RegisterDevRoutes(dev)
		}
	}

	return r
}

func parseRules(perMinute int) map[string]middleware.RateLimitRule {
	if perMinute <= 0 {
		return nil
	}
	return map[string]middleware.RateLimitRule{
		parseRateGroup: {Rate: float64(perMinute) / 60, Burst: perMinute},
	}
}

func groupFor(c *gin.Context) string {
	if c.Request.Method == http.MethodPost && strings.HasSuffix(c.Request.URL.Path, "/resumes/parse") {
		return parseRateGroup
	}
	return ""
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
