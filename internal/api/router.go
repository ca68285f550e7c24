package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/agent-smit/passguard/internal/ratelimit"
)

// RouterConfig holds all dependencies needed to build the router.
type RouterConfig struct {
	Health    *HealthHandler
	Passwords *PasswordsHandler
	Corpus    *CorpusHandler

	RateLimiter        *ratelimit.RateLimiter // nil = no rate limiting
	RateLimitPerMinute int
	MaxBodySize        int64
}

// NewRouter creates the chi router with middleware and all routes.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(RequestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(CORSMiddleware)
	r.Use(SecurityHeadersMiddleware)

	r.Get("/healthz", cfg.Health.Healthz)
	r.Get("/readyz", cfg.Health.Readyz)

	r.Route("/api/v1", func(r chi.Router) {
		maxBody := cfg.MaxBodySize
		if maxBody <= 0 {
			maxBody = 1 << 16
		}
		r.Use(MaxBodySize(maxBody))

		if cfg.RateLimiter != nil {
			r.Use(methodAwareRateLimiter(cfg.RateLimiter, cfg.RateLimitPerMinute))
		}

		if cfg.Passwords != nil {
			r.Post("/analyze", cfg.Passwords.Analyze)
			r.Post("/check", cfg.Passwords.Check)
			r.Get("/suggestions", cfg.Passwords.Suggestions)
		}
		if cfg.Corpus != nil {
			r.Get("/corpus", cfg.Corpus.Get)
		}
	})

	return r
}

// methodAwareRateLimiter applies separate per-client budgets to analysis
// requests (POST) and reads. Reads get five times the analysis budget; the
// suggestions endpoint is a GET but runs the generator, so it shares the
// analysis budget.
func methodAwareRateLimiter(rl *ratelimit.RateLimiter, perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		perMinute = 60
	}
	analysisMW := rl.Middleware(perMinute, time.Minute, func(r *http.Request) string {
		return "analysis:" + r.RemoteAddr
	})
	readMW := rl.Middleware(5*perMinute, time.Minute, func(r *http.Request) string {
		return "read:" + r.RemoteAddr
	})

	return func(next http.Handler) http.Handler {
		analysisHandler := analysisMW(next)
		readHandler := readMW(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost || r.URL.Path == "/api/v1/suggestions" {
				analysisHandler.ServeHTTP(w, r)
				return
			}
			readHandler.ServeHTTP(w, r)
		})
	}
}
