package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agent-smit/passguard/internal/api"
	"github.com/agent-smit/passguard/internal/app"
	"github.com/agent-smit/passguard/internal/config"
	"github.com/agent-smit/passguard/internal/ratelimit"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log.Printf("starting passguard on port %s (corpus source %s, embeddings %s)",
		cfg.Port, cfg.CorpusSource, cfg.EmbeddingProvider)

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	health := &api.HealthHandler{
		CorpusLoaded: func() bool { return a.Corpus != nil && a.Corpus.Len() > 0 },
		OracleState:  a.OracleStates,
	}
	if a.Pool != nil {
		health.DB = a.Pool
	}

	router := api.NewRouter(api.RouterConfig{
		Health:             health,
		Passwords:          api.NewPasswordsHandler(a.Analyzer, cfg.SuggestionCount),
		Corpus:             api.NewCorpusHandler(a.Corpus, cfg.CorpusSource, cfg.EmbeddingProvider),
		RateLimiter:        ratelimit.NewRateLimiter(),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		MaxBodySize:        cfg.MaxBodySize,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.SuggestTimeout + 20*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Periodic cache stats
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				hits, misses, size := a.Cache.Stats()
				log.Printf("embedding cache: %d entries, %d hits, %d misses", size, hits, misses)
			case <-ctx.Done():
				return
			}
		}
	}()

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.Printf("received signal %v, shutting down...", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		errCh <- srv.Shutdown(shutdownCtx)
	}()

	log.Printf("server listening on :%s", cfg.Port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}

	return <-errCh
}
