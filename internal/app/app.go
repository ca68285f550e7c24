// Package app assembles the password analyzer from configuration: the
// embedding oracle with its cache and circuit breaker, the corpus source, the
// breach engine and the feedback rules.
package app

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agent-smit/passguard/internal/analyzer"
	"github.com/agent-smit/passguard/internal/breach"
	"github.com/agent-smit/passguard/internal/config"
	"github.com/agent-smit/passguard/internal/corpus"
	"github.com/agent-smit/passguard/internal/db"
	"github.com/agent-smit/passguard/internal/feedback"
	"github.com/agent-smit/passguard/internal/oracle"
	"github.com/agent-smit/passguard/internal/store"
)

// App holds the wired components. Close releases the database pool, if any.
type App struct {
	Config   *config.Config
	Analyzer *analyzer.Analyzer
	Corpus   *breach.Corpus
	Guard    *oracle.Guard
	Cache    *oracle.CachedEmbedder
	// Pool is nil unless the corpus lives in Postgres.
	Pool *pgxpool.Pool
}

// Close releases resources held by the app.
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}

// OracleStates reports the circuit state of each oracle.
func (a *App) OracleStates() map[string]string {
	b := a.Guard.Breaker()
	return map[string]string{
		oracle.LabelEmbedding: b.State(oracle.LabelEmbedding).String(),
		oracle.LabelStrength:  b.State(oracle.LabelStrength).String(),
	}
}

// EngineConfig maps configuration onto breach engine settings.
func EngineConfig(cfg *config.Config) breach.EngineConfig {
	ec := breach.DefaultEngineConfig()
	ec.ShortlistSize = cfg.ShortlistSize
	ec.CompromiseThreshold = cfg.CompromiseThreshold
	ec.Generator.SafetyThreshold = cfg.SafetyThreshold
	ec.Generator.MaxAttempts = cfg.SuggestionMaxAttempts
	ec.Generator.AllowDuplicates = cfg.AllowDuplicates
	return ec
}

// New builds an App from cfg. Loading a text corpus embeds every entry, which
// can take a while for large lists; progress is logged.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	embedder, err := oracle.NewFromConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("embedding provider: %w", err)
	}

	a := &App{Config: cfg}
	a.Cache = oracle.NewCachedEmbedder(embedder, cfg.EmbeddingCacheSize)
	a.Guard = oracle.NewGuard(oracle.NewCircuitBreaker(oracle.BreakerConfig{
		FailThreshold: cfg.OracleFailThreshold,
		OpenDuration:  cfg.OracleOpenDuration,
	}), cfg.OracleTimeout)

	src, err := a.source(ctx, embedder)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Corpus, err = corpus.Open(ctx, src)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("loading corpus: %w", err)
	}
	log.Printf("corpus loaded: %d entries, %d dimensions, fingerprint %s",
		a.Corpus.Len(), a.Corpus.Dimension(), a.Corpus.Fingerprint()[:12])

	engine, err := breach.NewEngine(a.Corpus, a.Guard.Embedder(a.Cache), EngineConfig(cfg))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("engine: %w", err)
	}

	rules := feedback.DefaultRules()
	if cfg.FeedbackRulesPath != "" {
		if rules, err = feedback.LoadRules(cfg.FeedbackRulesPath); err != nil {
			a.Close()
			return nil, fmt.Errorf("feedback rules: %w", err)
		}
	}

	a.Analyzer = analyzer.New(engine, a.Guard.Strength(oracle.NewZxcvbnStrength()), rules, analyzer.Options{
		SuggestionCount: cfg.SuggestionCount,
		SuggestTimeout:  cfg.SuggestTimeout,
	})
	return a, nil
}

func (a *App) source(ctx context.Context, embedder oracle.BatchEmbedder) (corpus.Source, error) {
	cfg := a.Config
	switch cfg.CorpusSource {
	case config.SourcePostgres:
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("database pool: %w", err)
		}
		a.Pool = pool
		return store.NewCorpusStore(pool, embedder.Dimensions()), nil
	case config.SourceFile:
		if cfg.EmbeddingsPath != "" {
			return corpus.FileSource{Path: cfg.EmbeddingsPath, Dimensions: embedder.Dimensions()}, nil
		}
		return corpus.TextSource{
			Path:     cfg.CorpusPath,
			Encoding: cfg.CorpusEncoding,
			Embedder: embedder,
			Progress: LogProgress("embedding corpus"),
		}, nil
	}
	return nil, fmt.Errorf("unsupported corpus source: %s", cfg.CorpusSource)
}

// LogProgress returns a corpus.Progress that logs roughly every tenth of the
// way through.
func LogProgress(what string) corpus.Progress {
	next := 0
	return func(done, total int) {
		if done*10 >= next*total || done == total {
			log.Printf("%s: %d/%d", what, done, total)
			next = done*10/total + 1
		}
	}
}
