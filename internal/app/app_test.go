package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agent-smit/passguard/internal/breach"
	"github.com/agent-smit/passguard/internal/config"
	"github.com/agent-smit/passguard/internal/corpus"
	"github.com/agent-smit/passguard/internal/oracle"
)

func writeCorpus(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rockyou.txt")
	if err := os.WriteFile(path, []byte("password123\nletmein\nqwerty99\nmonkey\ndragon\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNew_TextCorpus(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{
		"CORPUS_PATH":     writeCorpus(t),
		"CORPUS_ENCODING": "utf8",
	})
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if a.Corpus.Len() != 5 || a.Corpus.Dimension() != cfg.EmbeddingDimensions {
		t.Errorf("corpus = %d entries, %d dims", a.Corpus.Len(), a.Corpus.Dimension())
	}
	if a.Pool != nil {
		t.Error("file source should not open a database pool")
	}

	res, err := a.Analyzer.Analyze(context.Background(), "password124")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.MostSimilarPassword != "password123" || res.Status != breach.StatusCompromised {
		t.Errorf("result = %+v", res)
	}
	if len(res.Suggestions) != cfg.SuggestionCount {
		t.Errorf("got %d suggestions", len(res.Suggestions))
	}

	states := a.OracleStates()
	if states[oracle.LabelEmbedding] != "closed" || states[oracle.LabelStrength] != "closed" {
		t.Errorf("oracle states = %v", states)
	}
	if _, misses, _ := a.Cache.Stats(); misses == 0 {
		t.Error("query embedding should have gone through the cache")
	}
}

func TestNew_EmbeddingsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "embeddings.toml")

	emb, _ := oracle.NewNGramEmbedder(32, oracle.DefaultMinN, oracle.DefaultMaxN)
	passwords := []string{"password123", "letmein"}
	vectors, err := corpus.Build(context.Background(), emb, passwords, 0, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	f, _ := corpus.NewEmbeddingsFile("ngram", passwords, vectors)
	if err := corpus.SaveEmbeddings(path, f); err != nil {
		t.Fatalf("SaveEmbeddings: %v", err)
	}

	cfg, _ := config.LoadFrom(map[string]string{"EMBEDDINGS_PATH": path, "EMBEDDING_DIMENSIONS": "32"})
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.Corpus.Len() != 2 {
		t.Errorf("corpus has %d entries", a.Corpus.Len())
	}

	// Embeddings built for 32 dimensions cannot serve a 100-dimension embedder.
	cfg, _ = config.LoadFrom(map[string]string{"EMBEDDINGS_PATH": path})
	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestNew_FeedbackRulesFile(t *testing.T) {
	rulesPath := filepath.Join(t.TempDir(), "rules.yaml")
	os.WriteFile(rulesPath, []byte("min_length: 12\n"), 0o600)

	cfg, _ := config.LoadFrom(map[string]string{
		"CORPUS_PATH":         writeCorpus(t),
		"FEEDBACK_RULES_PATH": rulesPath,
	})
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := a.Analyzer.Analyze(context.Background(), "password12")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !strings.Contains(res.Feedback, "at least 12 characters") {
		t.Errorf("feedback = %q, want the loaded min_length", res.Feedback)
	}

	cfg.FeedbackRulesPath = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("expected error for missing rules file")
	}
}

func TestEngineConfig(t *testing.T) {
	cfg, _ := config.LoadFrom(map[string]string{
		"CORPUS_PATH":                 "x",
		"SHORTLIST_SIZE":              "7",
		"COMPROMISE_THRESHOLD":        "0.5",
		"SAFETY_THRESHOLD":            "0.4",
		"SUGGESTION_MAX_ATTEMPTS":     "99",
		"SUGGESTION_ALLOW_DUPLICATES": "true",
	})
	ec := EngineConfig(cfg)
	if ec.ShortlistSize != 7 || ec.CompromiseThreshold != 0.5 {
		t.Errorf("engine config = %+v", ec)
	}
	g := ec.Generator
	if g.SafetyThreshold != 0.4 || g.MaxAttempts != 99 || !g.AllowDuplicates || g.Specials != breach.DefaultSpecials {
		t.Errorf("generator config = %+v", g)
	}
}
