package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Corpus sources.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// Embedding providers.
const (
	ProviderNGram  = "ngram"
	ProviderOpenAI = "openai"
	ProviderHTTP   = "http"
)

type Config struct {
	Port     string
	LogLevel string

	CorpusSource   string
	CorpusPath     string
	CorpusEncoding string
	EmbeddingsPath string
	DatabaseURL    string

	EmbeddingProvider     string
	EmbeddingModel        string
	EmbeddingDimensions   int
	EmbeddingAPIKey       string
	EmbeddingBaseURL      string
	EmbeddingTokenURL     string
	EmbeddingClientID     string
	EmbeddingClientSecret string
	EmbeddingCacheSize    int

	OracleTimeout       time.Duration
	OracleFailThreshold int
	OracleOpenDuration  time.Duration

	ShortlistSize         int
	CompromiseThreshold   float64
	SafetyThreshold       float64
	SuggestionCount       int
	SuggestionMaxAttempts int
	AllowDuplicates       bool
	SuggestTimeout        time.Duration
	FeedbackRulesPath     string

	RateLimitPerMinute int
	MaxBodySize        int64
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	return LoadFrom(nil)
}

// LoadFrom reads configuration from the provided map, falling back to os.Getenv
// for missing keys. If env is nil, all values come from os.Getenv.
func LoadFrom(env map[string]string) (*Config, error) {
	get := func(key string) string {
		if env != nil {
			return env[key]
		}
		return os.Getenv(key)
	}

	cfg := &Config{}

	cfg.Port = getOrDefault(get, "PORT", "8090")
	cfg.LogLevel = getOrDefault(get, "LOG_LEVEL", "info")

	// Corpus
	cfg.CorpusSource = getOrDefault(get, "CORPUS_SOURCE", SourceFile)
	cfg.CorpusPath = get("CORPUS_PATH")
	cfg.CorpusEncoding = getOrDefault(get, "CORPUS_ENCODING", "latin1")
	cfg.EmbeddingsPath = get("EMBEDDINGS_PATH")
	cfg.DatabaseURL = get("DATABASE_URL")

	switch cfg.CorpusSource {
	case SourceFile:
		if cfg.CorpusPath == "" && cfg.EmbeddingsPath == "" {
			return nil, fmt.Errorf("CORPUS_SOURCE=file requires CORPUS_PATH or EMBEDDINGS_PATH")
		}
	case SourcePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("required environment variable DATABASE_URL is not set")
		}
	default:
		return nil, fmt.Errorf("invalid value for CORPUS_SOURCE: %q (want %q or %q)", cfg.CorpusSource, SourceFile, SourcePostgres)
	}

	switch cfg.CorpusEncoding {
	case "latin1", "utf8":
	default:
		return nil, fmt.Errorf("invalid value for CORPUS_ENCODING: %q (want latin1 or utf8)", cfg.CorpusEncoding)
	}

	// Embedding oracle
	cfg.EmbeddingProvider = getOrDefault(get, "EMBEDDING_PROVIDER", ProviderNGram)
	cfg.EmbeddingModel = getOrDefault(get, "EMBEDDING_MODEL", "text-embedding-3-small")
	cfg.EmbeddingAPIKey = get("EMBEDDING_API_KEY")
	cfg.EmbeddingBaseURL = get("EMBEDDING_BASE_URL")
	cfg.EmbeddingTokenURL = get("EMBEDDING_TOKEN_URL")
	cfg.EmbeddingClientID = get("EMBEDDING_CLIENT_ID")
	cfg.EmbeddingClientSecret = get("EMBEDDING_CLIENT_SECRET")

	switch cfg.EmbeddingProvider {
	case ProviderNGram:
	case ProviderOpenAI:
		if cfg.EmbeddingAPIKey == "" {
			return nil, fmt.Errorf("EMBEDDING_PROVIDER=openai requires EMBEDDING_API_KEY")
		}
	case ProviderHTTP:
		if cfg.EmbeddingBaseURL == "" {
			return nil, fmt.Errorf("EMBEDDING_PROVIDER=http requires EMBEDDING_BASE_URL")
		}
	default:
		return nil, fmt.Errorf("invalid value for EMBEDDING_PROVIDER: %q", cfg.EmbeddingProvider)
	}

	var err error
	if cfg.EmbeddingDimensions, err = getIntOrDefault(get, "EMBEDDING_DIMENSIONS", 100); err != nil {
		return nil, err
	}
	if cfg.EmbeddingDimensions <= 0 {
		return nil, fmt.Errorf("EMBEDDING_DIMENSIONS must be positive (got %d)", cfg.EmbeddingDimensions)
	}
	if cfg.EmbeddingCacheSize, err = getIntOrDefault(get, "EMBEDDING_CACHE_SIZE", 4096); err != nil {
		return nil, err
	}

	// Oracle resilience
	if cfg.OracleTimeout, err = getDurationOrDefault(get, "ORACLE_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.OracleFailThreshold, err = getIntOrDefault(get, "ORACLE_FAIL_THRESHOLD", 5); err != nil {
		return nil, err
	}
	if cfg.OracleOpenDuration, err = getDurationOrDefault(get, "ORACLE_OPEN_DURATION", 30*time.Second); err != nil {
		return nil, err
	}

	// Detection and suggestions
	if cfg.ShortlistSize, err = getIntOrDefault(get, "SHORTLIST_SIZE", 100); err != nil {
		return nil, err
	}
	if cfg.ShortlistSize <= 0 {
		return nil, fmt.Errorf("SHORTLIST_SIZE must be positive (got %d)", cfg.ShortlistSize)
	}
	if cfg.CompromiseThreshold, err = getFloatOrDefault(get, "COMPROMISE_THRESHOLD", 0.7); err != nil {
		return nil, err
	}
	if cfg.SafetyThreshold, err = getFloatOrDefault(get, "SAFETY_THRESHOLD", 0.6); err != nil {
		return nil, err
	}
	for key, v := range map[string]float64{
		"COMPROMISE_THRESHOLD": cfg.CompromiseThreshold,
		"SAFETY_THRESHOLD":     cfg.SafetyThreshold,
	} {
		if v <= 0 || v > 1 {
			return nil, fmt.Errorf("%s must be in (0,1] (got %v)", key, v)
		}
	}
	if cfg.SuggestionCount, err = getIntOrDefault(get, "SUGGESTION_COUNT", 3); err != nil {
		return nil, err
	}
	if cfg.SuggestionCount <= 0 {
		return nil, fmt.Errorf("SUGGESTION_COUNT must be positive (got %d)", cfg.SuggestionCount)
	}
	if cfg.SuggestionMaxAttempts, err = getIntOrDefault(get, "SUGGESTION_MAX_ATTEMPTS", 10000); err != nil {
		return nil, err
	}
	cfg.AllowDuplicates = getBoolOrDefault(get, "SUGGESTION_ALLOW_DUPLICATES", false)
	if cfg.SuggestTimeout, err = getDurationOrDefault(get, "SUGGEST_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	cfg.FeedbackRulesPath = get("FEEDBACK_RULES_PATH")

	// HTTP
	if cfg.RateLimitPerMinute, err = getIntOrDefault(get, "RATE_LIMIT_PER_MINUTE", 60); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = getInt64OrDefault(get, "MAX_BODY_SIZE", 1<<16); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getOrDefault(get func(string) string, key, defaultVal string) string {
	if v := get(key); v != "" {
		return v
	}
	return defaultVal
}

func getBoolOrDefault(get func(string) string, key string, defaultVal bool) bool {
	v := get(key)
	if v == "" {
		return defaultVal
	}
	switch v {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultVal
}

func getIntOrDefault(get func(string) string, key string, defaultVal int) (int, error) {
	v := get(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return n, nil
}

func getInt64OrDefault(get func(string) string, key string, defaultVal int64) (int64, error) {
	v := get(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return n, nil
}

func getFloatOrDefault(get func(string) string, key string, defaultVal float64) (float64, error) {
	v := get(key)
	if v == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return f, nil
}

func getDurationOrDefault(get func(string) string, key string, defaultVal time.Duration) (time.Duration, error) {
	v := get(key)
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return d, nil
}
