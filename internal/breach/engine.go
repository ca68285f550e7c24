package breach

import (
	"context"
	"errors"
	"fmt"
)

// Embedder maps a password to its embedding vector. Implementations must be
// deterministic for a given model and return vectors of a fixed dimension.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Strength is the three-level label produced by a StrengthClassifier.
type Strength string

const (
	StrengthWeak     Strength = "Weak"
	StrengthModerate Strength = "Moderate"
	StrengthStrong   Strength = "Strong"
)

// StrengthClassifier labels a password's strength.
type StrengthClassifier interface {
	Classify(ctx context.Context, text string) (Strength, error)
}

// DefaultShortlistSize is how many cosine neighbours are refined by edit distance.
const DefaultShortlistSize = 100

// EngineConfig holds the tunables for an Engine.
type EngineConfig struct {
	ShortlistSize       int
	CompromiseThreshold float64
	Index               IndexConfig
	Generator           GeneratorConfig
}

// DefaultEngineConfig returns the stock settings: a 100-entry shortlist,
// compromise below 0.7 and suggestions at least 0.6 from every entry.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		ShortlistSize:       DefaultShortlistSize,
		CompromiseThreshold: DefaultCompromiseThreshold,
		Generator:           DefaultGeneratorConfig(),
	}
}

// Match is the outcome of a compromise check.
type Match struct {
	// Password is the closest corpus entry after refinement.
	Password string `json:"password"`
	// Index is that entry's position in the corpus.
	Index    int     `json:"index"`
	Distance float64 `json:"distance"`
	// Similarity is (1-Distance)*100, for display only.
	Similarity float64 `json:"similarity"`
	// TopCosine is the best cosine score in the shortlist.
	TopCosine float64 `json:"top_cosine"`
	Status    Status  `json:"status"`
}

// Compromised reports whether the checked password was classified as compromised.
func (m *Match) Compromised() bool { return m.Status == StatusCompromised }

// Engine runs compromise checks and suggestion generation over one loaded
// corpus. It is built once at startup and shared read-only by all requests.
type Engine struct {
	corpus     *Corpus
	index      *Index
	generator  *Generator
	classifier Classifier
	embedder   Embedder
	shortlist  int
}

// NewEngine wires an engine over corpus using embedder for query vectors.
func NewEngine(corpus *Corpus, embedder Embedder, cfg EngineConfig) (*Engine, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	index, err := NewIndex(corpus, cfg.Index)
	if err != nil {
		return nil, err
	}
	gen, err := NewGenerator(corpus, cfg.Generator)
	if err != nil {
		return nil, err
	}
	shortlist := cfg.ShortlistSize
	if shortlist <= 0 {
		shortlist = DefaultShortlistSize
	}
	return &Engine{
		corpus:     corpus,
		index:      index,
		generator:  gen,
		classifier: NewClassifier(cfg.CompromiseThreshold),
		embedder:   embedder,
		shortlist:  shortlist,
	}, nil
}

// Corpus returns the engine's corpus.
func (e *Engine) Corpus() *Corpus { return e.corpus }

// Classifier returns the compromise classifier in use.
func (e *Engine) Classifier() Classifier { return e.classifier }

// Generator returns the suggestion generator in use.
func (e *Engine) Generator() *Generator { return e.generator }

// Check embeds password, shortlists its nearest corpus entries by cosine
// similarity, refines them by normalized edit distance and classifies the
// closest one.
func (e *Engine) Check(ctx context.Context, password string) (*Match, error) {
	vec, err := e.embedder.Embed(ctx, password)
	if err != nil {
		if !errors.Is(err, ErrOracleUnavailable) {
			err = fmt.Errorf("%w: embedding: %w", ErrOracleUnavailable, err)
		}
		return nil, err
	}

	shortlist, err := e.index.Shortlist(vec, e.shortlist)
	if err != nil {
		return nil, fmt.Errorf("shortlisting: %w", err)
	}

	indices := make([]int, len(shortlist))
	for i, s := range shortlist {
		indices[i] = s.Index
	}

	best, err := Refine(password, e.corpus.Passwords(indices))
	if err != nil {
		return nil, fmt.Errorf("refining: %w", err)
	}

	var top float64
	if len(shortlist) > 0 {
		top = shortlist[0].Score
	}

	return &Match{
		Password:   best.Password,
		Index:      indices[best.Position],
		Distance:   best.Distance,
		Similarity: SimilarityPercentage(best.Distance),
		TopCosine:  top,
		Status:     e.classifier.Classify(best.Distance),
	}, nil
}

// Suggest generates count verified-safe suggestions derived from password.
func (e *Engine) Suggest(ctx context.Context, password string, count int) ([]string, error) {
	return e.generator.Generate(ctx, password, count)
}
