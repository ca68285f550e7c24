// Package analyzer composes the breach engine, the strength oracle and the
// feedback rules into the full password analysis returned to clients.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/agent-smit/passguard/internal/breach"
	apierrors "github.com/agent-smit/passguard/internal/errors"
	"github.com/agent-smit/passguard/internal/feedback"
)

// MaxPasswordLength bounds input size in runes; edit distance is quadratic.
const MaxPasswordLength = 256

var (
	ErrEmptyPassword   = errors.New("password is required")
	ErrPasswordTooLong = fmt.Errorf("password must be at most %d characters", MaxPasswordLength)
)

// Result is the full analysis of one password.
type Result struct {
	InputPassword       string          `json:"input_password"`
	Strength            breach.Strength `json:"strength"`
	MostSimilarPassword string          `json:"most_similar_password"`
	// SimilarityPercentage is (1-distance)*100 against the closest entry.
	SimilarityPercentage float64 `json:"similarity_percentage"`
	DistancePercentage   float64 `json:"distance_percentage"`
	// LevenshteinDistance is SimilarityPercentage formatted as "12.34%".
	LevenshteinDistance string `json:"levenshtein_distance"`
	// CosinePercentage is the best embedding similarity in the shortlist.
	CosinePercentage float64       `json:"cosine_percentage"`
	Status           breach.Status `json:"status"`
	Feedback         string        `json:"feedback"`
	Suggestions      []string      `json:"suggestions"`
	// SuggestionError is set when fewer suggestions than requested could be
	// produced in time.
	SuggestionError string `json:"suggestion_error,omitempty"`
}

// Options tunes an Analyzer.
type Options struct {
	SuggestionCount int
	SuggestTimeout  time.Duration
}

// Analyzer runs analyses against one engine. It is safe for concurrent use.
type Analyzer struct {
	engine   *breach.Engine
	strength breach.StrengthClassifier
	rules    *feedback.Rules
	opts     Options
}

// New creates an analyzer. A nil rules value uses feedback.DefaultRules.
func New(engine *breach.Engine, strength breach.StrengthClassifier, rules *feedback.Rules, opts Options) *Analyzer {
	if rules == nil {
		rules = feedback.DefaultRules()
	}
	if opts.SuggestionCount <= 0 {
		opts.SuggestionCount = 3
	}
	if opts.SuggestTimeout <= 0 {
		opts.SuggestTimeout = 10 * time.Second
	}
	return &Analyzer{engine: engine, strength: strength, rules: rules, opts: opts}
}

// Engine returns the underlying engine.
func (a *Analyzer) Engine() *breach.Engine { return a.engine }

// Validate checks that password is acceptable input.
func Validate(password string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	if utf8.RuneCountInString(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

// Check runs only the compromise check.
func (a *Analyzer) Check(ctx context.Context, password string) (*breach.Match, error) {
	if err := Validate(password); err != nil {
		return nil, err
	}
	return a.engine.Check(ctx, password)
}

// Analyze classifies strength and compromise concurrently, attaches rule
// feedback and, for compromised passwords only, safe suggestions. A
// suggestion timeout is not an error: the partial set is returned with
// SuggestionError set.
func (a *Analyzer) Analyze(ctx context.Context, password string) (*Result, error) {
	if err := Validate(password); err != nil {
		return nil, err
	}

	var (
		strength breach.Strength
		match    *breach.Match
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		strength, err = a.strength.Classify(gctx, password)
		if err != nil && !errors.Is(err, breach.ErrOracleUnavailable) {
			err = fmt.Errorf("%w: strength: %w", breach.ErrOracleUnavailable, err)
		}
		return err
	})
	g.Go(func() error {
		var err error
		match, err = a.engine.Check(gctx, password)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{
		InputPassword:        password,
		Strength:             strength,
		MostSimilarPassword:  match.Password,
		SimilarityPercentage: match.Similarity,
		DistancePercentage:   match.Distance * 100,
		LevenshteinDistance:  fmt.Sprintf("%.2f%%", match.Similarity),
		CosinePercentage:     match.TopCosine * 100,
		Status:               match.Status,
		Feedback:             a.rules.Text(password, !match.Compromised()),
		Suggestions:          []string{},
	}

	if match.Compromised() {
		suggestions, err := a.suggest(ctx, password, a.opts.SuggestionCount)
		res.Suggestions = suggestions
		switch {
		case err == nil:
		case errors.Is(err, breach.ErrGenerationTimeout):
			res.SuggestionError = apierrors.CodeGenerationTimeout
		default:
			return nil, err
		}
	}
	return res, nil
}

// Baseline generates count safe passwords from an empty seed, for clients
// that want suggestions without submitting a password.
func (a *Analyzer) Baseline(ctx context.Context, count int) ([]string, error) {
	return a.suggest(ctx, "", count)
}

func (a *Analyzer) suggest(ctx context.Context, password string, count int) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.opts.SuggestTimeout)
	defer cancel()

	out, err := a.engine.Suggest(ctx, password, count)
	if out == nil {
		out = []string{}
	}
	return out, err
}
