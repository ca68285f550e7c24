package breach

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"
	"strconv"
	"unicode"

	"golang.org/x/sync/errgroup"
)

// Rand is the randomness the generator consumes. *rand.Rand from math/rand/v2
// satisfies it; tests supply scripted sequences.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// Generator defaults.
const (
	DefaultSafetyThreshold = 0.6
	DefaultReplaceProb     = 0.10
	DefaultSwapCaseProb    = 0.30
	DefaultSpecials        = "!@#$%^&*"
	DefaultMinLength       = 8
	DefaultMaxAttempts     = 10000
)

// GeneratorConfig tunes mutation and verification.
type GeneratorConfig struct {
	// SafetyThreshold is the minimum normalized distance a suggestion must
	// keep from every corpus entry.
	SafetyThreshold float64
	// ReplaceProb is the per-rune chance of replacement by a special character.
	ReplaceProb float64
	// SwapCaseProb is the per-rune chance of a case swap for runes that were
	// not replaced.
	SwapCaseProb float64
	Specials     string
	MinLength    int
	// MaxAttempts caps mutate/verify rounds per Generate call.
	MaxAttempts int
	// AllowDuplicates keeps repeated suggestions instead of retrying.
	AllowDuplicates bool
	// Workers and MinChunk control the parallel corpus scan in Verify.
	Workers  int
	MinChunk int
	// NewRand returns the randomness for one Generate call. Nil seeds a fresh
	// PCG from crypto/rand on every call.
	NewRand func() Rand
}

// DefaultGeneratorConfig returns the stock mutation settings.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		SafetyThreshold: DefaultSafetyThreshold,
		ReplaceProb:     DefaultReplaceProb,
		SwapCaseProb:    DefaultSwapCaseProb,
		Specials:        DefaultSpecials,
		MinLength:       DefaultMinLength,
		MaxAttempts:     DefaultMaxAttempts,
	}
}

// Generator produces password suggestions verified against the whole corpus.
type Generator struct {
	corpus   *Corpus
	cfg      GeneratorConfig
	specials []rune
}

// NewGenerator creates a generator over corpus. Unset thresholds, lengths,
// attempt caps and the special-character set fall back to the defaults.
func NewGenerator(corpus *Corpus, cfg GeneratorConfig) (*Generator, error) {
	if corpus == nil || corpus.Len() == 0 {
		return nil, ErrEmptyCorpus
	}
	if cfg.SafetyThreshold <= 0 || cfg.SafetyThreshold > 1 {
		cfg.SafetyThreshold = DefaultSafetyThreshold
	}
	if cfg.Specials == "" {
		cfg.Specials = DefaultSpecials
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultMinLength
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.MinChunk <= 0 {
		cfg.MinChunk = 4096
	}
	if cfg.NewRand == nil {
		cfg.NewRand = newSeededRand
	}
	return &Generator{corpus: corpus, cfg: cfg, specials: []rune(cfg.Specials)}, nil
}

// SafetyThreshold returns the configured minimum distance.
func (g *Generator) SafetyThreshold() float64 { return g.cfg.SafetyThreshold }

// Generate returns count suggestions derived from password, each verified to
// be at least SafetyThreshold away from every corpus entry. When the attempt
// cap or the context ends the search first, the suggestions accepted so far
// are returned along with an error wrapping ErrGenerationTimeout.
func (g *Generator) Generate(ctx context.Context, password string, count int) ([]string, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: suggestion count %d", ErrInvalidCount, count)
	}

	rng := g.cfg.NewRand()
	accepted := make([]string, 0, count)
	seen := make(map[string]struct{}, count)

	for attempt := 0; len(accepted) < count; attempt++ {
		if attempt >= g.cfg.MaxAttempts {
			return accepted, fmt.Errorf("%w: %d attempts yielded %d of %d suggestions",
				ErrGenerationTimeout, attempt, len(accepted), count)
		}
		if err := ctx.Err(); err != nil {
			return accepted, fmt.Errorf("%w: %w", ErrGenerationTimeout, err)
		}

		candidate := g.Mutate(rng, password)
		if !g.cfg.AllowDuplicates {
			if _, dup := seen[candidate]; dup {
				continue
			}
		}

		safe, err := g.Verify(ctx, candidate)
		if err != nil {
			return accepted, fmt.Errorf("%w: %w", ErrGenerationTimeout, err)
		}
		if safe {
			accepted = append(accepted, candidate)
			seen[candidate] = struct{}{}
		}
	}
	return accepted, nil
}

// Mutate derives one candidate from password. Each rune is replaced by a
// special character with probability ReplaceProb, otherwise its case is
// swapped with probability SwapCaseProb. One special is then prepended and one
// appended, followed by a two-digit number in [10,99], and the result is
// padded with uppercase letters up to MinLength runes.
func (g *Generator) Mutate(r Rand, password string) string {
	out := make([]rune, 0, runeLen(password)+4+g.cfg.MinLength)
	out = append(out, 0)

	for _, c := range password {
		switch {
		case r.Float64() < g.cfg.ReplaceProb:
			c = g.special(r)
		case r.Float64() < g.cfg.SwapCaseProb:
			c = swapCase(c)
		}
		out = append(out, c)
	}

	out[0] = g.special(r)
	out = append(out, g.special(r))
	out = append(out, []rune(strconv.Itoa(10+r.IntN(90)))...)

	// MinLength counts runes, so the two-digit number counts as two.
	for len(out) < g.cfg.MinLength {
		out = append(out, rune('A'+r.IntN(26)))
	}
	return string(out)
}

func (g *Generator) special(r Rand) rune {
	return g.specials[r.IntN(len(g.specials))]
}

func swapCase(c rune) rune {
	switch {
	case unicode.IsUpper(c):
		return unicode.ToLower(c)
	case unicode.IsLower(c):
		return unicode.ToUpper(c)
	}
	return c
}

var errUnsafe = errors.New("candidate too close to a corpus entry")

// Verify reports whether candidate keeps at least SafetyThreshold normalized
// distance from every corpus entry. The scan is exhaustive; entries whose
// length difference alone already meets the threshold are skipped without
// computing the full edit distance.
func (g *Generator) Verify(ctx context.Context, candidate string) (bool, error) {
	cl := runeLen(candidate)
	chunks := splitRange(g.corpus.Len(), g.cfg.Workers, g.cfg.MinChunk)

	eg, gctx := errgroup.WithContext(ctx)
	for _, ch := range chunks {
		eg.Go(func() error {
			return g.verifyRange(gctx, candidate, cl, ch[0], ch[1])
		})
	}

	err := eg.Wait()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errUnsafe):
		return false, nil
	default:
		return false, err
	}
}

func (g *Generator) verifyRange(ctx context.Context, candidate string, cl, lo, hi int) error {
	c := g.corpus
	threshold := g.cfg.SafetyThreshold
	for i := lo; i < hi; i++ {
		if (i-lo)&1023 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		el := c.runeLens[i]
		if distanceLowerBound(cl, el) >= threshold {
			continue
		}
		if normalizedDistance(candidate, c.passwords[i], cl, el) < threshold {
			return errUnsafe
		}
	}
	return nil
}

// ClosestDistance returns the lowest normalized distance between candidate and
// any corpus entry. It is the exhaustive counterpart of Verify and is meant for
// diagnostics and tests.
func (g *Generator) ClosestDistance(candidate string) float64 {
	c := g.corpus
	cl := runeLen(candidate)
	best := 1.0
	for i, pw := range c.passwords {
		if distanceLowerBound(cl, c.runeLens[i]) >= best {
			continue
		}
		if d := normalizedDistance(candidate, pw, cl, c.runeLens[i]); d < best {
			best = d
		}
	}
	return best
}

func newSeededRand() Rand {
	var seed [16]byte
	_, _ = crand.Read(seed[:])
	return rand.New(rand.NewPCG(binary.LittleEndian.Uint64(seed[:8]), binary.LittleEndian.Uint64(seed[8:])))
}

