package breach

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"strings"
	"testing"
)

// scriptedRand replays fixed sequences, cycling when exhausted.
type scriptedRand struct {
	floats []float64
	ints   []int
	fi, ii int
}

func (r *scriptedRand) Float64() float64 {
	v := r.floats[r.fi%len(r.floats)]
	r.fi++
	return v
}

func (r *scriptedRand) IntN(n int) int {
	v := r.ints[r.ii%len(r.ints)]
	r.ii++
	return v % n
}

var sampleCorpus = []string{"password123", "letmein", "qwerty99"}

func sampleVectors() [][]float32 {
	return [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

func newTestGenerator(t *testing.T, passwords []string, cfg GeneratorConfig) *Generator {
	t.Helper()
	vectors := make([][]float32, len(passwords))
	for i := range vectors {
		vectors[i] = []float32{1}
	}
	g, err := NewGenerator(mustCorpus(t, passwords, vectors), cfg)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	return g
}

func TestMutate_ScriptedRandomness(t *testing.T) {
	g := newTestGenerator(t, sampleCorpus, DefaultGeneratorConfig())

	tests := []struct {
		name     string
		password string
		rng      *scriptedRand
		want     string
	}{
		{
			name:     "replace, swap case and pad",
			password: "ab",
			// 'a': 0.05 < 0.1 replaces; 'b': 0.5 misses replace, 0.2 < 0.3 swaps.
			rng: &scriptedRand{
				floats: []float64{0.05, 0.5, 0.2},
				// '#' replacement, '!' prefix, '*' suffix, 10+32, pad 'A', 'Z'.
				ints: []int{2, 0, 7, 32, 0, 25},
			},
			want: "!#B*42AZ",
		},
		{
			name:     "long input is not padded",
			password: "Password1",
			rng: &scriptedRand{
				floats: []float64{0.9},
				ints:   []int{1, 3, 0},
			},
			want: "@Password1$10",
		},
		{
			name:     "empty seed",
			password: "",
			rng: &scriptedRand{
				floats: []float64{0.9},
				ints:   []int{4, 5, 89, 1, 2, 3, 4},
			},
			want: "%^99BCDE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.Mutate(tt.rng, tt.password); got != tt.want {
				t.Errorf("Mutate(%q) = %q, want %q", tt.password, got, tt.want)
			}
		})
	}
}

func TestMutate_Shape(t *testing.T) {
	g := newTestGenerator(t, sampleCorpus, DefaultGeneratorConfig())
	r := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 200; i++ {
		got := []rune(g.Mutate(r, "pässword"))
		if len(got) != len([]rune("pässword"))+4 {
			t.Fatalf("mutation %q has unexpected length", string(got))
		}
		if !strings.ContainsRune(DefaultSpecials, got[0]) {
			t.Fatalf("mutation %q does not start with a special", string(got))
		}
		tail := got[len(got)-3:]
		if !strings.ContainsRune(DefaultSpecials, tail[0]) {
			t.Fatalf("mutation %q lacks the trailing special", string(got))
		}
		if tail[1] < '1' || tail[1] > '9' || tail[2] < '0' || tail[2] > '9' {
			t.Fatalf("mutation %q lacks a two-digit suffix in [10,99]", string(got))
		}
	}
}

func TestMutate_PadsShortSeedToMinLengthRunes(t *testing.T) {
	g := newTestGenerator(t, sampleCorpus, DefaultGeneratorConfig())
	r := rand.New(rand.NewPCG(3, 4))

	for i := 0; i < 100; i++ {
		got := []rune(g.Mutate(r, "ab"))
		if len(got) != 8 {
			t.Fatalf("mutation %q has %d runes, want 8", string(got), len(got))
		}
		for _, c := range got[6:] {
			if c < 'A' || c > 'Z' {
				t.Fatalf("mutation %q padded with %q, want A-Z", string(got), c)
			}
		}
	}
}

func TestGenerate_InvalidCount(t *testing.T) {
	g := newTestGenerator(t, sampleCorpus, DefaultGeneratorConfig())

	for _, count := range []int{0, -1} {
		if _, err := g.Generate(context.Background(), "password124", count); !errors.Is(err, ErrInvalidCount) {
			t.Errorf("Generate(count=%d) err = %v, want ErrInvalidCount", count, err)
		}
	}
}

func TestGenerate_SuggestionsAreSafe(t *testing.T) {
	cfg := DefaultGeneratorConfig()
	cfg.NewRand = func() Rand { return rand.New(rand.NewPCG(42, 42)) }
	g := newTestGenerator(t, sampleCorpus, cfg)

	for _, seed := range []string{"password124", "letmein", ""} {
		got, err := g.Generate(context.Background(), seed, 3)
		if err != nil {
			t.Fatalf("Generate(%q): %v", seed, err)
		}
		if len(got) != 3 {
			t.Fatalf("Generate(%q) returned %d suggestions, want 3", seed, len(got))
		}

		seen := map[string]bool{}
		for _, s := range got {
			if seen[s] {
				t.Errorf("duplicate suggestion %q", s)
			}
			seen[s] = true

			for _, entry := range sampleCorpus {
				if d := NormalizedDistance(s, entry); d < cfg.SafetyThreshold {
					t.Errorf("suggestion %q is %v from %q, below %v", s, d, entry, cfg.SafetyThreshold)
				}
			}
			ok, err := g.Verify(context.Background(), s)
			if err != nil || !ok {
				t.Errorf("re-verifying %q: ok=%v err=%v", s, ok, err)
			}
		}
	}
}

func TestGenerate_DeterministicWithInjectedRand(t *testing.T) {
	cfg := DefaultGeneratorConfig()
	cfg.NewRand = func() Rand { return rand.New(rand.NewPCG(9, 9)) }
	g := newTestGenerator(t, sampleCorpus, cfg)

	a, err := g.Generate(context.Background(), "qwerty99", 3)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := g.Generate(context.Background(), "qwerty99", 3)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if strings.Join(a, ",") != strings.Join(b, ",") {
		t.Errorf("same seed produced %v and %v", a, b)
	}
}

func TestGenerate_AttemptCapSurfacesTimeout(t *testing.T) {
	cfg := DefaultGeneratorConfig()
	// Every mutation starts with a special character, so one of these
	// single-rune entries is always strictly closer than distance 1.
	cfg.SafetyThreshold = 1
	cfg.MaxAttempts = 25
	var entries []string
	for _, r := range DefaultSpecials {
		entries = append(entries, string(r))
	}
	g := newTestGenerator(t, entries, cfg)

	got, err := g.Generate(context.Background(), "hunter2", 3)
	if !errors.Is(err, ErrGenerationTimeout) {
		t.Fatalf("err = %v, want ErrGenerationTimeout", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d suggestions, want none", len(got))
	}
}

func TestGenerate_CanceledContext(t *testing.T) {
	g := newTestGenerator(t, sampleCorpus, DefaultGeneratorConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Generate(ctx, "password124", 3)
	if !errors.Is(err, ErrGenerationTimeout) {
		t.Fatalf("err = %v, want ErrGenerationTimeout", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want it to wrap context.Canceled", err)
	}
}

func TestVerify_ParallelScanFindsLateEntry(t *testing.T) {
	passwords := make([]string, 10000)
	for i := range passwords {
		passwords[i] = strings.Repeat("z", 30)
	}
	passwords[len(passwords)-1] = "!Secret99!"

	cfg := DefaultGeneratorConfig()
	cfg.Workers = 4
	cfg.MinChunk = 500
	g := newTestGenerator(t, passwords, cfg)

	ok, err := g.Verify(context.Background(), "!Secret98!")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Error("candidate one edit away from the last entry should be rejected")
	}

	ok, err = g.Verify(context.Background(), "Kx7#mQ2v")
	if err != nil || !ok {
		t.Errorf("distant candidate: ok=%v err=%v", ok, err)
	}
	if d := g.ClosestDistance("!Secret98!"); math.Abs(d-0.1) > 1e-9 {
		t.Errorf("ClosestDistance = %v, want 0.1", d)
	}
}

func TestNewGenerator_Defaults(t *testing.T) {
	g := newTestGenerator(t, sampleCorpus, GeneratorConfig{})
	if g.SafetyThreshold() != DefaultSafetyThreshold {
		t.Errorf("SafetyThreshold = %v, want %v", g.SafetyThreshold(), DefaultSafetyThreshold)
	}
	if g.cfg.MaxAttempts != DefaultMaxAttempts || g.cfg.MinLength != DefaultMinLength {
		t.Errorf("unexpected defaults: %+v", g.cfg)
	}
	if _, err := NewGenerator(nil, GeneratorConfig{}); !errors.Is(err, ErrEmptyCorpus) {
		t.Errorf("err = %v, want ErrEmptyCorpus", err)
	}
}

type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 0}, nil
}

func TestEngine_CheckScenario(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"password124": {0.9, 0.1, 0},
	}}
	cfg := DefaultEngineConfig()
	cfg.ShortlistSize = 2
	e, err := NewEngine(mustCorpus(t, sampleCorpus, sampleVectors()), embedder, cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	m, err := e.Check(context.Background(), "password124")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if m.Password != "password123" || m.Index != 0 {
		t.Errorf("best match = %q at %d, want password123 at 0", m.Password, m.Index)
	}
	if math.Abs(m.Distance-1.0/11.0) > 1e-9 {
		t.Errorf("distance = %v, want 1/11", m.Distance)
	}
	if math.Abs(m.Similarity-100.0*10.0/11.0) > 1e-9 {
		t.Errorf("similarity = %v, want ~90.9", m.Similarity)
	}
	if !m.Compromised() {
		t.Errorf("status = %q, want compromised", m.Status)
	}
	if m.TopCosine <= 0.9 {
		t.Errorf("top cosine = %v, want > 0.9", m.TopCosine)
	}
}

func TestEngine_CheckSafePassword(t *testing.T) {
	e, err := NewEngine(mustCorpus(t, sampleCorpus, sampleVectors()), &fakeEmbedder{}, DefaultEngineConfig())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	m, err := e.Check(context.Background(), "Zx!9vB#q@Lm2")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if m.Status != StatusSafe {
		t.Errorf("status = %q (distance %v), want safe", m.Status, m.Distance)
	}
}

func TestEngine_OracleFailure(t *testing.T) {
	e, err := NewEngine(mustCorpus(t, sampleCorpus, sampleVectors()), &fakeEmbedder{err: errors.New("model offline")}, DefaultEngineConfig())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	if _, err := e.Check(context.Background(), "password124"); !errors.Is(err, ErrOracleUnavailable) {
		t.Fatalf("err = %v, want ErrOracleUnavailable", err)
	}
}

func TestEngine_DimensionMismatch(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{"x": {1, 2}}}
	e, _ := NewEngine(mustCorpus(t, sampleCorpus, sampleVectors()), embedder, DefaultEngineConfig())

	if _, err := e.Check(context.Background(), "x"); !errors.Is(err, ErrInvalidDimension) {
		t.Fatalf("err = %v, want ErrInvalidDimension", err)
	}
}
