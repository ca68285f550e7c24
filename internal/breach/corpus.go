package breach

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"

	"golang.org/x/crypto/blake2b"
)

// Corpus is the immutable set of breached passwords paired positionally with
// their precomputed embeddings. Entry i of the password list corresponds to
// vector i. A Corpus is safe for concurrent use because nothing mutates it
// after NewCorpus returns.
type Corpus struct {
	passwords []string
	vectors   [][]float32
	norms     []float64
	runeLens  []int
	dim       int
}

// NewCorpus validates and copies the given passwords and vectors.
func NewCorpus(passwords []string, vectors [][]float32) (*Corpus, error) {
	if len(passwords) == 0 {
		return nil, ErrEmptyCorpus
	}
	if len(passwords) != len(vectors) {
		return nil, fmt.Errorf("corpus has %d passwords but %d embeddings", len(passwords), len(vectors))
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: embedding 0 is empty", ErrInvalidDimension)
	}

	c := &Corpus{
		passwords: make([]string, len(passwords)),
		vectors:   make([][]float32, len(vectors)),
		norms:     make([]float64, len(vectors)),
		runeLens:  make([]int, len(passwords)),
		dim:       dim,
	}
	copy(c.passwords, passwords)

	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: embedding %d has %d dimensions, want %d", ErrInvalidDimension, i, len(v), dim)
		}
		vc := make([]float32, dim)
		copy(vc, v)
		c.vectors[i] = vc
		c.norms[i] = magnitude(vc)
		c.runeLens[i] = runeLen(passwords[i])
	}

	return c, nil
}

// Len returns the number of entries.
func (c *Corpus) Len() int { return len(c.passwords) }

// Dimension returns the embedding dimension shared by every entry.
func (c *Corpus) Dimension() int { return c.dim }

// Password returns the password at index i.
func (c *Corpus) Password(i int) string { return c.passwords[i] }

// Passwords returns the passwords at the given indices, in order.
func (c *Corpus) Passwords(indices []int) []string {
	out := make([]string, len(indices))
	for i, idx := range indices {
		out[i] = c.passwords[idx]
	}
	return out
}

// Fingerprint returns a blake2b-256 digest over every password and vector, so
// two processes can confirm they loaded the same corpus.
func (c *Corpus) Fingerprint() string {
	h, _ := blake2b.New256(nil)
	var buf [8]byte
	for i, pw := range c.passwords {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(pw)))
		h.Write(buf[:])
		h.Write([]byte(pw))
		for _, f := range c.vectors[i] {
			binary.LittleEndian.PutUint32(buf[:4], math.Float32bits(f))
			h.Write(buf[:4])
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func magnitude(v []float32) float64 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	return math.Sqrt(sum)
}
