package corpus

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Entry pairs a password with its embedding.
type Entry struct {
	Password  string    `toml:"password"`
	Embedding []float32 `toml:"embedding"`
}

// EmbeddingsFile is the on-disk form of a precomputed corpus.
type EmbeddingsFile struct {
	Model      string  `toml:"model"`
	Dimensions int     `toml:"dimensions"`
	Embeddings []Entry `toml:"embeddings"`
}

// Split returns the passwords and vectors as parallel slices.
func (f *EmbeddingsFile) Split() ([]string, [][]float32) {
	passwords := make([]string, len(f.Embeddings))
	vectors := make([][]float32, len(f.Embeddings))
	for i, e := range f.Embeddings {
		passwords[i] = e.Password
		vectors[i] = e.Embedding
	}
	return passwords, vectors
}

// NewEmbeddingsFile pairs passwords with vectors positionally.
func NewEmbeddingsFile(model string, passwords []string, vectors [][]float32) (*EmbeddingsFile, error) {
	if len(passwords) != len(vectors) {
		return nil, fmt.Errorf("%d passwords but %d embeddings", len(passwords), len(vectors))
	}
	f := &EmbeddingsFile{Model: model, Embeddings: make([]Entry, len(passwords))}
	if len(vectors) > 0 {
		f.Dimensions = len(vectors[0])
	}
	for i := range passwords {
		f.Embeddings[i] = Entry{Password: passwords[i], Embedding: vectors[i]}
	}
	return f, nil
}

// SaveEmbeddings writes f to path as TOML, creating parent directories.
func SaveEmbeddings(path string, f *EmbeddingsFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".embeddings-*.toml")
	if err != nil {
		return fmt.Errorf("creating embeddings file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(f); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding embeddings TOML: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing embeddings file: %w", err)
	}
	// Rename so a crashed run never leaves a truncated file behind.
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing embeddings file: %w", err)
	}
	return nil
}

// LoadEmbeddings reads an embeddings file written by SaveEmbeddings.
func LoadEmbeddings(path string) (*EmbeddingsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading embeddings file: %w", err)
	}

	var f EmbeddingsFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing embeddings file: %w", err)
	}
	for i, e := range f.Embeddings {
		if f.Dimensions > 0 && len(e.Embedding) != f.Dimensions {
			return nil, fmt.Errorf("embeddings file entry %d has %d dimensions, header says %d", i, len(e.Embedding), f.Dimensions)
		}
	}
	return &f, nil
}
