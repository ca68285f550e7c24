package corpus

import (
	"context"
	"fmt"

	"github.com/agent-smit/passguard/internal/breach"
)

// Source yields a corpus as parallel password and vector slices.
type Source interface {
	Load(ctx context.Context) (passwords []string, vectors [][]float32, err error)
}

// Open loads src and validates it into an immutable corpus.
func Open(ctx context.Context, src Source) (*breach.Corpus, error) {
	passwords, vectors, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	return breach.NewCorpus(passwords, vectors)
}

// FileSource loads a TOML embeddings file.
type FileSource struct {
	Path string
	// Dimensions, when non-zero, must match the file's vectors.
	Dimensions int
}

func (s FileSource) Load(_ context.Context) ([]string, [][]float32, error) {
	f, err := LoadEmbeddings(s.Path)
	if err != nil {
		return nil, nil, err
	}
	if s.Dimensions > 0 && f.Dimensions > 0 && f.Dimensions != s.Dimensions {
		return nil, nil, fmt.Errorf("%w: embeddings file has %d dimensions, embedder produces %d",
			breach.ErrInvalidDimension, f.Dimensions, s.Dimensions)
	}
	passwords, vectors := f.Split()
	return passwords, vectors, nil
}

// TextSource reads a plain password list and embeds it on load. It suits
// local embedders; remote ones should precompute with an embeddings file.
type TextSource struct {
	Path     string
	Encoding string
	Embedder BatchEmbedder
	Progress Progress
}

func (s TextSource) Load(ctx context.Context) ([]string, [][]float32, error) {
	passwords, err := ReadPasswordFile(s.Path, s.Encoding)
	if err != nil {
		return nil, nil, err
	}
	vectors, err := Build(ctx, s.Embedder, passwords, DefaultBatchSize, s.Progress)
	if err != nil {
		return nil, nil, err
	}
	return passwords, vectors, nil
}
