package corpus

import (
	"context"
	"fmt"
)

// BatchEmbedder embeds many texts per call.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// DefaultBatchSize is the number of passwords sent per embedding call.
const DefaultBatchSize = 256

// Progress is called after each batch with the number of passwords embedded
// so far and the total.
type Progress func(done, total int)

// Build embeds passwords in batches, preserving order.
func Build(ctx context.Context, embedder BatchEmbedder, passwords []string, batchSize int, progress Progress) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	vectors := make([][]float32, 0, len(passwords))
	for lo := 0; lo < len(passwords); lo += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hi := min(lo+batchSize, len(passwords))

		batch, err := embedder.EmbedBatch(ctx, passwords[lo:hi])
		if err != nil {
			return nil, fmt.Errorf("embedding passwords %d-%d: %w", lo, hi-1, err)
		}
		if len(batch) != hi-lo {
			return nil, fmt.Errorf("embedding passwords %d-%d: got %d vectors", lo, hi-1, len(batch))
		}
		vectors = append(vectors, batch...)

		if progress != nil {
			progress(hi, len(passwords))
		}
	}
	return vectors, nil
}
