// Package store persists the breached-password corpus in Postgres using the
// pgvector extension for the embedding column.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/agent-smit/passguard/internal/breach"
)

// insertBatchSize bounds how many rows go into one pgx.Batch round trip.
const insertBatchSize = 1000

// Metadata describes the embedding model the stored corpus was built with.
type Metadata struct {
	Model      string `json:"model"`
	Dimensions int    `json:"dimensions"`
}

// CorpusStore handles database operations for the breached-password corpus.
type CorpusStore struct {
	pool       *pgxpool.Pool
	dimensions int
}

// NewCorpusStore creates a new CorpusStore. When dimensions is positive, Load
// rejects a stored corpus built for a different embedding width.
func NewCorpusStore(pool *pgxpool.Pool, dimensions int) *CorpusStore {
	return &CorpusStore{pool: pool, dimensions: dimensions}
}

// Ping checks database connectivity.
func (s *CorpusStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Replace atomically swaps the stored corpus for the given entries. Positions
// follow slice order, so the loaded corpus keeps the same indices.
func (s *CorpusStore) Replace(ctx context.Context, model string, passwords []string, vectors [][]float32) error {
	if len(passwords) != len(vectors) {
		return fmt.Errorf("%d passwords but %d vectors", len(passwords), len(vectors))
	}
	if len(passwords) == 0 {
		return breach.ErrEmptyCorpus
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim || dim == 0 {
			return fmt.Errorf("%w: entry %d has %d components, want %d", breach.ErrInvalidDimension, i, len(v), dim)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE breached_passwords`); err != nil {
		return fmt.Errorf("truncating corpus: %w", err)
	}

	for _, r := range chunks(len(passwords), insertBatchSize) {
		batch := &pgx.Batch{}
		for i := r[0]; i < r[1]; i++ {
			batch.Queue(
				`INSERT INTO breached_passwords (position, password, embedding) VALUES ($1, $2, $3)`,
				i, passwords[i], pgvector.NewVector(vectors[i]),
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting entries %d-%d: %w", r[0], r[1]-1, err)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO corpus_metadata (id, model, dimensions, imported_at)
		VALUES (1, $1, $2, now())
		ON CONFLICT (id) DO UPDATE
		SET model = EXCLUDED.model, dimensions = EXCLUDED.dimensions, imported_at = EXCLUDED.imported_at`,
		model, dim)
	if err != nil {
		return fmt.Errorf("recording corpus metadata: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing corpus: %w", err)
	}
	return nil
}

// Metadata returns the stored corpus header, or breach.ErrEmptyCorpus when
// nothing has been imported yet.
func (s *CorpusStore) Metadata(ctx context.Context) (*Metadata, error) {
	var m Metadata
	err := s.pool.QueryRow(ctx, `SELECT model, dimensions FROM corpus_metadata WHERE id = 1`).Scan(&m.Model, &m.Dimensions)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, breach.ErrEmptyCorpus
	}
	if err != nil {
		return nil, fmt.Errorf("reading corpus metadata: %w", err)
	}
	return &m, nil
}

// Count returns the number of stored entries.
func (s *CorpusStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM breached_passwords`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting corpus: %w", err)
	}
	return n, nil
}

// Load reads every entry ordered by position.
func (s *CorpusStore) Load(ctx context.Context) ([]string, [][]float32, error) {
	meta, err := s.Metadata(ctx)
	if err != nil {
		return nil, nil, err
	}
	if s.dimensions > 0 && meta.Dimensions != s.dimensions {
		return nil, nil, fmt.Errorf("%w: stored corpus has %d dimensions (model %s), embedder produces %d",
			breach.ErrInvalidDimension, meta.Dimensions, meta.Model, s.dimensions)
	}

	rows, err := s.pool.Query(ctx, `SELECT position, password, embedding FROM breached_passwords ORDER BY position`)
	if err != nil {
		return nil, nil, fmt.Errorf("loading corpus: %w", err)
	}
	defer rows.Close()

	var (
		passwords []string
		vectors   [][]float32
	)
	for rows.Next() {
		var (
			position int
			password string
			vec      pgvector.Vector
		)
		if err := rows.Scan(&position, &password, &vec); err != nil {
			return nil, nil, fmt.Errorf("scanning corpus entry: %w", err)
		}
		if position != len(passwords) {
			return nil, nil, fmt.Errorf("corpus has a gap at position %d", len(passwords))
		}
		passwords = append(passwords, password)
		vectors = append(vectors, vec.Slice())
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterating corpus: %w", err)
	}
	return passwords, vectors, nil
}

// chunks splits [0,n) into consecutive half-open ranges of at most size.
func chunks(n, size int) [][2]int {
	var out [][2]int
	for lo := 0; lo < n; lo += size {
		out = append(out, [2]int{lo, min(lo+size, n)})
	}
	return out
}
