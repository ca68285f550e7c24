package breach

import (
	"container/heap"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Scored is one shortlist entry: a corpus index and its cosine similarity to
// the query.
type Scored struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// IndexConfig tunes the brute-force scan.
type IndexConfig struct {
	// Workers is the number of goroutines scanning the corpus. Zero means
	// GOMAXPROCS.
	Workers int
	// MinChunk is the smallest slice of the corpus handed to one worker.
	// Corpora smaller than this are scanned on the calling goroutine.
	MinChunk int
}

// Index answers top-N cosine similarity queries over a Corpus by exact
// brute-force scan. Results are identical whatever the worker count.
type Index struct {
	corpus   *Corpus
	workers  int
	minChunk int
}

// NewIndex builds an index over the corpus.
func NewIndex(corpus *Corpus, cfg IndexConfig) (*Index, error) {
	if corpus == nil || corpus.Len() == 0 {
		return nil, ErrEmptyCorpus
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.MinChunk <= 0 {
		cfg.MinChunk = 4096
	}
	return &Index{corpus: corpus, workers: cfg.Workers, minChunk: cfg.MinChunk}, nil
}

// Corpus returns the indexed corpus.
func (x *Index) Corpus() *Corpus { return x.corpus }

// Shortlist returns the n corpus entries most cosine-similar to query, sorted
// by score descending with ties broken by ascending index. n larger than the
// corpus is clamped to the corpus size.
func (x *Index) Shortlist(query []float32, n int) ([]Scored, error) {
	c := x.corpus
	if c == nil || c.Len() == 0 {
		return nil, ErrEmptyCorpus
	}
	if len(query) != c.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, corpus has %d", ErrInvalidDimension, len(query), c.dim)
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: shortlist size %d", ErrInvalidCount, n)
	}
	n = min(n, c.Len())

	qnorm := magnitude(query)

	chunks := x.chunks()
	if len(chunks) == 1 {
		return sortScored(x.scan(query, qnorm, 0, c.Len(), n)), nil
	}

	partial := make([][]Scored, len(chunks))
	var g errgroup.Group
	for i, ch := range chunks {
		g.Go(func() error {
			partial[i] = x.scan(query, qnorm, ch[0], ch[1], n)
			return nil
		})
	}
	// scan never fails; Wait only joins the workers.
	g.Wait()

	merged := make(topN, 0, n)
	for _, p := range partial {
		for _, s := range p {
			merged.offer(s, n)
		}
	}
	return sortScored(merged), nil
}

func (x *Index) chunks() [][2]int {
	return splitRange(x.corpus.Len(), x.workers, x.minChunk)
}

// splitRange divides [0,size) into at most workers contiguous ranges of at
// least minChunk entries each.
func splitRange(size, workers, minChunk int) [][2]int {
	if size < 2*minChunk || workers <= 1 {
		return [][2]int{{0, size}}
	}
	if maxWorkers := size / minChunk; workers > maxWorkers {
		workers = maxWorkers
	}
	step := (size + workers - 1) / workers
	out := make([][2]int, 0, workers)
	for lo := 0; lo < size; lo += step {
		out = append(out, [2]int{lo, min(lo+step, size)})
	}
	return out
}

func (x *Index) scan(query []float32, qnorm float64, lo, hi, n int) topN {
	c := x.corpus
	best := make(topN, 0, n)
	for i := lo; i < hi; i++ {
		best.offer(Scored{Index: i, Score: cosine(query, qnorm, c.vectors[i], c.norms[i])}, n)
	}
	return best
}

// CosineSimilarity returns dot(a,b)/(|a||b|), or 0 when either vector has zero
// magnitude or the dimensions differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	return cosine(a, magnitude(a), b, magnitude(b))
}

func cosine(a []float32, anorm float64, b []float32, bnorm float64) float64 {
	if anorm == 0 || bnorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (anorm * bnorm)
}

// ranksBefore reports whether a outranks b: higher score first, then lower index.
func ranksBefore(a, b Scored) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Index < b.Index
}

// topN is a bounded min-heap whose root is the worst kept entry.
type topN []Scored

func (h topN) Len() int           { return len(h) }
func (h topN) Less(i, j int) bool { return ranksBefore(h[j], h[i]) }
func (h topN) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *topN) Push(v any)        { *h = append(*h, v.(Scored)) }
func (h *topN) Pop() any {
	old := *h
	v := old[len(old)-1]
	*h = old[:len(old)-1]
	return v
}

func (h *topN) offer(s Scored, n int) {
	if h.Len() < n {
		heap.Push(h, s)
		return
	}
	if ranksBefore(s, (*h)[0]) {
		(*h)[0] = s
		heap.Fix(h, 0)
	}
}

func sortScored(h topN) []Scored {
	out := []Scored(h)
	sort.Slice(out, func(i, j int) bool { return ranksBefore(out[i], out[j]) })
	return out
}
