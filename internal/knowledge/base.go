package knowledge

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"courseassist/internal/logging"
	"courseassist/internal/monitoring"
)

const DefaultTopK = 3

var (
	ErrIndexing          = errors.New("indexing failed")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Chunk is one retrievable slice of a course document.
type Chunk struct {
	Content string `json:"content"`
	Source  string `json:"source"`
	ChunkID int    `json:"chunk_id"`
}

type SearchResult struct {
	Content         string  `json:"content"`
	Source          string  `json:"source"`
	ChunkID         int     `json:"chunk_id"`
	SimilarityScore float64 `json:"similarity_score"`
}

// Embedder maps texts to vectors of a fixed length, index-aligned with the input.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// EmbeddingCache is an optional lookaside cache in front of the Embedder.
type EmbeddingCache interface {
	Get(ctx context.Context, model, text string) ([]float32, bool, error)
	Set(ctx context.Context, model, text string, vec []float32) error
}

type Options struct {
	ChunkSize int
	TopK      int
	BatchSize int
	Workers   int
	Cache     EmbeddingCache
	Metrics   *monitoring.Metrics
}

// Base holds every chunk ever added together with its embedding and the index over them.
type Base struct {
	embedder Embedder
	opts     Options
	log      zerolog.Logger

	mu         sync.RWMutex
	chunks     []Chunk
	embeddings [][]float32
	index      *flatIndex
}

func NewBase(embedder Embedder, opts Options) *Base {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 16
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	return &Base{
		embedder: embedder,
		opts:     opts,
		log:      logging.NewLogger("knowledge"),
	}
}

// AddDocument chunks content, embeds every chunk and rebuilds the index over all chunks.
// Either the whole document is added or nothing is. Empty content adds nothing.
func (b *Base) AddDocument(ctx context.Context, content, source string) (int, error) {
	texts := ChunkText(content, b.opts.ChunkSize)
	if len(texts) == 0 {
		return 0, nil
	}

	vectors, err := b.embedAll(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("%w: embed %s: %v", ErrIndexing, source, err)
	}

	newChunks := make([]Chunk, len(texts))
	for i, text := range texts {
		newChunks[i] = Chunk{Content: text, Source: source, ChunkID: i}
	}

	b.mu.Lock()
	allEmbeddings := append(b.embeddings[:len(b.embeddings):len(b.embeddings)], vectors...)
	index, err := buildFlatIndex(allEmbeddings)
	if err != nil {
		b.mu.Unlock()
		return 0, fmt.Errorf("%w: %v", ErrIndexing, err)
	}
	b.chunks = append(b.chunks, newChunks...)
	b.embeddings = allEmbeddings
	b.index = index
	total := len(b.chunks)
	b.mu.Unlock()

	if b.opts.Metrics != nil {
		b.opts.Metrics.KnowledgeChunks.Set(float64(total))
	}
	b.log.Info().
		Str("source", source).
		Int("chunks", len(newChunks)).
		Int("total_chunks", total).
		Msg("document indexed")
	return len(newChunks), nil
}

// SearchSimilar returns up to topK chunks by descending inner product with the query.
// An empty base yields no results and no error.
func (b *Base) SearchSimilar(ctx context.Context, query string, topK int) ([]SearchResult, error) {
	if topK <= 0 {
		topK = b.opts.TopK
	}

	b.mu.RLock()
	empty := b.index == nil
	b.mu.RUnlock()
	if empty {
		return []SearchResult{}, nil
	}

	vecs, err := b.embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query failed: %w", err)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	scores, ids, err := b.index.Search(vecs[0], topK)
	if err != nil {
		return nil, err
	}
	results := make([]SearchResult, 0, len(ids))
	for i, id := range ids {
		if id < 0 || id >= len(b.chunks) {
			continue
		}
		c := b.chunks[id]
		results = append(results, SearchResult{
			Content:         c.Content,
			Source:          c.Source,
			ChunkID:         c.ChunkID,
			SimilarityScore: float64(scores[i]),
		})
	}
	return results, nil
}

func (b *Base) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.chunks)
}

// Chunks returns a copy of the store in insertion order.
func (b *Base) Chunks() []Chunk {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Chunk, len(b.chunks))
	copy(out, b.chunks)
	return out
}

// IndexSize is the number of vectors in the current index (0 when unset).
func (b *Base) IndexSize() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.index == nil {
		return 0
	}
	return b.index.Len()
}

// embedAll embeds texts in batches with bounded concurrency, preserving order.
func (b *Base) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Workers)

	for start := 0; start < len(texts); start += b.opts.BatchSize {
		start := start
		end := start + b.opts.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		g.Go(func() error {
			vecs, err := b.embed(gctx, texts[start:end])
			if err != nil {
				return err
			}
			copy(out[start:end], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// embed consults the cache first and only sends misses to the embedder.
func (b *Base) embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var (
		missIdx   []int
		missTexts []string
	)
	model := b.embedder.Model()

	for i, t := range texts {
		if b.opts.Cache != nil {
			vec, ok, err := b.opts.Cache.Get(ctx, model, t)
			if err != nil {
				b.log.Warn().Err(err).Msg("embedding cache get failed")
			}
			if ok {
				out[i] = vec
				b.countCache(true)
				continue
			}
			b.countCache(false)
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := b.embedder.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(missTexts))
	}
	for j, i := range missIdx {
		out[i] = vecs[j]
		if b.opts.Cache != nil {
			if err := b.opts.Cache.Set(ctx, model, missTexts[j], vecs[j]); err != nil {
				b.log.Warn().Err(err).Msg("embedding cache set failed")
			}
		}
	}
	return out, nil
}

func (b *Base) countCache(hit bool) {
	if b.opts.Metrics == nil {
		return
	}
	if hit {
		b.opts.Metrics.EmbeddingCacheHits.Inc()
		return
	}
	b.opts.Metrics.EmbeddingCacheMisses.Inc()
}
