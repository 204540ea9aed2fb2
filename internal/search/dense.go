package search

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/rlm-project/rlm/internal/embed"
	"github.com/rlm-project/rlm/internal/store"
)

// queryVectorCacheSize bounds how many distinct query strings' dense
// embeddings are kept in memory. A repeated search (interactive
// refinement, a REPL re-running the same query) skips re-embedding.
const queryVectorCacheSize = 256

// HNSWDenseSearcher adapts the in-memory approximate index into a
// DenseSearcher (§4.6.1). When scoped to a single buffer it falls back
// to an exact brute-force search over that buffer's embeddings, since
// the HNSW graph is built across all buffers and isn't cheaply
// sliceable per buffer.
type HNSWDenseSearcher struct {
	Index    *store.DenseIndex
	Store    *store.Store
	Embedder embed.Embedder

	cache *lru.Cache[string, []float32]
}

// NewHNSWDenseSearcher builds a dense searcher with its query-vector
// cache ready to use.
func NewHNSWDenseSearcher(index *store.DenseIndex, s *store.Store, embedder embed.Embedder) *HNSWDenseSearcher {
	cache, _ := lru.New[string, []float32](queryVectorCacheSize)
	return &HNSWDenseSearcher{Index: index, Store: s, Embedder: embedder, cache: cache}
}

// InvalidateQueryCache drops every cached query embedding. Called after
// a write changes the active embedding model, since a cached vector
// computed under the old model would silently mis-rank results under
// the new one.
func (s *HNSWDenseSearcher) InvalidateQueryCache() {
	if s.cache != nil {
		s.cache.Purge()
	}
}

func (s *HNSWDenseSearcher) queryVector(ctx context.Context, query string) ([]float32, error) {
	if s.cache == nil {
		cache, _ := lru.New[string, []float32](queryVectorCacheSize)
		s.cache = cache
	}
	if qv, ok := s.cache.Get(query); ok {
		return qv, nil
	}
	vecs, err := s.Embedder.EmbedBatch(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	qv := vecs[0]
	s.cache.Add(query, qv)
	return qv, nil
}

func (s *HNSWDenseSearcher) SearchDense(ctx context.Context, query string, bufferID *int64, k int) ([]RankedHit, error) {
	qv, err := s.queryVector(ctx, query)
	if err != nil {
		return nil, err
	}

	var results []store.VectorResult
	if bufferID != nil {
		candidates, err := s.Store.AllEmbeddings(ctx, bufferID)
		if err != nil {
			return nil, err
		}
		results = store.ExactSearch(candidates, qv, k)
	} else {
		results, err = s.Index.Query(qv, k)
		if err != nil {
			return nil, err
		}
	}

	out := make([]RankedHit, len(results))
	for i, r := range results {
		out[i] = RankedHit{ChunkID: r.ChunkID, Score: float64(r.Score)}
	}
	return out, nil
}
