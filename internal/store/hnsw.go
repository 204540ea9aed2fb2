package store

import (
	"sort"
	"sync"

	"github.com/coder/hnsw"

	"github.com/rlm-project/rlm/internal/embed"
)

// DenseIndex is the approximate dense-search implementation of §4.6.1: an
// in-memory HNSW-style index keyed directly by chunk_id, supporting
// incremental insert/delete. It is not written to disk; callers rebuild
// it from the stored embeddings. Unlike the teacher's string-keyed
// HNSWStore, chunk ids are already a dense int64 space, so no separate
// id-mapping table is needed — the chunk id IS the graph key.
type DenseIndex struct {
	mu     sync.RWMutex
	graph  *hnsw.Graph[int64]
	config VectorStoreConfig
	live   map[int64]bool
}

// NewDenseIndex builds an empty HNSW graph for the given configuration.
func NewDenseIndex(cfg VectorStoreConfig) *DenseIndex {
	if cfg.M == 0 {
		cfg = DefaultVectorStoreConfig(cfg.Dimensions)
	}
	graph := hnsw.NewGraph[int64]()
	switch cfg.Metric {
	case "l2":
		graph.Distance = hnsw.EuclideanDistance
	default:
		graph.Distance = hnsw.CosineDistance
	}
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch
	graph.Ml = 0.25

	return &DenseIndex{graph: graph, config: cfg, live: make(map[int64]bool)}
}

// Add inserts or replaces the vector for chunkID.
func (d *DenseIndex) Add(chunkID int64, vector []float32) error {
	if len(vector) != d.config.Dimensions {
		return ErrDimensionMismatch{Expected: d.config.Dimensions, Got: len(vector)}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.graph.Add(hnsw.MakeNode(chunkID, vector))
	d.live[chunkID] = true
	return nil
}

// Delete lazily removes chunkID: the node stays in the graph (coder/hnsw
// has trouble deleting the last node cleanly) but is filtered out of
// every subsequent search result, matching the teacher's HNSWStore
// discipline.
func (d *DenseIndex) Delete(chunkID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.live, chunkID)
}

// Query returns the k nearest neighbors to v, each with a [0,1] score
// derived from the configured distance metric.
func (d *DenseIndex) Query(v []float32, k int) ([]VectorResult, error) {
	if len(v) != d.config.Dimensions {
		return nil, ErrDimensionMismatch{Expected: d.config.Dimensions, Got: len(v)}
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.graph.Len() == 0 {
		return nil, nil
	}
	// Over-fetch to absorb lazily-deleted nodes filtered out below.
	searchK := 2*k + (d.graph.Len() - len(d.live))
	if searchK > d.graph.Len() {
		searchK = d.graph.Len()
	}
	nodes := d.graph.Search(v, searchK)
	var out []VectorResult
	for _, n := range nodes {
		if !d.live[n.Key] {
			continue
		}
		dist := d.graph.Distance(v, n.Value)
		out = append(out, VectorResult{ChunkID: n.Key, Distance: dist, Score: distanceToScore(dist, d.config.Metric)})
		if len(out) >= k {
			break
		}
	}
	sortVectorResults(out)
	return out, nil
}

func sortVectorResults(results []VectorResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkID < results[j].ChunkID
	})
}

// ExactSearch is the brute-force alternative required by §4.6.1 to be
// behaviorally equivalent to the approximate index on ordering (ties
// broken by ascending chunk_id).
func ExactSearch(candidates map[int64][]float32, query []float32, k int) []VectorResult {
	out := make([]VectorResult, 0, len(candidates))
	for id, vec := range candidates {
		sim := embed.CosineSimilarity(query, vec)
		out = append(out, VectorResult{ChunkID: id, Score: float32(sim)})
	}
	sortVectorResults(out)
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}
