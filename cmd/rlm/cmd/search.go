package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rlm-project/rlm/internal/search"
	"github.com/rlm-project/rlm/internal/store"
)

func newSearchCmd() *cobra.Command {
	var topK int
	var threshold float64
	var mode string
	var rrfK int
	var bufferRef string
	c := &cobra.Command{
		Use:   "search <query>",
		Short: "Hybrid (dense + sparse) search over all buffers",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return printErr(runSearch(args[0], topK, threshold, mode, rrfK, bufferRef))
		},
	}
	c.Flags().IntVar(&topK, "top-k", projectConfig.Search.MaxResults, "number of results to return")
	c.Flags().Float64Var(&threshold, "threshold", projectConfig.Search.Threshold, "minimum semantic score to include a result")
	c.Flags().StringVar(&mode, "mode", "hybrid", "hybrid, semantic, or bm25")
	c.Flags().IntVar(&rrfK, "rrf-k", projectConfig.Search.RRFConstant, "RRF smoothing constant")
	c.Flags().StringVar(&bufferRef, "buffer", "", "restrict to one buffer (id or name)")
	return c
}

func runSearch(query string, topK int, threshold float64, mode string, rrfK int, bufferRef string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	opts := search.Options{TopK: topK, Threshold: threshold, Mode: search.Mode(mode), RRFConstant: rrfK}
	if bufferRef != "" {
		buf, err := mustParseBufferRef(c0(), s, bufferRef)
		if err != nil {
			return err
		}
		opts.BufferID = &buf.ID
	}

	embedder := defaultEmbedder()
	denseIdx := store.NewDenseIndex(store.DefaultVectorStoreConfig(embedder.Dimension()))
	if err := warmDenseIndex(s, denseIdx); err != nil {
		return err
	}

	engine := search.NewEngine(
		search.NewHNSWDenseSearcher(denseIdx, s, embedder),
		&search.SQLiteSparseSearcher{Store: s},
		s,
		nil,
	)

	results, err := engine.Search(c0(), query, opts)
	if err != nil {
		return err
	}

	if jsonMode() {
		rows := make([]map[string]any, len(results))
		for i, r := range results {
			rows[i] = map[string]any{
				"chunk_id": r.ChunkID, "buffer_id": r.BufferID, "index": r.Index, "score": r.Score,
				"semantic_score": r.SemanticScore, "bm25_score": r.BM25Score,
			}
		}
		return writeJSON(os.Stdout, map[string]any{"query": query, "mode": mode, "count": len(results), "results": rows})
	}
	for _, r := range results {
		fmt.Printf("chunk %d (buffer %d, #%d) score=%.4f\n", r.ChunkID, r.BufferID, r.Index, r.Score)
	}
	return nil
}

// warmDenseIndex loads every stored embedding into a fresh in-memory
// HNSW graph on open, since the dense index itself isn't persisted
// across process invocations (§4.4: only the relational store is).
func warmDenseIndex(s *store.Store, idx *store.DenseIndex) error {
	all, err := s.AllEmbeddings(c0(), nil)
	if err != nil {
		return err
	}
	for chunkID, vec := range all {
		if err := idx.Add(chunkID, vec); err != nil {
			return err
		}
	}
	return nil
}
