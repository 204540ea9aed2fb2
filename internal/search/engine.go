package search

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/rlm-project/rlm/internal/rlmerr"
	"github.com/rlm-project/rlm/internal/store"
)

// ChunkLookup resolves chunk metadata needed to fill out a Result after
// fusion (buffer id, position within its buffer).
type ChunkLookup interface {
	GetChunk(ctx context.Context, id int64) (*store.Chunk, error)
}

// Engine is the hybrid retrieval engine of §4.6: it runs the dense and
// sparse searches concurrently, fuses their rankings by RRF, and applies
// the mode/threshold/top-k shaping requested by the caller.
type Engine struct {
	Dense  DenseSearcher
	Sparse SparseSearcher
	Chunks ChunkLookup
	Logger *slog.Logger
}

// NewEngine builds an Engine from its three collaborators.
func NewEngine(dense DenseSearcher, sparse SparseSearcher, chunks ChunkLookup, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{Dense: dense, Sparse: sparse, Chunks: chunks, Logger: logger}
}

// Search runs one query under opts and returns fused, shaped results
// (§4.6.4): dense and sparse run in parallel; a mode of ModeHybrid
// degrades to whichever single source succeeds and logs the other's
// failure, while ModeSemantic/ModeBM25 surface their source's error
// directly since there is no second source to fall back to.
func (e *Engine) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	fetchK := opts.TopK
	if fetchK <= 0 {
		fetchK = 10
	}
	// Over-fetch beyond topK so RRF has enough of each ranking to fuse
	// meaningfully before truncation.
	fetchK *= 3

	var denseHits, sparseHits []RankedHit
	var denseErr, sparseErr error

	g, gctx := errgroup.WithContext(ctx)
	if opts.Mode == ModeHybrid || opts.Mode == ModeSemantic {
		g.Go(func() error {
			denseHits, denseErr = e.Dense.SearchDense(gctx, query, opts.BufferID, fetchK)
			return nil
		})
	}
	if opts.Mode == ModeHybrid || opts.Mode == ModeBM25 {
		g.Go(func() error {
			sparseHits, sparseErr = e.Sparse.SearchSparse(gctx, query, opts.BufferID, fetchK)
			return nil
		})
	}
	_ = g.Wait() // errors are captured per-branch above, not propagated through the group

	switch opts.Mode {
	case ModeSemantic:
		if denseErr != nil {
			return nil, wrapSearchErr("dense search", denseErr)
		}
	case ModeBM25:
		if sparseErr != nil {
			return nil, wrapSearchErr("sparse search", sparseErr)
		}
	default: // ModeHybrid: degrade to whichever source is available
		if denseErr != nil && sparseErr != nil {
			return nil, wrapSearchErr("dense and sparse search both failed", denseErr)
		}
		if denseErr != nil {
			e.Logger.Warn("dense search failed, degrading to sparse-only", "error", denseErr)
			denseHits = nil
		}
		if sparseErr != nil {
			e.Logger.Warn("sparse search failed, degrading to dense-only", "error", sparseErr)
			sparseHits = nil
		}
	}

	k := opts.RRFConstant
	if k <= 0 {
		k = DefaultRRFConstant
	}
	fused := Fuse(denseHits, sparseHits, k)

	if err := e.enrich(ctx, fused); err != nil {
		return nil, err
	}

	fused = ApplyThreshold(fused, opts.Threshold)
	fused = Truncate(fused, opts.TopK)
	return fused, nil
}

// enrich fills in each result's BufferID/Index from chunk metadata, since
// RankedHit carries only chunk id and score across the fusion boundary.
func (e *Engine) enrich(ctx context.Context, results []Result) error {
	for i := range results {
		c, err := e.Chunks.GetChunk(ctx, results[i].ChunkID)
		if err != nil {
			return err
		}
		results[i].BufferID = c.BufferID
		results[i].Index = c.Index
	}
	return nil
}

func wrapSearchErr(msg string, err error) *rlmerr.Error {
	if rlmErr, ok := err.(*rlmerr.Error); ok {
		return rlmErr
	}
	return rlmerr.Wrap(rlmerr.KindGeneric, err)
}
