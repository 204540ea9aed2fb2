// Package search implements the hybrid retrieval engine (§4.6): parallel
// dense and sparse search, fused by Reciprocal Rank Fusion.
package search

import (
	"context"
	"math"
	"strconv"
)

// Mode selects which source(s) participate in a search (§4.6.3).
type Mode string

const (
	ModeHybrid   Mode = "hybrid"
	ModeSemantic Mode = "semantic"
	ModeBM25     Mode = "bm25"
)

// Options configures one search call.
type Options struct {
	TopK      int
	Threshold float64 // [0,1], applied against the per-source semantic score
	Mode      Mode
	RRFConstant int // k, default 60
	BufferID  *int64
}

// DefaultOptions returns the spec's default search parameters.
func DefaultOptions() Options {
	return Options{TopK: 10, Mode: ModeHybrid, RRFConstant: DefaultRRFConstant}
}

// Result is one fused search hit (§4.6.3's stable field set).
type Result struct {
	ChunkID       int64
	BufferID      int64
	Index         int
	Score         float64
	SemanticScore *Score
	BM25Score     *Score
}

// scientificThreshold is §4.5's cutoff: signed scores at or below this
// magnitude must serialize in scientific notation. encoding/json's default
// float formatting only switches to scientific notation below 1e-6, which
// misses the 1e-6..1e-4 band the sparse engine's bm25() scores can fall
// into, so Score carries its own MarshalJSON.
const scientificThreshold = 1e-4

// Score is a signed relevance score (semantic similarity or BM25) that
// marshals to JSON in scientific notation once its magnitude drops to or
// below scientificThreshold (§4.5).
type Score float64

func (s Score) MarshalJSON() ([]byte, error) {
	f := float64(s)
	if f != 0 && math.Abs(f) <= scientificThreshold {
		return []byte(strconv.FormatFloat(f, 'e', -1, 64)), nil
	}
	return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
}

// DenseSearcher produces ranked dense hits for a query vector.
type DenseSearcher interface {
	SearchDense(ctx context.Context, query string, bufferID *int64, k int) ([]RankedHit, error)
}

// SparseSearcher produces ranked sparse hits for a query string.
type SparseSearcher interface {
	SearchSparse(ctx context.Context, query string, bufferID *int64, k int) ([]RankedHit, error)
}

// RankedHit is one per-source hit before fusion, carrying enough to
// resolve chunk_id/buffer_id/index and the per-source score.
type RankedHit struct {
	ChunkID  int64
	BufferID int64
	Index    int
	Score    float64 // semantic similarity or BM25 score, source-specific
}
