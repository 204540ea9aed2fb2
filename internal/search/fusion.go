package search

import "sort"

// DefaultRRFConstant is the standard RRF smoothing parameter (§4.6.3).
const DefaultRRFConstant = 60

// Fuse combines dense and sparse hits by Reciprocal Rank Fusion (§4.6.3).
//
// Deliberately deviates from a "missing rank" penalty scheme: a document
// present in only one source contributes only that source's term to its
// RRF score, nothing more. §9's open question resolution is explicit
// that RRF binds to ranks, and §4.6.3 states plainly that a single-source
// document "contributes only that source's term" — there is no synthetic
// rank standing in for the absent source.
func Fuse(dense, sparse []RankedHit, k int) []Result {
	if k <= 0 {
		k = DefaultRRFConstant
	}

	type accum struct {
		chunkID       int64
		bufferID      int64
		index         int
		rrf           float64
		semanticScore *Score
		bm25Score     *Score
	}
	byID := make(map[int64]*accum)

	order := func(hits []RankedHit) []RankedHit {
		out := make([]RankedHit, len(hits))
		copy(out, hits)
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Score != out[j].Score {
				return out[i].Score > out[j].Score
			}
			return out[i].ChunkID < out[j].ChunkID
		})
		return out
	}

	denseRanked := order(dense)
	sparseRanked := order(sparse)

	for rank, h := range denseRanked {
		a := byID[h.ChunkID]
		if a == nil {
			a = &accum{chunkID: h.ChunkID, bufferID: h.BufferID, index: h.Index}
			byID[h.ChunkID] = a
		}
		score := Score(h.Score)
		a.semanticScore = &score
		a.rrf += 1.0 / float64(k+rank+1)
	}
	for rank, h := range sparseRanked {
		a := byID[h.ChunkID]
		if a == nil {
			a = &accum{chunkID: h.ChunkID, bufferID: h.BufferID, index: h.Index}
			byID[h.ChunkID] = a
		}
		score := Score(h.Score)
		a.bm25Score = &score
		a.rrf += 1.0 / float64(k+rank+1)
	}

	out := make([]Result, 0, len(byID))
	for _, a := range byID {
		out = append(out, Result{
			ChunkID: a.chunkID, BufferID: a.bufferID, Index: a.index,
			Score: a.rrf, SemanticScore: a.semanticScore, BM25Score: a.bm25Score,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ChunkID < out[j].ChunkID
	})
	return out
}

// ApplyThreshold filters results by the per-source semantic score (not
// the fused RRF score), per §4.6.3. Results with no semantic score never
// pass a positive threshold.
func ApplyThreshold(results []Result, threshold float64) []Result {
	if threshold <= 0 {
		return results
	}
	out := results[:0:0]
	for _, r := range results {
		if r.SemanticScore != nil && float64(*r.SemanticScore) >= threshold {
			out = append(out, r)
		}
	}
	return out
}

// Truncate caps results to topK.
func Truncate(results []Result, topK int) []Result {
	if topK > 0 && len(results) > topK {
		return results[:topK]
	}
	return results
}
