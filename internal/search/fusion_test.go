package search

import "testing"

// TestFuseWorkedExample is S4: chunk A ranks (dense=1, sparse=3), chunk B
// ranks (dense=2, sparse=1), chunk C ranks (dense=3, sparse=2). With k=60
// the expected ordering is B > A > C.
func TestFuseWorkedExample(t *testing.T) {
	dense := []RankedHit{
		{ChunkID: 1, Score: 0.9}, // rank 1
		{ChunkID: 2, Score: 0.8}, // rank 2
		{ChunkID: 3, Score: 0.7}, // rank 3
	}
	sparse := []RankedHit{
		{ChunkID: 2, Score: 9}, // rank 1
		{ChunkID: 3, Score: 8}, // rank 2
		{ChunkID: 1, Score: 7}, // rank 3
	}

	results := Fuse(dense, sparse, 60)
	if len(results) != 3 {
		t.Fatalf("expected 3 fused results, got %d", len(results))
	}
	if results[0].ChunkID != 2 || results[1].ChunkID != 1 || results[2].ChunkID != 3 {
		t.Fatalf("expected order [2,1,3], got [%d,%d,%d]", results[0].ChunkID, results[1].ChunkID, results[2].ChunkID)
	}

	wantB := 1.0/62 + 1.0/61
	wantA := 1.0/61 + 1.0/63
	wantC := 1.0/63 + 1.0/62
	const eps = 1e-9
	if diff := results[0].Score - wantB; diff > eps || diff < -eps {
		t.Errorf("chunk 2 score = %v, want %v", results[0].Score, wantB)
	}
	if diff := results[1].Score - wantA; diff > eps || diff < -eps {
		t.Errorf("chunk 1 score = %v, want %v", results[1].Score, wantA)
	}
	if diff := results[2].Score - wantC; diff > eps || diff < -eps {
		t.Errorf("chunk 3 score = %v, want %v", results[2].Score, wantC)
	}
}

// TestFuseSingleSourceNoMissingRankPenalty asserts a document present in
// only one source contributes only that source's term — no synthetic
// rank is substituted for the missing side.
func TestFuseSingleSourceNoMissingRankPenalty(t *testing.T) {
	dense := []RankedHit{{ChunkID: 1, Score: 0.5}}
	sparse := []RankedHit(nil)

	results := Fuse(dense, sparse, 60)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	want := 1.0 / 61
	if diff := results[0].Score - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("score = %v, want %v (dense-only term, no penalty)", results[0].Score, want)
	}
	if results[0].BM25Score != nil {
		t.Error("expected nil BM25Score for a dense-only hit")
	}
}

// TestFuseRanksSparseByNegatedBM25 guards against regressing to raw FTS5
// bm25() values, where a more negative score is a better match. Fuse's
// contract (and SQLiteSparseSearcher/store.SearchSparse's) is that
// RankedHit.Score is always "higher is better", so the sparse scores here
// are modeled post-negation, the same shape the real engine wiring
// produces: chunk 2 (best match, raw bm25 most negative) gets the
// highest negated score and must win rank 1.
func TestFuseRanksSparseByNegatedBM25(t *testing.T) {
	sparse := []RankedHit{
		{ChunkID: 2, Score: 8.5},  // raw bm25 -8.5, best match
		{ChunkID: 3, Score: 3.1},  // raw bm25 -3.1
		{ChunkID: 1, Score: 0.4},  // raw bm25 -0.4, weakest match
	}

	results := Fuse(nil, sparse, 60)
	if len(results) != 3 {
		t.Fatalf("expected 3 fused results, got %d", len(results))
	}
	if results[0].ChunkID != 2 || results[1].ChunkID != 3 || results[2].ChunkID != 1 {
		t.Fatalf("expected order [2,3,1] (best negated bm25 first), got [%d,%d,%d]",
			results[0].ChunkID, results[1].ChunkID, results[2].ChunkID)
	}
}

func TestFuseTiesBreakByChunkIDAscending(t *testing.T) {
	dense := []RankedHit{
		{ChunkID: 5, Score: 0.5},
		{ChunkID: 2, Score: 0.5},
	}
	results := Fuse(dense, nil, 60)
	if results[0].ChunkID != 2 || results[1].ChunkID != 5 {
		t.Errorf("expected chunk 2 before chunk 5 on tie, got [%d,%d]", results[0].ChunkID, results[1].ChunkID)
	}
}

func TestApplyThresholdFiltersOnSemanticScore(t *testing.T) {
	high := Score(0.9)
	low := Score(0.1)
	results := []Result{
		{ChunkID: 1, SemanticScore: &high},
		{ChunkID: 2, SemanticScore: &low},
		{ChunkID: 3, BM25Score: &high}, // no semantic score at all
	}
	filtered := ApplyThreshold(results, 0.5)
	if len(filtered) != 1 || filtered[0].ChunkID != 1 {
		t.Fatalf("expected only chunk 1 to survive threshold, got %+v", filtered)
	}
}

func TestTruncate(t *testing.T) {
	results := []Result{{ChunkID: 1}, {ChunkID: 2}, {ChunkID: 3}}
	if got := Truncate(results, 2); len(got) != 2 {
		t.Errorf("expected 2 results, got %d", len(got))
	}
	if got := Truncate(results, 0); len(got) != 3 {
		t.Errorf("topK=0 should mean unbounded, got %d", len(got))
	}
}
