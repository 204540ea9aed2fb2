package store

import (
	"context"
	"testing"
)

// TestSearchSparse_ScoreIsNegatedBM25 exercises the real FTS5 path: bm25()
// returns increasingly negative values for better matches, so a naive
// pass-through would rank the worst match first. SearchSparse must negate
// the raw score so the best match sorts first and carries the highest
// Score.
func TestSearchSparse_ScoreIsNegatedBM25(t *testing.T) {
	s := mustOpen(t)
	ctx := context.Background()

	// "widget" is the only repeated term in the strong chunk, so FTS5's
	// bm25() scores it more negatively (a better match) than the weak
	// chunk, where "widget" appears once among unrelated terms.
	strongContent := "widget widget widget widget widget"
	weakContent := "widget apple banana cherry date"

	strongChunks := []ChunkInput{{Index: 0, ByteStart: 0, ByteEnd: len(strongContent), Content: strongContent, Strategy: "fixed", ContentHash: "s1"}}
	weakChunks := []ChunkInput{{Index: 0, ByteStart: 0, ByteEnd: len(weakContent), Content: weakContent, Strategy: "fixed", ContentHash: "s2"}}

	if _, err := s.IngestBuffer(ctx, "strong", strongContent, "", "text", strongChunks, nil); err != nil {
		t.Fatalf("ingest strong: %v", err)
	}
	if _, err := s.IngestBuffer(ctx, "weak", weakContent, "", "text", weakChunks, nil); err != nil {
		t.Fatalf("ingest weak: %v", err)
	}

	results, err := s.SearchSparse(ctx, "widget", nil, 10)
	if err != nil {
		t.Fatalf("search sparse: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 sparse hits, got %d", len(results))
	}

	// Best match must sort first (descending by negated score).
	if results[0].Score < results[1].Score {
		t.Fatalf("results not sorted best-first by negated score: %+v", results)
	}

	strongBuf, err := s.GetBufferByName(ctx, "strong")
	if err != nil {
		t.Fatalf("get strong buffer: %v", err)
	}
	strongChunk, err := s.ListChunks(ctx, strongBuf.ID)
	if err != nil {
		t.Fatalf("list strong chunks: %v", err)
	}
	if results[0].ChunkID != strongChunk[0].ID {
		t.Errorf("expected the strong match to rank first, got chunk %d first (strong chunk is %d)", results[0].ChunkID, strongChunk[0].ID)
	}
}
