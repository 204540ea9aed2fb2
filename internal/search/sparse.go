package search

import (
	"context"

	"github.com/rlm-project/rlm/internal/store"
)

// SQLiteSparseSearcher adapts *store.Store's FTS5-backed BM25 search into
// a SparseSearcher (§4.6.2).
type SQLiteSparseSearcher struct {
	Store *store.Store
}

func (s *SQLiteSparseSearcher) SearchSparse(ctx context.Context, query string, bufferID *int64, k int) ([]RankedHit, error) {
	results, err := s.Store.SearchSparse(ctx, query, bufferID, k)
	if err != nil {
		return nil, err
	}
	out := make([]RankedHit, len(results))
	for i, r := range results {
		out[i] = RankedHit{ChunkID: r.ChunkID, Score: r.Score}
	}
	return out, nil
}
