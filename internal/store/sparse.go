package store

import (
	"context"

	"github.com/rlm-project/rlm/internal/rlmerr"
)

// SearchSparse issues the shaped FT query against chunks_fts and returns
// the top-K chunk ids with BM25 scores (§4.5, §4.6.2), negated so higher
// is always better. When bufferID is non-nil, results are restricted to
// that buffer.
func (s *Store) SearchSparse(ctx context.Context, query string, bufferID *int64, limit int) ([]BM25Result, error) {
	shaped := BuildFTSQuery(query)
	if shaped == "" {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sqlQuery := `SELECT c.id, bm25(chunks_fts) AS score
		FROM chunks_fts
		JOIN chunks c ON c.id = chunks_fts.rowid
		WHERE chunks_fts MATCH ?`
	args := []any{shaped}
	if bufferID != nil {
		sqlQuery += ` AND c.buffer_id = ?`
		args = append(args, *bufferID)
	}
	sqlQuery += ` ORDER BY score LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, wrapErr(rlmerr.KindGeneric, "sparse search", err)
	}
	defer rows.Close()

	var out []BM25Result
	for rows.Next() {
		var r BM25Result
		if err := rows.Scan(&r.ChunkID, &r.Score); err != nil {
			return nil, wrapErr(rlmerr.KindGeneric, "scan sparse result", err)
		}
		// FTS5 bm25() returns negative values where closer to zero is a
		// worse match; negate so a higher BM25Result.Score always means a
		// better match, matching the dense cosine-similarity convention.
		r.Score = -r.Score
		out = append(out, r)
	}
	return out, rows.Err()
}

// AllEmbeddings loads every stored (chunk_id, vector) pair, used by the
// exact brute-force dense search path and by index rebuild.
func (s *Store) AllEmbeddings(ctx context.Context, bufferID *int64) (map[int64][]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlQuery := `SELECT e.chunk_id, e.vector FROM embeddings e`
	var args []any
	if bufferID != nil {
		sqlQuery += ` JOIN chunks c ON c.id = e.chunk_id WHERE c.buffer_id = ?`
		args = append(args, *bufferID)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, wrapErr(rlmerr.KindGeneric, "load embeddings", err)
	}
	defer rows.Close()

	out := make(map[int64][]float32)
	for rows.Next() {
		var id int64
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, wrapErr(rlmerr.KindGeneric, "scan embedding row", err)
		}
		out[id] = decodeVector(blob)
	}
	return out, rows.Err()
}
