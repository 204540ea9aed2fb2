package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rlm-project/rlm/internal/embed"
	"github.com/rlm-project/rlm/internal/rlmerr"
)

// UpdateBuffer replaces a buffer's content and regenerates its chunks
// (§4.7): old and new chunks are diffed by (index, content_hash); an
// embedding whose owning chunk kept the same (index, content_hash) is
// carried over unchanged, and only new or modified chunks are re-embedded.
func (s *Store) UpdateBuffer(ctx context.Context, bufferID int64, content string, chunks []ChunkInput, embedder embed.Embedder) (*Buffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapErr(rlmerr.KindTransaction, "begin update", err)
	}
	defer func() { _ = tx.Rollback() }()

	reusable, err := s.loadReusableEmbeddings(ctx, tx, bufferID, chunks)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks_fts WHERE rowid IN (SELECT id FROM chunks WHERE buffer_id = ?)`, bufferID); err != nil {
		return nil, wrapErr(rlmerr.KindTransaction, "delete old fts rows", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE buffer_id = ?`, bufferID); err != nil {
		return nil, wrapErr(rlmerr.KindTransaction, "delete old chunks", err)
	}

	now := nowUnix()
	hash := contentHash(content)
	res, err := tx.ExecContext(ctx,
		`UPDATE buffers SET content = ?, size = ?, line_count = ?, hash = ?, chunk_count = ?, updated_at = ? WHERE id = ?`,
		content, len(content), countLines(content), hash, len(chunks), now, bufferID)
	if err != nil {
		return nil, wrapErr(rlmerr.KindTransaction, "update buffer row", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, rlmerr.BufferNotFound(fmt.Sprintf("%d", bufferID))
	}

	chunkIDs, err := s.insertChunks(ctx, tx, bufferID, chunks, now)
	if err != nil {
		return nil, err
	}

	var toEmbedIdx []int
	insertEmb, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO embeddings(chunk_id, vector, model_id) VALUES (?, ?, ?)`)
	if err != nil {
		return nil, wrapErr(rlmerr.KindEmbedding, "prepare embedding insert", err)
	}
	defer insertEmb.Close()

	for i, c := range chunks {
		if vec, ok := reusable[diffKey{index: c.Index, hash: c.ContentHash}]; ok {
			if _, err := insertEmb.ExecContext(ctx, chunkIDs[i], vec.bytes, vec.modelID); err != nil {
				return nil, wrapErr(rlmerr.KindEmbedding, "carry over embedding", err)
			}
			continue
		}
		toEmbedIdx = append(toEmbedIdx, i)
	}

	if embedder != nil && len(toEmbedIdx) > 0 {
		texts := make([]string, len(toEmbedIdx))
		for j, i := range toEmbedIdx {
			texts[j] = chunks[i].Content
		}
		vectors, embErr := embedder.EmbedBatch(ctx, texts)
		if embErr == nil {
			for j, i := range toEmbedIdx {
				if len(vectors[j]) != embedder.Dimension() {
					continue
				}
				_, _ = insertEmb.ExecContext(ctx, chunkIDs[i], encodeVector(vectors[j]), embedder.ModelID())
			}
		}
		// Embedding failure degrades (§7): the new/modified chunks are
		// simply left without an embedding, update still succeeds.
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapErr(rlmerr.KindTransaction, "commit update", err)
	}

	return s.GetBufferByID(ctx, bufferID)
}

type diffKey struct {
	index int
	hash  string
}

type reusableVector struct {
	bytes   []byte
	modelID string
}

// loadReusableEmbeddings reads the buffer's current (index, content_hash,
// embedding) triples before they're overwritten, keyed for lookup against
// the incoming chunk set.
func (s *Store) loadReusableEmbeddings(ctx context.Context, tx *sql.Tx, bufferID int64, newChunks []ChunkInput) (map[diffKey]reusableVector, error) {
	wanted := make(map[diffKey]bool, len(newChunks))
	for _, c := range newChunks {
		wanted[diffKey{index: c.Index, hash: c.ContentHash}] = true
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT c.chunk_index, c.content_hash, e.vector, e.model_id
		 FROM chunks c JOIN embeddings e ON e.chunk_id = c.id
		 WHERE c.buffer_id = ?`, bufferID)
	if err != nil {
		return nil, wrapErr(rlmerr.KindTransaction, "load existing embeddings", err)
	}
	defer rows.Close()

	out := make(map[diffKey]reusableVector)
	for rows.Next() {
		var idx int
		var hash, modelID string
		var vec []byte
		if err := rows.Scan(&idx, &hash, &vec, &modelID); err != nil {
			return nil, wrapErr(rlmerr.KindTransaction, "scan existing embedding", err)
		}
		key := diffKey{index: idx, hash: hash}
		if wanted[key] {
			out[key] = reusableVector{bytes: vec, modelID: modelID}
		}
	}
	return out, rows.Err()
}
