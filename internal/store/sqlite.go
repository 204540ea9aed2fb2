package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rlm-project/rlm/internal/embed"
	"github.com/rlm-project/rlm/internal/rlmerr"
)

// Store is the single embedded-SQL relational store (§4.4): buffers,
// chunks, embeddings, the FTS mirror, variables, and globals all live in
// one file, gated by a single mutex held only for the duration of a
// transaction (§4.4's concurrency rule).
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the database at path and brings its
// schema up to CurrentSchemaVersion. modelID is the embedder's current
// model_id, used to detect a model change across runs (§4.4 v3 upgrade).
func Open(path string, modelID string) (*Store, error) {
	var dsn string
	if path == "" || path == ":memory:" {
		dsn = "file::memory:?cache=shared"
	} else {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, wrapErr(rlmerr.KindGeneric, "create database directory", err)
			}
		}
		dsn = path + "?_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, wrapErr(rlmerr.KindGeneric, "open database", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, wrapErr(rlmerr.KindGeneric, "set pragma", err)
		}
	}

	ctx := context.Background()
	if err := runMigrations(ctx, db, modelID); err != nil {
		_ = db.Close()
		return nil, wrapErr(rlmerr.KindMigration, "run migrations", err)
	}
	if err := checkEmbedderModelID(ctx, db, modelID); err != nil {
		_ = db.Close()
		return nil, wrapErr(rlmerr.KindMigration, "check embedder model id", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func nowUnix() int64 { return time.Now().Unix() }

func wrapErr(kind rlmerr.Kind, msg string, err error) *rlmerr.Error {
	return rlmerr.Wrap(kind, fmt.Errorf("%s: %w", msg, err))
}

// IngestBuffer performs §4.7's ingest: validates UTF-8 (caller already
// did, since content arrived as a Go string), inserts the buffer, its
// chunks, the FTS mirror rows, and (if embedder succeeds) embeddings, all
// within one transaction. If embedding fails, ingest still succeeds —
// embeddings are simply left pending.
func (s *Store) IngestBuffer(ctx context.Context, name, content, source, contentType string, chunks []ChunkInput, embedder embed.Embedder) (*Buffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapErr(rlmerr.KindTransaction, "begin ingest", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := nowUnix()
	hash := contentHash(content)
	res, err := tx.ExecContext(ctx,
		`INSERT INTO buffers(name, content, source, size, line_count, hash, content_type, chunk_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		name, content, nullableString(source), len(content), countLines(content), hash, nullableString(contentType), len(chunks), now, now)
	if err != nil {
		if isUniqueConstraintErr(err) {
			return nil, rlmerr.New(rlmerr.KindInvalidConfig, fmt.Sprintf("buffer name %q already exists", name))
		}
		return nil, wrapErr(rlmerr.KindTransaction, "insert buffer", err)
	}
	bufferID, err := res.LastInsertId()
	if err != nil {
		return nil, wrapErr(rlmerr.KindTransaction, "read buffer id", err)
	}

	chunkIDs, err := s.insertChunks(ctx, tx, bufferID, chunks, now)
	if err != nil {
		return nil, err
	}

	if embedder != nil && len(chunks) > 0 {
		if err := s.embedAndStore(ctx, tx, chunkIDs, chunks, embedder); err != nil {
			// Embedding failures degrade: ingest still succeeds (§7).
			_ = err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapErr(rlmerr.KindTransaction, "commit ingest", err)
	}

	return &Buffer{
		ID: bufferID, Name: name, Content: content, Source: source,
		Size: int64(len(content)), LineCount: countLines(content), Hash: hash,
		ContentType: contentType, ChunkCount: len(chunks),
		CreatedAt: time.Unix(now, 0), UpdatedAt: time.Unix(now, 0),
	}, nil
}

// ChunkInput is the subset of a chunk/internal/chunk.Chunk needed for
// persistence, decoupling this package from the chunking package.
type ChunkInput struct {
	Index         int
	ByteStart     int
	ByteEnd       int
	Content       string
	TokenEstimate int
	Strategy      string
	HasOverlap    bool
	ContentHash   string
}

func (s *Store) insertChunks(ctx context.Context, tx *sql.Tx, bufferID int64, chunks []ChunkInput, now int64) ([]int64, error) {
	ids := make([]int64, len(chunks))
	insertChunk, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks(buffer_id, content, byte_start, byte_end, chunk_index, token_count, has_overlap, strategy, content_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, wrapErr(rlmerr.KindTransaction, "prepare chunk insert", err)
	}
	defer insertChunk.Close()

	insertFTS, err := tx.PrepareContext(ctx, `INSERT INTO chunks_fts(rowid, content) VALUES (?, ?)`)
	if err != nil {
		return nil, wrapErr(rlmerr.KindTransaction, "prepare fts insert", err)
	}
	defer insertFTS.Close()

	for i, c := range chunks {
		res, err := insertChunk.ExecContext(ctx, bufferID, c.Content, c.ByteStart, c.ByteEnd, c.Index,
			c.TokenEstimate, boolToInt(c.HasOverlap), c.Strategy, c.ContentHash, now)
		if err != nil {
			return nil, wrapErr(rlmerr.KindTransaction, "insert chunk", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, wrapErr(rlmerr.KindTransaction, "read chunk id", err)
		}
		ids[i] = id
		if _, err := insertFTS.ExecContext(ctx, id, c.Content); err != nil {
			return nil, wrapErr(rlmerr.KindTransaction, "insert fts row", err)
		}
	}
	return ids, nil
}

func (s *Store) embedAndStore(ctx context.Context, tx *sql.Tx, chunkIDs []int64, chunks []ChunkInput, embedder embed.Embedder) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return wrapErr(rlmerr.KindEmbedding, "embed batch", err)
	}

	insertEmb, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO embeddings(chunk_id, vector, model_id) VALUES (?, ?, ?)`)
	if err != nil {
		return wrapErr(rlmerr.KindEmbedding, "prepare embedding insert", err)
	}
	defer insertEmb.Close()

	for i, v := range vectors {
		if len(v) != embedder.Dimension() {
			return rlmerr.New(rlmerr.KindEmbedding, "embedding dimension mismatch")
		}
		if _, err := insertEmb.ExecContext(ctx, chunkIDs[i], encodeVector(v), embedder.ModelID()); err != nil {
			return wrapErr(rlmerr.KindEmbedding, "insert embedding", err)
		}
	}
	return nil
}

// StoreEmbedding inserts or replaces the embedding for a single chunk,
// used by explicit re-embed operations outside of ingest (§4.7, §6
// `chunk embed`).
func (s *Store) StoreEmbedding(ctx context.Context, chunkID int64, vector []float32, modelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO embeddings(chunk_id, vector, model_id) VALUES (?, ?, ?)`,
		chunkID, encodeVector(vector), modelID)
	if err != nil {
		return wrapErr(rlmerr.KindEmbedding, "store embedding", err)
	}
	return nil
}

// DeleteBuffer removes a buffer; its FTS mirror rows are deleted
// explicitly first, then FK cascades clean up chunks and embeddings
// (§4.4).
func (s *Store) DeleteBuffer(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr(rlmerr.KindTransaction, "begin delete", err)
	}
	defer func() { _ = tx.Rollback() }()

	// chunks_fts is an external-content FTS table over chunks with no
	// sync triggers, so we must explicitly remove its rows before the
	// backing chunks disappear via cascade.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM chunks_fts WHERE rowid IN (SELECT id FROM chunks WHERE buffer_id = ?)`, id); err != nil {
		return wrapErr(rlmerr.KindTransaction, "delete fts rows", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM buffers WHERE id = ?`, id)
	if err != nil {
		return wrapErr(rlmerr.KindTransaction, "delete buffer", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return rlmerr.BufferNotFound(fmt.Sprintf("%d", id))
	}
	return tx.Commit()
}

// GetBufferByID fetches a buffer by its numeric identifier.
func (s *Store) GetBufferByID(ctx context.Context, id int64) (*Buffer, error) {
	return s.getBuffer(ctx, `id = ?`, id)
}

// GetBufferByName fetches a buffer by its unique name.
func (s *Store) GetBufferByName(ctx context.Context, name string) (*Buffer, error) {
	return s.getBuffer(ctx, `name = ?`, name)
}

func (s *Store) getBuffer(ctx context.Context, where string, arg any) (*Buffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx, `SELECT id, name, content, COALESCE(source, ''), size, line_count, hash,
		COALESCE(content_type, ''), chunk_count, created_at, updated_at FROM buffers WHERE `+where, arg)
	var b Buffer
	var created, updated int64
	if err := row.Scan(&b.ID, &b.Name, &b.Content, &b.Source, &b.Size, &b.LineCount, &b.Hash,
		&b.ContentType, &b.ChunkCount, &created, &updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, rlmerr.BufferNotFound(fmt.Sprintf("%v", arg))
		}
		return nil, wrapErr(rlmerr.KindGeneric, "query buffer", err)
	}
	b.CreatedAt = time.Unix(created, 0)
	b.UpdatedAt = time.Unix(updated, 0)
	return &b, nil
}

// ListBuffers returns every buffer, ordered by id.
func (s *Store) ListBuffers(ctx context.Context) ([]Buffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, COALESCE(source,''), size, line_count, hash,
		COALESCE(content_type,''), chunk_count, created_at, updated_at FROM buffers ORDER BY id`)
	if err != nil {
		return nil, wrapErr(rlmerr.KindGeneric, "list buffers", err)
	}
	defer rows.Close()

	var out []Buffer
	for rows.Next() {
		var b Buffer
		var created, updated int64
		if err := rows.Scan(&b.ID, &b.Name, &b.Source, &b.Size, &b.LineCount, &b.Hash,
			&b.ContentType, &b.ChunkCount, &created, &updated); err != nil {
			return nil, wrapErr(rlmerr.KindGeneric, "scan buffer row", err)
		}
		b.CreatedAt = time.Unix(created, 0)
		b.UpdatedAt = time.Unix(updated, 0)
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetChunk dereferences a chunk by id (§4.7).
func (s *Store) GetChunk(ctx context.Context, id int64) (*Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx, `SELECT id, buffer_id, content, byte_start, byte_end, chunk_index,
		COALESCE(token_count, 0), has_overlap, strategy, content_hash, created_at FROM chunks WHERE id = ?`, id)
	c, err := scanChunk(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, rlmerr.ChunkNotFound(id)
		}
		return nil, wrapErr(rlmerr.KindGeneric, "query chunk", err)
	}
	return c, nil
}

// ListChunks returns every chunk of a buffer in index order.
func (s *Store) ListChunks(ctx context.Context, bufferID int64) ([]Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, buffer_id, content, byte_start, byte_end, chunk_index,
		COALESCE(token_count, 0), has_overlap, strategy, content_hash, created_at
		FROM chunks WHERE buffer_id = ? ORDER BY chunk_index`, bufferID)
	if err != nil {
		return nil, wrapErr(rlmerr.KindGeneric, "list chunks", err)
	}
	defer rows.Close()

	var out []Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, wrapErr(rlmerr.KindGeneric, "scan chunk row", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChunk(row rowScanner) (*Chunk, error) {
	var c Chunk
	var hasOverlap int
	var created int64
	if err := row.Scan(&c.ID, &c.BufferID, &c.Content, &c.ByteStart, &c.ByteEnd, &c.Index,
		&c.TokenEstimate, &hasOverlap, &c.Strategy, &c.ContentHash, &created); err != nil {
		return nil, err
	}
	c.HasOverlap = hasOverlap != 0
	c.CreatedAt = time.Unix(created, 0)
	return &c, nil
}

// HasEmbedding reports whether chunk_id has a stored embedding.
func (s *Store) HasEmbedding(ctx context.Context, chunkID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings WHERE chunk_id = ?`, chunkID).Scan(&n)
	if err != nil {
		return false, wrapErr(rlmerr.KindGeneric, "check embedding", err)
	}
	return n > 0, nil
}

// Status reports the coverage summary for the `status` command (§6).
func (s *Store) Status(ctx context.Context) (*Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &Status{Initialized: true, DBPath: s.path}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM buffers`).Scan(&st.BufferCount); err != nil {
		return nil, wrapErr(rlmerr.KindGeneric, "count buffers", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&st.ChunkCount); err != nil {
		return nil, wrapErr(rlmerr.KindGeneric, "count chunks", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size), 0) FROM buffers`).Scan(&st.TotalContentBytes); err != nil {
		return nil, wrapErr(rlmerr.KindGeneric, "sum buffer sizes", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings`).Scan(&st.EmbeddingsCount); err != nil {
		return nil, wrapErr(rlmerr.KindGeneric, "count embeddings", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT version FROM schema LIMIT 1`).Scan(&st.SchemaVersion); err != nil && err != sql.ErrNoRows {
		return nil, wrapErr(rlmerr.KindGeneric, "read schema version", err)
	}
	if s.path != "" && s.path != ":memory:" {
		if fi, err := os.Stat(s.path); err == nil {
			st.DBSizeBytes = fi.Size()
		}
	}
	return st, nil
}

// Reset drops every row from every table (the `reset` command, §6).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr(rlmerr.KindTransaction, "begin reset", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"chunks_fts", "embeddings", "chunks", "buffers", "variables", "globals"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return wrapErr(rlmerr.KindTransaction, "reset table "+table, err)
		}
	}
	return tx.Commit()
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", sum)
}

func countLines(content string) int {
	if content == "" {
		return 0
	}
	return strings.Count(content, "\n") + 1
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueConstraintErr(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}

// encodeVector packs a []float32 into a little-endian byte blob.
func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeVector is the inverse of encodeVector.
func decodeVector(buf []byte) []float32 {
	out := make([]float32, len(buf)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out
}
