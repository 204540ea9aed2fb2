package store

import (
	"context"
	"database/sql"
	"fmt"
)

// migration applies the schema change needed to move from version-1 to
// this migration's version. Migrations are idempotent and minimal (§4.4).
type migration struct {
	version int
	apply   func(ctx context.Context, tx *sql.Tx, modelID string) error
}

var migrations = []migration{
	{version: 1, apply: migrateV1},
	{version: 2, apply: migrateV2},
	{version: 3, apply: migrateV3schema},
}

// migrateV3schema only advances the schema table to version 3; it
// creates no objects (schema_meta already exists from v1). The actual
// v3 behavior — clearing embeddings on a model_id change — is not a
// one-time migration: it must run on every open, since the configured
// embedder can change between runs of an already-current database. See
// checkEmbedderModelID.
func migrateV3schema(_ context.Context, _ *sql.Tx, _ string) error { return nil }

// migrateV1 creates the base schema: buffers, chunks, the FTS mirror,
// variables, globals, and schema bookkeeping.
func migrateV1(ctx context.Context, tx *sql.Tx, _ string) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS buffers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL,
			content TEXT NOT NULL,
			source TEXT,
			size INTEGER NOT NULL,
			line_count INTEGER NOT NULL,
			hash TEXT NOT NULL,
			content_type TEXT,
			chunk_count INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS chunks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			buffer_id INTEGER NOT NULL REFERENCES buffers(id) ON DELETE CASCADE,
			content TEXT NOT NULL,
			byte_start INTEGER NOT NULL,
			byte_end INTEGER NOT NULL,
			chunk_index INTEGER NOT NULL,
			token_count INTEGER,
			has_overlap INTEGER NOT NULL DEFAULT 0,
			strategy TEXT NOT NULL,
			content_hash TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			UNIQUE(buffer_id, chunk_index)
		)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
			content,
			content='chunks',
			content_rowid='id'
		)`,
		`CREATE TABLE IF NOT EXISTS variables (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			value_type TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS globals (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			value_type TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS schema_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}
	return nil
}

// migrateV2 creates the embeddings table.
func migrateV2(ctx context.Context, tx *sql.Tx, _ string) error {
	_, err := tx.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS embeddings (
		chunk_id INTEGER PRIMARY KEY REFERENCES chunks(id) ON DELETE CASCADE,
		vector BLOB NOT NULL,
		model_id TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("migration v2: %w", err)
	}
	return nil
}

// checkEmbedderModelID detects a change in the embedder's model_id and
// clears all rows in embeddings, leaving chunks and FTS intact (§4.4's
// notable v3 upgrade). Unlike the versioned migrations, this runs on
// every open regardless of schema version, since the model_id recorded
// last time and the one configured now can differ on any run.
func checkEmbedderModelID(ctx context.Context, db *sql.DB, modelID string) error {
	if modelID == "" {
		return nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin model-id check: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var stored string
	err = tx.QueryRowContext(ctx, `SELECT value FROM schema_meta WHERE key = 'embedder_model_id'`).Scan(&stored)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("read stored model id: %w", err)
	}
	if stored != "" && stored != modelID {
		if _, err := tx.ExecContext(ctx, `DELETE FROM embeddings`); err != nil {
			return fmt.Errorf("clear embeddings on model change: %w", err)
		}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO schema_meta(key, value) VALUES ('embedder_model_id', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, modelID)
	if err != nil {
		return fmt.Errorf("record model id: %w", err)
	}
	return tx.Commit()
}

// runMigrations reads schema.version and applies every registered
// upgrade between the stored value and CurrentSchemaVersion, in order.
// Applying migrations on an already-current database is a no-op.
func runMigrations(ctx context.Context, db *sql.DB, modelID string) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema (version INTEGER)`); err != nil {
		return fmt.Errorf("create schema table: %w", err)
	}

	current := 0
	row := db.QueryRowContext(ctx, `SELECT version FROM schema LIMIT 1`)
	if err := row.Scan(&current); err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}
		if err := m.apply(ctx, tx, modelID); err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM schema`); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("clear schema version: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema(version) VALUES (?)`, m.version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("write schema version %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}
		current = m.version
	}
	return nil
}
