// Package store provides the relational persistence layer: buffers,
// chunks, embeddings, variables, and the sparse/dense indexes built on
// top of them.
package store

import (
	"fmt"
	"time"
)

// CurrentSchemaVersion is the schema version this build migrates to.
const CurrentSchemaVersion = 3

// Buffer is a named, immutable textual document plus metadata (§3).
type Buffer struct {
	ID          int64
	Name        string
	Content     string
	Source      string
	Size        int64
	LineCount   int
	Hash        string
	ContentType string
	ChunkCount  int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Chunk is an ordered slice of exactly one buffer's content (§3).
type Chunk struct {
	ID            int64
	BufferID      int64
	Index         int
	ByteStart     int
	ByteEnd       int
	Content       string
	TokenEstimate int
	Strategy      string
	HasOverlap    bool
	ContentHash   string
	CreatedAt     time.Time
}

// Embedding is a dense vector associated 1:1 with a chunk (§3).
type Embedding struct {
	ChunkID int64
	Vector  []float32
	ModelID string
}

// VariableScope distinguishes the two independent key-value mappings
// of §3.
type VariableScope string

const (
	ScopeContext VariableScope = "context"
	ScopeGlobal  VariableScope = "global"
)

// ValueType tags the union a Variable's value is encoded as.
type ValueType string

const (
	ValueString ValueType = "string"
	ValueInt    ValueType = "int"
	ValueFloat  ValueType = "float"
	ValueBool   ValueType = "bool"
	ValueList   ValueType = "list"
)

// Variable is one entry of either the context or global key-value store.
type Variable struct {
	Name      string
	Value     string
	ValueType ValueType
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Status summarizes store contents for the `status` command (§6).
type Status struct {
	Initialized       bool
	DBPath            string
	DBSizeBytes       int64
	BufferCount       int
	ChunkCount        int
	TotalContentBytes int64
	EmbeddingsCount   int
	SchemaVersion     int
}

// BM25Result is a single sparse-search hit (§4.6.2). Score is the
// negated FTS5 bm25() value, so higher is always a better match.
type BM25Result struct {
	ChunkID int64
	Score   float64
}

// VectorResult is a single dense-search hit (§4.6.1).
type VectorResult struct {
	ChunkID  int64
	Distance float32
	Score    float32
}

// VectorStoreConfig configures the dense index.
type VectorStoreConfig struct {
	Dimensions     int
	Metric         string // "cos" or "l2"
	M              int
	EfConstruction int
	EfSearch       int
}

// DefaultVectorStoreConfig returns sensible HNSW defaults for the given
// embedding width.
func DefaultVectorStoreConfig(dimensions int) VectorStoreConfig {
	return VectorStoreConfig{
		Dimensions:     dimensions,
		Metric:         "cos",
		M:              16,
		EfConstruction: 128,
		EfSearch:       20,
	}
}

// ErrDimensionMismatch indicates a vector was presented with a width
// different from the configured index dimension.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}

func distanceToScore(distance float32, metric string) float32 {
	switch metric {
	case "l2":
		return 1 / (1 + distance)
	default: // cosine distance is in [0,2]; map to a [0,1] similarity
		return 1 - distance/2
	}
}
