// Package chunk implements the chunker strategies of component §4.2:
// fixed, semantic-boundary, code-aware, and a data-parallel wrapper over
// any of the other three.
package chunk

import "time"

// Size defaults from the common chunker configuration (§4.2).
const (
	DefaultChunkSize = 3000
	MaxChunkSize     = 50000
	DefaultOverlap   = 500
)

// Chunk is an ordered, byte-addressed slice of exactly one buffer's
// content (§3). A freshly produced Chunk from a Strategy carries every
// field except ID (BufferID is whatever the caller passed to Chunk); ID
// is assigned by the store on insert.
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

// Config is the common chunker configuration of §4.2.
type Config struct {
	ChunkSize         int
	Overlap           int
	PreserveSentences bool
	MaxChunks         int

	// Language is the dispatch tag for the code-aware strategy, normally
	// derived from the source path extension. Ignored by other strategies.
	Language string

	// Workers bounds the data-parallel wrapper's fan-out; 0 means
	// runtime.NumCPU().
	Workers int
}

// DefaultConfig returns the common configuration defaults of §4.2.
func DefaultConfig() Config {
	return Config{
		ChunkSize:         DefaultChunkSize,
		Overlap:           DefaultOverlap,
		PreserveSentences: true,
	}
}

// Strategy is the capability every chunker variant implements (§9:
// "model as a capability... a factory maps a string tag to a variant").
type Strategy interface {
	// Name is the stable tag stored in Chunk.Strategy.
	Name() string
	// Chunk partitions text into an ordered, densely indexed sequence.
	Chunk(bufferID int64, text string, cfg Config) ([]Chunk, error)
	// SupportsParallel reports whether the data-parallel wrapper may run
	// this strategy per-segment.
	SupportsParallel() bool
}

// Tree is a parsed AST, used by the code-aware strategy for languages
// with a registered tree-sitter grammar.
type Tree struct {
	Root     *Node
	Source   []byte
	Language string
}

// Node is a node in the AST.
type Node struct {
	Type       string
	StartByte  uint32
	EndByte    uint32
	StartPoint Point
	EndPoint   Point
	Children   []*Node
	HasError   bool
}

// Point is a row/column position in the source.
type Point struct {
	Row    uint32
	Column uint32
}

// LanguageConfig holds the declaration-discovery configuration for one
// code-aware language tag (§4.2.3). Exactly one of TreeSitter node
// types or DeclRegexes is populated: languages with a vendored grammar
// use AST node types; the rest use line-anchored regular expressions
// matching a top-level declaration start.
type LanguageConfig struct {
	Name       string
	Extensions []string

	// DeclNodeTypes are AST node types that mark a top-level declaration,
	// used when a tree-sitter grammar is registered for this language.
	DeclNodeTypes []string

	// DeclRegexes are line-anchored regular expressions matching a
	// top-level declaration start, used as a fallback for languages
	// without a vendored tree-sitter grammar (§4.2.3).
	DeclRegexes []string
}
