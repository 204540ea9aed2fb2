package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/rlm-project/rlm/internal/chunkutil"
	"github.com/rlm-project/rlm/internal/rlmerr"
)

// fixedStrategy implements §4.2.1: advance a cursor by chunk_size-overlap,
// snapping both ends to UTF-8 boundaries.
type fixedStrategy struct{}

// NewFixed returns the fixed chunking strategy.
func NewFixed() Strategy { return fixedStrategy{} }

func (fixedStrategy) Name() string           { return "fixed" }
func (fixedStrategy) SupportsParallel() bool { return true }

func (fixedStrategy) Chunk(bufferID int64, text string, cfg Config) ([]Chunk, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	if len(text) == 0 {
		return nil, nil
	}

	now := time.Now()

	var chunks []Chunk
	cursor := 0
	for {
		start := chunkutil.FloorBoundary(text, cursor)
		end := chunkutil.FloorBoundary(text, cursor+cfg.ChunkSize)

		if end <= start {
			// Guarantee forward progress across a boundary-heavy run.
			next := cursor + 1
			for next < len(text) && (text[next]&0xC0) == 0x80 {
				next++
			}
			if next >= len(text) {
				break
			}
			cursor = next
			continue
		}

		chunks = append(chunks, newChunk(bufferID, len(chunks), start, end, text[start:end], "fixed", cfg.Overlap > 0, now))

		if cfg.MaxChunks > 0 && len(chunks) >= cfg.MaxChunks && end < len(text) {
			return nil, rlmerr.New(rlmerr.KindChunkTooLarge, "chunking exceeded max_chunks")
		}

		if end >= len(text) {
			break
		}
		// Re-anchor the next cursor on the realized (snapped) end rather
		// than the nominal cursor+step, so a boundary snap on one step
		// does not leave a gap or a re-drifting overlap on the next.
		next := end - cfg.Overlap
		if next <= start {
			next = start + 1
		}
		cursor = next
	}

	return chunks, nil
}

func validateConfig(cfg Config) error {
	if cfg.ChunkSize <= 0 || cfg.ChunkSize > MaxChunkSize {
		return rlmerr.New(rlmerr.KindInvalidConfig, "chunk_size must be in (0, 50000]")
	}
	if cfg.Overlap < 0 {
		return rlmerr.New(rlmerr.KindInvalidConfig, "overlap must be >= 0")
	}
	if cfg.Overlap >= cfg.ChunkSize {
		return rlmerr.New(rlmerr.KindOverlapTooLarge, "overlap must be less than chunk_size")
	}
	return nil
}

func newChunk(bufferID int64, index, start, end int, content, strategy string, hasOverlap bool, now time.Time) Chunk {
	sum := sha256.Sum256([]byte(content))
	return Chunk{
		BufferID:      bufferID,
		Index:         index,
		ByteStart:     start,
		ByteEnd:       end,
		Content:       content,
		TokenEstimate: len(content) / 4,
		Strategy:      strategy,
		HasOverlap:    hasOverlap,
		ContentHash:   hex.EncodeToString(sum[:]),
		CreatedAt:     now,
	}
}
