package chunk

import (
	"time"

	"github.com/rlm-project/rlm/internal/chunkutil"
)

// semanticStrategy implements §4.2.2: like fixed, but snaps the raw end to
// a nearby sentence/paragraph break when one exists within the current
// candidate chunk.
type semanticStrategy struct{}

// NewSemantic returns the semantic-boundary chunking strategy.
func NewSemantic() Strategy { return semanticStrategy{} }

func (semanticStrategy) Name() string           { return "semantic" }
func (semanticStrategy) SupportsParallel() bool { return true }

func (semanticStrategy) Chunk(bufferID int64, text string, cfg Config) ([]Chunk, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(text) == 0 {
		return nil, nil
	}

	minChunk := cfg.ChunkSize / 4
	now := time.Now()

	var chunks []Chunk
	cursor := 0
	for {
		start := chunkutil.FloorBoundary(text, cursor)
		rawEnd := chunkutil.FloorBoundary(text, cursor+cfg.ChunkSize)

		end := rawEnd
		isTerminal := rawEnd >= len(text)
		if cfg.PreserveSentences && !isTerminal {
			// Search the whole candidate chunk [start, rawEnd) for a
			// preferred break; never shrink below minChunk.
			snapped := chunkutil.FindSemanticBreak(text, rawEnd, rawEnd-start)
			if snapped > start+minChunk {
				end = snapped
			}
		}
		end = chunkutil.FloorBoundary(text, end)

		if end <= start {
			next := start + 1
			for next < len(text) && (text[next]&0xC0) == 0x80 {
				next++
			}
			if next >= len(text) {
				break
			}
			cursor = next
			continue
		}

		chunks = append(chunks, newChunk(bufferID, len(chunks), start, end, text[start:end], "semantic", cfg.Overlap > 0, now))

		if end >= len(text) {
			break
		}
		next := end - cfg.Overlap
		if next <= start {
			next = start + 1
		}
		cursor = next
	}

	return chunks, nil
}
