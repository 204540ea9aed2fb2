package cmd

import (
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/rlm-project/rlm/internal/chunk"
	"github.com/rlm-project/rlm/internal/output"
	"github.com/rlm-project/rlm/internal/rlmerr"
	"github.com/rlm-project/rlm/internal/store"
)

func newLoadCmd() *cobra.Command {
	var name, chunker string
	var chunkSize, overlap int
	c := &cobra.Command{
		Use:   "load <path>",
		Short: "Ingest a file as a new buffer",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return printErr(runLoad(args[0], name, chunker, chunkSize, overlap))
		},
	}
	c.Flags().StringVar(&name, "name", "", "buffer name (defaults to the file's base name)")
	c.Flags().StringVar(&chunker, "chunker", projectConfig.Chunking.Strategy, "chunking strategy: fixed, semantic, code, parallel")
	c.Flags().IntVar(&chunkSize, "chunk-size", projectConfig.Chunking.ChunkSize, "target chunk size in bytes")
	c.Flags().IntVar(&overlap, "overlap", projectConfig.Chunking.Overlap, "overlap in bytes between adjacent chunks")
	return c
}

func runLoad(path, name, chunker string, chunkSize, overlap int) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if !utf8.Valid(raw) {
		return rlmerr.InvalidUTF8(firstInvalidUTF8Offset(raw))
	}
	content := string(raw)

	if name == "" {
		name = filepath.Base(path)
	}

	buf, chunks, err := ingestContent(name, content, path, chunker, chunkSize, overlap)
	if err != nil {
		return err
	}

	if jsonMode() {
		return writeJSON(os.Stdout, map[string]any{
			"success": true, "buffer_id": buf.ID, "name": buf.Name, "chunk_count": len(chunks),
		})
	}
	output.New(os.Stdout).Successf("loaded %q as buffer %d (%d chunks)", buf.Name, buf.ID, len(chunks))
	return nil
}

// ingestContent runs the shared chunk-then-store path used by both load
// and add-buffer.
func ingestContent(name, content, source, chunkerTag string, chunkSize, overlap int) (*store.Buffer, []chunk.Chunk, error) {
	if overlap >= chunkSize {
		return nil, nil, rlmerr.New(rlmerr.KindOverlapTooLarge, "overlap must be smaller than chunk-size")
	}

	var strategy chunk.Strategy
	var err error
	if chunkerTag == "parallel" {
		strategy, err = chunk.ParallelStrategyFor("")
	} else {
		strategy, err = chunk.ParallelStrategyFor(chunkerTag)
	}
	if err != nil {
		return nil, nil, err
	}

	cfg := chunk.DefaultConfig()
	cfg.ChunkSize = chunkSize
	cfg.Overlap = overlap
	if lang, ok := chunk.LanguageForPath(source); ok {
		cfg.Language = lang
	}

	chunks, err := strategy.Chunk(0, content, cfg)
	if err != nil {
		return nil, nil, err
	}

	s, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	defer s.Close()

	inputs := make([]store.ChunkInput, len(chunks))
	for i, ch := range chunks {
		inputs[i] = store.ChunkInput{
			Index: ch.Index, ByteStart: ch.ByteStart, ByteEnd: ch.ByteEnd, Content: ch.Content,
			TokenEstimate: ch.TokenEstimate, Strategy: ch.Strategy, HasOverlap: ch.HasOverlap, ContentHash: ch.ContentHash,
		}
	}

	buf, err := s.IngestBuffer(c0(), name, content, source, "text", inputs, defaultEmbedder())
	if err != nil {
		return nil, nil, err
	}
	return buf, chunks, nil
}

func firstInvalidUTF8Offset(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return 0
}
