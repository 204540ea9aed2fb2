package cmd

import (
	"io"
	"os"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/rlm-project/rlm/internal/chunk"
	"github.com/rlm-project/rlm/internal/output"
	"github.com/rlm-project/rlm/internal/rlmerr"
	"github.com/rlm-project/rlm/internal/store"
)

func newUpdateBufferCmd() *cobra.Command {
	var embedNow bool
	var chunker string
	var chunkSize, overlap int
	c := &cobra.Command{
		Use:   "update-buffer <id|name> [content]",
		Short: "Diff-aware reingest: replace content, keep unchanged chunks' embeddings",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(c *cobra.Command, args []string) error {
			return printErr(runUpdateBuffer(args, chunker, chunkSize, overlap, embedNow))
		},
	}
	c.Flags().BoolVar(&embedNow, "embed", true, "embed new or modified chunks immediately")
	c.Flags().StringVar(&chunker, "chunker", projectConfig.Chunking.Strategy, "chunking strategy: fixed, semantic, code, parallel")
	c.Flags().IntVar(&chunkSize, "chunk-size", projectConfig.Chunking.ChunkSize, "target chunk size in bytes")
	c.Flags().IntVar(&overlap, "overlap", projectConfig.Chunking.Overlap, "overlap in bytes between adjacent chunks")
	return c
}

func runUpdateBuffer(args []string, chunker string, chunkSize, overlap int, embedNow bool) error {
	ref := args[0]
	var content string
	if len(args) == 2 {
		content = args[1]
	} else {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		content = string(raw)
	}
	if !utf8.ValidString(content) {
		return rlmerr.InvalidUTF8(firstInvalidUTF8Offset([]byte(content)))
	}
	if overlap >= chunkSize {
		return rlmerr.New(rlmerr.KindOverlapTooLarge, "overlap must be smaller than chunk-size")
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	buf, err := mustParseBufferRef(c0(), s, ref)
	if err != nil {
		return err
	}

	tag := chunker
	if tag == "parallel" {
		tag = ""
	}
	strategy, err := chunk.ParallelStrategyFor(tag)
	if err != nil {
		return err
	}
	cfg := chunk.DefaultConfig()
	cfg.ChunkSize = chunkSize
	cfg.Overlap = overlap
	chunks, err := strategy.Chunk(buf.ID, content, cfg)
	if err != nil {
		return err
	}

	inputs := make([]store.ChunkInput, len(chunks))
	for i, ch := range chunks {
		inputs[i] = store.ChunkInput{
			Index: ch.Index, ByteStart: ch.ByteStart, ByteEnd: ch.ByteEnd, Content: ch.Content,
			TokenEstimate: ch.TokenEstimate, Strategy: ch.Strategy, HasOverlap: ch.HasOverlap, ContentHash: ch.ContentHash,
		}
	}

	var embedder = defaultEmbedder()
	if !embedNow {
		embedder = nil
	}
	updated, err := s.UpdateBuffer(c0(), buf.ID, content, inputs, embedder)
	if err != nil {
		return err
	}

	if jsonMode() {
		return writeJSON(os.Stdout, map[string]any{"success": true, "buffer_id": updated.ID, "chunk_count": updated.ChunkCount})
	}
	output.New(os.Stdout).Successf("updated buffer %d (%d chunks)", updated.ID, updated.ChunkCount)
	return nil
}
