package cmd

import (
	"io"
	"os"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/rlm-project/rlm/internal/output"
	"github.com/rlm-project/rlm/internal/rlmerr"
)

func newAddBufferCmd() *cobra.Command {
	var chunker string
	var chunkSize, overlap int
	c := &cobra.Command{
		Use:   "add-buffer <name> [content]",
		Short: "Create a buffer from text (content read from stdin if omitted)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(c *cobra.Command, args []string) error {
			return printErr(runAddBuffer(args, chunker, chunkSize, overlap))
		},
	}
	c.Flags().StringVar(&chunker, "chunker", projectConfig.Chunking.Strategy, "chunking strategy: fixed, semantic, code, parallel")
	c.Flags().IntVar(&chunkSize, "chunk-size", projectConfig.Chunking.ChunkSize, "target chunk size in bytes")
	c.Flags().IntVar(&overlap, "overlap", projectConfig.Chunking.Overlap, "overlap in bytes between adjacent chunks")
	return c
}

func runAddBuffer(args []string, chunker string, chunkSize, overlap int) error {
	name := args[0]
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

	buf, chunks, err := ingestContent(name, content, "", chunker, chunkSize, overlap)
	if err != nil {
		return err
	}

	if jsonMode() {
		return writeJSON(os.Stdout, map[string]any{"success": true, "buffer_id": buf.ID, "name": buf.Name, "chunk_count": len(chunks)})
	}
	output.New(os.Stdout).Successf("created buffer %d %q (%d chunks)", buf.ID, buf.Name, len(chunks))
	return nil
}
