package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	var withChunks bool
	c := &cobra.Command{
		Use:   "show <id|name>",
		Short: "Show buffer detail, optionally with its chunk listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return printErr(runShow(args[0], withChunks))
		},
	}
	c.Flags().BoolVar(&withChunks, "chunks", false, "include the buffer's chunk listing")
	return c
}

func runShow(ref string, withChunks bool) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	buf, err := mustParseBufferRef(c0(), s, ref)
	if err != nil {
		return err
	}

	var chunkRows []map[string]any
	if withChunks {
		chunks, err := s.ListChunks(c0(), buf.ID)
		if err != nil {
			return err
		}
		chunkRows = make([]map[string]any, len(chunks))
		for i, ch := range chunks {
			chunkRows[i] = map[string]any{
				"id": ch.ID, "index": ch.Index, "byte_range": []int{ch.ByteStart, ch.ByteEnd}, "size": len(ch.Content),
			}
		}
	}

	if jsonMode() {
		payload := map[string]any{
			"id": buf.ID, "name": buf.Name, "size": buf.Size, "chunk_count": buf.ChunkCount,
			"content_type": buf.ContentType, "source": buf.Source, "created_at": buf.CreatedAt,
		}
		if withChunks {
			payload["chunks"] = chunkRows
		}
		return writeJSON(os.Stdout, payload)
	}

	fmt.Printf("buffer %d: %s\n", buf.ID, buf.Name)
	fmt.Printf("  size: %d bytes, chunks: %d, type: %s, source: %s\n", buf.Size, buf.ChunkCount, buf.ContentType, buf.Source)
	if withChunks {
		for _, row := range chunkRows {
			fmt.Printf("  chunk %v: bytes %v (%v bytes)\n", row["id"], row["byte_range"], row["size"])
		}
	}
	return nil
}
