package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rlm-project/rlm/internal/output"
)

func newChunkCmd() *cobra.Command {
	c := &cobra.Command{Use: "chunk", Short: "Chunk-level operations"}
	c.AddCommand(newChunkGetCmd(), newChunkListCmd(), newChunkEmbedCmd(), newChunkStatusCmd())
	return c
}

func newChunkGetCmd() *cobra.Command {
	var withMetadata bool
	c := &cobra.Command{
		Use:   "get <id>",
		Short: "Fetch a chunk's content or full record",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			id, err := parseInt64(args[0])
			if err != nil {
				return printErr(err)
			}
			return printErr(runChunkGet(id, withMetadata))
		},
	}
	c.Flags().BoolVar(&withMetadata, "metadata", false, "include the full chunk record instead of just content")
	return c
}

func runChunkGet(id int64, withMetadata bool) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	ch, err := s.GetChunk(c0(), id)
	if err != nil {
		return err
	}
	hasEmb, err := s.HasEmbedding(c0(), id)
	if err != nil {
		return err
	}

	if jsonMode() {
		if !withMetadata {
			return writeJSON(os.Stdout, map[string]any{"id": ch.ID, "content": ch.Content})
		}
		return writeJSON(os.Stdout, map[string]any{
			"id": ch.ID, "buffer_id": ch.BufferID, "index": ch.Index,
			"byte_range": []int{ch.ByteStart, ch.ByteEnd}, "size": len(ch.Content),
			"content": ch.Content, "has_embedding": hasEmb,
		})
	}
	if !withMetadata {
		fmt.Println(ch.Content)
		return nil
	}
	fmt.Printf("chunk %d (buffer %d, #%d) bytes [%d:%d] embedded=%v\n", ch.ID, ch.BufferID, ch.Index, ch.ByteStart, ch.ByteEnd, hasEmb)
	fmt.Println(ch.Content)
	return nil
}

func newChunkListCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "list <id|name>",
		Short: "List every chunk belonging to a buffer",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return printErr(runChunkList(args[0]))
		},
	}
	return c
}

func runChunkList(ref string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	buf, err := mustParseBufferRef(c0(), s, ref)
	if err != nil {
		return err
	}
	chunks, err := s.ListChunks(c0(), buf.ID)
	if err != nil {
		return err
	}

	if jsonMode() {
		rows := make([]map[string]any, len(chunks))
		for i, ch := range chunks {
			rows[i] = map[string]any{"id": ch.ID, "index": ch.Index, "byte_range": []int{ch.ByteStart, ch.ByteEnd}, "size": len(ch.Content)}
		}
		return writeJSON(os.Stdout, map[string]any{"buffer_id": buf.ID, "chunks": rows})
	}
	for _, ch := range chunks {
		fmt.Printf("%d\t#%d\t[%d:%d]\n", ch.ID, ch.Index, ch.ByteStart, ch.ByteEnd)
	}
	return nil
}

func newChunkEmbedCmd() *cobra.Command {
	var force bool
	c := &cobra.Command{
		Use:   "embed <id|name>",
		Short: "(Re)compute embeddings for a buffer's chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return printErr(runChunkEmbed(args[0], force))
		},
	}
	c.Flags().BoolVar(&force, "force", false, "re-embed chunks that already have an embedding")
	return c
}

func runChunkEmbed(ref string, force bool) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	buf, err := mustParseBufferRef(c0(), s, ref)
	if err != nil {
		return err
	}
	chunks, err := s.ListChunks(c0(), buf.ID)
	if err != nil {
		return err
	}

	embedder := defaultEmbedder()
	var toEmbed []int
	for i, ch := range chunks {
		if force {
			toEmbed = append(toEmbed, i)
			continue
		}
		has, err := s.HasEmbedding(c0(), ch.ID)
		if err != nil {
			return err
		}
		if !has {
			toEmbed = append(toEmbed, i)
		}
	}

	if len(toEmbed) == 0 {
		if jsonMode() {
			return writeJSON(os.Stdout, map[string]any{"success": true, "embedded": 0})
		}
		fmt.Println("nothing to embed")
		return nil
	}

	texts := make([]string, len(toEmbed))
	for i, idx := range toEmbed {
		texts[i] = chunks[idx].Content
	}
	vectors, err := embedder.EmbedBatch(c0(), texts)
	if err != nil {
		return err
	}
	w := output.New(os.Stdout)
	for i, idx := range toEmbed {
		if err := s.StoreEmbedding(c0(), chunks[idx].ID, vectors[i], embedder.ModelID()); err != nil {
			return err
		}
		if !jsonMode() {
			w.Progress(i+1, len(toEmbed), fmt.Sprintf("embedding chunk %d", chunks[idx].ID))
		}
	}

	if jsonMode() {
		return writeJSON(os.Stdout, map[string]any{"success": true, "embedded": len(toEmbed)})
	}
	w.Successf("embedded %d chunk(s)", len(toEmbed))
	return nil
}

func newChunkStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show embedding coverage across all chunks",
		RunE: func(c *cobra.Command, args []string) error {
			return printErr(runChunkStatus())
		},
	}
}

func runChunkStatus() error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	st, err := s.Status(c0())
	if err != nil {
		return err
	}
	pending := st.ChunkCount - st.EmbeddingsCount

	if jsonMode() {
		return writeJSON(os.Stdout, map[string]any{
			"chunk_count": st.ChunkCount, "embedded": st.EmbeddingsCount, "pending": pending,
		})
	}
	fmt.Printf("chunks: %d  embedded: %d  pending: %d\n", st.ChunkCount, st.EmbeddingsCount, pending)
	return nil
}
