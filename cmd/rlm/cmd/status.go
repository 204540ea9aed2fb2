package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show counts of buffers, chunks, embedded chunks, db size, and schema version",
		RunE: func(c *cobra.Command, args []string) error {
			return printErr(runStatus())
		},
	}
}

func runStatus() error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	st, err := s.Status(c0())
	if err != nil {
		return err
	}

	if jsonMode() {
		return writeJSON(os.Stdout, map[string]any{
			"initialized":         st.Initialized,
			"db_path":             st.DBPath,
			"db_size_bytes":       st.DBSizeBytes,
			"buffer_count":        st.BufferCount,
			"chunk_count":         st.ChunkCount,
			"total_content_bytes": st.TotalContentBytes,
			"embeddings_count":    st.EmbeddingsCount,
		})
	}
	fmt.Printf("db: %s (%d bytes, schema v%d)\n", st.DBPath, st.DBSizeBytes, st.SchemaVersion)
	fmt.Printf("buffers: %d  chunks: %d  embedded: %d  content bytes: %d\n",
		st.BufferCount, st.ChunkCount, st.EmbeddingsCount, st.TotalContentBytes)
	return nil
}
