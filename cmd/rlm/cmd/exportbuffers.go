package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

func newExportBuffersCmd() *cobra.Command {
	var output string
	var pretty bool
	c := &cobra.Command{
		Use:   "export-buffers",
		Short: "Export all buffers as structured data",
		RunE: func(c *cobra.Command, args []string) error {
			return printErr(runExportBuffers(output, pretty))
		},
	}
	c.Flags().StringVar(&output, "output", "", "write to a file instead of stdout")
	c.Flags().BoolVar(&pretty, "pretty", false, "pretty-print the JSON")
	return c
}

func runExportBuffers(output string, pretty bool) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	buffers, err := s.ListBuffers(c0())
	if err != nil {
		return err
	}

	rows := make([]map[string]any, len(buffers))
	for i, b := range buffers {
		chunks, err := s.ListChunks(c0(), b.ID)
		if err != nil {
			return err
		}
		chunkRows := make([]map[string]any, len(chunks))
		for j, ch := range chunks {
			chunkRows[j] = map[string]any{"id": ch.ID, "index": ch.Index, "content": ch.Content}
		}
		rows[i] = map[string]any{
			"id": b.ID, "name": b.Name, "content": b.Content, "source": b.Source,
			"size": b.Size, "content_type": b.ContentType, "chunks": chunkRows,
		}
	}
	payload := map[string]any{"buffers": rows}

	var w *os.File
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	} else {
		w = os.Stdout
	}

	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(payload)
}
