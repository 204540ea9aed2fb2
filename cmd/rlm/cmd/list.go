package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all buffers: id, name, size, chunk_count, created_at",
		RunE: func(c *cobra.Command, args []string) error {
			return printErr(runList())
		},
	}
}

func runList() error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	buffers, err := s.ListBuffers(c0())
	if err != nil {
		return err
	}

	if jsonMode() {
		rows := make([]map[string]any, len(buffers))
		for i, b := range buffers {
			rows[i] = map[string]any{
				"id": b.ID, "name": b.Name, "size": b.Size,
				"chunk_count": b.ChunkCount, "created_at": b.CreatedAt,
			}
		}
		return writeJSON(os.Stdout, map[string]any{"buffers": rows})
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tCHUNKS\tCREATED")
	for _, b := range buffers {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\n", b.ID, b.Name, b.Size, b.ChunkCount, b.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}
