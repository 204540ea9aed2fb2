package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rlm-project/rlm/internal/chunkutil"
)

func newPeekCmd() *cobra.Command {
	var start, end int
	c := &cobra.Command{
		Use:   "peek <id|name>",
		Short: "Substring a buffer's content on UTF-8 boundaries",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return printErr(runPeek(args[0], start, end))
		},
	}
	c.Flags().IntVar(&start, "start", 0, "start byte offset")
	c.Flags().IntVar(&end, "end", -1, "end byte offset (-1 means end of content)")
	return c
}

func runPeek(ref string, start, end int) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	buf, err := mustParseBufferRef(c0(), s, ref)
	if err != nil {
		return err
	}

	content := buf.Content
	if end < 0 || end > len(content) {
		end = len(content)
	}
	if start < 0 {
		start = 0
	}
	start = chunkutil.FloorBoundary(content, start)
	end = chunkutil.CeilBoundary(content, end)
	if start > end {
		start = end
	}
	slice := content[start:end]

	if jsonMode() {
		return writeJSON(os.Stdout, map[string]any{"buffer_id": buf.ID, "start": start, "end": end, "content": slice})
	}
	fmt.Print(slice)
	if len(slice) == 0 || slice[len(slice)-1] != '\n' {
		fmt.Println()
	}
	return nil
}
