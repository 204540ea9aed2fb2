package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rlm-project/rlm/internal/output"
)

func newDeleteCmd() *cobra.Command {
	var yes bool
	c := &cobra.Command{
		Use:   "delete <id|name>",
		Short: "Remove a buffer and its cascaded chunks/embeddings",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return printErr(runDelete(args[0], yes))
		},
	}
	c.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return c
}

func runDelete(ref string, yes bool) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	buf, err := mustParseBufferRef(c0(), s, ref)
	if err != nil {
		return err
	}

	if !yes && !jsonMode() {
		fmt.Printf("delete buffer %q (id %d, %d chunks)? [y/N] ", buf.Name, buf.ID, buf.ChunkCount)
		reader := bufio.NewReader(os.Stdin)
		line, _ := reader.ReadString('\n')
		if line != "y\n" && line != "Y\n" {
			fmt.Println("aborted")
			return nil
		}
	}

	if err := s.DeleteBuffer(c0(), buf.ID); err != nil {
		return err
	}

	if jsonMode() {
		return writeJSON(os.Stdout, map[string]any{"success": true, "deleted_id": buf.ID})
	}
	output.New(os.Stdout).Successf("deleted buffer %d", buf.ID)
	return nil
}
