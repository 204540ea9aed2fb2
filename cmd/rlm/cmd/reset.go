package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rlm-project/rlm/internal/output"
)

func newResetCmd() *cobra.Command {
	var yes bool
	c := &cobra.Command{
		Use:   "reset",
		Short: "Drop all data from the state database",
		RunE: func(c *cobra.Command, args []string) error {
			return printErr(runReset(yes))
		},
	}
	c.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return c
}

func runReset(yes bool) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if !yes && !jsonMode() {
		fmt.Print("this will permanently delete all buffers, chunks, and embeddings. continue? [y/N] ")
		reader := bufio.NewReader(os.Stdin)
		line, _ := reader.ReadString('\n')
		if line != "y\n" && line != "Y\n" {
			fmt.Println("aborted")
			return nil
		}
	}

	if err := s.Reset(c0()); err != nil {
		return err
	}
	if jsonMode() {
		return writeJSON(os.Stdout, map[string]any{"success": true})
	}
	output.New(os.Stdout).Success("reset complete")
	return nil
}
