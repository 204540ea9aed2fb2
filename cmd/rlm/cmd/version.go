package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rlm-project/rlm/pkg/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build and version information",
		RunE: func(c *cobra.Command, args []string) error {
			if jsonMode() {
				return writeJSON(os.Stdout, version.GetInfo())
			}
			fmt.Println(version.String())
			return nil
		},
	}
}
