package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rlm-project/rlm/internal/output"
	"github.com/rlm-project/rlm/internal/store"
)

func newInitCmd() *cobra.Command {
	var force bool
	c := &cobra.Command{
		Use:   "init",
		Short: "Create or replace the state database",
		RunE: func(c *cobra.Command, args []string) error {
			return printErr(runInit(force))
		},
	}
	c.Flags().BoolVar(&force, "force", false, "replace an existing database")
	return c
}

func runInit(force bool) error {
	path, err := resolveDBPath()
	if err != nil {
		return err
	}
	if _, statErr := os.Stat(path); statErr == nil {
		if !force {
			return fmt.Errorf("database already exists at %s (use --force to replace)", path)
		}
		if err := os.Remove(path); err != nil {
			return err
		}
	}
	if err := ensureDBDir(path); err != nil {
		return err
	}
	s, err := store.Open(path, defaultEmbedder().ModelID())
	if err != nil {
		return err
	}
	defer s.Close()

	if jsonMode() {
		return writeJSON(os.Stdout, map[string]any{"success": true, "db_path": path, "schema_version": store.CurrentSchemaVersion})
	}
	output.New(os.Stdout).Successf("initialized %s (schema v%d)", path, store.CurrentSchemaVersion)
	return nil
}
