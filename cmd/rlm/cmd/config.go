package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rlm-project/rlm/internal/config"
	"github.com/rlm-project/rlm/internal/output"
)

func newConfigCmd() *cobra.Command {
	c := &cobra.Command{Use: "config", Short: "Inspect and manage the layered chunker/search/embedder configuration"}
	c.AddCommand(newConfigShowCmd(), newConfigInitCmd(), newConfigUserInitCmd())
	return c
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration (defaults -> user config -> project config -> env)",
		RunE: func(c *cobra.Command, args []string) error {
			return printErr(runConfigShow())
		},
	}
}

func runConfigShow() error {
	if jsonMode() {
		return writeJSON(os.Stdout, projectConfig)
	}
	fmt.Printf("chunking: strategy=%s chunk_size=%d overlap=%d preserve_sentences=%v\n",
		projectConfig.Chunking.Strategy, projectConfig.Chunking.ChunkSize, projectConfig.Chunking.Overlap, projectConfig.Chunking.PreserveSentences)
	fmt.Printf("search: rrf_constant=%d threshold=%.2f max_results=%d\n",
		projectConfig.Search.RRFConstant, projectConfig.Search.Threshold, projectConfig.Search.MaxResults)
	fmt.Printf("embeddings: provider=%s dimension=%d\n", projectConfig.Embeddings.Provider, projectConfig.Embeddings.Dimension)
	fmt.Printf("performance: index_workers=%d sqlite_cache_mb=%d\n",
		projectConfig.Performance.IndexWorkers, projectConfig.Performance.SQLiteCacheMB)
	return nil
}

func newConfigInitCmd() *cobra.Command {
	var force bool
	c := &cobra.Command{
		Use:   "init",
		Short: "Write a .rlmrc.yaml in the current directory seeded from the resolved defaults",
		RunE: func(c *cobra.Command, args []string) error {
			return printErr(runConfigInit(force))
		},
	}
	c.Flags().BoolVar(&force, "force", false, "overwrite an existing .rlmrc.yaml")
	return c
}

func runConfigInit(force bool) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	path := filepath.Join(cwd, ".rlmrc.yaml")
	if _, statErr := os.Stat(path); statErr == nil && !force {
		return fmt.Errorf(".rlmrc.yaml already exists at %s (use --force to overwrite)", path)
	}
	if err := projectConfig.WriteYAML(path); err != nil {
		return err
	}
	if jsonMode() {
		return writeJSON(os.Stdout, map[string]any{"success": true, "path": path})
	}
	output.New(os.Stdout).Successf("wrote %s", path)
	return nil
}

func newConfigUserInitCmd() *cobra.Command {
	var force bool
	c := &cobra.Command{
		Use:   "user-init",
		Short: "Write the machine-level config at ~/.config/rlm/config.yaml, backing up any existing file",
		RunE: func(c *cobra.Command, args []string) error {
			return printErr(runConfigUserInit(force))
		},
	}
	c.Flags().BoolVar(&force, "force", false, "overwrite an existing user config (a timestamped backup is kept)")
	return c
}

func runConfigUserInit(force bool) error {
	path := config.GetUserConfigPath()
	if config.UserConfigExists() {
		if !force {
			return fmt.Errorf("user config already exists at %s (use --force to overwrite)", path)
		}
		if _, err := config.BackupUserConfig(); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(config.GetUserConfigDir(), 0o755); err != nil {
		return err
	}
	if err := config.NewConfig().WriteYAML(path); err != nil {
		return err
	}
	if jsonMode() {
		return writeJSON(os.Stdout, map[string]any{"success": true, "path": path})
	}
	output.New(os.Stdout).Successf("wrote %s", path)
	return nil
}
