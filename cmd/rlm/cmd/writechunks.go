package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rlm-project/rlm/internal/chunk"
	"github.com/rlm-project/rlm/internal/rlmerr"
)

func newWriteChunksCmd() *cobra.Command {
	var outDir, prefix string
	var chunkSize, overlap int
	c := &cobra.Command{
		Use:   "write-chunks <id|name>",
		Short: "Re-chunk a buffer at the given size/overlap and write the pieces to files",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return printErr(runWriteChunks(args[0], outDir, prefix, chunkSize, overlap))
		},
	}
	c.Flags().StringVar(&outDir, "out-dir", ".", "destination directory")
	c.Flags().StringVar(&prefix, "prefix", "chunk", "file name prefix")
	c.Flags().IntVar(&chunkSize, "chunk-size", projectConfig.Chunking.ChunkSize, "target chunk size in bytes")
	c.Flags().IntVar(&overlap, "overlap", projectConfig.Chunking.Overlap, "overlap in bytes between adjacent chunks")
	return c
}

func runWriteChunks(ref, outDir, prefix string, chunkSize, overlap int) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	buf, err := mustParseBufferRef(c0(), s, ref)
	if err != nil {
		return err
	}

	if overlap >= chunkSize {
		return rlmerr.New(rlmerr.KindOverlapTooLarge, "overlap must be smaller than chunk-size")
	}
	strategy, err := chunk.ParallelStrategyFor("semantic")
	if err != nil {
		return err
	}
	cfg := chunk.DefaultConfig()
	cfg.ChunkSize = chunkSize
	cfg.Overlap = overlap
	chunks, err := strategy.Chunk(buf.ID, buf.Content, cfg)
	if err != nil {
		return err
	}

	resolvedDir, err := safeOutputDir(outDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(resolvedDir, 0o755); err != nil {
		return err
	}

	paths := make([]string, len(chunks))
	for i, ch := range chunks {
		name := fmt.Sprintf("%s-%04d.txt", prefix, ch.Index)
		path := filepath.Join(resolvedDir, name)
		if err := os.WriteFile(path, []byte(ch.Content), 0o644); err != nil {
			return err
		}
		paths[i] = path
	}

	if jsonMode() {
		return writeJSON(os.Stdout, map[string]any{"success": true, "count": len(paths), "files": paths})
	}
	fmt.Printf("wrote %d chunk file(s) to %s\n", len(paths), resolvedDir)
	return nil
}

// safeOutputDir refuses an output path that escapes the working
// directory via `..` traversal (§7's PathTraversal kind).
func safeOutputDir(dir string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	resolved := dir
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(cwd, resolved)
	}
	resolved = filepath.Clean(resolved)
	rel, err := filepath.Rel(cwd, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", rlmerr.New(rlmerr.KindPathTraversal, "refusing to write outside the working directory: "+dir)
	}
	return resolved, nil
}
