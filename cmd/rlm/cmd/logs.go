package cmd

import (
	"context"
	"fmt"
	"os"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/rlm-project/rlm/internal/logging"
)

func newLogsCmd() *cobra.Command {
	var (
		path    string
		n       int
		level   string
		pattern string
		follow  bool
		noColor bool
	)
	c := &cobra.Command{
		Use:   "logs",
		Short: "Tail or follow the debug log file",
		RunE: func(c *cobra.Command, args []string) error {
			return printErr(runLogs(path, n, level, pattern, follow, noColor))
		},
	}
	c.Flags().StringVar(&path, "path", "", "log file to read (defaults to the standard debug log location)")
	c.Flags().IntVar(&n, "lines", 50, "number of trailing lines to show")
	c.Flags().StringVar(&level, "level", "", "minimum level to show: debug, info, warn, error")
	c.Flags().StringVar(&pattern, "grep", "", "only show lines matching this regular expression")
	c.Flags().BoolVarP(&follow, "follow", "f", false, "keep watching the file for new entries")
	c.Flags().BoolVar(&noColor, "no-color", false, "disable colored level labels")
	return c
}

func runLogs(path string, n int, level, pattern string, follow, noColor bool) error {
	logPath, err := logging.FindLogFile(path)
	if err != nil {
		return err
	}

	var re *regexp.Regexp
	if pattern != "" {
		re, err = regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("invalid --grep pattern: %w", err)
		}
	}
	cfg := logging.ViewerConfig{Level: level, Pattern: re, NoColor: noColor || jsonMode()}
	v := logging.NewViewer(cfg, os.Stdout)

	entries, err := v.Tail(logPath, n)
	if err != nil {
		return err
	}

	if jsonMode() {
		rows := make([]map[string]any, len(entries))
		for i, e := range entries {
			rows[i] = map[string]any{"time": e.Time, "level": e.Level, "msg": e.Msg, "valid": e.IsValid}
		}
		if !follow {
			return writeJSON(os.Stdout, map[string]any{"path": logPath, "entries": rows})
		}
	}
	v.Print(entries)

	if !follow {
		return nil
	}

	ch := make(chan logging.LogEntry, 16)
	ctx, cancel := context.WithCancel(c0())
	defer cancel()
	go func() {
		for e := range ch {
			v.Print([]logging.LogEntry{e})
		}
	}()
	return v.Follow(ctx, logPath, ch)
}
