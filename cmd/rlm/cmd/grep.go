package cmd

import (
	"fmt"
	"os"
	"regexp"

	"github.com/spf13/cobra"
)

func newGrepCmd() *cobra.Command {
	var maxMatches, window int
	var ignoreCase bool
	c := &cobra.Command{
		Use:   "grep <id|name> <pattern>",
		Short: "Regex matches within a buffer, with surrounding context",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			return printErr(runGrep(args[0], args[1], maxMatches, window, ignoreCase))
		},
	}
	c.Flags().IntVar(&maxMatches, "max-matches", 50, "maximum number of matches to return")
	c.Flags().IntVar(&window, "window", 40, "bytes of context to include on each side of a match")
	c.Flags().BoolVar(&ignoreCase, "ignore-case", false, "case-insensitive matching")
	return c
}

type grepMatch struct {
	Start, End int
	Context    string
}

func runGrep(ref, pattern string, maxMatches, window int, ignoreCase bool) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	buf, err := mustParseBufferRef(c0(), s, ref)
	if err != nil {
		return err
	}

	if ignoreCase {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}

	content := buf.Content
	var matches []grepMatch
	for _, loc := range re.FindAllStringIndex(content, -1) {
		if len(matches) >= maxMatches {
			break
		}
		start, end := loc[0], loc[1]
		ctxStart := start - window
		if ctxStart < 0 {
			ctxStart = 0
		}
		ctxEnd := end + window
		if ctxEnd > len(content) {
			ctxEnd = len(content)
		}
		matches = append(matches, grepMatch{Start: start, End: end, Context: content[ctxStart:ctxEnd]})
	}

	if jsonMode() {
		rows := make([]map[string]any, len(matches))
		for i, m := range matches {
			rows[i] = map[string]any{"start": m.Start, "end": m.End, "context": m.Context}
		}
		return writeJSON(os.Stdout, map[string]any{"buffer_id": buf.ID, "count": len(matches), "matches": rows})
	}
	for _, m := range matches {
		fmt.Printf("[%d:%d] %s\n", m.Start, m.End, m.Context)
	}
	return nil
}
