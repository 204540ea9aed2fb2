package cmd

import (
	"encoding/json"
	"io"
)

// writeJSON marshals v as a single pretty-printed JSON object, matching
// §6's rule that JSON output is always one object per invocation.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
