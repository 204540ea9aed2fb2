// Command rlm is the CLI entry point for the local content store and
// hybrid retrieval engine.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rlm-project/rlm/cmd/rlm/cmd"
)

func main() {
	// Receiving SIGPIPE turns a write to a closed stdout into an EPIPE
	// error instead of killing the process; a broken pipe exits 0.
	signal.Notify(make(chan os.Signal, 1), syscall.SIGPIPE)
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, syscall.EPIPE) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cmd.ExitCodeFor(err))
	}
}
