// Package cmd implements the rlm command surface of spec §6: init,
// status, load, update-buffer, list, show, delete, peek, grep, search,
// chunk get/list/embed/status, add-buffer, export-buffers,
// write-chunks, var, global, reset, logs.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rlm-project/rlm/internal/config"
	"github.com/rlm-project/rlm/internal/embed"
	"github.com/rlm-project/rlm/internal/logging"
	"github.com/rlm-project/rlm/internal/rlmerr"
	"github.com/rlm-project/rlm/internal/store"
)

const defaultDBRelPath = ".rlm/rlm-state.db"

var (
	dbPathFlag string
	formatFlag string
	debugMode  bool

	// projectConfig holds the layered chunker/search/embedder defaults
	// (defaults -> user config -> project .rlmrc.yaml -> env vars) that
	// flag defaults across cmd/rlm are seeded from. It is resolved once,
	// against the working directory at process start.
	projectConfig = loadProjectConfig()
)

// loadProjectConfig loads config.Config for the current working
// directory, falling back to hardcoded defaults (and a warning) if the
// working directory can't be determined or the config is invalid -
// config errors here should not prevent an otherwise-valid command
// (e.g. `rlm version`) from running.
func loadProjectConfig() *config.Config {
	cwd, err := os.Getwd()
	if err != nil {
		return config.NewConfig()
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		slog.Warn("using default configuration", "error", err)
		return config.NewConfig()
	}
	return cfg
}

// NewRootCmd builds the root command and its full subcommand tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rlm",
		Short:         "Local content store and hybrid retrieval engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			switch {
			case jsonMode():
				level := "info"
				if debugMode {
					level = "debug"
				}
				if _, err := logging.SetupJSONOutputMode(level); err != nil {
					return err
				}
			case debugMode:
				logger, _, err := logging.Setup(logging.DebugConfig())
				if err != nil {
					return err
				}
				slog.SetDefault(logger)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&dbPathFlag, "db", "", "path to the state database (overrides RLM_DB_PATH and the default)")
	cmd.PersistentFlags().StringVar(&formatFlag, "format", "text", `output format: "text" or "json"`)
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging")

	cmd.AddCommand(
		newInitCmd(),
		newStatusCmd(),
		newLoadCmd(),
		newUpdateBufferCmd(),
		newListCmd(),
		newShowCmd(),
		newDeleteCmd(),
		newPeekCmd(),
		newGrepCmd(),
		newSearchCmd(),
		newChunkCmd(),
		newAddBufferCmd(),
		newExportBuffersCmd(),
		newWriteChunksCmd(),
		newVarCmd(),
		newGlobalCmd(),
		newResetCmd(),
		newVersionCmd(),
		newLogsCmd(),
		newConfigCmd(),
	)

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().ExecuteContext(context.Background())
}

// ExitCodeFor maps an error to the exit code policy of §6: 0 success
// (never reached here), 1 general failure, 2 argument validation failure.
func ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	var e *rlmerr.Error
	if asRlmErr(err, &e) && e.Category == rlmerr.CategoryValidation {
		return 2
	}
	return 1
}

func asRlmErr(err error, target **rlmerr.Error) bool {
	e, ok := err.(*rlmerr.Error)
	if ok {
		*target = e
	}
	return ok
}

// resolveDBPath implements the priority order of §6: explicit flag,
// environment variable, then the literal .rlm/rlm-state.db relative to
// the working directory.
func resolveDBPath() (string, error) {
	if dbPathFlag != "" {
		return dbPathFlag, nil
	}
	if env := os.Getenv("RLM_DB_PATH"); env != "" {
		return env, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, defaultDBRelPath), nil
}

// openStore opens the state database using the default embedder.
func openStore() (*store.Store, error) {
	path, err := resolveDBPath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return nil, rlmerr.NotInitialized()
	}
	return store.Open(path, defaultEmbedder().ModelID())
}

func defaultEmbedder() embed.Embedder {
	return embed.NewHashEmbedder()
}

func jsonMode() bool {
	return formatFlag == "json"
}

func printErr(err error) error {
	if !jsonMode() {
		return err
	}
	var e *rlmerr.Error
	envelope := map[string]any{"success": false}
	if asRlmErr(err, &e) {
		envelope["error"] = map[string]any{
			"type":       string(e.Kind),
			"message":    e.Message,
			"suggestion": e.Suggestion,
		}
	} else {
		envelope["error"] = map[string]any{"type": "Generic", "message": err.Error()}
	}
	_ = writeJSON(os.Stdout, envelope)
	return err
}

func ensureDBDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func mustParseBufferRef(ctx context.Context, s *store.Store, ref string) (*store.Buffer, error) {
	if id, err := parseInt64(ref); err == nil {
		return s.GetBufferByID(ctx, id)
	}
	return s.GetBufferByName(ctx, ref)
}

// c0 is shorthand for a background context; the core has no notion of
// caller-driven cancellation (§5: "there is no user-facing cancellation").
func c0() context.Context {
	return context.Background()
}

func parseInt64(s string) (int64, error) {
	var n int64
	_, err := fmt.Sscanf(s, "%d", &n)
	if err != nil {
		return 0, err
	}
	return n, nil
}
