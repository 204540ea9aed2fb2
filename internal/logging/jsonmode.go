package logging

import (
	"log/slog"
)

// SetupJSONOutputMode initializes logging for `--format json` commands.
// stdout must carry exactly one JSON object (spec.md §6), so log
// records never go to stdout; they are written to the rotating log file
// at DefaultLogPath and to stderr - a wayward slog line on stdout would
// otherwise corrupt the response.
func SetupJSONOutputMode(level string) (func(), error) {
	cfg := Config{
		Level:         level,
		FilePath:      DefaultLogPath(),
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: true,
	}

	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(logger)
	return cleanup, nil
}
