package config

import (
	"log/slog"
	"os"
)

// SetupLogging installs the process-wide text logger at the level selected
// by the repeatable -v flag: errors only by default, then warnings, info
// and debug.
func SetupLogging(verbose int) {
	var level slog.Level
	switch {
	case verbose <= 0:
		level = slog.LevelError
	case verbose == 1:
		level = slog.LevelWarn
	case verbose == 2:
		level = slog.LevelInfo
	default:
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
