package slogutil

import (
	"io"
	"log/slog"

	"fredwork/internal/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup builds the process logger from the logging section of the
// configuration. Records go to console in the configured format; when a
// log file is configured they are also written there, rotated by size, in
// the human format. A non-nil override replaces the configured level.
//
// The returned closer releases the log file and must be called on exit.
func Setup(cfg config.LoggingConfig, console io.Writer, override slog.Leveler) (*slog.Logger, io.Closer, error) {
	level := LevelFromString(cfg.Level)
	if override != nil {
		level = override.Level()
	}

	var consoleHandler slog.Handler
	if cfg.Format == "json" {
		consoleHandler = slog.NewJSONHandler(console, &slog.HandlerOptions{Level: level})
	} else {
		consoleHandler = NewHandler(console, &slog.HandlerOptions{Level: level})
	}

	if cfg.File == "" {
		return slog.New(consoleHandler), nopCloser{}, nil
	}

	rf, err := OpenRotatingFile(cfg.File, ParseSize(cfg.MaxSize), cfg.MaxBackups)
	if err != nil {
		return nil, nil, err
	}
	fileHandler := NewHandler(rf, &slog.HandlerOptions{Level: level})
	return slog.New(NewTeeHandler(consoleHandler, fileHandler)), rf, nil
}
