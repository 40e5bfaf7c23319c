package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// SetupLogging installs the default slog logger: a text handler on stderr
// and, if cfg.LogFile is set, another appending to that file. The returned
// function closes the log file.
func SetupLogging(cfg *Config, stderr io.Writer) (func() error, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	handlers := []slog.Handler{slog.NewTextHandler(stderr, opts)}
	closeLog := func() error { return nil }

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("error opening log file: %w", err)
		}
		handlers = append(handlers, slog.NewTextHandler(f, opts))
		closeLog = f.Close
	}

	slog.SetDefault(slog.New(slogmulti.Fanout(handlers...)))
	return closeLog, nil
}
