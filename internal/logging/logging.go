// Package logging builds the zerolog logger for CLI and TUI modes.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Mode selects where log output goes.
type Mode string

const (
	// ModeCLI writes human-readable lines to stderr.
	ModeCLI Mode = "cli"
	// ModeTUI writes JSON lines to a rotated file; the terminal belongs to the UI.
	ModeTUI Mode = "tui"
)

// Options configure New.
type Options struct {
	Mode  Mode
	Level zerolog.Level
	// File is the log path in TUI mode.
	File string
	// Out overrides stderr in CLI mode.
	Out io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger for opts and a closer for its sink.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	var (
		out    io.Writer
		closer io.Closer = nopCloser{}
	)

	switch opts.Mode {
	case ModeTUI:
		if opts.File == "" {
			return zerolog.Nop(), closer, fmt.Errorf("log file path is empty")
		}
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return zerolog.Nop(), closer, fmt.Errorf("create log dir: %w", err)
		}
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // MB per file
			MaxBackups: 3,
			MaxAge:     14, // days
			Compress:   true,
		}
		out = file
		closer = file
	default:
		w := opts.Out
		if w == nil {
			w = os.Stderr
		}
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: "15:04:05",
			NoColor:    opts.Out != nil,
		}
	}

	logger := zerolog.New(out).
		Level(opts.Level).
		With().
		Timestamp().
		Logger()
	return logger, closer, nil
}
