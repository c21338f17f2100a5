// Package logging builds the process slog.Logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	// Level is debug, info, warn or error; anything else means info.
	Level string
	// File, when set, also receives every record and is rotated at MaxMB.
	File  string
	MaxMB int
	// Stdout defaults to os.Stdout.
	Stdout io.Writer
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a text logger and a closer for the rotating file, if any.
func New(o Options) (*slog.Logger, io.Closer) {
	out := o.Stdout
	if out == nil {
		out = os.Stdout
	}
	var closer io.Closer = nopCloser{}
	if o.File != "" {
		maxMB := o.MaxMB
		if maxMB <= 0 {
			maxMB = 50
		}
		lj := &lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    maxMB, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		out = io.MultiWriter(out, lj)
		closer = lj
	}
	h := slog.NewTextHandler(out, &slog.HandlerOptions{Level: ParseLevel(o.Level)})
	return slog.New(h), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
