package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger returns a JSON slog.Logger writing to out and, when file is set, to a
// rotating log file. Every record carries the run's session id. The returned close
// function flushes the file sink and is never nil.
func NewLogger(level, file string, out io.Writer) (*slog.Logger, func() error, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(level)))); err != nil {
		return nil, nil, fmt.Errorf("log level %q: %w", level, err)
	}
	closer := func() error { return nil }
	w := out
	if file != "" {
		lj := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    20, // MB
			MaxBackups: 3,
			MaxAge:     14, // days
		}
		w = io.MultiWriter(out, lj)
		closer = lj.Close
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	return slog.New(h).With("session", uuid.NewString()), closer, nil
}
