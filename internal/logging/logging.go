// Package logging configures the process-wide slog logger. Logs go to a
// rotating file under the config dir so CLI output stays clean; --verbose
// mirrors them to stderr.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup installs the default logger. dir is the config directory the log
// file lives in.
func Setup(dir string, verbose bool) {
	sink := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "restrain.log"),
		MaxSize:    5, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}

	level := slog.LevelInfo
	var w io.Writer = sink
	if verbose {
		level = slog.LevelDebug
		w = io.MultiWriter(sink, os.Stderr)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}
