package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// LogLevel is the level the server logs at: debug in development, info
// everywhere else.
func (c *Config) LogLevel() slog.Level {
	if c.IsDev() {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// NewLogger builds the JSON logger for one catalog command. Records go to
// console and, when LogDir is set, to a fresh "<command>-<timestamp>.log"
// file in it; only the newest LogMaxFiles files per command are kept.
// The returned close func releases the file and is never nil.
func (c *Config) NewLogger(command string, console io.Writer, level slog.Level) (*slog.Logger, func() error, error) {
	out, closeFn := console, func() error { return nil }

	if c.LogDir != "" {
		f, err := openLogFile(c.LogDir, command, time.Now())
		if err != nil {
			return nil, nil, err
		}
		out, closeFn = io.MultiWriter(console, f), f.Close

		if err := pruneLogs(c.LogDir, command, c.LogMaxFiles); err != nil {
			fmt.Fprintf(console, "warning: prune %s logs: %v\n", command, err)
		}
	}

	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})).
		With("command", command)
	return logger, closeFn, nil
}

func openLogFile(dir, command string, now time.Time) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	name := filepath.Join(dir, fmt.Sprintf("%s-%s.log", command, now.Format("2006-01-02T15-04-05")))
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}
	return f, nil
}

// pruneLogs deletes the oldest logs of command beyond keep. Timestamped names
// sort chronologically. keep <= 0 disables pruning.
func pruneLogs(dir, command string, keep int) error {
	if keep <= 0 {
		return nil
	}
	files, err := filepath.Glob(filepath.Join(dir, command+"-*.log"))
	if err != nil {
		return err
	}
	if len(files) <= keep {
		return nil
	}
	sort.Strings(files)
	for _, f := range files[:len(files)-keep] {
		if err := os.Remove(f); err != nil {
			return fmt.Errorf("remove %s: %w", f, err)
		}
	}
	return nil
}
