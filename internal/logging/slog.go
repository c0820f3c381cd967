package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

type SlogLogger struct {
	l *slog.Logger
}

func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{l: l}
}

// Options selects the sink and verbosity of a logger built by New.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// File, when set, receives JSON lines through a size-rotated writer in
	// addition to stdout.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// New builds a SlogLogger writing to stdout: a text handler when stdout is a
// terminal, JSON otherwise.
func New(opts Options) *SlogLogger {
	return newWithStdout(opts, os.Stdout, term.IsTerminal(int(os.Stdout.Fd())))
}

func newWithStdout(opts Options, stdout io.Writer, tty bool) *SlogLogger {
	ho := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	if opts.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			Compress:   true,
		}
		return NewSlogLogger(slog.New(slog.NewJSONHandler(io.MultiWriter(stdout, rotated), ho)))
	}

	if tty {
		return NewSlogLogger(slog.New(slog.NewTextHandler(stdout, ho)))
	}
	return NewSlogLogger(slog.New(slog.NewJSONHandler(stdout, ho)))
}

// ParseLevel maps a level name to slog.Level, defaulting to Info.
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

func (s *SlogLogger) Debug(ctx context.Context, msg string, args ...any) {
	s.l.DebugContext(ctx, msg, args...)
}

func (s *SlogLogger) Info(ctx context.Context, msg string, args ...any) {
	s.l.InfoContext(ctx, msg, args...)
}

func (s *SlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	s.l.WarnContext(ctx, msg, args...)
}

func (s *SlogLogger) Error(ctx context.Context, msg string, args ...any) {
	s.l.ErrorContext(ctx, msg, args...)
}

func (s *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{l: s.l.With(args...)}
}

// Nop returns a logger that discards everything. Handy in tests.
func Nop() Logger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
