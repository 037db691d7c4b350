package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is a zerolog logger taking map-style fields:
//
//	log.Warn("primary attempt failed", logger.Fields("transport", "direct"))
type Logger struct {
	zl zerolog.Logger
}

var global *Logger

// Init builds the process logger from cfg and installs it both as this
// package's global logger and as zerolog's log.Logger.
func Init(cfg *Config) {
	cfg.ApplyDefaults()
	global = New(cfg, cfg.ServiceName)
	log.Logger = global.zl
}

// Default returns the logger installed by Init, or an info-level console
// logger on stdout when Init has not run.
func Default() *Logger {
	if global == nil {
		global = NewWithWriter(&Config{Level: "info", Format: FormatConsole}, "", os.Stdout)
	}
	return global
}

// New creates a logger writing to cfg.Output.
func New(cfg *Config, service string) *Logger {
	return NewWithWriter(cfg, service, outputWriter(cfg.Output))
}

// NewWithWriter creates a logger writing to w. The level is applied
// process-wide through zerolog.SetGlobalLevel.
func NewWithWriter(cfg *Config, service string, w io.Writer) *Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	var zc zerolog.Context
	if isConsole(cfg.Format) {
		zc = zerolog.New(consoleWriter(w, service, cfg.NoColor)).With().Timestamp()
	} else {
		zc = zerolog.New(w).With()
		if service != "" {
			zc = zc.Str(FieldService, service)
		}
		if cfg.Timestamp {
			zc = zc.Timestamp()
		}
	}
	if cfg.Caller {
		zc = zc.Caller()
	}
	return &Logger{zl: zc.Logger()}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// WithComponent tags every record with component=name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{zl: l.zl.With().Str(FieldComponent, name).Logger()}
}

func (l *Logger) Debug(msg string, fields ...map[string]any) { write(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...map[string]any)  { write(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...map[string]any)  { write(l.zl.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields ...map[string]any) { write(l.zl.Error(), msg, fields) }

// Package-level helpers log through Default().

func Debug(msg string, fields ...map[string]any) { Default().Debug(msg, fields...) }
func Info(msg string, fields ...map[string]any)  { Default().Info(msg, fields...) }
func Warn(msg string, fields ...map[string]any)  { Default().Warn(msg, fields...) }
func Error(msg string, fields ...map[string]any) { Default().Error(msg, fields...) }

func WithComponent(name string) *Logger { return Default().WithComponent(name) }

func write(ev *zerolog.Event, msg string, fields []map[string]any) {
	for _, m := range fields {
		for k, v := range m {
			ev = ev.Interface(k, v)
		}
	}
	ev.Msg(msg)
}

func parseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

func outputWriter(output string) io.Writer {
	if strings.EqualFold(output, "stderr") {
		return os.Stderr
	}
	return os.Stdout
}
