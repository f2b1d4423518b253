package logging

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
)

const (
	EnvLevel = "XFORM_LOG_LEVEL"
	EnvJSON  = "XFORM_LOG_JSON"
)

type Options struct {
	Level string
	JSON  bool
	// Output defaults to stderr.
	Output io.Writer
}

var def atomic.Value

func init() {
	def.Store(newLogger(Options{}))
}

func newLogger(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	cfg := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}
	var h slog.Handler
	if opts.JSON {
		h = slog.NewJSONHandler(out, cfg)
	} else {
		h = slog.NewTextHandler(out, cfg)
	}
	return slog.New(h)
}

// Configure replaces the process logger.
func Configure(opts Options) {
	def.Store(newLogger(opts))
}

// ParseLevel maps a level name to its slog level. Unknown names are info.
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

func L() *slog.Logger {
	l, _ := def.Load().(*slog.Logger)
	return l
}

// FromEnv reads the logging options from the environment.
func FromEnv() Options {
	json, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv(EnvJSON)))
	return Options{Level: os.Getenv(EnvLevel), JSON: json}
}

func InitFromEnv() {
	Configure(FromEnv())
}
