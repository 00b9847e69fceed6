package logger

import (
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

var (
	base atomic.Pointer[zerolog.Logger]

	// output is where log lines go.
	output io.Writer = os.Stdout
)

// SetOutput redirects the global logger to w and reinitializes it.
func SetOutput(w io.Writer) {
	output = w
	Init()
}

// Init configures the global JSON logger.
//
// Environment variables (optional):
//   - LOG_LEVEL: debug|info|warn|error (default: info)
//   - LOG_PRETTY: true|false (default: false)
func Init() {
	level := parseLevel(getenv("LOG_LEVEL", "info"))
	pretty := strings.EqualFold(getenv("LOG_PRETTY", "false"), "true")

	zerolog.TimeFieldFormat = time.RFC3339Nano
	w := output
	if pretty {
		w = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}
	l := zerolog.New(w).With().Timestamp().Str("service", "varpulse").Logger().Level(level)
	base.Store(&l)
}

// L returns the global logger, initializing it from the environment on first use.
func L() *zerolog.Logger {
	if l := base.Load(); l != nil {
		return l
	}
	Init()
	return base.Load()
}

// WithRun returns a child logger that tags every line with the run id.
func WithRun(id string) *zerolog.Logger {
	if id == "" {
		return L()
	}
	l := L().With().Str("run_id", id).Logger()
	return &l
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error", "err":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
