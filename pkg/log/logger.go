// Package log provides structured logging for the experiment pipeline.
//
// The package is built on log/slog: a JSON handler for machine-readable run
// records (with severity/message key remapping) and a tint console handler for
// interactive CLI use. A wrapping handler extracts cockroachdb/errors stack
// traces from error attributes so failed trials and storage errors are
// debuggable from the logs alone. The attribute keys used across the pipeline
// (run.id, trial.index, metric.f1, ...) are defined in attributes.go.
package log

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// Format selects the log output format.
type Format string

const (
	// FormatJSON emits one JSON object per record, suitable for ingestion.
	FormatJSON Format = "json"
	// FormatConsole emits colorized human-readable records via tint.
	FormatConsole Format = "console"
)

// SetupLogger configures the process-wide default slog logger.
func SetupLogger(loglevel string, format Format) {
	var handler slog.Handler
	switch format {
	case FormatConsole:
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      ToLogLevel(loglevel),
			TimeFormat: time.Kitchen,
		})
	default:
		ops := slog.HandlerOptions{
			AddSource: true,
			Level:     ToLogLevel(loglevel),
			ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
				switch attr.Key {
				case slog.LevelKey:
					attr = slog.Attr{Key: "severity", Value: attr.Value}
				case slog.MessageKey:
					attr = slog.Attr{Key: "message", Value: attr.Value}
				}
				return attr
			},
		}
		handler = slog.NewJSONHandler(os.Stdout, &ops)
	}
	slog.SetDefault(slog.New(WrapByErrFmtHandler(handler)))
}

// ToLogLevel converts a level name to a slog.Level.
func ToLogLevel(level string) slog.Level {
	switch level {
	case "info", "":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		panic(fmt.Sprintf("invalid log level: %s", level))
	}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)
