package output

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
)

// LogOptions selects the verbosity and encoding of diagnostic logs.
// Quiet wins over Debug, which wins over Verbose.
type LogOptions struct {
	Quiet   bool
	Verbose bool
	Debug   bool
	// Format is "text" (the default) or "json".
	Format string
}

// Level returns the minimum level logged. Warnings and errors are shown
// by default.
func (o LogOptions) Level() slog.Level {
	switch {
	case o.Quiet:
		return slog.Level(math.MaxInt)
	case o.Debug:
		return slog.LevelDebug
	case o.Verbose:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

// SetupLogger creates the logger writing to w, usually stderr. Debug
// logging records the source file and line of each call.
func SetupLogger(opts LogOptions, w io.Writer) (*slog.Logger, error) {
	ho := &slog.HandlerOptions{
		Level:     opts.Level(),
		AddSource: opts.Debug && !opts.Quiet,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if src, ok := a.Value.Any().(*slog.Source); ok && a.Key == slog.SourceKey {
				a.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
			}
			return a
		},
	}

	switch opts.Format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, ho)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, ho)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", opts.Format)
	}
}
