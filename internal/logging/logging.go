// Package logging configures the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.yhsif.com/ctxslog"
)

// Options for Init.
type Options struct {
	Level slog.Level
	JSON  bool
	// Writer defaults to os.Stderr.
	Writer io.Writer
}

// New builds a logger that also emits the attributes attached to the
// context with ctxslog.Attach. Attach captures slog.Default(), so attached
// attributes only reach this logger once it is installed with Init.
func New(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	hopts := &slog.HandlerOptions{Level: opts.Level}
	var h slog.Handler
	if opts.JSON {
		h = slog.NewJSONHandler(w, hopts)
	} else {
		h = slog.NewTextHandler(w, hopts)
	}
	return slog.New(ctxslog.ContextHandler(h))
}

// Init installs New(opts) as the default logger.
func Init(opts Options) {
	slog.SetDefault(New(opts))
}

// ParseLevel accepts debug, info, warn and error in any case. Empty is info.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}
