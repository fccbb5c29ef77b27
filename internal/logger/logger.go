// Package logger builds the process-wide zerolog root logger.
package logger

import (
	"io"
	"os"

	"github.com/ahjazly/unified-notifier/internal/config"
	"github.com/rs/zerolog"
)

// NewLogger builds the root logger every component logger derives from, so
// the service field and caller location show up on every line. Output is
// JSON on stderr; the pretty flag switches to the console writer for local
// runs. An unparseable level falls back to info rather than failing boot.
func NewLogger(cfg *config.Config) (*zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stderr
	if cfg.Logger.Pretty {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	root := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "unified-notifier").
		Caller().
		Logger()

	return &root, nil
}
