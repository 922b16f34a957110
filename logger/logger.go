// Package logger - Global zerolog configuration.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options configures the global logger.
type Options struct {
	// Level is one of trace, debug, info, warn, error. Empty means info.
	Level string `mapstructure:"level" yaml:"level"`
	// Pretty selects the human-readable console writer instead of JSON lines.
	Pretty bool `mapstructure:"pretty" yaml:"pretty"`
	// Output defaults to os.Stderr.
	Output io.Writer `mapstructure:"-" yaml:"-"`
}

// Setup installs the global logger used by every package.
func Setup(opts Options) error {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return errors.Wrapf(err, "invalid log level %q", opts.Level)
		}
		level = parsed
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()

	return nil
}
