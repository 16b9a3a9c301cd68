// Package logger builds the zerolog logger shared by the CLI and clients.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmagro/solrpc/internal/config"
)

// New returns a logger writing to stderr at the configured level. The
// console format is meant for terminals; json is one object per line.
func New(cfg config.Log) (zerolog.Logger, error) {
	return NewWriter(cfg, os.Stderr)
}

// NewWriter is New with an explicit destination.
func NewWriter(cfg config.Log, w io.Writer) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		l, err := zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return zerolog.Nop(), err
		}
		level = l
	}
	if cfg.Format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: w != os.Stderr}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}
