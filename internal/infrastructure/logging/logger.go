// Package logging builds the run logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ersonp/secmatch/internal/infrastructure/config"
)

// New builds a zerolog logger from the logging config. The "local"
// environment gets human-readable console output; anything else logs
// structured JSON.
func New(cfg config.LoggingConfig) (zerolog.Logger, error) {
	level := cfg.Level
	if level == "" {
		level = "info"
	}
	parsedLevel, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("parse log level %q: %w", level, err)
	}

	var writer io.Writer = os.Stderr
	if strings.EqualFold(strings.TrimSpace(cfg.Environment), "local") {
		writer = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
	}

	logger := zerolog.New(writer).
		Level(parsedLevel).
		With().
		Timestamp().
		Str("service", "secmatch").
		Logger()

	return logger, nil
}
