package cli

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger creates the console logger used by all packages
func NewLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	console := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.TimeOnly,
	}
	return zerolog.New(console).Level(level).With().
		Timestamp().
		Str("app", "pronounce").
		Logger()
}
