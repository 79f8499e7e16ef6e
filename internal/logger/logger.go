package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// NewLogger creates a console logger on stderr at the given level name.
// Unknown or empty levels fall back to info.
func NewLogger(level string) zerolog.Logger {
	return New(os.Stderr, level)
}

func New(w io.Writer, level string) zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(output).Level(lvl).With().Timestamp().Logger()
}
