package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global logger for one of the two processes
// (yolchi-bot, yolchi-web). Debug mode switches to a human-readable
// console writer and enables debug-level events; production stays on
// zerolog's plain JSON output.
func Init(process string, debug bool) {
	zerolog.TimeFieldFormat = time.RFC3339

	var out = zerolog.New(os.Stdout)
	level := zerolog.InfoLevel
	if debug {
		out = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		})
		level = zerolog.DebugLevel
	}

	log.Logger = out.
		Level(level).
		With().
		Timestamp().
		Str("process", process).
		Logger()
}

func Debug() *zerolog.Event { return log.Debug() }

func Info() *zerolog.Event { return log.Info() }

func Warn() *zerolog.Event { return log.Warn() }

func Error() *zerolog.Event { return log.Error() }

// Fatal logs and exits the process.
func Fatal() *zerolog.Event { return log.Fatal() }
