// Package logging configures the global zerolog logger.
package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init sets the global level and output of the zerolog logger. Pretty
// output uses a colorized console writer; otherwise JSON lines are written.
// An unknown level falls back to info.
func Init(level string, pretty bool) {
	InitWriter(os.Stderr, level, pretty)
}

// InitWriter is Init with an explicit destination.
func InitWriter(w io.Writer, level string, pretty bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Caller().Logger()
}

// DebugEnabled reports whether debug messages are logged.
func DebugEnabled() bool {
	return zerolog.GlobalLevel() <= zerolog.DebugLevel
}

// QueryLogger writes SQL statements issued through orm.DB at debug level.
type QueryLogger struct {
	// Name identifies the database the queries run against.
	Name string
}

// Log implements orm.Logger. The logger attached to ctx is used when there
// is one, the global logger otherwise.
func (q QueryLogger) Log(ctx context.Context, query string, args ...any) {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		l = &log.Logger
	}
	ev := l.Debug().Str("query", query).Interface("args", args)
	if q.Name != "" {
		ev = ev.Str("db", q.Name)
	}
	ev.Msg("sql")
}
