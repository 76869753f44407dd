package pipeline

import (
	"io"
	"log/slog"
	"os"

	"github.com/c2h5oh/datasize"
)

// Logger wraps slog.Logger with the field names used by passes and jobs.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler, or a text handler on stderr at Info
// level when handler is nil.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}

	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger writing text records at level or above to w.
func NewTextLogger(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NoopLogger discards everything.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(1000)}))
}

// WithJob tags records with a job name.
func (l *Logger) WithJob(job string) *Logger {
	return &Logger{Logger: l.With("job", job)}
}

// WithPass tags records with a pass number.
func (l *Logger) WithPass(pass int) *Logger {
	return &Logger{Logger: l.With("pass", pass)}
}

// Size renders a bit count as a human-readable byte size attribute.
func Size(key string, nbits uint64) slog.Attr {
	size := datasize.ByteSize((nbits + 7) / 8)
	return slog.String(key, size.HumanReadable())
}
