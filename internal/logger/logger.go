package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

// Options configures Init. Zero values give JSON logs at Info on stdout.
type Options struct {
	Dev       bool   // text output, Debug level
	Level     string // overrides the default level: debug, info, warn, error
	SentryDSN string // when set, Error records are also sent to Sentry
	Output    io.Writer
}

// Init installs the process-wide slog logger.
func Init(opts Options) *slog.Logger {
	l := slog.New(newHandler(opts)).With("app", "ecoscan")
	slog.SetDefault(l)
	return l
}

func newHandler(opts Options) slog.Handler {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	level := slog.LevelInfo
	if opts.Dev {
		level = slog.LevelDebug
	}
	if opts.Level != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(strings.ToUpper(opts.Level))); err == nil {
			level = l
		}
	}

	var console slog.Handler
	if opts.Dev {
		console = slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	} else {
		console = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	}

	if opts.SentryDSN == "" {
		return console
	}

	env := "production"
	if opts.Dev {
		env = "development"
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              opts.SentryDSN,
		Environment:      env,
		TracesSampleRate: 0.2,
	})
	if err != nil {
		slog.Warn("sentry disabled", "error", err)
		return console
	}

	return slogmulti.Fanout(
		console,
		slogsentry.Option{Level: slog.LevelError}.NewSentryHandler(),
	)
}

// Flush waits for buffered Sentry events before the process exits.
func Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}
