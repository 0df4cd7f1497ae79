// Package log provides a leveled, structured logger for the whole
// process, backed by zerolog. It is initialized once from main (or from
// tests) and used through package-level functions.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var log zerolog.Logger

// The prefix is used to distinguish our logs from those of libraries
// that also write to the same output.
var (
	logTestWriter     io.Writer
	logTestWriterName = "logtest"

	// panicOnInvalidChars is used by tests to catch log lines carrying
	// raw binary data, which should always be hex-encoded instead.
	panicOnInvalidChars = os.Getenv("LOG_PANIC_ON_INVALIDCHARS") == "true"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

type invalidCharChecker struct{ w io.Writer }

func (c invalidCharChecker) Write(p []byte) (int, error) {
	for _, b := range p {
		if b >= 0x80 {
			panic(fmt.Sprintf("log line with invalid char %q: %q", b, p))
		}
	}
	return c.w.Write(p)
}

// Init initializes the logger with the given level ("debug", "info",
// "warn" or "error") and output ("stdout", "stderr" or a file path).
// The errorOutput writer, if not nil, receives a copy of every log
// line of level error or above.
func Init(level, output string, errorOutput io.Writer) {
	var out io.Writer
	switch output {
	case "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	case logTestWriterName:
		out = logTestWriter
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			panic(fmt.Sprintf("cannot open log output %q: %v", output, err))
		}
		out = f
	}
	if output != logTestWriterName {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	if panicOnInvalidChars {
		out = invalidCharChecker{w: out}
	}
	if errorOutput != nil {
		out = zerolog.MultiLevelWriter(out, errorLevelWriter{errorOutput})
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log = zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

type errorLevelWriter struct{ w io.Writer }

func (w errorLevelWriter) Write(p []byte) (int, error) { return len(p), nil }

func (w errorLevelWriter) WriteLevel(lvl zerolog.Level, p []byte) (int, error) {
	if lvl < zerolog.ErrorLevel {
		return len(p), nil
	}
	return w.w.Write(p)
}

// Level returns the current log level as a string.
func Level() string { return log.GetLevel().String() }

// Logger returns the underlying zerolog logger, for libraries that can
// be given one directly.
func Logger() *zerolog.Logger { return &log }

func withFields(ev *zerolog.Event, kv ...any) *zerolog.Event {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		ev = ev.Interface(key, kv[i+1])
	}
	return ev
}

func Debug(args ...any) { log.Debug().Msg(fmt.Sprint(args...)) }
func Info(args ...any)  { log.Info().Msg(fmt.Sprint(args...)) }
func Warn(args ...any)  { log.Warn().Msg(fmt.Sprint(args...)) }
func Error(args ...any) { log.Error().Msg(fmt.Sprint(args...)) }

func Debugf(template string, args ...any) { log.Debug().Msgf(template, args...) }
func Infof(template string, args ...any)  { log.Info().Msgf(template, args...) }
func Warnf(template string, args ...any)  { log.Warn().Msgf(template, args...) }
func Errorf(template string, args ...any) { log.Error().Msgf(template, args...) }

func Debugw(msg string, kv ...any) { withFields(log.Debug(), kv...).Msg(msg) }
func Infow(msg string, kv ...any)  { withFields(log.Info(), kv...).Msg(msg) }
func Warnw(msg string, kv ...any)  { withFields(log.Warn(), kv...).Msg(msg) }
func Errorw(err error, msg string) { log.Error().Err(err).Msg(msg) }

func Fatal(args ...any) {
	log.Fatal().Msg(fmt.Sprint(args...))
}

func Fatalf(template string, args ...any) {
	log.Fatal().Msgf(template, args...)
}

func Fatalw(err error, msg string) {
	log.Fatal().Err(err).Msg(msg)
}
