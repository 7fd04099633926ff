// Package debug builds the zerolog loggers used by the server and the CLI.
package debug

import (
	"fmt"
	"io"
	"reflect"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
)

const TimeFormat = "2006-01-02T15:04:05.0000Z"

// skipFrames reads the event's unexported skip count so the caller hook
// reports the frame that logged, not zerolog internals.
func skipFrames(e *zerolog.Event) int {
	v := reflect.ValueOf(e).Elem()
	field := v.FieldByName("skipFrame")
	if field.IsValid() {
		return int(field.Int())
	}
	return 0
}

type CustomTimeHook struct {
	Format string
}

func (t CustomTimeHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	format := t.Format
	if format == "" {
		format = TimeFormat
	}
	e.Str("time", time.Now().Format(format))
}

type CustomCallerHook struct {
	WithColor bool
}

func (c CustomCallerHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	pc, file, line, ok := runtime.Caller(skipFrames(e) + 3)
	if !ok {
		return
	}

	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return
	}

	pkg, _ := SplitFuncName(fn.Name())
	e.Str("caller", FormatCaller(pkg, file, line, c.WithColor))
}

// SplitFuncName splits a runtime function name such as
// github.com/a/b.(*T).M into its package and function parts.
func SplitFuncName(name string) (pkg, function string) {
	lastSlash := strings.LastIndexByte(name, '/')
	if lastSlash < 0 {
		lastSlash = 0
	}

	dot := strings.IndexByte(name[lastSlash:], '.')
	if dot < 0 {
		return name, ""
	}
	dot += lastSlash

	pkg = name[:dot]
	function = name[dot+1:]
	return pkg, function
}

func FormatCaller(pkg, path string, line int, colorize bool) string {
	file := FileNameOfPath(path)
	if colorize {
		sep := color.New(color.Faint).Sprint(":")
		return fmt.Sprintf("%s%s%s%s%s",
			pkg, sep,
			color.New(color.Bold).Sprint(file), sep,
			color.New(color.FgHiRed, color.Bold).Sprintf("%d", line))
	}
	return fmt.Sprintf("%s:%s:%d", pkg, file, line)
}

func FileNameOfPath(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

type LoggerOptions struct {
	Level   zerolog.Level
	Console bool
	Color   bool
	Caller  bool
	// Name tags every record with a "server" field when set.
	Name string
}

// NewLogger builds a logger writing JSON, or human-readable text when
// Console is set. Each logger carries a fresh process id.
func NewLogger(w io.Writer, opts LoggerOptions) zerolog.Logger {
	out := w
	if opts.Console {
		out = zerolog.ConsoleWriter{
			Out:        w,
			NoColor:    !opts.Color,
			TimeFormat: time.TimeOnly,
		}
	}

	ctx := zerolog.New(out).Level(opts.Level).With().Str("pid", xid.New().String())
	if opts.Name != "" {
		ctx = ctx.Str("server", opts.Name)
	}

	logger := ctx.Logger().Hook(CustomTimeHook{})
	if opts.Caller {
		logger = logger.Hook(CustomCallerHook{WithColor: opts.Console && opts.Color})
	}
	return logger
}
