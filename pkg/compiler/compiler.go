// Package compiler runs the external chtlc compiler.
package compiler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const DefaultCompilerPath = "chtlc"

// ErrSuperseded is returned by a compilation that was cancelled because a newer
// compilation of the same file started.
var ErrSuperseded = errors.New("compilation superseded by a newer request")

// CompileError is a compiler run that exited with a nonzero status.
type CompileError struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *CompileError) Error() string {
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		return msg
	}
	return fmt.Sprintf("compilation failed with code %d", e.ExitCode)
}

// OutputPath returns input with its extension replaced by .html.
func OutputPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + ".html"
}

// Listener is told about every successful compilation.
type Listener interface {
	Compiled(ctx context.Context, inputPath, outputPath string) error
}

type ListenerFunc func(ctx context.Context, inputPath, outputPath string) error

func (f ListenerFunc) Compiled(ctx context.Context, inputPath, outputPath string) error {
	return f(ctx, inputPath, outputPath)
}

type Option func(*Service)

// WithOutput mirrors compiler output to w, one line per write.
func WithOutput(w io.Writer) Option {
	return func(s *Service) {
		s.output = w
	}
}

func WithListener(l Listener) Option {
	return func(s *Service) {
		s.listeners = append(s.listeners, l)
	}
}

type run struct {
	cancel     context.CancelFunc
	done       chan struct{}
	superseded bool
}

type Service struct {
	compilerPath string
	output       io.Writer
	outputMu     sync.Mutex

	mu        sync.Mutex
	inflight  map[string]*run
	listeners []Listener
}

func NewService(compilerPath string, opts ...Option) *Service {
	if compilerPath == "" {
		compilerPath = DefaultCompilerPath
	}
	me := &Service{
		compilerPath: compilerPath,
		inflight:     make(map[string]*run),
	}
	for _, opt := range opts {
		opt(me)
	}
	return me
}

func (me *Service) CompilerPath() string {
	me.mu.Lock()
	defer me.mu.Unlock()
	return me.compilerPath
}

func (me *Service) SetCompilerPath(path string) {
	if path == "" {
		path = DefaultCompilerPath
	}
	me.mu.Lock()
	defer me.mu.Unlock()
	me.compilerPath = path
}

func (me *Service) AddListener(l Listener) {
	me.mu.Lock()
	defer me.mu.Unlock()
	me.listeners = append(me.listeners, l)
}

// Compile runs `<compiler> <input> <output>` and returns the output path.
// A compilation already running for the same input is cancelled first and
// returns ErrSuperseded.
func (me *Service) Compile(ctx context.Context, inputPath string) (string, error) {
	key := filepath.Clean(inputPath)
	outputPath := OutputPath(inputPath)

	runCtx, r, compilerPath := me.begin(ctx, key)
	defer me.finish(key, r)

	logger := zerolog.Ctx(ctx).With().
		Str("compiler", compilerPath).
		Str("input", inputPath).
		Str("output", outputPath).
		Logger()

	logger.Info().Msg("compiling")

	stdout := &lineWriter{stream: "stdout", logger: &logger, mirror: me.mirror}
	stderr := &lineWriter{stream: "stderr", logger: &logger, mirror: me.mirror}

	cmd := exec.CommandContext(runCtx, compilerPath, inputPath, outputPath)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	stdout.Flush()
	stderr.Flush()

	me.mu.Lock()
	superseded := r.superseded
	me.mu.Unlock()

	if superseded {
		logger.Debug().Msg("compilation superseded")
		return "", ErrSuperseded
	}

	if err != nil {
		var exitErr *exec.ExitError
		if ctx.Err() != nil {
			return "", errors.Errorf("compiling %s: %w", inputPath, ctx.Err())
		}
		if errors.As(err, &exitErr) {
			cerr := &CompileError{
				ExitCode: exitErr.ExitCode(),
				Stdout:   stdout.String(),
				Stderr:   stderr.String(),
			}
			logger.Warn().Int("exit_code", cerr.ExitCode).Msg("compilation failed")
			return "", cerr
		}
		return "", errors.Errorf("running compiler %s: %w", compilerPath, err)
	}

	logger.Info().Msg("compilation successful")

	me.mu.Lock()
	listeners := append([]Listener(nil), me.listeners...)
	me.mu.Unlock()

	for _, l := range listeners {
		if err := l.Compiled(ctx, inputPath, outputPath); err != nil {
			logger.Error().Err(err).Msg("compile listener failed")
		}
	}

	return outputPath, nil
}

// begin registers a new run for key after cancelling and waiting out any
// predecessor.
func (me *Service) begin(ctx context.Context, key string) (context.Context, *run, string) {
	runCtx, cancel := context.WithCancel(ctx)
	r := &run{cancel: cancel, done: make(chan struct{})}

	for {
		me.mu.Lock()
		prev, ok := me.inflight[key]
		if !ok {
			me.inflight[key] = r
			path := me.compilerPath
			me.mu.Unlock()
			return runCtx, r, path
		}
		prev.superseded = true
		prev.cancel()
		me.mu.Unlock()

		zerolog.Ctx(ctx).Debug().Str("input", key).Msg("superseding running compilation")
		<-prev.done
	}
}

func (me *Service) finish(key string, r *run) {
	me.mu.Lock()
	if me.inflight[key] == r {
		delete(me.inflight, key)
	}
	me.mu.Unlock()
	r.cancel()
	close(r.done)
}

func (me *Service) mirror(line string) {
	if me.output == nil {
		return
	}
	me.outputMu.Lock()
	defer me.outputMu.Unlock()
	_, _ = io.WriteString(me.output, line+"\n")
}

// lineWriter logs each complete line it receives and keeps the full text.
type lineWriter struct {
	stream  string
	logger  *zerolog.Logger
	mirror  func(string)
	all     bytes.Buffer
	pending bytes.Buffer
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.all.Write(p)
	w.pending.Write(p)
	for {
		line, err := w.pending.ReadString('\n')
		if err != nil {
			// incomplete line, keep it for the next write
			w.pending.Reset()
			w.pending.WriteString(line)
			return len(p), nil
		}
		w.emit(strings.TrimRight(line, "\r\n"))
	}
}

func (w *lineWriter) Flush() {
	if w.pending.Len() == 0 {
		return
	}
	w.emit(strings.TrimRight(w.pending.String(), "\r\n"))
	w.pending.Reset()
}

func (w *lineWriter) emit(line string) {
	w.logger.Debug().Str("stream", w.stream).Msg(line)
	if w.mirror != nil {
		w.mirror(line)
	}
}

func (w *lineWriter) String() string {
	return w.all.String()
}
