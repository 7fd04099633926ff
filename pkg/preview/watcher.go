package preview

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/walteh/chtlls/pkg/compiler"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/fsnotify.v1"
)

// Watcher reloads the preview when compiled output appears on disk, which
// covers compilations started outside this process.
type Watcher struct {
	fsw    *fsnotify.Watcher
	server *Server

	mu      sync.Mutex
	dirs    map[string]struct{}
	outputs map[string]string
}

func NewWatcher(server *Server) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Errorf("creating fsnotify watcher: %w", err)
	}
	return &Watcher{
		fsw:     fsw,
		server:  server,
		dirs:    make(map[string]struct{}),
		outputs: make(map[string]string),
	}, nil
}

// Track starts watching the directory of sourcePath for its compiled output.
func (me *Watcher) Track(sourcePath string) error {
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		return errors.Errorf("resolving %s: %w", sourcePath, err)
	}
	dir := filepath.Dir(abs)

	me.mu.Lock()
	defer me.mu.Unlock()

	me.outputs[compiler.OutputPath(abs)] = abs

	if _, ok := me.dirs[dir]; ok {
		return nil
	}
	if err := me.fsw.Add(dir); err != nil {
		return errors.Errorf("watching %s: %w", dir, err)
	}
	me.dirs[dir] = struct{}{}
	return nil
}

func (me *Watcher) source(outputPath string) (string, bool) {
	me.mu.Lock()
	defer me.mu.Unlock()
	src, ok := me.outputs[filepath.Clean(outputPath)]
	return src, ok
}

// Run handles events until ctx is done or the watcher is closed.
func (me *Watcher) Run(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-me.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			src, tracked := me.source(ev.Name)
			if !tracked {
				continue
			}
			if err := me.server.UpdateFromFile(ctx, src, ev.Name); err != nil {
				logger.Warn().Err(err).Str("output", ev.Name).Msg("reloading compiled output")
			}
		case err, ok := <-me.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("file watcher error")
		}
	}
}

func (me *Watcher) Close() error {
	if err := me.fsw.Close(); err != nil {
		return errors.Errorf("closing fsnotify watcher: %w", err)
	}
	return nil
}
