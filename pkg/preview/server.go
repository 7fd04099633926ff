// Package preview serves compiled CHTL pages over HTTP and tells open pages to
// reload over a WebSocket whenever a file is recompiled.
package preview

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultHost = "localhost"
	DefaultPort = 3000
)

const notFoundPage = `<html>
    <body style="font-family: Arial, sans-serif; text-align: center; padding: 50px;">
        <h1>CHTL Preview Not Available</h1>
        <p>Please compile the CHTL file first.</p>
    </body>
</html>
`

type Options struct {
	Host         string
	Port         int
	InjectReload bool
}

func DefaultOptions() Options {
	return Options{Host: DefaultHost, Port: DefaultPort, InjectReload: true}
}

type Server struct {
	cache *Cache
	hub   *Hub
	fs    afero.Fs
	opts  Options

	mu    sync.RWMutex
	addr  string
	ready chan struct{}
}

func NewServer(cache *Cache, fs afero.Fs, opts Options) *Server {
	if opts.Host == "" {
		opts.Host = DefaultHost
	}
	return &Server{
		cache: cache,
		hub:   NewHub(),
		fs:    fs,
		opts:  opts,
		ready: make(chan struct{}),
	}
}

func (me *Server) Cache() *Cache {
	return me.cache
}

func (me *Server) Hub() *Hub {
	return me.hub
}

func (me *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/preview/", me.handlePreview)
	mux.HandleFunc("/health", me.handleHealth)
	mux.Handle("/ws", me.hub)
	return mux
}

func (me *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	key := strings.TrimPrefix(r.URL.Path, "/preview/")
	page, ok := me.cache.Get(key)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if !ok {
		zerolog.Ctx(r.Context()).Debug().Str("key", key).Msg("preview not in cache")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(notFoundPage))
		return
	}

	if me.opts.InjectReload {
		page = InjectReload(page)
	}
	_, _ = w.Write([]byte(page))
}

func (me *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// UpdateCompiledFile stores html for sourcePath and tells open pages to refresh.
func (me *Server) UpdateCompiledFile(ctx context.Context, sourcePath, html string) {
	me.cache.Set(sourcePath, html)
	n := me.hub.Broadcast(RefreshMessage)
	zerolog.Ctx(ctx).Debug().Str("source", sourcePath).Int("clients", n).Msg("preview updated")
}

// UpdateFromFile loads the compiled output at htmlPath for sourcePath.
func (me *Server) UpdateFromFile(ctx context.Context, sourcePath, htmlPath string) error {
	data, err := afero.ReadFile(me.fs, htmlPath)
	if err != nil {
		return errors.Errorf("reading compiled html %s: %w", htmlPath, err)
	}
	me.UpdateCompiledFile(ctx, sourcePath, string(data))
	return nil
}

// Compiled lets the server listen for successful compilations.
func (me *Server) Compiled(ctx context.Context, inputPath, outputPath string) error {
	return me.UpdateFromFile(ctx, inputPath, outputPath)
}

func (me *Server) ClearCache() {
	me.cache.Clear()
}

// Refresh asks every open page to reload without touching the cache.
func (me *Server) Refresh() int {
	return me.hub.Broadcast(RefreshMessage)
}

// Addr is the listening address, or the configured one before Run.
func (me *Server) Addr() string {
	me.mu.RLock()
	defer me.mu.RUnlock()
	if me.addr != "" {
		return me.addr
	}
	return net.JoinHostPort(me.opts.Host, strconv.Itoa(me.opts.Port))
}

// Ready is closed once Run is accepting connections.
func (me *Server) Ready() <-chan struct{} {
	return me.ready
}

func (me *Server) PreviewURL(sourcePath string) string {
	segments := strings.Split(NormalizeKey(sourcePath), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return "http://" + me.Addr() + "/preview/" + strings.Join(segments, "/")
}

// Run serves until ctx is done, then closes every WebSocket and shuts the HTTP
// server down.
func (me *Server) Run(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)

	ln, err := net.Listen("tcp", net.JoinHostPort(me.opts.Host, strconv.Itoa(me.opts.Port)))
	if err != nil {
		return errors.Errorf("listening for preview: %w", err)
	}

	me.mu.Lock()
	me.addr = ln.Addr().String()
	me.mu.Unlock()
	close(me.ready)

	srv := &http.Server{
		Handler:           me.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return logger.WithContext(context.Background())
		},
	}

	logger.Info().Str("addr", me.Addr()).Msg("preview server listening")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Errorf("serving preview: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		err := multierr.Combine(me.hub.Close(), srv.Shutdown(shutdownCtx))
		if err != nil {
			return errors.Errorf("shutting down preview: %w", err)
		}
		logger.Info().Msg("preview server stopped")
		return nil
	})

	return g.Wait()
}
