package lsp

import (
	"context"
	"io"
	"sync"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/walteh/chtlls/pkg/chtlconfig"
	"github.com/walteh/chtlls/pkg/compiler"
	"github.com/walteh/chtlls/pkg/lsp/protocol"
	"github.com/walteh/chtlls/pkg/preview"
	"github.com/walteh/chtlls/pkg/settings"
)

const (
	ServerName = "chtlls"

	CommandCompile        = "chtl.compile"
	CommandPreview        = "chtl.preview"
	CommandRefreshPreview = "chtl.refreshPreview"
)

var Commands = []string{CommandCompile, CommandPreview, CommandRefreshPreview}

type Options struct {
	Fs afero.Fs
	// Environ is applied over the settings file, in os.Environ form.
	Environ []string
	// Override runs last, after editor settings. The CLI uses it for flags.
	Override func(*settings.Settings)
	// CompilerOutput receives the compiler's stdout and stderr lines.
	CompilerOutput io.Writer
	Version        string
}

// Server is the CHTL language server.
type Server struct {
	id   string
	opts Options
	fs   afero.Fs

	documents *DocumentManager
	configs   *chtlconfig.Cache
	compiler  *compiler.Service
	cache     *preview.Cache

	mu       sync.RWMutex
	settings settings.Settings
	root     string
	shutdown bool

	previewMu   sync.Mutex
	preview     *preview.Server
	watcher     *preview.Watcher
	stopPreview func()

	client protocol.Client
}

var _ protocol.Server = (*Server)(nil)

func NewServer(opts Options) *Server {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}

	s := settings.Default()

	var copts []compiler.Option
	if opts.CompilerOutput != nil {
		copts = append(copts, compiler.WithOutput(opts.CompilerOutput))
	}

	me := &Server{
		id:        xid.New().String(),
		opts:      opts,
		fs:        opts.Fs,
		documents: NewDocumentManager(opts.Fs),
		configs:   chtlconfig.MustNewCache(),
		cache:     preview.NewCache(),
		settings:  s,
	}
	copts = append(copts, compiler.WithListener(compiler.ListenerFunc(me.compiled)))
	me.compiler = compiler.NewService(s.Compiler.Path, copts...)

	return me
}

// Start serves the protocol on r and w. The returned instance is already
// running.
func (me *Server) Start(ctx context.Context, r io.Reader, w io.WriteCloser, opts protocol.InstanceOptions) *protocol.ServerInstance {
	ctx = zerolog.Ctx(ctx).With().Str("lsp_server", me.id).Logger().WithContext(ctx)

	inst := protocol.NewServerInstance(ctx, me, opts)
	me.client = inst.Client()
	inst.Start(r, w)
	return inst
}

func (me *Server) Documents() *DocumentManager {
	return me.documents
}

func (me *Server) Compiler() *compiler.Service {
	return me.compiler
}

func (me *Server) PreviewCache() *preview.Cache {
	return me.cache
}

// Settings returns the effective settings.
func (me *Server) Settings() settings.Settings {
	me.mu.RLock()
	defer me.mu.RUnlock()
	return me.settings
}

// Root is the workspace root sent by the client, if any.
func (me *Server) Root() string {
	me.mu.RLock()
	defer me.mu.RUnlock()
	return me.root
}

func (me *Server) shuttingDown() bool {
	me.mu.RLock()
	defer me.mu.RUnlock()
	return me.shutdown
}

func (me *Server) setSettings(s settings.Settings) {
	me.mu.Lock()
	me.settings = s
	me.mu.Unlock()
	me.compiler.SetCompilerPath(s.Compiler.Path)
}

func (me *Server) showMessage(ctx context.Context, typ protocol.MessageType, msg string) {
	if me.client == nil {
		return
	}
	if err := me.client.ShowMessage(ctx, &protocol.ShowMessageParams{Type: typ, Message: msg}); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("showing message")
	}
}
