package protocol

import (
	"context"
	"io"
	"sync"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/rs/zerolog"
)

// CallbackClient pushes notifications and callbacks from a running server to
// its client, reporting them to the server's RPC logger on the way.
type CallbackClient struct {
	serverOpts *jrpc2.ServerOptions
	client     *jrpc2.Server
}

var _ Callbacker = (*CallbackClient)(nil)

func NewCallbackClient(server *jrpc2.Server, serverOpts *jrpc2.ServerOptions) *CallbackClient {
	return &CallbackClient{client: server, serverOpts: serverOpts}
}

func (me *CallbackClient) Notify(ctx context.Context, method string, params any) error {
	if rl, ok := me.serverOpts.RPCLog.(CallbackRPCLogger); ok {
		rl.LogCallbackRequestRaw(ctx, method, params)
	}

	return me.client.Notify(ctx, method, params)
}

func (me *CallbackClient) Callback(ctx context.Context, method string, params any) (*jrpc2.Response, error) {
	if rl, ok := me.serverOpts.RPCLog.(CallbackRPCLogger); ok {
		rl.LogCallbackRequestRaw(ctx, method, params)
	}

	res, err := me.client.Callback(ctx, method, params)
	if err != nil {
		return nil, err
	}

	if rl, ok := me.serverOpts.RPCLog.(CallbackRPCLogger); ok {
		rl.LogCallbackResponse(ctx, res)
	}

	return res, nil
}

// NewServerServer builds a jrpc2 server dispatching to server. Every request
// context carries the logger from ctx, with records at forward level and above
// mirrored to the client as window/logMessage.
func NewServerServer(ctx context.Context, server Server, opts *jrpc2.ServerOptions, forward zerolog.Level) (*jrpc2.Server, *CallbackClient) {
	methods := buildServerDispatchMap(server)
	if opts == nil {
		opts = &jrpc2.ServerOptions{}
	}

	opts.AllowPush = true

	var callbackClient *CallbackClient

	opts.NewContext = func() context.Context {
		if callbackClient == nil {
			return ctx
		}
		return ApplyClientToZerolog(ctx, NewClientDispatcher(callbackClient), forward)
	}

	result := jrpc2.NewServer(methods, opts)

	callbackClient = NewCallbackClient(result, opts)

	return result, callbackClient
}

type ServerInstance struct {
	server *jrpc2.Server
	client *ClientDispatcher

	mu      sync.Mutex
	started bool
}

type InstanceOptions struct {
	Server *jrpc2.ServerOptions
	// ForwardLevel is the lowest level mirrored to the client. Use
	// zerolog.Disabled to keep logs local.
	ForwardLevel zerolog.Level
}

func NewServerInstance(ctx context.Context, server Server, opts InstanceOptions) *ServerInstance {
	srv, cb := NewServerServer(ctx, server, opts.Server, opts.ForwardLevel)
	return &ServerInstance{
		server: srv,
		client: NewClientDispatcher(cb),
	}
}

// Client returns the dispatcher for server-to-client messages.
func (me *ServerInstance) Client() Client {
	return me.client
}

// Start serves LSP-framed JSON-RPC read from r and written to w.
func (me *ServerInstance) Start(r io.Reader, w io.WriteCloser) {
	me.mu.Lock()
	defer me.mu.Unlock()
	if me.started {
		return
	}
	me.started = true
	me.server.Start(channel.LSP(r, w))
}

func (me *ServerInstance) Wait() error {
	return me.server.Wait()
}

func (me *ServerInstance) StartAndWait(r io.Reader, w io.WriteCloser) error {
	me.Start(r, w)
	return me.Wait()
}

func (me *ServerInstance) Stop() {
	me.server.Stop()
}

// Call issues method on client and decodes the result into result when it is
// not nil.
func Call(ctx context.Context, client *jrpc2.Client, method string, params any, result any) error {
	rsp, err := client.Call(ctx, method, params)
	if err != nil {
		return err
	}
	if result != nil {
		return rsp.UnmarshalResult(result)
	}
	return nil
}
