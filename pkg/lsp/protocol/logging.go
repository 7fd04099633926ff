package protocol

import (
	"context"
	"sync"

	"github.com/creachadair/jrpc2"
	"github.com/rs/zerolog"
)

// CallbackRPCLogger additionally observes server-to-client traffic.
type CallbackRPCLogger interface {
	jrpc2.RPCLogger
	LogCallbackRequestRaw(ctx context.Context, method string, params any)
	LogCallbackResponse(ctx context.Context, resp *jrpc2.Response)
}

type MultiRPCLogger struct {
	mu      sync.Mutex
	loggers []jrpc2.RPCLogger
}

var _ CallbackRPCLogger = (*MultiRPCLogger)(nil)

func NewMultiRPCLogger(loggers ...jrpc2.RPCLogger) *MultiRPCLogger {
	return &MultiRPCLogger{loggers: loggers}
}

func (me *MultiRPCLogger) each(fn func(jrpc2.RPCLogger)) {
	me.mu.Lock()
	loggers := append([]jrpc2.RPCLogger(nil), me.loggers...)
	me.mu.Unlock()
	for _, logger := range loggers {
		fn(logger)
	}
}

func (me *MultiRPCLogger) LogRequest(ctx context.Context, req *jrpc2.Request) {
	me.each(func(l jrpc2.RPCLogger) { l.LogRequest(ctx, req) })
}

func (me *MultiRPCLogger) LogResponse(ctx context.Context, resp *jrpc2.Response) {
	me.each(func(l jrpc2.RPCLogger) { l.LogResponse(ctx, resp) })
}

func (me *MultiRPCLogger) LogCallbackRequestRaw(ctx context.Context, method string, params any) {
	me.each(func(l jrpc2.RPCLogger) {
		if cl, ok := l.(CallbackRPCLogger); ok {
			cl.LogCallbackRequestRaw(ctx, method, params)
		}
	})
}

func (me *MultiRPCLogger) LogCallbackResponse(ctx context.Context, resp *jrpc2.Response) {
	me.each(func(l jrpc2.RPCLogger) {
		if cl, ok := l.(CallbackRPCLogger); ok {
			cl.LogCallbackResponse(ctx, resp)
		}
	})
}

func (me *MultiRPCLogger) AddLogger(logger jrpc2.RPCLogger) {
	me.mu.Lock()
	defer me.mu.Unlock()
	me.loggers = append(me.loggers, logger)
}

// ZerologRPCLogger writes RPC traffic to a fixed logger. It never uses the
// request context's logger, which may forward to the client.
type ZerologRPCLogger struct {
	logger zerolog.Logger
}

var _ CallbackRPCLogger = (*ZerologRPCLogger)(nil)

func NewZerologRPCLogger(logger zerolog.Logger) *ZerologRPCLogger {
	return &ZerologRPCLogger{logger: logger}
}

func (me *ZerologRPCLogger) LogRequest(_ context.Context, req *jrpc2.Request) {
	me.logger.Debug().
		Str("direction", "incoming").
		Str("rpc_method", req.Method()).
		Str("rpc_id", req.ID()).
		RawJSON("params", rawOrNull(req.ParamString())).
		Msg("rpc request")
}

func (me *ZerologRPCLogger) LogResponse(_ context.Context, resp *jrpc2.Response) {
	evt := me.logger.Debug()
	if resp.Error() != nil {
		evt = me.logger.Warn().Err(resp.Error())
	}
	evt.
		Str("direction", "outgoing").
		Str("rpc_id", resp.ID()).
		RawJSON("result", rawOrNull(resp.ResultString())).
		Msg("rpc response")
}

func (me *ZerologRPCLogger) LogCallbackRequestRaw(_ context.Context, method string, params any) {
	me.logger.Trace().
		Str("direction", "outgoing").
		Str("rpc_method", method).
		Interface("params", params).
		Msg("rpc push")
}

func (me *ZerologRPCLogger) LogCallbackResponse(_ context.Context, resp *jrpc2.Response) {
	me.logger.Trace().
		Str("direction", "incoming").
		Str("rpc_id", resp.ID()).
		RawJSON("result", rawOrNull(resp.ResultString())).
		Msg("rpc callback response")
}

func rawOrNull(s string) []byte {
	if s == "" {
		return []byte("null")
	}
	return []byte(s)
}

func ApplyRequestToZerolog(ctx context.Context, req *jrpc2.Request) context.Context {
	return zerolog.Ctx(ctx).With().
		Str("rpc_method", req.Method()).
		Str("rpc_id", req.ID()).
		Logger().
		WithContext(ctx)
}

// ApplyClientToZerolog returns ctx with a logger that also sends every record
// at min or above to client as window/logMessage.
func ApplyClientToZerolog(ctx context.Context, client Client, min zerolog.Level) context.Context {
	if min == zerolog.Disabled || client == nil {
		return ctx
	}
	logger := zerolog.Ctx(ctx).Hook(&clientHook{client: client, ctx: ctx, min: min})
	return logger.WithContext(ctx)
}

type clientHook struct {
	client Client
	ctx    context.Context
	min    zerolog.Level
}

func (me *clientHook) Run(_ *zerolog.Event, level zerolog.Level, msg string) {
	if level < me.min || level == zerolog.NoLevel || msg == "" {
		return
	}
	// the client may already be gone
	_ = me.client.LogMessage(me.ctx, &LogMessageParams{
		Type:    ParseMessageTypeFromZerolog(level.String()),
		Message: msg,
	})
}

// ParseMessageTypeFromZerolog converts a zerolog level name to an LSP MessageType.
func ParseMessageTypeFromZerolog(level string) MessageType {
	switch level {
	case "fatal", "panic", "error":
		return Error
	case "warn":
		return Warning
	case "info":
		return Info
	case "debug", "trace":
		return Debug
	default:
		return Log
	}
}
