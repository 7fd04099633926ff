package protocol

import (
	"context"
)

// Client is the set of server-to-client messages the language server sends.
type Client interface {
	PublishDiagnostics(ctx context.Context, params *PublishDiagnosticsParams) error
	ShowMessage(ctx context.Context, params *ShowMessageParams) error
	LogMessage(ctx context.Context, params *LogMessageParams) error
}

// ClientDispatcher implements Client over a Callbacker.
type ClientDispatcher struct {
	sender Callbacker
}

var _ Client = (*ClientDispatcher)(nil)

func NewClientDispatcher(sender Callbacker) *ClientDispatcher {
	return &ClientDispatcher{sender: sender}
}

func (me *ClientDispatcher) PublishDiagnostics(ctx context.Context, params *PublishDiagnosticsParams) error {
	if params.Diagnostics == nil {
		params.Diagnostics = []Diagnostic{}
	}
	return createNotify(ctx, me.sender, MethodPublishDiagnostics, params)
}

func (me *ClientDispatcher) ShowMessage(ctx context.Context, params *ShowMessageParams) error {
	return createNotify(ctx, me.sender, MethodShowMessage, params)
}

func (me *ClientDispatcher) LogMessage(ctx context.Context, params *LogMessageParams) error {
	return createNotify(ctx, me.sender, MethodLogMessage, params)
}
