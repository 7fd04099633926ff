package protocol_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/walteh/chtlls/pkg/lsp/protocol"
)

type mockServer struct {
	mock.Mock
}

var _ protocol.Server = (*mockServer)(nil)

func (m *mockServer) Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	args := m.Called(ctx, params)
	res, _ := args.Get(0).(*protocol.InitializeResult)
	return res, args.Error(1)
}

func (m *mockServer) Initialized(ctx context.Context, params *protocol.InitializedParams) error {
	return m.Called(ctx, params).Error(0)
}

func (m *mockServer) Shutdown(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockServer) Exit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockServer) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	return m.Called(ctx, params).Error(0)
}

func (m *mockServer) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	return m.Called(ctx, params).Error(0)
}

func (m *mockServer) DidSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error {
	return m.Called(ctx, params).Error(0)
}

func (m *mockServer) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	return m.Called(ctx, params).Error(0)
}

func (m *mockServer) Completion(ctx context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	args := m.Called(ctx, params)
	res, _ := args.Get(0).(*protocol.CompletionList)
	return res, args.Error(1)
}

func (m *mockServer) Hover(ctx context.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	args := m.Called(ctx, params)
	res, _ := args.Get(0).(*protocol.Hover)
	return res, args.Error(1)
}

func (m *mockServer) Definition(ctx context.Context, params *protocol.DefinitionParams) ([]protocol.Location, error) {
	args := m.Called(ctx, params)
	res, _ := args.Get(0).([]protocol.Location)
	return res, args.Error(1)
}

func (m *mockServer) Formatting(ctx context.Context, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	args := m.Called(ctx, params)
	res, _ := args.Get(0).([]protocol.TextEdit)
	return res, args.Error(1)
}

func (m *mockServer) SemanticTokensFull(ctx context.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	args := m.Called(ctx, params)
	res, _ := args.Get(0).(*protocol.SemanticTokens)
	return res, args.Error(1)
}

func (m *mockServer) Diagnostic(ctx context.Context, params *protocol.DocumentDiagnosticParams) (*protocol.FullDocumentDiagnosticReport, error) {
	args := m.Called(ctx, params)
	res, _ := args.Get(0).(*protocol.FullDocumentDiagnosticReport)
	return res, args.Error(1)
}

func (m *mockServer) DidChangeConfiguration(ctx context.Context, params *protocol.DidChangeConfigurationParams) error {
	return m.Called(ctx, params).Error(0)
}

func (m *mockServer) ExecuteCommand(ctx context.Context, params *protocol.ExecuteCommandParams) (any, error) {
	args := m.Called(ctx, params)
	return args.Get(0), args.Error(1)
}
